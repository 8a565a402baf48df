package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	logx "watchtower/pkg/logx"
)

// Service fans one message out to every configured sink.
//
// Failures are logged per destination and never block delivery to the other
// sinks; there is no retry within a cycle (the seen-id set makes the next
// cycle's duplicate cheap, a stuck retry loop is not). A small token bucket
// keeps bursts of notifications under webhook rate limits.
type Service struct {
	log     logx.Logger
	sinks   []Sink
	limiter *rate.Limiter

	sendTimeout time.Duration
}

func NewService(sinks []Sink, ratePerSec int, log logx.Logger) *Service {
	if ratePerSec <= 0 {
		ratePerSec = 3
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:         log,
		sinks:       sinks,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		sendTimeout: 10 * time.Second,
	}
}

// Enabled reports whether any destination is actually configured.
func (s *Service) Enabled() bool { return len(s.sinks) > 0 }

// Send delivers m to every sink, in order.
func (s *Service) Send(ctx context.Context, m Message) {
	for _, sink := range s.sinks {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := sink.Send(callCtx, m)
		cancel()
		if err != nil {
			s.log.Error("notification delivery failed",
				logx.String("sink", sink.Name()),
				logx.String("headline", m.Headline),
				logx.Err(err))
			continue
		}
		s.log.Debug("notification delivered", logx.String("sink", sink.Name()))
	}
}
