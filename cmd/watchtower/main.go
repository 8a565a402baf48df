package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchtower/internal/app"
	logx "watchtower/pkg/logx"
)

func main() {
	var (
		cfgPath  string
		once     bool
		watch    bool
		interval time.Duration
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.BoolVar(&once, "once", false, "run a single cycle and exit (default)")
	flag.BoolVar(&watch, "watch", false, "run continuously on the configured interval")
	flag.DurationVar(&interval, "interval", 0, "override watch interval (e.g. 5m)")
	flag.Parse()

	// Bootstrap logger for failures before the configured one exists.
	boot := logx.NewConsole("info")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{ConfigPath: cfgPath, Interval: interval})
	if err != nil {
		boot.Error("startup failed", logx.Err(err))
		os.Exit(1)
	}

	if watch && !once {
		err = a.Watch(ctx)
	} else {
		err = a.RunOnce(ctx)
	}
	if err != nil {
		boot.Error("run failed", logx.Err(err))
		os.Exit(1)
	}
}
