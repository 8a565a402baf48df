//go:build !sqlite
// +build !sqlite

package state

import (
	"errors"

	logx "watchtower/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	_ = cfg
	_ = log
	return nil, errors.New("sqlite state not built: build with -tags sqlite")
}
