// Package telemetry provides the ambient logging and metrics surface the
// rest of the node reports to: a zap logger construction helper matching
// the per-component, named-logger convention the rest of this repo uses,
// and a prometheus-backed implementation of consensus.Metrics.
package telemetry

import (
	"go.uber.org/zap"
)

// LogConfig controls the root logger's verbosity and output encoding.
type LogConfig struct {
	Debug bool
	JSON  bool
}

// NewLogger builds the node's root *zap.Logger. Every subsystem then scopes
// it with .Named("<component>") the way internal/consensus, internal/chain,
// and internal/tracker already do, so log lines are attributable without
// per-component constructors.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.JSON {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Debug {
		zcfg.Level.SetLevel(zap.DebugLevel)
	} else {
		zcfg.Level.SetLevel(zap.InfoLevel)
	}
	return zcfg.Build()
}
