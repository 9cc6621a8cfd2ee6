package searchbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	adapter    provider.Provider
}

// WithLogger enables structured logging of init and every backend call.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers provider operation metrics (counts, durations,
// hit totals) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithProvider replaces the adapter built from the config with p.
// The provider tag is still validated. Intended for tests and for
// backends living outside this module.
func WithProvider(p Provider) Option {
	return optionFunc(func(c *clientConfig) {
		c.adapter = p
	})
}
