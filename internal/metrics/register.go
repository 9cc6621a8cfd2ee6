// Package metrics holds the Prometheus collectors for provider calls and
// gateway requests.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every searchbridge metric.
const Namespace = "searchbridge"

// registerOrReuse registers *c on reg. When an identical collector is
// already there, *c is swapped for it so that several clients on one
// registry write to the same series.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return fmt.Errorf("register metric: %w", err)
	}
	existing, ok := dup.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("metric already registered as %T", dup.ExistingCollector)
	}
	*c = existing
	return nil
}
