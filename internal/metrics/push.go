package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push replaces the job's metric group on a Prometheus Pushgateway with
// everything g gathers. Short-lived commands call it once before exiting.
func Push(ctx context.Context, gatewayURL, job string, g prometheus.Gatherer) error {
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
