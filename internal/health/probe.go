// Package health runs a deployment health check against a running service the
// way the hosting platform does.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docclient/internal/deploy"
)

// ErrUnhealthy is returned once the failure threshold is reached.
var ErrUnhealthy = errors.New("service is unhealthy")

// Result summarizes a finished probe.
type Result struct {
	Attempts  int
	Successes int
	Failures  int
	// LastError is the most recent failed attempt, if any.
	LastError error
}

// Probe checks one URL with the timing and thresholds of a health check.
type Probe struct {
	URL              string
	InitialDelay     time.Duration
	Interval         time.Duration
	Timeout          time.Duration
	SuccessThreshold int
	FailureThreshold int

	Client *http.Client
	Log    hclog.Logger
}

// NewProbe builds a probe for the descriptor health check hc against baseURL.
func NewProbe(baseURL string, hc deploy.HealthCheck, log hclog.Logger) *Probe {
	path := "/"
	if hc.HTTP != nil {
		path = hc.HTTP.Path
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Probe{
		URL:              strings.TrimRight(baseURL, "/") + path,
		InitialDelay:     hc.InitialDelay(),
		Interval:         hc.Interval(),
		Timeout:          hc.Timeout(),
		SuccessThreshold: hc.SuccessThreshold,
		FailureThreshold: hc.FailureThreshold,
		Client:           &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Log:              log,
	}
}

// Run waits the initial delay and then checks once per interval until the
// consecutive success or failure threshold is met. It returns ErrUnhealthy
// when failures win and the context error when ctx ends first.
func (p *Probe) Run(ctx context.Context) (Result, error) {
	var res Result
	successThreshold := max(p.SuccessThreshold, 1)
	failureThreshold := max(p.FailureThreshold, 1)
	log := p.log().With("url", p.URL)

	if err := sleep(ctx, p.InitialDelay); err != nil {
		return res, err
	}

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	for {
		res.Attempts++
		if err := p.check(ctx); err != nil {
			res.Failures++
			res.Successes = 0
			res.LastError = err
			log.Warn("health check failed", "attempt", res.Attempts, "consecutive_failures", res.Failures, "error", err)
			if res.Failures >= failureThreshold {
				return res, fmt.Errorf("%w after %d consecutive failures: %v", ErrUnhealthy, res.Failures, err)
			}
		} else {
			res.Successes++
			res.Failures = 0
			log.Debug("health check passed", "attempt", res.Attempts, "consecutive_successes", res.Successes)
			if res.Successes >= successThreshold {
				log.Info("service is healthy", "attempts", res.Attempts)
				return res, nil
			}
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
	}
}

// check performs one GET bounded by the probe timeout. Any 2xx passes.
func (p *Probe) check(ctx context.Context) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func (p *Probe) interval() time.Duration {
	if p.Interval <= 0 {
		return time.Second
	}
	return p.Interval
}

func (p *Probe) log() hclog.Logger {
	if p.Log == nil {
		return hclog.NewNullLogger()
	}
	return p.Log
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
