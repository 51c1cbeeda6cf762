// Package preflight verifies that the backing services named in a deployment
// descriptor's environment are reachable before the server is rolled out.
package preflight

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Check is one named dependency probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Checker runs the dependency checks derived from a resolved environment.
type Checker struct {
	checks []Check
	log    hclog.Logger
}

// FromEnv builds the Postgres and Redis checks from a descriptor environment.
// Configuration problems are returned before any connection is attempted.
func FromEnv(env map[string]string, log hclog.Logger) (*Checker, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	var result *multierror.Error
	if _, err := BuildPostgresDSN(env["POSTGRES_URI"], env["PGPASSWORD"]); err != nil {
		result = multierror.Append(result, err)
	}
	addr, err := RedisAddr(env["REDIS_HOST"], env["REDIS_PORT"])
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	uri, password := env["POSTGRES_URI"], env["PGPASSWORD"]
	return NewChecker(log,
		Check{Name: "postgres", Run: func(ctx context.Context) error {
			return CheckPostgres(ctx, uri, password)
		}},
		Check{Name: "redis", Run: func(ctx context.Context) error {
			return CheckRedis(ctx, addr)
		}},
	), nil
}

// NewChecker runs the given checks.
func NewChecker(log hclog.Logger, checks ...Check) *Checker {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Checker{checks: checks, log: log}
}

// Run executes every check and aggregates the failures.
func (c *Checker) Run(ctx context.Context) error {
	var result *multierror.Error
	for _, chk := range c.checks {
		if err := chk.Run(ctx); err != nil {
			c.log.Error("preflight check failed", "check", chk.Name, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", chk.Name, err))
			continue
		}
		c.log.Info("preflight check passed", "check", chk.Name)
	}
	return result.ErrorOrNil()
}

// Names lists the configured checks in order.
func (c *Checker) Names() []string {
	names := make([]string, len(c.checks))
	for i, chk := range c.checks {
		names[i] = chk.Name
	}
	return names
}
