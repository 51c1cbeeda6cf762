package deploy

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	serviceNameRe = regexp.MustCompile(`^[a-z][a-z0-9-]{0,62}$`)
	envKeyRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathRe        = regexp.MustCompile(`^/`)
)

// Errors name fields by their descriptor keys.
func init() {
	validation.ErrorTag = "yaml"
}

// Validate checks the descriptor and the references between its sections.
func (d Descriptor) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Match(serviceNameRe)),
		validation.Field(&d.Type, validation.Required, validation.In(TypeWeb, TypeWorker)),
		validation.Field(&d.Command, validation.Required),
		validation.Field(&d.Ports, validation.When(d.Type == TypeWeb, validation.Required)),
		validation.Field(&d.Env, validation.By(uniqueEnvKeys)),
		validation.Field(&d.Routes,
			validation.When(d.Type == TypeWorker, validation.Empty.Error("workers cannot expose routes")),
			validation.Each(validation.By(func(v interface{}) error {
				return d.declared(v.(Route).Port)
			})),
		),
		validation.Field(&d.HealthChecks, validation.Each(validation.By(func(v interface{}) error {
			hc := v.(HealthCheck)
			if hc.HTTP == nil {
				return nil
			}
			return d.declared(hc.HTTP.Port)
		}))),
	)
}

func (d Descriptor) declared(port int) error {
	if !d.hasPort(port) {
		return fmt.Errorf("port %d is not declared in ports", port)
	}
	return nil
}

func uniqueEnvKeys(v interface{}) error {
	seen := map[string]bool{}
	for _, e := range v.([]EnvVar) {
		if seen[e.Key] {
			return fmt.Errorf("duplicate key %s", e.Key)
		}
		seen[e.Key] = true
	}
	return nil
}

func (p Port) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&p.Protocol, validation.Required, validation.In("http", "http2", "tcp")),
	)
}

func (e EnvVar) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Key, validation.Required, validation.Match(envKeyRe)),
		validation.Field(&e.Value,
			validation.When(e.Secret == "", validation.Required.Error("value or secret is required")),
			validation.When(e.Secret != "", validation.Empty.Error("cannot be set together with secret")),
		),
	)
}

func (r Route) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, validation.Match(pathRe)),
		validation.Field(&r.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (h HTTPCheck) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&h.Path, validation.Required, validation.Match(pathRe)),
	)
}

func (h HealthCheck) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.HTTP, validation.Required),
		validation.Field(&h.InitialDelaySeconds, validation.Min(0)),
		validation.Field(&h.IntervalSeconds, validation.Required, validation.Min(1)),
		validation.Field(&h.TimeoutSeconds,
			validation.Required,
			validation.Min(1),
			validation.By(func(interface{}) error {
				if h.IntervalSeconds > 0 && h.TimeoutSeconds > h.IntervalSeconds {
					return errors.New("must not exceed interval_seconds")
				}
				return nil
			}),
		),
		validation.Field(&h.SuccessThreshold, validation.Required, validation.Min(1)),
		validation.Field(&h.FailureThreshold, validation.Required, validation.Min(1)),
	)
}
