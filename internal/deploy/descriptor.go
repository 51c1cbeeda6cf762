// Package deploy models the hosting platform descriptor of the document
// server: what runs, which port it exposes, the environment it needs and how
// the platform decides it is healthy.
package deploy

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	assets "docclient/deploy"
)

// Service types understood by the platform.
const (
	TypeWeb    = "web"
	TypeWorker = "worker"
)

// Descriptor is one deployable service.
type Descriptor struct {
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	Command      []string      `yaml:"command"`
	Ports        []Port        `yaml:"ports"`
	Env          []EnvVar      `yaml:"env"`
	Routes       []Route       `yaml:"routes"`
	HealthChecks []HealthCheck `yaml:"health_checks"`
}

// Port is a port the container listens on.
type Port struct {
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
}

// EnvVar sets one environment variable, either literally or from a
// platform secret.
type EnvVar struct {
	Key    string `yaml:"key"`
	Value  string `yaml:"value,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

// Route maps a public path prefix to a service port.
type Route struct {
	Path string `yaml:"path"`
	Port int    `yaml:"port"`
}

// HealthCheck is an HTTP check the platform runs against the service.
type HealthCheck struct {
	HTTP                *HTTPCheck `yaml:"http"`
	InitialDelaySeconds int        `yaml:"initial_delay_seconds"`
	IntervalSeconds     int        `yaml:"interval_seconds"`
	TimeoutSeconds      int        `yaml:"timeout_seconds"`
	SuccessThreshold    int        `yaml:"success_threshold"`
	FailureThreshold    int        `yaml:"failure_threshold"`
}

// HTTPCheck is the target of a health check.
type HTTPCheck struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

func (h HealthCheck) InitialDelay() time.Duration {
	return time.Duration(h.InitialDelaySeconds) * time.Second
}

func (h HealthCheck) Interval() time.Duration {
	return time.Duration(h.IntervalSeconds) * time.Second
}

func (h HealthCheck) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Parse decodes and validates a YAML descriptor. Unknown keys are rejected.
func Parse(data []byte) (*Descriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor %s: %w", d.Name, err)
	}
	return &d, nil
}

// Load reads the descriptor at path, or the embedded one when path is empty.
func Load(path string) (*Descriptor, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded document server descriptor.
func Default() (*Descriptor, error) {
	return Parse(assets.Manifest)
}

// Marshal renders d back to YAML.
func Marshal(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

// HealthCheck returns the first HTTP health check, if any.
func (d *Descriptor) HealthCheck() (HealthCheck, bool) {
	for _, hc := range d.HealthChecks {
		if hc.HTTP != nil {
			return hc, true
		}
	}
	return HealthCheck{}, false
}

func (d *Descriptor) hasPort(port int) bool {
	for _, p := range d.Ports {
		if p.Port == port {
			return true
		}
	}
	return false
}
