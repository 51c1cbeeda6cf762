package deploy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "docserver", d.Name)
	assert.Equal(t, TypeWeb, d.Type)
	assert.NotEmpty(t, d.Command)
	assert.Equal(t, []Port{{Port: 8000, Protocol: "http"}}, d.Ports)
	assert.Equal(t, []Route{{Path: "/", Port: 8000}}, d.Routes)

	keys := make([]string, 0, len(d.Env))
	for _, e := range d.Env {
		keys = append(keys, e.Key)
	}
	assert.ElementsMatch(t, []string{
		"JWT_SECRET_KEY", "POSTGRES_URI", "PGPASSWORD", "HOST", "PORT", "LOG_LEVEL", "REDIS_HOST", "REDIS_PORT",
	}, keys)

	hc, ok := d.HealthCheck()
	require.True(t, ok)
	assert.Equal(t, &HTTPCheck{Port: 8000, Path: "/health"}, hc.HTTP)
	assert.Equal(t, 30*time.Second, hc.InitialDelay())
	assert.Equal(t, 15*time.Second, hc.Interval())
	assert.Equal(t, 5*time.Second, hc.Timeout())
	assert.Equal(t, 1, hc.SuccessThreshold)
	assert.Equal(t, 3, hc.FailureThreshold)
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded descriptor", func(t *testing.T) {
		d, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "docserver", d.Name)
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "svc.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: worker-svc
type: worker
command: ["/bin/worker"]
env:
  - key: LOG_LEVEL
    value: DEBUG
`), 0o644))

		d, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, TypeWorker, d.Type)
		_, ok := d.HealthCheck()
		assert.False(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "read descriptor")
	})
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "name: a\ntype: web\ncommand: [x]\nreplicas: 3\n",
			wantErr: "replicas",
		},
		{
			name:    "missing name",
			yaml:    "type: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\n",
			wantErr: "name",
		},
		{
			name:    "bad type",
			yaml:    "name: a\ntype: cron\ncommand: [x]\n",
			wantErr: "type",
		},
		{
			name:    "web without ports",
			yaml:    "name: a\ntype: web\ncommand: [x]\n",
			wantErr: "ports",
		},
		{
			name:    "port out of range",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 70000, protocol: http}]\n",
			wantErr: "65535",
		},
		{
			name:    "bad protocol",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: udp}]\n",
			wantErr: "protocol",
		},
		{
			name:    "env with value and secret",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\nenv: [{key: A, value: b, secret: c}]\n",
			wantErr: "cannot be set together with secret",
		},
		{
			name:    "env with neither",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\nenv: [{key: A}]\n",
			wantErr: "value or secret is required",
		},
		{
			name:    "duplicate env key",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\nenv: [{key: A, value: b}, {key: A, value: c}]\n",
			wantErr: "duplicate key A",
		},
		{
			name:    "route to undeclared port",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\nroutes: [{path: /, port: 81}]\n",
			wantErr: "port 81 is not declared",
		},
		{
			name:    "route without leading slash",
			yaml:    "name: a\ntype: web\ncommand: [x]\nports: [{port: 80, protocol: http}]\nroutes: [{path: api, port: 80}]\n",
			wantErr: "path",
		},
		{
			name: "timeout longer than interval",
			yaml: `name: a
type: web
command: [x]
ports: [{port: 80, protocol: http}]
health_checks:
  - http: {port: 80, path: /health}
    interval_seconds: 5
    timeout_seconds: 10
    success_threshold: 1
    failure_threshold: 3
`,
			wantErr: "must not exceed interval_seconds",
		},
		{
			name: "zero failure threshold",
			yaml: `name: a
type: web
command: [x]
ports: [{port: 80, protocol: http}]
health_checks:
  - http: {port: 80, path: /health}
    interval_seconds: 5
    timeout_seconds: 1
    success_threshold: 1
`,
			wantErr: "failure_threshold",
		},
		{
			name: "health check on undeclared port",
			yaml: `name: a
type: web
command: [x]
ports: [{port: 80, protocol: http}]
health_checks:
  - http: {port: 9000, path: /health}
    interval_seconds: 5
    timeout_seconds: 1
    success_threshold: 1
    failure_threshold: 3
`,
			wantErr: "port 9000 is not declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	out, err := Marshal(d)
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestResolveEnv(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)

	t.Run("all secrets present", func(t *testing.T) {
		secrets := map[string]string{
			"JWT_SECRET_KEY": "jwt",
			"POSTGRES_URI":   "postgres://app@db:5432/docs",
			"PGPASSWORD":     "pw",
		}
		env, err := d.ResolveEnv(func(k string) (string, bool) {
			v, ok := secrets[k]
			return v, ok
		})
		require.NoError(t, err)
		assert.Equal(t, "jwt", env["JWT_SECRET_KEY"])
		assert.Equal(t, "8000", env["PORT"])
		assert.Equal(t, "0.0.0.0", env["HOST"])
		assert.Equal(t, "6379", env["REDIS_PORT"])
	})

	t.Run("missing secrets are all reported", func(t *testing.T) {
		_, err := d.ResolveEnv(func(string) (string, bool) { return "", false })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
		assert.Contains(t, err.Error(), "POSTGRES_URI")
		assert.Contains(t, err.Error(), "PGPASSWORD")
	})
}
