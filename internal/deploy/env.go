package deploy

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// LookupFunc finds a value by name; os.LookupEnv satisfies it.
type LookupFunc func(string) (string, bool)

// ResolveEnv returns the descriptor's environment with secrets filled in.
// Outside the platform a secret is read from lookup under the variable's own
// key, so POSTGRES_URI comes from the local POSTGRES_URI. Every missing secret
// is reported.
func (d *Descriptor) ResolveEnv(lookup LookupFunc) (map[string]string, error) {
	env := make(map[string]string, len(d.Env))
	var result *multierror.Error
	for _, e := range d.Env {
		if e.Secret == "" {
			env[e.Key] = e.Value
			continue
		}
		v, ok := lookup(e.Key)
		if !ok || v == "" {
			result = multierror.Append(result, fmt.Errorf("%s: secret %s is not set", e.Key, e.Secret))
			continue
		}
		env[e.Key] = v
	}
	return env, result.ErrorOrNil()
}
