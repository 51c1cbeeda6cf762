// Package update implements the update-text, update-file and update-metadata
// commands.
package update

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"docclient/internal/client"
	"docclient/internal/cmd/base"
	"docclient/internal/metrics"
	"docclient/internal/model"
)

const metricsJob = "docclient"

// commonFlags are shared by the update commands.
type commonFlags struct {
	flagURL   string
	flagToken string
}

func (f *commonFlags) register(fs *base.FlagSet, c *base.Command) {
	fs.StringVar(&f.flagURL, "url", c.Config.API.BaseURL,
		"Base URL of the document API. Defaults to DOCAPI_URL.")
	fs.StringVar(&f.flagToken, "token", c.Config.API.Token,
		"Bearer token. Defaults to DOCAPI_TOKEN; empty sends no Authorization header.")
}

// optionFlags are the optional fields of text and file updates.
type optionFlags struct {
	flagMetadata   base.JSONFlag
	flagRules      base.JSONFlag
	flagStrategy   string
	flagUseColpali base.OptionalBool
}

func (f *optionFlags) register(fs *base.FlagSet) {
	fs.Var(&f.flagMetadata, "metadata", "Metadata as a JSON object.")
	fs.Var(&f.flagRules, "rules", "Rules as a JSON array.")
	fs.StringVar(&f.flagStrategy, "strategy", "",
		"Update strategy, e.g. \"add\". Omitted when empty.")
	fs.Var(&f.flagUseColpali, "use-colpali",
		"Send use_colpali=true|false. Omitted unless given.")
}

func (f *optionFlags) options() (*client.UpdateOptions, error) {
	opts := &client.UpdateOptions{
		UpdateStrategy: f.flagStrategy,
		UseColpali:     f.flagUseColpali.Value,
	}
	if f.flagMetadata.IsSet() {
		md, ok := f.flagMetadata.Value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("-metadata must be a JSON object")
		}
		opts.Metadata = md
	}
	if f.flagRules.IsSet() {
		rules, ok := f.flagRules.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("-rules must be a JSON array")
		}
		opts.Rules = rules
	}
	return opts, nil
}

// session is one command invocation's client plus its metrics registry.
type session struct {
	*base.Command
	client *client.Client
	reg    *prometheus.Registry
}

func newSession(c *base.Command, baseURL string) (*session, error) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewClientMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &session{
		Command: c,
		client:  client.New(baseURL, client.WithLogger(c.Log.Named("client")), client.WithMetrics(m)),
		reg:     reg,
	}, nil
}

// finish prints doc or reports err, pushes metrics when a gateway is
// configured and returns the exit code.
func (s *session) finish(ctx context.Context, doc *model.Document, err error) int {
	if gw := s.Config.Metrics.PushGateway; gw != "" {
		if perr := metrics.Push(ctx, gw, metricsJob, s.reg); perr != nil {
			s.Log.Warn("metrics push failed", "error", perr)
		}
	}

	if err != nil {
		s.UI.Error(err.Error())
		return 1
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.UI.Error(fmt.Sprintf("error encoding document: %v", err))
		return 1
	}
	s.UI.Output(string(out))
	return 0
}
