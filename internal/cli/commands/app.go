package commands

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/config"
	"github.com/conduit-lang/marvelous/internal/logging"
	"github.com/conduit-lang/marvelous/internal/query"
)

// app is the configuration and logger a command runs with
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	opts   *rootOptions
}

func (o *rootOptions) load() (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, &configError{err: err}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, &configError{err: err}
	}
	return &app{cfg: cfg, logger: logger, opts: o}, nil
}

func (a *app) client(extra ...query.Option) (*query.Client, error) {
	opts := []query.Option{query.WithLogger(a.logger)}
	if a.opts.doer != nil {
		opts = append(opts, query.WithDoer(a.opts.doer))
	}
	client, err := query.NewClient(a.cfg, append(opts, extra...)...)
	if err != nil {
		return nil, &configError{err: err}
	}
	return client, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
