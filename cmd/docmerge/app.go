package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/docmerge"
	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/internal/adapters/redis"
	"github.com/aretw0/docmerge/internal/config"
	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/persistence/middleware"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/aretw0/docmerge/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// app holds what every command builds from the configuration.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	client *backend.Client
}

// newApp loads the configuration named by --config. The default file is
// optional; an explicit one must exist.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if cfg.Log.Format == "json" {
		a.logger = logging.NewJSONTo(cmd.ErrOrStderr(), level)
	} else {
		a.logger = logging.New(level)
	}
	return a, nil
}

func (a *app) redis() *backend.Client {
	if a.client == nil {
		a.client = backend.NewClient(&backend.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
	}
	return a.client
}

func (a *app) storage() (ports.Storage, error) {
	var store ports.Storage
	switch a.cfg.Output.Backend {
	case "file":
		store = file.NewStorage(a.cfg.Output.Dir)
	case "memory":
		store = memory.NewStorage()
	case "redis":
		store = redis.NewFromClient(a.redis(),
			redis.WithPrefix(a.cfg.Redis.Prefix),
			redis.WithTTL(a.cfg.Output.TTL),
		)
	default:
		return nil, fmt.Errorf("unknown output backend %q", a.cfg.Output.Backend)
	}

	active, fallback, err := a.cfg.Output.Keys()
	if err != nil || active == nil {
		return store, err
	}
	return middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})), nil
}

func (a *app) referenceSource() ports.ReferenceSource {
	switch a.cfg.Data.ReferenceData {
	case "":
		return nil
	case "redis":
		return redis.NewReferenceSource(a.redis(), a.cfg.Redis.RefKey)
	}
	return file.NewReferenceSource(a.cfg.Data.ReferenceData)
}

// policyLocks serializes batches per policy. With the redis backend the lock
// is shared by every process writing to the same prefix.
func (a *app) policyLocks() *session.Manager {
	opts := []session.Option{session.WithLogger(a.logger)}
	if a.cfg.Output.Backend == "redis" {
		opts = append(opts, session.WithLocker(redis.NewLocker(a.redis(), a.cfg.Redis.Prefix)))
	}
	return session.NewManager(opts...)
}

// engine builds an Engine from the configuration; extra options win.
func (a *app) engine(extra ...docmerge.Option) (*docmerge.Engine, error) {
	store, err := a.storage()
	if err != nil {
		return nil, err
	}
	r := a.cfg.Rendering
	opts := []docmerge.Option{
		docmerge.WithLogger(a.logger),
		docmerge.WithStorage(store),
		docmerge.WithFormats(a.cfg.Formats()...),
		docmerge.WithExportWorkers(a.cfg.Output.Workers),
		docmerge.WithFieldMaps(file.NewFieldMapSource(a.cfg.Data.FieldMaps)),
		docmerge.WithSpecimen(r.Specimen),
		docmerge.WithMinimumPremiumSuffix(r.MinimumPremiumSuffix),
		docmerge.WithDateLayouts(r.ShortDate, r.LongDate),
		docmerge.WithRenewalText(r.RenewalText, r.NewBusinessText),
	}
	if src := a.referenceSource(); src != nil {
		opts = append(opts, docmerge.WithReferenceData(src))
	}
	opts = append(opts, docmerge.WithPolicyLocks(a.policyLocks()))
	return docmerge.New(append(opts, extra...)...)
}

func (a *app) Close() error {
	if a.client == nil {
		return nil
	}
	if err := a.client.Close(); err != nil && !errors.Is(err, backend.ErrClosed) {
		return err
	}
	return nil
}
