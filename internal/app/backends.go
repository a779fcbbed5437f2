package app

import (
	"context"
	"database/sql"
	"fmt"

	authmem "pawtastic/internal/adapters/auth/memory"
	"pawtastic/internal/adapters/auth/gotrue"
	"pawtastic/internal/adapters/storage/memory"
	"pawtastic/internal/adapters/storage/postgres"
	"pawtastic/internal/adapters/supabase/realtime"
	"pawtastic/internal/adapters/supabase/rest"
	"pawtastic/internal/platform/config"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// Backends son las implementaciones de los puertos elegidas por config.
type Backends struct {
	Auth backend.AuthAPI
	Data backend.DataAPI
	Feed backend.ChangeFeed

	closers []func() error
}

// Close libera lo que abrió NewBackends, en orden inverso.
func (b *Backends) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// NewBackends arma auth y datos según cfg. Con gotrue arranca el refresco
// de tokens en background hasta Close.
func NewBackends(cfg config.Config, log logger.Logger) (*Backends, error) {
	log = logger.OrNop(log)
	b := &Backends{}

	var token func() string

	switch cfg.AuthProvider {
	case config.AuthGoTrue:
		gt, err := gotrue.NewClient(gotrue.Config{
			BaseURL:        cfg.SupabaseURL,
			APIKey:         cfg.SupabaseAnonKey,
			ServiceRoleKey: cfg.SupabaseServiceRoleKey,
			Timeout:        cfg.HTTPTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("gotrue: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			gt.KeepAlive(ctx)
		}()
		b.closers = append(b.closers, func() error {
			cancel()
			<-done
			return nil
		})
		b.Auth = gt
		token = gt.AccessToken
	default:
		b.Auth = authmem.New()
	}

	switch cfg.DataProvider {
	case config.DataPostgres:
		db, err := postgres.Open(cfg.DBDSN)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		b.Data = postgres.NewData(db)
		b.Feed = postgres.NewFeed(db, log)

	case config.DataSupabase:
		data, err := rest.NewClient(rest.Config{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseAnonKey,
			Timeout: cfg.HTTPTimeout,
		}, token, log)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("supabase rest: %w", err)
		}
		feed, err := realtime.NewClient(realtime.Config{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseAnonKey,
		}, token, log)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("supabase realtime: %w", err)
		}
		b.Data = data
		b.Feed = feed

	default:
		store := memory.NewStore()
		b.Data = store
		b.Feed = store
	}

	log.Info("backends ready", map[string]any{"auth": cfg.AuthProvider, "data": cfg.DataProvider})
	return b, nil
}

// OpenDB abre Postgres para comandos que no levantan la app (migrate).
func OpenDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("%w: DB_DSN required", config.ErrInvalidConfig)
	}
	return postgres.Open(cfg.DBDSN)
}
