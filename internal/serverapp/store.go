package serverapp

import (
	"context"
	"fmt"

	"ramzan/internal/blob"
	"ramzan/internal/config"
)

// OpenStore picks the blob backend named in the config. The returned close
// func is never nil.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (blob.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StoreFile, "":
		s, err := blob.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case config.StoreSQLite:
		s, err := blob.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.StorePostgres:
		s, err := blob.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return blob.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
