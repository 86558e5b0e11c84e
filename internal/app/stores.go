package app

import (
	"context"
	"fmt"
	"io"

	"github.com/kyleking/gh-metahistory/internal/config"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/kv/gist"
	"github.com/kyleking/gh-metahistory/internal/kv/postgres"
	"github.com/kyleking/gh-metahistory/internal/kv/s3"
)

// OpenStore builds the configured backend, wrapped in a read-through cache
// when cache.entries is positive. The returned closer releases backend
// resources and is never nil.
func OpenStore(ctx context.Context, cfg config.Config, getenv func(string) string) (kv.Store, io.Closer, error) {
	origin, closer, err := openOrigin(ctx, cfg, getenv)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache.Entries <= 0 {
		return origin, closer, nil
	}

	cached, err := kv.NewCachedStore(origin, cfg.Cache.Entries)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return cached, closer, nil
}

func openOrigin(ctx context.Context, cfg config.Config, getenv func(string) string) (kv.Store, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendGist:
		g := cfg.Store.Gist
		store, err := gist.New(gist.Config{
			ID:          g.ID,
			Host:        g.GistHost(),
			Token:       g.ResolveToken(getenv),
			Description: g.Description,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize gist store: %w", err)
		}
		return store, nopCloser{}, nil

	case config.BackendS3:
		s := cfg.Store.S3
		store, err := s3.New(s3.Config{
			Endpoint:  s.Endpoint,
			Region:    s.Region,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
			UseSSL:    s.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 store: %w", err)
		}
		return store, nopCloser{}, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.Store.Postgres.DSN, cfg.Store.Postgres.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return store, store, nil

	case config.BackendDisk:
		return kv.NewDiskStore(cfg.Store.Disk.Root), nopCloser{}, nil

	case config.BackendMemory:
		return kv.NewMemoryStore(), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
