package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/npmmeta/pkg/cache"
	"github.com/matzehuels/npmmeta/pkg/config"
)

// storePrefix namespaces manifest keys in shared backends.
const storePrefix = "npmmeta:manifest:"

// openStore opens the configured store backend. noCache forces the null
// store, which makes every query go upstream.
func openStore(ctx context.Context, cfg config.Store, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendFile:
		return cache.NewFileCache(cfg.Dir)
	case config.BackendRedis:
		rc, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.NewPrefixed(rc, storePrefix), nil
	case config.BackendMongo:
		mc, err := cache.DialMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		if err := mc.EnsureIndexes(ctx); err != nil {
			mc.Close()
			return nil, err
		}
		return mc, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
