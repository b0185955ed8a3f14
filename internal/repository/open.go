package repository

import (
	"context"
	"fmt"

	"github.com/deanDev5200/web-aspirasi/internal/config"
	"github.com/deanDev5200/web-aspirasi/internal/db"
)

// pooledOxiRepo owns its pool and closes it with the store.
type pooledOxiRepo struct {
	*OxiAspirasiRepo
	pool *db.Pool
}

func (r *pooledOxiRepo) Close() error {
	r.pool.Close()
	return nil
}

// Open connects the backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config) (SubmissionStore, error) {
	switch cfg.Store {
	case config.StoreOxiDB:
		pool, err := db.NewPool(cfg.OxiDBHost, cfg.OxiDBPort, cfg.PoolSize)
		if err != nil {
			return nil, err
		}
		return &pooledOxiRepo{OxiAspirasiRepo: NewOxiAspirasiRepo(pool), pool: pool}, nil
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	}
	return nil, fmt.Errorf("repository: unknown store %q", cfg.Store)
}
