// Package storage selects and opens the persistent key-value backend
// named by the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/digivault/digivault/internal/config"
	"github.com/digivault/digivault/internal/kv"
	"github.com/digivault/digivault/internal/kv/memkv"
	"github.com/digivault/digivault/internal/kv/pgkv"
	"github.com/digivault/digivault/internal/kv/s3kv"
)

// Open returns the kv.Store backend named by cfg.Storage. The postgres
// backend runs its migrations before returning.
func Open(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memkv.New(), nil
	case config.StoragePostgres:
		return pgkv.New(ctx, cfg.DatabaseDSN)
	case config.StorageS3:
		return s3kv.New(ctx, s3kv.Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
