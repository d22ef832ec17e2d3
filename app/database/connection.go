package database

import (
	"context"
	"fmt"
)

type Options struct {
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MongoURI      string
	MongoDB       string
	PageSize      int
}

// Open connects to the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return NewSQLiteStore(opts.Path, opts.PageSize)
	case "redis":
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.PageSize)
	case "mongo":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDB, opts.PageSize)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", opts.Driver)
	}
}
