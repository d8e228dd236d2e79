// Package bootstrap opens the stores a process needs and assembles the
// repositories on top of them.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/notifications"
	"chirp/internal/repository"
	"chirp/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipPostgres leaves the notification store closed. Tools that only
	// touch the aggregate store set it.
	SkipPostgres bool
	// SkipStorage leaves the image store unconfigured.
	SkipStorage bool
}

// Runtime is the set of connections and repositories a process runs on.
type Runtime struct {
	Mongo   *mongo.Client
	MongoDB *mongo.Database
	DB      *gorm.DB
	Redis   *redis.Client

	Posts   repository.PostRepository
	Users   repository.UserRepository
	Emitter notifications.Emitter
	Objects storage.ObjectStore
}

// InitRuntime connects to MongoDB, Postgres and Redis and builds the image
// store from cfg. Redis is optional: a nil client disables the cache and
// notification fan-out.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	client, mdb, err := database.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed: %w", err)
	}

	rt := &Runtime{
		Mongo:   client,
		MongoDB: mdb,
		Posts:   repository.NewPostRepository(mdb),
		Users:   repository.NewUserRepository(mdb),
	}

	if !opts.SkipPostgres {
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			rt.Close(context.Background())
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
	}

	rt.Redis = cache.InitRedis(cfg.RedisURL)

	if rt.DB != nil {
		rt.Emitter = notifications.NewDispatcher(
			repository.NewNotificationRepository(rt.DB),
			notifications.NewNotifier(rt.Redis),
		)
	}

	if !opts.SkipStorage {
		objects, err := NewObjectStore(cfg)
		if err != nil {
			rt.Close(context.Background())
			return nil, err
		}
		rt.Objects = objects
	}

	return rt, nil
}

// NewObjectStore builds the image store selected by STORAGE_BACKEND.
func NewObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	switch backend {
	case config.StorageCloudinary:
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			return nil, err
		}
		middleware.Logger.Info("Image storage configured", slog.String("backend", store.Name()))
		return store, nil
	case config.StorageLocal, "":
		store, err := storage.NewLocalStore(cfg.ImageUploadDir, cfg.PublicBaseURL, cfg.ImageMaxUploadSizeMB)
		if err != nil {
			return nil, err
		}
		middleware.Logger.Info("Image storage configured",
			slog.String("backend", store.Name()), slog.String("dir", store.Dir()))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// Close releases every open connection. It is safe on a partial runtime.
func (r *Runtime) Close(ctx context.Context) {
	if r.Mongo != nil {
		if err := r.Mongo.Disconnect(ctx); err != nil {
			middleware.Logger.Warn("mongodb disconnect failed", slog.String("error", err.Error()))
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
}
