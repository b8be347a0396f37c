// Package app wires runtime dependencies into a single container handed
// to the HTTP layer.
package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ralvey/adpace/backend/internal/cache"
	"github.com/ralvey/adpace/backend/internal/config"
	"github.com/ralvey/adpace/backend/internal/observability"
	"github.com/ralvey/adpace/backend/internal/redisclient"
	evaluationsvc "github.com/ralvey/adpace/backend/internal/services/evaluation"
	"github.com/ralvey/adpace/backend/internal/sheets"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	Redis         *redis.Client
	RangeCache    *cache.RangeCache
	Sheets        *sheets.Client
	Evaluations   *evaluationsvc.Service
	Observability *observability.Provider
}

// NewContainer builds the dependency graph. Redis must be reachable;
// everything else degrades at request time rather than at startup.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, err
	}

	redisClient := redisclient.New(cfg.Redis)
	if err := redisclient.Ping(ctx, redisClient); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	rangeCache := cache.NewRangeCache(redisClient, cfg.Cache.RangeTTL)
	sheetsClient := sheets.NewClient(cfg.Sheets, rangeCache)
	evaluations := evaluationsvc.NewService(sheetsClient, cfg.Sheets.ConfigRange, obs, cfg.Location())

	return &Container{
		Config:        cfg,
		Redis:         redisClient,
		RangeCache:    rangeCache,
		Sheets:        sheetsClient,
		Evaluations:   evaluations,
		Observability: obs,
	}, nil
}

// Close releases held resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.Observability != nil {
		if err := c.Observability.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
