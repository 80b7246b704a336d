package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartCache keeps cart snapshots for the lifetime of a session.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Set(ctx context.Context, sessionID string, state *domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when no Redis is configured; every Get is a miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.CartState, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, *domain.CartState) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
