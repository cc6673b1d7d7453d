package cache

import (
	"context"
	"errors"
)

// AllProductsKey holds the cached "all products" listing.
const AllProductsKey = "all_products"

// Cache stores serialized listings by key.
//
// Every Invalidate bumps the key's generation. Readers that fill the cache
// from storage take the generation first and write with SetAt, so a fill
// that raced an eviction is dropped instead of resurrecting a stale value.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Generation reports how many times key has been invalidated.
	Generation(ctx context.Context, key string) (int64, error)
	// SetAt stores value only while key is still at generation gen.
	// It reports false when an eviction happened in between.
	SetAt(ctx context.Context, key string, gen int64, value []byte) (bool, error)
	// Invalidate evicts key. It is idempotent and reports no error; failures are logged.
	Invalidate(ctx context.Context, key string)
}

var ErrCacheMiss = errors.New("cache miss")
