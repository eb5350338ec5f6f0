// Copyright (c) 2026 Exvault. All rights reserved.

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/constants"
	"github.com/exvault/exvault/internal/platform/ctxutil"
)

// # Cache

// Cache decorates an [Extractor] with a Redis result cache.
//
// The cache key is a digest of the rendered page bytes, so the same document
// uploaded twice (or re-analyzed after a failed save) reuses the previous
// model response instead of paying for another call. Cache failures are
// logged and ignored; the model call is the fallback, never the other way
// around.
type Cache struct {
	inner  Extractor
	client *redis.Client
}

// NewCache wraps an extractor with a Redis-backed result cache.
func NewCache(inner Extractor, client *redis.Client) *Cache {
	return &Cache{inner: inner, client: client}
}

// Extract returns the cached result for these exact pages when present, and
// delegates to the wrapped extractor otherwise.
func (cache *Cache) Extract(ctx context.Context, pages []imaging.Frame) (Result, error) {
	logger := ctxutil.GetLogger(ctx)
	key := constants.RedisPrefixExtraction + Fingerprint(pages)

	if payload, err := cache.client.Get(ctx, key).Bytes(); err == nil {
		var result Result
		if err := json.Unmarshal(payload, &result); err == nil {
			logger.Info("extraction served from cache", slog.String("key", key))
			return result, nil
		}
		// A corrupt entry is dropped and recomputed.
		cache.client.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Warn("extraction cache read failed", slog.String("error", err.Error()))
	}

	result, err := cache.inner.Extract(ctx, pages)
	if err != nil {
		return Result{}, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := cache.client.Set(ctx, key, payload, constants.ExtractionCacheTTL).Err(); err != nil {
			logger.Warn("extraction cache write failed", slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// Fingerprint digests the rendered page bytes into a stable cache key
// component. Page order is significant.
func Fingerprint(pages []imaging.Frame) string {
	digest := sha256.New()
	for _, page := range pages {
		digest.Write(page.PNG)
	}
	return hex.EncodeToString(digest.Sum(nil))
}
