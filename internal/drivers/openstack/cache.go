// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-bits/logg"
)

// redisCacher is an adapter around *redis.Client that implements the
// gopherpolicy.Cacher interface.
type redisCacher struct {
	*redis.Client
	ttl time.Duration
}

func newRedisCacher(rc *redis.Client) redisCacher {
	return redisCacher{rc, 5 * time.Minute}
}

// The cache key is the token ID itself, which must not end up in Redis verbatim.
func hashCacheKey(cacheKey string) string {
	sha256Hash := sha256.Sum256([]byte(cacheKey))
	return "horizon-keystone-" + hex.EncodeToString(sha256Hash[:])
}

// StoreTokenPayload implements the gopherpolicy.Cacher interface.
func (c redisCacher) StoreTokenPayload(ctx context.Context, cacheKey string, payload []byte) {
	err := c.Set(ctx, hashCacheKey(cacheKey), payload, c.ttl).Err()
	if err != nil {
		logg.Error("cannot cache token payload in Redis: %s", err.Error())
	}
}

// LoadTokenPayload implements the gopherpolicy.Cacher interface.
func (c redisCacher) LoadTokenPayload(ctx context.Context, cacheKey string) []byte {
	payload, err := c.Get(ctx, hashCacheKey(cacheKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		logg.Error("cannot retrieve token payload from Redis: %s", err.Error())
		return nil
	}
	return payload
}

// forgetToken removes a revoked token from the cache.
func (c redisCacher) forgetToken(ctx context.Context, cacheKey string) {
	err := c.Del(ctx, hashCacheKey(cacheKey)).Err()
	if err != nil {
		logg.Error("cannot remove token payload from Redis: %s", err.Error())
	}
}
