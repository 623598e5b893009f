// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-bits/assert"
)

func TestRedisCacher(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	c := newRedisCacher(rc)

	if payload := c.LoadTokenPayload(ctx, "token-1"); payload != nil {
		t.Errorf("expected cache miss, got %q", string(payload))
	}

	c.StoreTokenPayload(ctx, "token-1", []byte(`{"token":{}}`))
	assert.DeepEqual(t, "payload", string(c.LoadTokenPayload(ctx, "token-1")), `{"token":{}}`)

	// the token ID is not stored in Redis verbatim
	assert.DeepEqual(t, "keys", mr.Keys(), []string{hashCacheKey("token-1")})

	// forgotten tokens are not served from the cache anymore
	c.forgetToken(ctx, "token-1")
	if payload := c.LoadTokenPayload(ctx, "token-1"); payload != nil {
		t.Errorf("expected cache miss after forgetToken, got %q", string(payload))
	}

	// cached payloads expire
	c.StoreTokenPayload(ctx, "token-2", []byte(`{"token":{}}`))
	mr.FastForward(4 * time.Minute)
	if payload := c.LoadTokenPayload(ctx, "token-2"); payload == nil {
		t.Error("expected cache hit before TTL expiry")
	}
	mr.FastForward(2 * time.Minute)
	if payload := c.LoadTokenPayload(ctx, "token-2"); payload != nil {
		t.Errorf("expected cache miss after TTL expiry, got %q", string(payload))
	}
}

func TestRedisCacherUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rc.Close()
	c := newRedisCacher(rc)
	mr.Close()

	// errors are logged, and the token is validated against Keystone instead
	c.StoreTokenPayload(ctx, "token-1", []byte(`{}`))
	if payload := c.LoadTokenPayload(ctx, "token-1"); payload != nil {
		t.Errorf("expected cache miss, got %q", string(payload))
	}
}
