// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"strings"
	"testing"
	"time"

	"github.com/sapcc/go-bits/assert"
)

func validConfig() Configuration {
	return Configuration{
		DefaultPageSize:  20,
		MaxPageSize:      100,
		CinderAPIVersion: CinderV3,
		SessionBackend:   CookieSessionBackend,
		SessionTimeout:   time.Hour,
		SessionHashKey:   []byte(strings.Repeat("k", 32)),
	}
}

func TestValidateConfiguration(t *testing.T) {
	errs := validConfig().Validate()
	if !errs.IsEmpty() {
		t.Errorf("expected valid configuration, got: %s", errs.Join(", "))
	}

	cfg := validConfig()
	cfg.DefaultPageSize = 200
	cfg.CinderAPIVersion = "4"
	cfg.SessionBackend = "memcached"
	cfg.SessionHashKey = []byte("short")
	cfg.SessionBlockKey = []byte("also short")
	cfg.SessionTimeout = 0
	errs = cfg.Validate()
	assert.DeepEqual(t, "errors", errs.Join("\n"), strings.Join([]string{
		"HORIZON_PAGE_SIZE (200) may not be larger than HORIZON_MAX_PAGE_SIZE (100)",
		`unsupported HORIZON_CINDER_API_VERSION: "4"`,
		`unsupported HORIZON_SESSION_BACKEND: "memcached"`,
		"HORIZON_SESSION_HASH_KEY must be at least 32 bytes long",
		"HORIZON_SESSION_BLOCK_KEY must be 16, 24 or 32 bytes long (for AES-128, AES-192 or AES-256)",
		"HORIZON_SESSION_TIMEOUT must be positive",
	}, "\n"))
}

func TestParseConfiguration(t *testing.T) {
	t.Setenv("HORIZON_POLICY_PATH", "/etc/horizon/policy.yaml")
	t.Setenv("HORIZON_SESSION_HASH_KEY", strings.Repeat("k", 32))
	t.Setenv("HORIZON_PAGE_SIZE", "50")

	cfg := ParseConfiguration()
	assert.DeepEqual(t, "DefaultPageSize", cfg.DefaultPageSize, 50)
	assert.DeepEqual(t, "MaxPageSize", cfg.MaxPageSize, 1000)
	assert.DeepEqual(t, "CinderAPIVersion", cfg.CinderAPIVersion, CinderV3)
	assert.DeepEqual(t, "SessionBackend", cfg.SessionBackend, CookieSessionBackend)
	assert.DeepEqual(t, "SessionTimeout", cfg.SessionTimeout, time.Hour)
	assert.DeepEqual(t, "SecureCookies", cfg.SecureCookies, true)

	t.Setenv("HORIZON_INSECURE_COOKIES", "true")
	cfg = ParseConfiguration()
	assert.DeepEqual(t, "SecureCookies", cfg.SecureCookies, false)
}

func TestClampPageSize(t *testing.T) {
	cfg := validConfig()
	assert.DeepEqual(t, "unset", cfg.ClampPageSize(0), 20)
	assert.DeepEqual(t, "negative", cfg.ClampPageSize(-5), 20)
	assert.DeepEqual(t, "in range", cfg.ClampPageSize(50), 50)
	assert.DeepEqual(t, "too large", cfg.ClampPageSize(5000), 100)
}

func TestGetRedisOptions(t *testing.T) {
	t.Setenv("HORIZON_REDIS_HOSTNAME", "redis.example.com")
	t.Setenv("HORIZON_REDIS_DB_NUM", "3")
	opts, err := GetRedisOptions("HORIZON_REDIS")
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "address", opts.Addr, "redis.example.com:6379")
	assert.DeepEqual(t, "database", opts.DB, 3)

	t.Setenv("HORIZON_REDIS_DB_NUM", "zero")
	_, err = GetRedisOptions("HORIZON_REDIS")
	if err == nil {
		t.Error("expected error for malformed HORIZON_REDIS_DB_NUM")
	}
}

type strictTarget struct {
	Name string `json:"name"`
}

func TestUnmarshalJSONStrict(t *testing.T) {
	var target strictTarget
	err := UnmarshalJSONStrict([]byte(`{"name":"foo"}`), &target)
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "name", target.Name, "foo")

	err = UnmarshalJSONStrict([]byte(`{"name":"foo","extra":1}`), &target)
	if err == nil {
		t.Error("expected error for unknown field")
	}
}
