// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/easypg"
	"github.com/sapcc/go-bits/errext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/must"
	"github.com/sapcc/go-bits/osext"
	"github.com/sapcc/go-bits/pluggable"
)

// Possible values for Configuration.SessionBackend.
const (
	CookieSessionBackend   = "cookie"
	DatabaseSessionBackend = "database"
)

// Configuration contains all configuration values that are not specific to a
// certain driver.
type Configuration struct {
	// DefaultPageSize is used for users that have not chosen a page size in
	// their settings.
	DefaultPageSize int
	// MaxPageSize caps the page size that users can choose.
	MaxPageSize int
	// CinderAPIVersion is "1", "2" or "3". It decides which field names are
	// used when talking to Cinder.
	CinderAPIVersion string
	// PolicyPath points to a policy.json or policy.yaml file.
	PolicyPath string

	SessionBackend  string
	SessionTimeout  time.Duration
	SessionHashKey  []byte
	SessionBlockKey []byte //optional
	// SecureCookies sets the Secure flag on the session cookie. It can only be
	// disabled for local development.
	SecureCookies bool
}

// ParseConfiguration obtains a horizon.Configuration instance from the
// corresponding environment variables. Aborts on error.
func ParseConfiguration() Configuration {
	logg.Debug("parsing configuration...")
	var errs errext.ErrorSet

	cfg := Configuration{
		CinderAPIVersion: osext.GetenvOrDefault("HORIZON_CINDER_API_VERSION", "3"),
		PolicyPath:       osext.MustGetenv("HORIZON_POLICY_PATH"),
		SessionBackend:   osext.GetenvOrDefault("HORIZON_SESSION_BACKEND", CookieSessionBackend),
		SessionHashKey:   []byte(osext.MustGetenv("HORIZON_SESSION_HASH_KEY")),
		SessionBlockKey:  []byte(os.Getenv("HORIZON_SESSION_BLOCK_KEY")),
		SecureCookies:    !osext.GetenvBool("HORIZON_INSECURE_COOKIES"),
	}

	var err error
	cfg.DefaultPageSize, err = parsePositiveInt("HORIZON_PAGE_SIZE", "20")
	errs.Add(err)
	cfg.MaxPageSize, err = parsePositiveInt("HORIZON_MAX_PAGE_SIZE", "1000")
	errs.Add(err)
	cfg.SessionTimeout, err = time.ParseDuration(osext.GetenvOrDefault("HORIZON_SESSION_TIMEOUT", "1h"))
	if err != nil {
		errs.Addf("malformed HORIZON_SESSION_TIMEOUT: %s", err.Error())
	}

	errs.Append(cfg.Validate())
	errs.LogFatalIfError()
	return cfg
}

// Validate checks the consistency of this configuration.
func (cfg Configuration) Validate() (errs errext.ErrorSet) {
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		errs.Addf("HORIZON_PAGE_SIZE (%d) may not be larger than HORIZON_MAX_PAGE_SIZE (%d)", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	switch cfg.CinderAPIVersion {
	case CinderV1, CinderV2, CinderV3:
	default:
		errs.Addf("unsupported HORIZON_CINDER_API_VERSION: %q", cfg.CinderAPIVersion)
	}
	switch cfg.SessionBackend {
	case CookieSessionBackend, DatabaseSessionBackend:
	default:
		errs.Addf("unsupported HORIZON_SESSION_BACKEND: %q", cfg.SessionBackend)
	}
	if len(cfg.SessionHashKey) < 32 {
		errs.Addf("HORIZON_SESSION_HASH_KEY must be at least 32 bytes long")
	}
	switch len(cfg.SessionBlockKey) {
	case 0, 16, 24, 32:
	default:
		errs.Addf("HORIZON_SESSION_BLOCK_KEY must be 16, 24 or 32 bytes long (for AES-128, AES-192 or AES-256)")
	}
	if cfg.SessionTimeout <= 0 {
		errs.Addf("HORIZON_SESSION_TIMEOUT must be positive")
	}
	return errs
}

// ClampPageSize returns the given page size if it is within the configured
// bounds, or the default page size otherwise.
func (cfg Configuration) ClampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return cfg.DefaultPageSize
	}
	if pageSize > cfg.MaxPageSize {
		return cfg.MaxPageSize
	}
	return pageSize
}

func parsePositiveInt(key, defaultValue string) (int, error) {
	str := osext.GetenvOrDefault(key, defaultValue)
	val, err := strconv.Atoi(str)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("malformed %s: expected a positive integer, got %q", key, str)
	}
	return val, nil
}

// GetDatabaseURLFromEnvironment reads the HORIZON_DB_* environment variables.
func GetDatabaseURLFromEnvironment() (dbURL url.URL, dbName string) {
	dbName = osext.GetenvOrDefault("HORIZON_DB_NAME", "horizon")
	return must.Return(easypg.URLFrom(easypg.URLParts{
		HostName:          osext.GetenvOrDefault("HORIZON_DB_HOSTNAME", "localhost"),
		Port:              osext.GetenvOrDefault("HORIZON_DB_PORT", "5432"),
		UserName:          osext.GetenvOrDefault("HORIZON_DB_USERNAME", "postgres"),
		Password:          os.Getenv("HORIZON_DB_PASSWORD"),
		ConnectionOptions: os.Getenv("HORIZON_DB_CONNECTION_OPTIONS"),
		DatabaseName:      dbName,
	})), dbName
}

// GetRedisOptions returns a redis.Options by getting the required parameters
// from environment variables:
//
//	REDIS_PASSWORD, REDIS_HOSTNAME, REDIS_PORT, and REDIS_DB_NUM.
//
// The environment variable keys are prefixed with the provided prefix.
func GetRedisOptions(prefix string) (*redis.Options, error) {
	pass := os.Getenv(prefix + "_PASSWORD")
	host := osext.GetenvOrDefault(prefix+"_HOSTNAME", "localhost")
	port := osext.GetenvOrDefault(prefix+"_PORT", "6379")
	dbNum := osext.GetenvOrDefault(prefix+"_DB_NUM", "0")
	db, err := strconv.Atoi(dbNum)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %q", prefix+"_DB_NUM", dbNum)
	}

	return &redis.Options{
		Network:    "tcp",
		Password:   pass,
		Addr:       net.JoinHostPort(host, port),
		ClientName: bininfo.Component(),
		DB:         db,
	}, nil
}

// newDriver parses a config JSON as found in a HORIZON_DRIVER_* variable,
// initializes the respective driver, and unmarshals config parameters into it.
//
// This is the reusable part of the implementations for NewAuthDriver and NewBackendDriver.
func newDriver[P pluggable.Plugin](driverType string, registry pluggable.Registry[P], configJSON string, init func(P) error) (P, error) {
	var zero P // for error returns

	var cfg struct {
		PluginTypeID string          `json:"type"`
		Params       json.RawMessage `json:"params"`
	}
	err := UnmarshalJSONStrict([]byte(configJSON), &cfg)
	if err != nil {
		return zero, fmt.Errorf("cannot unmarshal %s config %q: %w", driverType, configJSON, err)
	}
	if len(cfg.Params) == 0 {
		// configJSON was just a type, e.g. `{"type":"unittest"}`
		cfg.Params = json.RawMessage("{}")
	}
	logg.Debug("initializing %s %q", driverType, configJSON)

	driver := registry.Instantiate(cfg.PluginTypeID)
	if any(driver) == nil {
		return zero, fmt.Errorf("no such %s: %q", driverType, cfg.PluginTypeID)
	}
	err = UnmarshalJSONStrict([]byte(cfg.Params), driver)
	if err != nil {
		return zero, fmt.Errorf("cannot unmarshal params for %s %q: %w", driverType, cfg.PluginTypeID, err)
	}
	err = init(driver)
	if err != nil {
		return zero, fmt.Errorf("could not initialize %s %q: %w", driverType, cfg.PluginTypeID, err)
	}
	return driver, nil
}

// UnmarshalJSONStrict is like yaml.UnmarshalStrict(), but for JSON.
func UnmarshalJSONStrict(buf []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
