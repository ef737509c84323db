// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/velarno/copper/pkg/catalog"
	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/defaults"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/serializer"
	"github.com/velarno/copper/pkg/store"
)

// Environment variables read by Load.
const (
	EnvConfig         = "COPPER_CONFIG"
	EnvBaseURL        = "COPPER_BASE_URL"
	EnvCatalogueURL   = "COPPER_CATALOGUE_URL"
	EnvAPIKey         = "CDS_API_KEY"
	EnvTimeout        = "COPPER_TIMEOUT"
	EnvRateLimit      = "COPPER_RATE_LIMIT"
	EnvConcurrency    = "COPPER_CONCURRENCY"
	EnvCacheSize      = "COPPER_CACHE_SIZE"
	EnvDBDriver       = "COPPER_DB_DRIVER"
	EnvDBDSN          = "COPPER_DB_DSN"
	EnvBudget         = "COPPER_BUDGET"
	EnvSplitParameter = "COPPER_SPLIT_PARAMETER"
	EnvCostMethod     = "COPPER_COST_METHOD"
	EnvOutput         = "COPPER_OUTPUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFile        = "COPPER_LOG_FILE"
	EnvDownloadDir    = "COPPER_DOWNLOAD_DIR"
	EnvS3Endpoint     = "COPPER_S3_ENDPOINT"
	EnvS3Bucket       = "COPPER_S3_BUCKET"
	EnvS3AccessKey    = "COPPER_S3_ACCESS_KEY"
	EnvS3SecretKey    = "COPPER_S3_SECRET_KEY"
	EnvS3Region       = "COPPER_S3_REGION"
	EnvS3UseSSL       = "COPPER_S3_USE_SSL"
)

// Database selects the persistence backend.
type Database struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Upload configures the optional object-store copy of downloaded files.
type Upload struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"-"`
	Region    string `yaml:"region" json:"region"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// Enabled reports whether uploads are configured.
func (u Upload) Enabled() bool {
	return u.Endpoint != "" || u.Bucket != ""
}

// Config is the resolved runtime configuration.
type Config struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	CatalogueURL    string        `yaml:"catalogue_url" json:"catalogue_url"`
	CollectionRoute string        `yaml:"collection_route" json:"collection_route"`
	RetrieveRoute   string        `yaml:"retrieve_route" json:"retrieve_route"`
	CostRoute       string        `yaml:"cost_route" json:"cost_route"`
	APIKey          string        `yaml:"api_key" json:"-"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	RateLimit       int           `yaml:"rate_limit" json:"rate_limit"`
	Concurrency     int           `yaml:"concurrency" json:"concurrency"`
	CacheSize       int           `yaml:"cache_size" json:"cache_size"`
	Database        Database      `yaml:"database" json:"database"`
	DefaultBudget   int64         `yaml:"default_budget" json:"default_budget"`
	SplitParameter  string        `yaml:"split_parameter" json:"split_parameter"`
	CostMethod      string        `yaml:"cost_method" json:"cost_method"`
	OutputFormat    string        `yaml:"output_format" json:"output_format"`
	LogLevel        string        `yaml:"log_level" json:"log_level"`
	LogFile         string        `yaml:"log_file" json:"log_file"`
	DownloadDir     string        `yaml:"download_dir" json:"download_dir"`
	Upload          Upload        `yaml:"upload" json:"upload"`
}

// Default returns the built-in configuration.
func Default() *Config {
	routes := catalog.DefaultRoutes()
	return &Config{
		BaseURL:         catalog.DefaultBaseURL,
		CollectionRoute: routes.Collection,
		RetrieveRoute:   routes.Retrieve,
		CostRoute:       routes.Cost,
		Timeout:         defaults.HTTPClientTimeout,
		RateLimit:       defaults.RateLimitPerMinute,
		Concurrency:     defaults.Concurrency,
		CacheSize:       defaults.CacheSize,
		Database: Database{
			Driver: store.DriverSQLite,
			DSN:    filepath.Join("~", ".local", "share", "copper", "copper.db"),
		},
		DefaultBudget:  defaults.BudgetLimit,
		SplitParameter: defaults.SplitParameter,
		CostMethod:     string(cost.MethodLocal),
		OutputFormat:   string(serializer.FormatJSON),
		LogLevel:       "info",
		DownloadDir:    filepath.Join(os.TempDir(), "cds_download"),
		Upload:         Upload{Region: "us-east-1", UseSSL: true},
	}
}

// DefaultPath returns ~/.config/copper/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "copper", "config.yaml")
}

// Load resolves the configuration from defaults, the YAML file at path (or
// $COPPER_CONFIG, or the default path when it exists), a .env file in the
// working directory and COPPER_* environment variables, in that order.
// An explicitly named file must exist. The result is not validated so that
// command-line flags can still be applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path, explicit = DefaultPath(), false
	}

	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Database.DSN = expandHome(cfg.Database.DSN)
	cfg.DownloadDir = expandHome(cfg.DownloadDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, nil
}

func (c *Config) mergeFile(path string, explicit bool) error {
	f, err := os.Open(expandHome(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return cerrors.NotFound("config file", path)
		}
		return cerrors.Wrap(cerrors.ErrCodeInternal, "failed to open config file", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("config: invalid file %s", path), err,
			map[string]any{"field": "config", "path": path})
	}

	slog.Debug("config file loaded", "path", path)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.BaseURL, EnvBaseURL)
	setString(&c.CatalogueURL, EnvCatalogueURL)
	setString(&c.APIKey, EnvAPIKey)
	setString(&c.Database.Driver, EnvDBDriver)
	setString(&c.Database.DSN, EnvDBDSN)
	setString(&c.SplitParameter, EnvSplitParameter)
	setString(&c.CostMethod, EnvCostMethod)
	setString(&c.OutputFormat, EnvOutput)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.LogFile, EnvLogFile)
	setString(&c.DownloadDir, EnvDownloadDir)
	setString(&c.Upload.Endpoint, EnvS3Endpoint)
	setString(&c.Upload.Bucket, EnvS3Bucket)
	setString(&c.Upload.AccessKey, EnvS3AccessKey)
	setString(&c.Upload.SecretKey, EnvS3SecretKey)
	setString(&c.Upload.Region, EnvS3Region)

	if v := env(EnvTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return cerrors.Validation(EnvTimeout, err.Error())
		}
		c.Timeout = d
	}

	for _, item := range []struct {
		name string
		dst  *int
	}{
		{EnvRateLimit, &c.RateLimit},
		{EnvConcurrency, &c.Concurrency},
		{EnvCacheSize, &c.CacheSize},
	} {
		if v := env(item.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cerrors.Validation(item.name, fmt.Sprintf("not an integer: %q", v))
			}
			*item.dst = n
		}
	}

	if v := env(EnvBudget); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cerrors.Validation(EnvBudget, fmt.Sprintf("not an integer: %q", v))
		}
		c.DefaultBudget = n
	}

	if v := env(EnvS3UseSSL); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cerrors.Validation(EnvS3UseSSL, fmt.Sprintf("not a boolean: %q", v))
		}
		c.Upload.UseSSL = b
	}
	return nil
}

// Validate checks every field and returns the first violation.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cerrors.Validation("base_url", fmt.Sprintf("not an absolute http(s) URL: %q", c.BaseURL))
	}
	if c.CatalogueURL != "" {
		if u, err := url.Parse(c.CatalogueURL); err != nil || u.Host == "" {
			return cerrors.Validation("catalogue_url", fmt.Sprintf("not an absolute URL: %q", c.CatalogueURL))
		}
	}
	if c.Timeout <= 0 {
		return cerrors.Validation("timeout", "must be positive")
	}
	if c.RateLimit < 0 {
		return cerrors.Validation("rate_limit", "must not be negative")
	}
	if c.Concurrency < 1 {
		return cerrors.Validation("concurrency", "must be at least 1")
	}
	if c.CacheSize < 0 {
		return cerrors.Validation("cache_size", "must not be negative")
	}
	if !slices.Contains(store.SupportedDrivers, c.Database.Driver) {
		return cerrors.Validation("database.driver",
			fmt.Sprintf("must be one of %s", strings.Join(store.SupportedDrivers, ", ")))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return cerrors.Validation("database.dsn", "must not be empty")
	}
	if c.DefaultBudget < 1 {
		return cerrors.Validation("default_budget", "must be at least 1")
	}
	if strings.TrimSpace(c.SplitParameter) == "" {
		return cerrors.Validation("split_parameter", "must not be empty")
	}
	if _, err := cost.ParseMethod(c.CostMethod); err != nil {
		return err
	}
	if _, err := serializer.ParseFormat(c.OutputFormat); err != nil {
		return err
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		return cerrors.Validation("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	if c.Upload.Enabled() && (c.Upload.Endpoint == "" || c.Upload.Bucket == "") {
		return cerrors.Validation("upload", "endpoint and bucket must both be set")
	}
	return nil
}

// Routes returns the configured route templates.
func (c *Config) Routes() catalog.Routes {
	return catalog.Routes{
		Collection: c.CollectionRoute,
		Retrieve:   c.RetrieveRoute,
		Cost:       c.CostRoute,
	}
}

// ClientOptions translates the configuration into catalog client options.
func (c *Config) ClientOptions() []catalog.Option {
	opts := []catalog.Option{
		catalog.WithBaseURL(c.BaseURL),
		catalog.WithRoutes(c.Routes()),
		catalog.WithAPIKey(c.APIKey),
		catalog.WithTimeout(c.Timeout),
		catalog.WithRateLimit(c.RateLimit),
		catalog.WithCacheSize(c.CacheSize),
	}
	if c.CatalogueURL != "" {
		opts = append(opts, catalog.WithCatalogueURL(c.CatalogueURL))
	}
	return opts
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func setString(dst *string, name string) {
	if v := env(name); v != "" {
		*dst = v
	}
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %q", v)
	}
	return d, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
