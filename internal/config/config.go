// Package config loads storage settings from a YAML file, .env files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when METAHISTORY_CONFIG is unset and the file exists.
const DefaultPath = ".github/metahistory.yml"

// Backends
const (
	BackendGist     = "gist"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendDisk     = "disk"
	BackendMemory   = "memory"
)

// tokenForHost looks up a stored gh credential. Tests replace it.
var tokenForHost = auth.TokenForHost

// Config is the full configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Cache CacheConfig `yaml:"cache"`
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Gist     GistConfig     `yaml:"gist"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
	Disk     DiskConfig     `yaml:"disk"`
}

type GistConfig struct {
	ID          string `yaml:"id"`
	Host        string `yaml:"host"`
	Token       string `yaml:"token"`
	Description string `yaml:"description"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type DiskConfig struct {
	Root string `yaml:"root"`
}

// CacheConfig sizes the read-through cache. Zero disables it.
type CacheConfig struct {
	Entries int `yaml:"entries"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding existing ones. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load builds a Config from the YAML file named by METAHISTORY_CONFIG (or
// DefaultPath when present), then applies environment overrides and
// validates the result.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{Store: StoreConfig{Backend: BackendGist}}

	path := getenv("METAHISTORY_CONFIG")
	required := path != ""
	if path == "" {
		path = DefaultPath
	}
	if err := cfg.readFile(path, getenv); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string, getenv func(string) string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.Expand(string(raw), getenv)
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Store.Backend, "INPUT_BACKEND", "METAHISTORY_BACKEND")
	set(&c.Store.Gist.ID, "INPUT_GIST_ID", "METAHISTORY_GIST_ID")
	set(&c.Store.Gist.Token, "INPUT_TOKEN", "METAHISTORY_TOKEN")
	set(&c.Store.Gist.Host, "METAHISTORY_GIST_HOST", "GH_HOST")

	set(&c.Store.S3.Endpoint, "METAHISTORY_S3_ENDPOINT")
	set(&c.Store.S3.Region, "METAHISTORY_S3_REGION")
	set(&c.Store.S3.AccessKey, "METAHISTORY_S3_ACCESS_KEY")
	set(&c.Store.S3.SecretKey, "METAHISTORY_S3_SECRET_KEY")
	set(&c.Store.S3.Bucket, "METAHISTORY_S3_BUCKET")
	set(&c.Store.S3.Prefix, "METAHISTORY_S3_PREFIX")
	if raw := strings.TrimSpace(getenv("METAHISTORY_S3_USE_SSL")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid METAHISTORY_S3_USE_SSL %q: %w", raw, err)
		}
		c.Store.S3.UseSSL = v
	}

	set(&c.Store.Postgres.DSN, "METAHISTORY_PG_DSN")
	set(&c.Store.Postgres.Table, "METAHISTORY_PG_TABLE")
	set(&c.Store.Disk.Root, "METAHISTORY_DISK_ROOT")

	if raw := strings.TrimSpace(getenv("METAHISTORY_CACHE_ENTRIES")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid METAHISTORY_CACHE_ENTRIES %q: %w", raw, err)
		}
		c.Cache.Entries = n
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendGist:
		if c.Store.Gist.ID == "" {
			return fmt.Errorf("store.gist.id is required when store.backend=gist")
		}
	case BackendS3:
		s := c.Store.S3
		if s.Endpoint == "" || s.Bucket == "" {
			return fmt.Errorf("store.s3.endpoint and store.s3.bucket are required when store.backend=s3")
		}
		if s.AccessKey == "" || s.SecretKey == "" {
			return fmt.Errorf("store.s3.access_key and store.s3.secret_key are required when store.backend=s3")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required when store.backend=postgres")
		}
	case BackendDisk:
		if c.Store.Disk.Root == "" {
			return fmt.Errorf("store.disk.root is required when store.backend=disk")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	if c.Cache.Entries < 0 {
		return fmt.Errorf("cache.entries must not be negative")
	}
	return nil
}

// GistHost returns the configured host, defaulting to github.com.
func (g GistConfig) GistHost() string {
	if g.Host == "" {
		return "github.com"
	}
	return g.Host
}

// ResolveToken picks the gist token: the configured value, then GH_TOKEN,
// then GITHUB_TOKEN, then the gh CLI's stored credential for the host.
func (g GistConfig) ResolveToken(getenv func(string) string) string {
	for _, v := range []string{g.Token, getenv("GH_TOKEN"), getenv("GITHUB_TOKEN")} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	token, _ := tokenForHost(g.GistHost())
	return token
}
