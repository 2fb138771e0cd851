// Package config loads npmmeta configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// NPMMETA_* environment variables. Durations use Go syntax ("15m", "30s")
// in both the file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/npmmeta/pkg/buildinfo"
	"github.com/matzehuels/npmmeta/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NPMMETA_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// DefaultDocsURL is the project page advertised by the index route.
const DefaultDocsURL = "https://github.com/matzehuels/npmmeta"

// Config is the complete runtime configuration.
type Config struct {
	ListenAddr  string `toml:"listen_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	DocsURL     string `toml:"docs_url"`

	Registry Registry `toml:"registry"`
	Cache    Cache    `toml:"cache"`
	Store    Store    `toml:"store"`
	Log      Log      `toml:"log"`
}

// Registry configures the upstream npm registry.
type Registry struct {
	URL          string        `toml:"url"`
	UserAgent    string        `toml:"user_agent"`
	FullDocument bool          `toml:"full_document"`
	FetchTimeout time.Duration `toml:"fetch_timeout"`
}

// Cache configures manifest freshness.
type Cache struct {
	Timeout      time.Duration `toml:"timeout"`
	TimeoutForce time.Duration `toml:"timeout_force"`
}

// Store selects and configures the manifest store backend.
type Store struct {
	Backend         string        `toml:"backend"`
	Dir             string        `toml:"dir"`
	RedisURL        string        `toml:"redis_url"`
	MongoURI        string        `toml:"mongo_uri"`
	MongoDatabase   string        `toml:"mongo_database"`
	MongoCollection string        `toml:"mongo_collection"`
	Retention       time.Duration `toml:"retention"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:  ":3000",
		MetricsAddr: ":9090",
		DocsURL:     DefaultDocsURL,
		Registry: Registry{
			URL:          "https://registry.npmjs.org/",
			UserAgent:    buildinfo.UserAgent(),
			FullDocument: true,
			FetchTimeout: 30 * time.Second,
		},
		Cache: Cache{
			Timeout:      15 * time.Minute,
			TimeoutForce: 30 * time.Second,
		},
		Store: Store{
			Backend:         BackendMemory,
			Dir:             DefaultStoreDir(),
			RedisURL:        "redis://localhost:6379/0",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "npmmeta",
			MongoCollection: "manifests",
			Retention:       24 * time.Hour,
		},
		Log: Log{Level: "info"},
	}
}

// DefaultStoreDir returns the file store location using the XDG standard
// (~/.cache/npmmeta/).
func DefaultStoreDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, buildinfo.Name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), buildinfo.Name)
	}
	return filepath.Join(home, ".cache", buildinfo.Name)
}

// Load builds the configuration from defaults, the TOML file at path (when
// path is non-empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str("LISTEN_ADDR", &c.ListenAddr)
	env.str("METRICS_ADDR", &c.MetricsAddr)
	env.str("DOCS_URL", &c.DocsURL)

	env.str("REGISTRY_URL", &c.Registry.URL)
	env.str("REGISTRY_USER_AGENT", &c.Registry.UserAgent)
	env.boolean("REGISTRY_FULL_DOCUMENT", &c.Registry.FullDocument)
	env.duration("REGISTRY_FETCH_TIMEOUT", &c.Registry.FetchTimeout)

	env.duration("CACHE_TIMEOUT", &c.Cache.Timeout)
	env.duration("CACHE_TIMEOUT_FORCE", &c.Cache.TimeoutForce)

	env.str("STORE_BACKEND", &c.Store.Backend)
	env.str("STORE_DIR", &c.Store.Dir)
	env.str("STORE_REDIS_URL", &c.Store.RedisURL)
	env.str("STORE_MONGO_URI", &c.Store.MongoURI)
	env.str("STORE_MONGO_DATABASE", &c.Store.MongoDatabase)
	env.str("STORE_MONGO_COLLECTION", &c.Store.MongoCollection)
	env.duration("STORE_RETENTION", &c.Store.Retention)

	env.str("LOG_LEVEL", &c.Log.Level)

	return env.err
}

// envReader applies NPMMETA_* overrides and keeps the first parse error.
// A variable that is set to an empty string still overrides, so that
// NPMMETA_METRICS_ADDR= disables the metrics listener.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	return e.lookup(EnvPrefix + key)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = d
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s=%q", EnvPrefix, key, value)
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}

	if c.ListenAddr == "" {
		return invalid("listen_addr is required")
	}
	if err := errors.ValidateURL(c.Registry.URL); err != nil {
		return invalid("registry.url: %s", errors.UserMessage(err))
	}
	if c.Registry.FetchTimeout <= 0 {
		return invalid("registry.fetch_timeout must be positive")
	}
	if c.Cache.Timeout <= 0 {
		return invalid("cache.timeout must be positive")
	}
	if c.Cache.TimeoutForce <= 0 {
		return invalid("cache.timeout_force must be positive")
	}
	if c.Store.Retention < 0 {
		return invalid("store.retention must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory, BackendNone:
	case BackendFile:
		if c.Store.Dir == "" {
			return invalid("store.dir is required for the file backend")
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return invalid("store.redis_url is required for the redis backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" || c.Store.MongoCollection == "" {
			return invalid("store.mongo_uri, mongo_database and mongo_collection are required for the mongo backend")
		}
	default:
		return invalid("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}
