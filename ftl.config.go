package ftl

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML file form of engine settings:
//
//	tag_prefix: t
//	max_depth: 128
//	missing: comment        # throw | remove | comment | log
//	globals: {site: Example}
//	store: {driver: filesystem, dsn: ./docs, cache_ttl: 5m}
type Config struct {
	TagPrefix string         `yaml:"tag_prefix,omitempty"`
	MaxDepth  *int           `yaml:"max_depth,omitempty"`
	Missing   string         `yaml:"missing,omitempty"`
	Globals   map[string]any `yaml:"globals,omitempty"`
	Store     StoreConfig    `yaml:"store,omitempty"`
}

// StoreConfig selects a document store driver.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`

	// CacheTTL wraps the store in a CachedStore when positive ("5m").
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigRead, path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigParse, path, err)
	}
	return cfg, nil
}

// ParseConfig parses YAML config data and validates the strategy name.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewConfigError(ErrMsgConfigParse, "", err)
	}
	if _, err := ParseMissingStrategy(cfg.Missing); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadGlobals reads a YAML mapping of global variables.
func LoadGlobals(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigRead, path, err)
	}
	globals := make(map[string]any)
	if err := yaml.Unmarshal(data, &globals); err != nil {
		return nil, NewConfigError(ErrMsgConfigParse, path, err)
	}
	return globals, nil
}

// Options converts the config into engine options. The store is not opened;
// use OpenStore or NewEngine for that.
func (c *Config) Options() ([]Option, error) {
	var opts []Option
	if c.TagPrefix != "" {
		opts = append(opts, WithTagPrefix(c.TagPrefix))
	}
	if c.MaxDepth != nil {
		opts = append(opts, WithMaxDepth(*c.MaxDepth))
	}
	strategy, err := ParseMissingStrategy(c.Missing)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithMissingStrategy(strategy))
	if len(c.Globals) > 0 {
		opts = append(opts, WithGlobals(c.Globals))
	}
	return opts, nil
}

// OpenStore opens the configured store, or returns nil when none is set.
func (c *Config) OpenStore() (DocumentStore, error) {
	if c.Store.Driver == "" {
		return nil, nil
	}
	store, err := OpenStore(c.Store.Driver, c.Store.DSN)
	if err != nil || c.Store.CacheTTL <= 0 {
		return store, err
	}
	config := DefaultCacheConfig()
	config.TTL = c.Store.CacheTTL
	return NewCachedStore(store, config), nil
}

// NewEngine builds an engine from the config. Options in extra are applied
// last and override the file.
func (c *Config) NewEngine(extra ...Option) (*Engine, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	store, err := c.OpenStore()
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	e, err := New(append(opts, extra...)...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return e, nil
}
