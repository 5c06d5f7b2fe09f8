// Package config loads flowmap settings from a TOML file and the
// environment. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// Config is the full set of run settings.
type Config struct {
	Input  Input  `toml:"input"`
	Render Render `toml:"render"`
	Store  Store  `toml:"store"`
	Cache  Cache  `toml:"cache"`
	Neo4j  Neo4j  `toml:"neo4j"`
}

// Input selects the graph and the source vertex.
type Input struct {
	Path     string `toml:"path"`
	Format   string `toml:"format"`   // osrm, osm, snapshot or neo4j
	Strategy string `toml:"strategy"` // directed or undirected

	// SourceID is the external id of the source vertex. When nil, SourceLonLat
	// picks the nearest vertex; when both are unset vertex 0 is used.
	SourceID     *int64    `toml:"source_id"`
	SourceLonLat []float64 `toml:"source_lonlat"`

	// BBox is [minLon, minLat, maxLon, maxLat] for OSM input.
	BBox             []float64 `toml:"bbox"`
	LargestComponent bool      `toml:"largest_component"`
	MinCapacity      float64   `toml:"min_capacity"`
}

// Render controls the drawn document.
type Render struct {
	Out      string  `toml:"out"`
	Format   string  `toml:"format"`
	MaxWidth float64 `toml:"max_width"`
	MinWidth float64 `toml:"min_width"`
	Keep     int     `toml:"keep"`
	MinCount int     `toml:"min_count"`
	Extent   float64 `toml:"extent"`
}

// Store names the persistence backend. An empty URL disables persistence.
type Store struct {
	URL string `toml:"url"`
}

// Cache selects the result cache.
type Cache struct {
	Kind string `toml:"kind"` // none, file or redis
	Dir  string `toml:"dir"`
	URL  string `toml:"url"`
	TTL  string `toml:"ttl"`
}

// Neo4j holds connection settings for neo4j input.
type Neo4j struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Input: Input{
			Format:   "osrm",
			Strategy: "directed",
		},
		Render: Render{
			Out:      "flowmap.svg",
			MaxWidth: 8,
			MinWidth: 0.5,
			Extent:   2000,
		},
		Cache: Cache{
			Kind: "none",
			TTL:  "168h",
		},
		Neo4j: Neo4j{
			URI:  "bolt://localhost:7687",
			User: "neo4j",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, ferrors.Wrap(ferrors.CodeIO, err, "config %s", path)
			}
			return cfg, ferrors.Wrap(ferrors.CodeInvalidInput, err, "parse config %s", path)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// applyEnv lets credentials come from the environment instead of the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Store.URL, "FLOWMAP_STORE_URL")
	set(&c.Cache.URL, "REDIS_URL")
	set(&c.Neo4j.URI, "NEO4J_URI")
	set(&c.Neo4j.User, "NEO4J_USER")
	set(&c.Neo4j.Password, "NEO4J_PASSWORD")
}

// Validate checks the shape of list-valued and duration settings.
func (c Config) Validate() error {
	if n := len(c.Input.SourceLonLat); n != 0 && n != 2 {
		return ferrors.New(ferrors.CodeInvalidInput, "source_lonlat needs 2 values, got %d", n)
	}
	if n := len(c.Input.BBox); n != 0 && n != 4 {
		return ferrors.New(ferrors.CodeInvalidInput, "bbox needs 4 values, got %d", n)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	switch c.Cache.Kind {
	case "", "none", "file", "redis":
	default:
		return ferrors.New(ferrors.CodeInvalidInput, "unknown cache kind %q", c.Cache.Kind)
	}
	return nil
}

// CacheTTL parses Cache.TTL. An empty value means no expiry.
func (c Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, ferrors.Wrap(ferrors.CodeInvalidInput, err, "cache ttl %q", c.Cache.TTL)
	}
	return d, nil
}
