// Package config reads the optional stippler TOML configuration file.
//
// The file holds defaults for the relax and render commands and the cache
// backend. Command-line flags always win: Apply only fills option fields
// whose flag the user did not set.
//
//	[relax]
//	points = 4000
//	passes = 300
//	polarity = "dark"
//
//	[seed]
//	seed = 7
//	strategy = "poisson"
//
//	[render]
//	formats = ["svg", "png"]
//	cells = true
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/pipeline"
)

const appName = "stippler"

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config mirrors the tables of the config file. Zero values mean "not set".
type Config struct {
	Relax  Relax  `toml:"relax"`
	Seed   Seed   `toml:"seed"`
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
}

// Relax holds the [relax] table.
type Relax struct {
	Points      int     `toml:"points"`
	Passes      int     `toml:"passes"`
	Damping     float64 `toml:"damping"`
	Polarity    string  `toml:"polarity"`
	Raster      string  `toml:"raster"` // "WxH"
	Workers     int     `toml:"workers"`
	MaxVertices int     `toml:"max_vertices"`
}

// Seed holds the [seed] table.
type Seed struct {
	Seed     uint64 `toml:"seed"`
	Strategy string `toml:"strategy"`
}

// Render holds the [render] table.
type Render struct {
	Formats     []string `toml:"formats"`
	Cells       bool     `toml:"cells"`
	Delaunay    bool     `toml:"delaunay"`
	Image       bool     `toml:"image"`
	PointRadius float64  `toml:"point_radius"`
	Scale       float64  `toml:"scale"`
}

// Cache holds the [cache] table.
type Cache struct {
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
	Disabled bool     `toml:"disabled"`
}

// Duration is a time.Duration that decodes from a TOML string like "36h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/stippler/config.toml, falling back
// to ~/.config/stippler/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

// Load reads the config at path. An empty path loads the default location,
// where a missing file yields an empty Config. A path given explicitly must
// exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates config text. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated values. Ranges are left to the pipeline,
// which validates the merged options anyway.
func (c *Config) Validate() error {
	if c.Relax.Polarity != "" {
		if err := pipeline.ValidatePolarity(c.Relax.Polarity); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[relax] polarity")
		}
	}
	if c.Seed.Strategy != "" {
		if err := pipeline.ValidateSeedStrategy(c.Seed.Strategy); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[seed] strategy")
		}
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[render] formats")
	}
	if c.Relax.Raster != "" {
		if _, _, err := ParseRaster(c.Relax.Raster); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[relax] raster")
		}
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] ttl must not be negative")
	}
	return nil
}

// Apply copies file values into opts. changed reports whether the named
// command-line flag was set explicitly; those fields are left alone. Flag
// names are the ones used by the relax command: points, passes, damping,
// light, raster, workers, max-vertices, seed, seeding, format, cells,
// delaunay, image, radius, scale.
func (c *Config) Apply(opts *pipeline.Options, changed func(flag string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	set := func(flag string, ok bool, fn func()) {
		if ok && !changed(flag) {
			fn()
		}
	}

	r := c.Relax
	set("points", r.Points != 0, func() { opts.Points = r.Points })
	set("passes", r.Passes != 0, func() { opts.Passes = r.Passes })
	set("damping", r.Damping != 0, func() { opts.Damping = r.Damping })
	set("light", r.Polarity != "", func() { opts.Polarity = r.Polarity })
	set("workers", r.Workers != 0, func() { opts.Workers = r.Workers })
	set("max-vertices", r.MaxVertices != 0, func() { opts.MaxVertices = r.MaxVertices })
	set("raster", r.Raster != "", func() {
		if w, h, err := ParseRaster(r.Raster); err == nil {
			opts.RasterWidth, opts.RasterHeight = w, h
		}
	})

	s := c.Seed
	set("seed", s.Seed != 0, func() { opts.Seed = s.Seed })
	set("seeding", s.Strategy != "", func() { opts.SeedStrategy = s.Strategy })

	d := c.Render
	set("format", len(d.Formats) > 0, func() { opts.Formats = append([]string(nil), d.Formats...) })
	set("cells", d.Cells, func() { opts.ShowCells = true })
	set("delaunay", d.Delaunay, func() { opts.ShowDelaunay = true })
	set("image", d.Image, func() { opts.ShowImage = true })
	set("radius", d.PointRadius != 0, func() { opts.PointRadius = d.PointRadius })
	set("scale", d.Scale != 0, func() { opts.Scale = d.Scale })
}

// ParseRaster parses a "WxH" raster size such as "512x384".
func ParseRaster(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "raster size %q is not WxH", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "raster width %q", ws)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "raster height %q", hs)
	}
	if err := errors.ValidateRasterSize(w, h); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
