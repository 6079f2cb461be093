package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/pipeline"
)

const sample = `
[relax]
points = 4000
passes = 300
damping = 0.25
polarity = "light"
raster = "320x240"
workers = 3

[seed]
seed = 7
strategy = "poisson"

[render]
formats = ["svg", "png"]
cells = true
scale = 1.5

[cache]
redis_url = "redis://localhost:6379/0"
prefix = "stippler:"
ttl = "72h"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Relax.Points)
	assert.Equal(t, 300, cfg.Relax.Passes)
	assert.Equal(t, "light", cfg.Relax.Polarity)
	assert.Equal(t, uint64(7), cfg.Seed.Seed)
	assert.Equal(t, "poisson", cfg.Seed.Strategy)
	assert.Equal(t, []string{"svg", "png"}, cfg.Render.Formats)
	assert.True(t, cfg.Render.Cells)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 72*time.Hour, cfg.Cache.TTL.Duration)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", "[relax\npoints = 1"},
		{"unknown key", "[relax]\npointz = 10"},
		{"unknown table", "[output]\ndir = \"x\""},
		{"polarity", "[relax]\npolarity = \"grey\""},
		{"strategy", "[seed]\nstrategy = \"halton\""},
		{"format", "[render]\nformats = [\"pdf\"]"},
		{"raster", "[relax]\nraster = \"wide\""},
		{"ttl", "[cache]\nttl = \"soon\""},
		{"negative ttl", "[cache]\nttl = \"-1h\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.text)
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse(%q) code = %s, want %s", tt.text, errors.GetCode(err), errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestApplyRespectsChangedFlags(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	opts := pipeline.Options{Points: 100, Seed: 99}
	changed := map[string]bool{"points": true, "seed": true}
	cfg.Apply(&opts, func(flag string) bool { return changed[flag] })

	assert.Equal(t, 100, opts.Points, "explicit flag wins")
	assert.Equal(t, uint64(99), opts.Seed, "explicit flag wins")
	assert.Equal(t, 300, opts.Passes)
	assert.Equal(t, 0.25, opts.Damping)
	assert.Equal(t, "light", opts.Polarity)
	assert.Equal(t, 320, opts.RasterWidth)
	assert.Equal(t, 240, opts.RasterHeight)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "poisson", opts.SeedStrategy)
	assert.Equal(t, []string{"svg", "png"}, opts.Formats)
	assert.True(t, opts.ShowCells)
	assert.False(t, opts.ShowDelaunay)
	assert.Equal(t, 1.5, opts.Scale)
}

func TestApplyEmptyConfigIsNoop(t *testing.T) {
	opts := pipeline.Options{Points: 12, Formats: []string{"json"}}
	(&Config{}).Apply(&opts, nil)
	assert.Equal(t, pipeline.Options{Points: 12, Formats: []string{"json"}}, opts)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Relax.Points)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "explicit missing file: %v", err)

	require.NoError(t, os.WriteFile(path, []byte("[relax]\nbogus = 1\n"), 0o644))
	_, err = Load(path)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "bad file: %v", err)
}

func TestLoadDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "stippler", FileName), got)

	cfg, err := Load("")
	require.NoError(t, err, "missing default file is not an error")
	assert.Equal(t, &Config{}, cfg)

	require.NoError(t, os.MkdirAll(filepath.Dir(got), 0o755))
	require.NoError(t, os.WriteFile(got, []byte("[relax]\npasses = 5\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Relax.Passes)
}

func TestParseRaster(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"512x384", 512, 384, false},
		{" 64X48 ", 64, 48, false},
		{"512", 0, 0, true},
		{"ax3", 0, 0, true},
		{"0x10", 0, 0, true},
		{"100000x10", 0, 0, true},
	}
	for _, tt := range tests {
		w, h, err := ParseRaster(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRaster(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if w != tt.w || h != tt.h {
			t.Errorf("ParseRaster(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
		}
	}
}
