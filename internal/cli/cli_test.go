package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stippler/pkg/config"
	"github.com/matzehuels/stippler/pkg/pipeline"
	"github.com/matzehuels/stippler/pkg/render/sink"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

// writeTestImage writes a small vertical gradient PNG and returns its path.
func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y * 10)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "gradient.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points every XDG directory at a fresh temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()
	want := []string{"relax", "render", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVerboseFlagSetsDebug(t *testing.T) {
	isolate(t)
	c := newTestCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"-v", "cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestRelaxAndRender(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeTestImage(t, dir)

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"relax", input, "-n", "24", "-p", "3", "-f", "svg,json", "--no-cache"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("relax: %v", err)
	}

	svgPath := filepath.Join(dir, "gradient.stipple.svg")
	jsonPath := filepath.Join(dir, "gradient.stipple.json")
	svg, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("svg output starts with %q", svg[:min(20, len(svg))])
	}
	f, err := os.Open(jsonPath)
	if err != nil {
		t.Fatalf("json not written: %v", err)
	}
	ps, err := sink.ReadJSON(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(ps.Points) != 24 || ps.Passes != 3 {
		t.Errorf("point set has %d points, %d passes; want 24, 3", len(ps.Points), ps.Passes)
	}

	out := filepath.Join(dir, "redrawn.png")
	root = newTestCLI().RootCommand()
	root.SetArgs([]string{"render", jsonPath, "-f", "png", "--cells", "-o", out, "--no-cache"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("png not written: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("render output is not a PNG: %v", err)
	}
}

func TestRelaxRejectsBadInput(t *testing.T) {
	isolate(t)
	input := writeTestImage(t, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"relax", input, "-f", "pdf", "--no-cache"}},
		{"raster", []string{"relax", input, "--raster", "big", "--no-cache"}},
		{"damping", []string{"relax", input, "--damping", "1.5", "--no-cache"}},
		{"seeding", []string{"relax", input, "--seeding", "halton", "--no-cache"}},
		{"missing image", []string{"relax", filepath.Join(t.TempDir(), "none.png"), "--no-cache"}},
		{"missing config", []string{"--config", "/nonexistent/stippler.toml", "relax", input}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTestCLI().RootCommand()
			root.SetArgs(tt.args)
			root.SetErr(io.Discard)
			if err := root.ExecuteContext(context.Background()); err == nil {
				t.Errorf("%v succeeded, want error", tt.args)
			}
		})
	}
}

func TestApplyRelaxFlags(t *testing.T) {
	cfg, err := config.Parse(`
[relax]
points = 500
polarity = "light"

[render]
formats = ["png"]
`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		args         []string
		wantPoints   int
		wantPolarity string
		wantFormats  []string
		wantRaster   [2]int
	}{
		{"config fills defaults", nil, 500, "light", []string{"png"}, [2]int{}},
		{"flags win", []string{"-n", "40", "--light=false", "-f", "svg,json"}, 40, "dark", []string{"svg", "json"}, [2]int{}},
		{"raster flag", []string{"--raster", "64x48"}, 500, "light", []string{"png"}, [2]int{64, 48}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags relaxFlags
			opts := pipeline.Options{}
			cmd := &cobra.Command{Use: "relax"}
			f := cmd.Flags()
			f.IntVarP(&opts.Points, "points", "n", pipeline.DefaultPoints, "")
			f.BoolVar(&flags.light, "light", false, "")
			f.StringVarP(&flags.formats, "format", "f", pipeline.FormatSVG, "")
			f.StringVar(&flags.raster, "raster", "", "")
			if err := f.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			if err := applyRelaxFlags(cmd, &opts, flags, cfg); err != nil {
				t.Fatal(err)
			}
			if opts.Points != tt.wantPoints {
				t.Errorf("Points = %d, want %d", opts.Points, tt.wantPoints)
			}
			if opts.Polarity != tt.wantPolarity {
				t.Errorf("Polarity = %q, want %q", opts.Polarity, tt.wantPolarity)
			}
			if strings.Join(opts.Formats, ",") != strings.Join(tt.wantFormats, ",") {
				t.Errorf("Formats = %v, want %v", opts.Formats, tt.wantFormats)
			}
			if got := [2]int{opts.RasterWidth, opts.RasterHeight}; got != tt.wantRaster {
				t.Errorf("raster = %v, want %v", got, tt.wantRaster)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		input   string
		formats []string
		want    map[string]string
	}{
		{
			name:    "derived from input",
			input:   "img/cat.jpg",
			formats: []string{"svg", "png"},
			want:    map[string]string{"svg": "img/cat.stipple.svg", "png": "img/cat.stipple.png"},
		},
		{
			name:    "input already derived",
			input:   "cat.stipple.json",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "cat.stipple.svg"},
		},
		{
			name:    "explicit single",
			output:  "out/drawing.svg",
			input:   "cat.jpg",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "out/drawing.svg"},
		},
		{
			name:    "explicit base",
			output:  "out/drawing",
			input:   "cat.jpg",
			formats: []string{"json", "graph"},
			want:    map[string]string{"json": "out/drawing.json", "graph": "out/drawing.graph.svg"},
		},
		{
			name:    "explicit with graph extension",
			output:  "out/drawing.graph.svg",
			input:   "cat.jpg",
			formats: []string{"svg", "dot"},
			want:    map[string]string{"svg": "out/drawing.svg", "dot": "out/drawing.dot"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.input, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}
