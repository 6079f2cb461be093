// Package cache stores intermediate and final results of stippling runs.
//
// A relaxation of a few thousand points over hundreds of passes takes
// seconds to minutes, and its output is fully determined by the image and
// the relaxation options. The pipeline therefore keys the final point set
// by both and re-renders from cache when only presentation options change.
//
// Three backends share the [Cache] interface:
//   - [FileCache] for the CLI (one JSON file per entry under the XDG cache dir)
//   - [RedisCache] for the HTTP API when several instances share results
//   - [NullCache] when caching is disabled
//
// Keys come from a [Keyer] so deployments can namespace them ([ScopedKeyer]).
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for each kind of entry.
const (
	// TTLRelax covers relaxed point sets. They never go stale, so the TTL
	// only bounds disk usage.
	TTLRelax = 30 * 24 * time.Hour

	// TTLArtifact covers rendered outputs.
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// RelaxKey identifies a relaxed point set.
	RelaxKey(imageHash string, opts RelaxKeyOpts) string

	// ArtifactKey identifies one rendered output of a point set.
	ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string
}

// RelaxKeyOpts are the options that determine a relaxation result.
type RelaxKeyOpts struct {
	Points       int     `json:"points"`
	Passes       int     `json:"passes"`
	Damping      float64 `json:"damping"`
	Polarity     string  `json:"polarity"`
	Seed         uint64  `json:"seed"`
	SeedStrategy string  `json:"seed_strategy"`
	RasterWidth  int     `json:"raster_width"`
	RasterHeight int     `json:"raster_height"`
	MaxVertices  int     `json:"max_vertices"`
}

// ArtifactKeyOpts are the options that determine a rendered output.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	ShowCells    bool    `json:"show_cells"`
	ShowDelaunay bool    `json:"show_delaunay"`
	ShowImage    bool    `json:"show_image"`
	PointRadius  float64 `json:"point_radius"`
	Scale        float64 `json:"scale"`
	ImageHash    string  `json:"image_hash,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RelaxKey returns "relax:<sha256>".
func (DefaultKeyer) RelaxKey(imageHash string, opts RelaxKeyOpts) string {
	return hashKey("relax", imageHash, opts)
}

// ArtifactKey returns "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, pointsHash, opts)
}
