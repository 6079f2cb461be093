package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments, or
// the CLI and a server, can share one backend without colliding.
//
// Example usage:
//
//	// Keys for a staging API sharing the production Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RelaxKey generates a prefixed key for relaxed point sets.
func (k *ScopedKeyer) RelaxKey(imageHash string, opts RelaxKeyOpts) string {
	return k.prefix + k.inner.RelaxKey(imageHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pointsHash, opts)
}
