package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// It backs the cache.prefix config setting.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "procgraph:staging:")
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

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(flowHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(flowHash, opts)
}

// ModelKey generates a prefixed key for model caching.
func (k *ScopedKeyer) ModelKey(inputHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(inputHash, opts)
}
