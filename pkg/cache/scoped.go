package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// separating several schemas sharing one Redis instance.
//
// Example usage:
//
//	zooKeyer := NewScopedKeyer(NewDefaultKeyer(), "zoo:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated
// keys. A nil inner keyer defaults to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey generates a prefixed key for a loaded record graph.
func (k *ScopedKeyer) GraphKey(source string) string {
	return k.prefix + k.inner.GraphKey(source)
}

// OutputKey generates a prefixed key for serialized output.
func (k *ScopedKeyer) OutputKey(graphHash string, opts OutputKeyOpts) string {
	return k.prefix + k.inner.OutputKey(graphHash, opts)
}
