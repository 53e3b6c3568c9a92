package cache

// ScopedKeyer prefixes every key of an inner Keyer. The backend client
// scopes its keys by backend URL so two backends never share entries.
//
//	k := cache.NewScopedKeyer(nil, "backend:localhost:5000:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for backend response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(descHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(descHash, opts)
}
