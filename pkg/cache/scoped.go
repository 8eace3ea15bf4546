package cache

// ScopedKeyer prefixes every key produced by an inner Keyer. The server uses
// it to keep its entries apart from other users of a shared Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "axonote:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(requestHash, opts)
}
