// Package cache stores computed layouts so identical graphs are not laid out
// twice.
//
// Three backends implement [Cache]:
//
//   - [FileCache] keeps entries as JSON files below a directory. The CLI uses
//     it under $XDG_CACHE_HOME/axonote.
//   - [RedisCache] shares entries between server instances.
//   - [NullCache] never stores anything and turns caching off.
//
// Keys are produced by a [Keyer] so the key scheme can be namespaced with
// [NewScopedKeyer] without touching the callers.
package cache

import (
	"context"
	"time"
)

// TTLLayout is the default lifetime of a cached layout result.
const TTLLayout = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// LayoutKeyOpts are the layout parameters that influence the result and
// therefore belong in the key.
type LayoutKeyOpts struct {
	Engine       string  `json:"engine"`
	Direction    string  `json:"direction"`
	LayerSpacing float64 `json:"layer_spacing"`
	NodeSpacing  float64 `json:"node_spacing"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout of the request whose content
	// hash is requestHash.
	LayoutKey(requestHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the request hash together with the options.
func (DefaultKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", requestHash, opts)
}
