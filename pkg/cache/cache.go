// Package cache provides pluggable caching for loaded record graphs and
// serialized output.
//
// Serialization is pure, so its output caches perfectly: the key is a hash
// of the graph content plus the call options, and an entry never goes
// stale as long as the underlying records are unchanged. Sources that load
// from storage use a TTL instead.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for
// shared deployments, and NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// TTLs per artifact kind. Serialized output derives purely from graph
// content and options, so it never goes stale; loaded graphs mirror
// external storage and expire.
const (
	TTLGraph  = 24 * time.Hour
	TTLOutput = time.Duration(0)
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL (0 means no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// OutputKeyOpts captures every Serialize option that affects output, so
// differing calls never collide on a key.
type OutputKeyOpts struct {
	Root     string   // root record key ("type:id")
	Rules    []string // override rules
	Only     []string // allow-list
	MaxDepth int
	Strict   bool
	Format   string // output format ("json", "dot", ...)
	Pretty   bool
}

// Keyer generates cache keys for the two cacheable artifacts.
type Keyer interface {
	// GraphKey identifies a loaded record graph by its source description
	// (e.g. file path and schema path).
	GraphKey(source string) string

	// OutputKey identifies serialized output by graph content hash and
	// call options.
	OutputKey(graphHash string, opts OutputKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a loaded record graph.
func (k *DefaultKeyer) GraphKey(source string) string {
	return hashKey("graph", source)
}

// OutputKey generates a key for serialized output.
func (k *DefaultKeyer) OutputKey(graphHash string, opts OutputKeyOpts) string {
	return hashKey("output", graphHash, opts.Root, opts.Rules, opts.Only, opts.MaxDepth, opts.Strict, opts.Format, opts.Pretty)
}
