package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jmalten/recgraph/pkg/cache"
	"github.com/jmalten/recgraph/pkg/dot"
	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/serialize"
	"github.com/jmalten/recgraph/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → serialize → encode pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	g, graphHit, err := r.LoadWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.RecordCount = g.Len()
	result.CacheInfo.GraphHit = graphHit

	// Compute graph hash for artifact cache keys
	if graphData, err := source.Encode(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("loaded records",
		"records", g.Len(),
		"types", len(g.Types()),
		"duration", result.Stats.LoadTime)

	root, ok := g.FindKey(opts.Root)
	if !ok {
		return nil, errors.New(errors.ErrCodeRecordNotFound, "no record %s", opts.Root)
	}

	// Stage 2: Serialize
	serializeStart := time.Now()
	out, err := serialize.Serialize(root, opts.SerializeOpts())
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.SerializeTime = time.Since(serializeStart)

	r.Logger.Info("serialized root",
		"root", opts.Root,
		"duration", result.Stats.SerializeTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	artifacts, artifactHit, err := r.EncodeWithCacheInfo(ctx, out, result.GraphHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.CacheInfo.ArtifactHit = artifactHit

	r.Logger.Info("encoded outputs",
		"formats", opts.Formats,
		"duration", result.Stats.EncodeTime)

	return result, nil
}

// LoadWithCacheInfo loads a record graph with caching and reports whether
// the cache was hit. Caching requires a schema to decode cached documents;
// without one the source is always consulted.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, src source.Source, opts Options) (*record.Graph, bool, error) {
	r.applyLogger(&opts)

	cacheable := opts.Schema != nil && opts.Source != ""
	var cacheKey string
	if cacheable {
		cacheKey = r.Keyer.GraphKey(opts.Source)
	}

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			g, err := source.Decode(opts.Schema, bytes.NewReader(data))
			if err == nil {
				return g, true, nil
			}
			// Undecodable cache entries fall through to a fresh load.
		}
	}

	g, err := src.Load(ctx)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := source.Encode(g); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
		}
	}

	return g, false, nil
}

// Load is a convenience wrapper that discards the cache hit info.
func (r *Runner) Load(ctx context.Context, src source.Source, opts Options) (*record.Graph, error) {
	g, _, err := r.LoadWithCacheInfo(ctx, src, opts)
	return g, err
}

// EncodeWithCacheInfo produces the requested artifacts with caching and
// reports whether every format came from cache.
func (r *Runner) EncodeWithCacheInfo(ctx context.Context, out map[string]any, graphHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheable := graphHash != ""
	artifacts := make(map[string][]byte)

	if cacheable && !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			key := r.Keyer.OutputKey(graphHash, opts.OutputKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	for _, format := range opts.Formats {
		data, err := r.encode(format, out, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if cacheable {
			key := r.Keyer.OutputKey(graphHash, opts.OutputKeyOpts(format))
			_ = r.Cache.Set(ctx, key, data, cache.TTLOutput)
		}
	}

	return artifacts, false, nil
}

// encode produces one artifact. Diagram formats render the schema's
// relationship graph under the run's override rules, not the record data.
func (r *Runner) encode(format string, out map[string]any, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		if opts.Pretty {
			return json.MarshalIndent(out, "", "  ")
		}
		return json.Marshal(out)
	case FormatDOT, FormatSVG, FormatPNG:
		src, err := dot.ToDOT(opts.Schema, dot.Options{
			Root:  opts.RootType(),
			Rules: opts.Rules,
		})
		if err != nil {
			return nil, err
		}
		switch format {
		case FormatSVG:
			return dot.RenderSVG(src)
		case FormatPNG:
			return dot.RenderPNG(src)
		}
		return []byte(src), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "format %q", format)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
