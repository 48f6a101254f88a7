// Package pipeline provides the core serialization pipeline for recgraph.
//
// This package implements the complete load → serialize → encode pipeline
// shared by the CLI commands. By centralizing this logic, every entry point
// caches and logs the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Materialize and link a record graph from a source
//  2. Serialize: Walk the root record into rule-filtered plain data
//  3. Encode: Produce output artifacts (JSON, DOT, SVG, PNG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Schema:  sch,
//	    Source:  "records.json",
//	    Root:    "zookeeper:1",
//	    Formats: []string{"json"},
//	}
//	result, err := runner.Execute(ctx, src, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data := result.Artifacts["json"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jmalten/recgraph/pkg/cache"
	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/schema"
	"github.com/jmalten/recgraph/pkg/serialize"
)

// DefaultMaxDepth mirrors the serializer's backstop so callers see one
// default regardless of entry point.
const DefaultMaxDepth = serialize.DefaultMaxDepth

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for the serialization pipeline.
type Options struct {
	// Schema declares the record types; required for graph caching and
	// diagram formats.
	Schema *schema.Schema `json:"-"`

	// Source describes the record source for cache identity, e.g. a file
	// path or a MongoDB URI plus database name.
	Source string `json:"source"`

	// Root is the record to serialize, as "type:id".
	Root string `json:"root"`

	// Serialize options
	Rules    []string `json:"rules,omitempty"`
	Only     []string `json:"only,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
	Strict   bool     `json:"strict,omitempty"`

	// Encode options
	Formats []string `json:"formats,omitempty"`
	Pretty  bool     `json:"pretty,omitempty"`

	// Refresh bypasses cached graphs and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded record graph.
	Graph *record.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Output is the serialized plain-data structure of the root record.
	Output map[string]any

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount   int
	LoadTime      time.Duration
	SerializeTime time.Duration
	EncodeTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit    bool // Whether the loaded graph came from cache
	ArtifactHit bool // Whether all artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Root == "" {
		return errors.New(errors.ErrCodeInvalidInput, "root record is required")
	}
	if !strings.Contains(o.Root, ":") {
		return errors.New(errors.ErrCodeInvalidInput,
			"root must be given as type:id, got %q", o.Root)
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, f := range o.Formats {
		if f != FormatJSON && o.Schema == nil {
			return errors.New(errors.ErrCodeInvalidInput,
				"format %q requires a schema", f)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// RootType returns the type part of the root key.
func (o *Options) RootType() string {
	t, _, _ := strings.Cut(o.Root, ":")
	return t
}

// SerializeOpts returns the serializer options this pipeline run implies.
func (o *Options) SerializeOpts() serialize.Options {
	return serialize.Options{
		Rules:    o.Rules,
		Only:     o.Only,
		MaxDepth: o.MaxDepth,
		Strict:   o.Strict,
	}
}

// OutputKeyOpts returns cache key options for an artifact format.
func (o *Options) OutputKeyOpts(format string) cache.OutputKeyOpts {
	return cache.OutputKeyOpts{
		Root:     o.Root,
		Rules:    o.Rules,
		Only:     o.Only,
		MaxDepth: o.MaxDepth,
		Strict:   o.Strict,
		Format:   format,
		Pretty:   o.Pretty,
	}
}
