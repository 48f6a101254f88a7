// Package serialize converts record graphs with cyclic relationships into
// nested plain data (maps, slices, scalars) ready for JSON encoding.
//
// Cycle safety is a configuration contract, not an automatic guarantee:
// the engine performs no visited-record detection. Schema authors cut every
// back-reference with a declared rule (e.g. "-animals.zookeeper"), and a
// MaxDepth backstop turns violations of that contract into a recoverable
// SERIALIZE_DEPTH error instead of exhausting the stack.
//
// # Usage
//
//	out, err := serialize.Serialize(keeper, serialize.Options{})
//	if err != nil {
//	    return err
//	}
//	data, _ := json.Marshal(out)
//
// Per-call overrides always have final say over declared rules:
//
//	// Drop the whole animals subtree regardless of declared rules.
//	out, err := serialize.Serialize(keeper, serialize.Options{
//	    Rules: []string{"-animals"},
//	})
package serialize

import (
	"maps"
	"slices"
	"strings"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/rules"
)

// DefaultMaxDepth is the traversal depth backstop applied when Options
// leaves MaxDepth unset. Deep enough for any sanely-ruled schema, shallow
// enough to fail fast when a back-reference rule is missing.
const DefaultMaxDepth = 8

// Options configures one Serialize call.
type Options struct {
	// Rules are per-call override rules in textual form (e.g. "-animals").
	// They are rooted at the root record and take precedence over declared
	// rules for paths of equal specificity.
	Rules []string

	// Only is a strict allow-list rooted at the root record. When
	// non-empty, any name not listed directly or via a dotted descendant
	// path is absent from the output.
	Only []string

	// MaxDepth bounds relationship recursion. Zero means DefaultMaxDepth.
	// Exceeding it fails the whole call with SERIALIZE_DEPTH; no partial
	// output is returned.
	MaxDepth int

	// Strict makes conflicting same-path rules of equal precedence fail
	// with RULE_CONFLICT instead of resolving last-writer-wins.
	Strict bool
}

// Serialize walks rec and its relationships depth-first and returns the
// effective plain-data structure. It is a pure function of its inputs: rec
// is never mutated and the returned maps are freshly allocated, so
// concurrent calls over shared records are safe.
func Serialize(rec record.Serializable, opts Options) (map[string]any, error) {
	if rec == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "record cannot be nil")
	}

	maxDepth := opts.MaxDepth
	switch {
	case maxDepth == 0:
		maxDepth = DefaultMaxDepth
	case maxDepth < 0:
		return nil, errors.New(errors.ErrCodeInvalidInput, "MaxDepth must be positive, got %d", opts.MaxDepth)
	}

	overrides, err := rules.ParseAll(opts.Rules...)
	if err != nil {
		return nil, err
	}
	resolver, err := rules.NewResolver(overrides, opts.Only, opts.Strict)
	if err != nil {
		return nil, err
	}

	w := &walker{resolver: resolver, maxDepth: maxDepth}
	return w.walk(rec, nil)
}

// walker carries the per-call traversal state.
type walker struct {
	resolver *rules.Resolver
	maxDepth int
}

func (w *walker) walk(rec record.Serializable, path []string) (map[string]any, error) {
	if len(path) > w.maxDepth {
		return nil, errors.New(errors.ErrCodeSerializeDepth,
			"max depth %d exceeded at %q: exclude the back-reference relationship or raise MaxDepth",
			w.maxDepth, strings.Join(path, "."))
	}

	var declared rules.Set
	var only []string
	if t := rec.Schema(); t != nil {
		declared, only = t.Rules, t.Only
	}
	if err := w.resolver.Push(len(path), declared, only); err != nil {
		return nil, err
	}
	defer w.resolver.Pop()

	out := make(map[string]any)

	fields := rec.Fields()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		included, err := w.resolver.Included(path, name)
		if err != nil {
			return nil, err
		}
		if !included {
			continue
		}
		v, err := coerce(name, fields[name])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}

	rels := rec.Relations()
	for _, name := range slices.Sorted(maps.Keys(rels)) {
		included, err := w.resolver.Included(path, name)
		if err != nil {
			return nil, err
		}
		if !included {
			// Short-circuit: an excluded relationship's subtree is never
			// traversed, so an excluded cycle costs nothing.
			continue
		}

		childPath := append(path[:len(path):len(path)], name)
		rel := rels[name]

		if rel.ToMany {
			items := make([]any, 0, len(rel.Records))
			for _, target := range rel.Records {
				if target == nil {
					continue
				}
				m, err := w.walk(target, childPath)
				if err != nil {
					return nil, err
				}
				items = append(items, m)
			}
			out[name] = items
			continue
		}

		target := rel.Target()
		if target == nil {
			out[name] = nil
			continue
		}
		m, err := w.walk(target, childPath)
		if err != nil {
			return nil, err
		}
		out[name] = m
	}

	return out, nil
}
