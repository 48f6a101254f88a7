package record

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrMissingID is returned by [Graph.Add] when the record has no "id"
	// field. Indexed records need a key for relation linking.
	ErrMissingID = errors.New("record must have an id field")

	// ErrDuplicateKey is returned by [Graph.Add] when a record with the
	// same type and id already exists in the graph.
	ErrDuplicateKey = errors.New("duplicate record key")

	// ErrUnknownType is returned by [Graph.Add] when the record's type was
	// not registered with [Graph.AddType] first.
	ErrUnknownType = errors.New("unknown schema type")

	// ErrDuplicateType is returned by [Graph.AddType] for repeated type
	// names.
	ErrDuplicateType = errors.New("duplicate schema type")
)

// Graph is a collection of records indexed by "type:id" key, used by record
// sources to link relations after loading. Serialization itself never needs
// a Graph - it walks outward from a single root - but sources and the CLI
// use it to resolve references and pick roots.
//
// Graph is not safe for concurrent mutation.
type Graph struct {
	types   map[string]*Type
	records []*Record
	index   map[string]*Record
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		types: make(map[string]*Type),
		index: make(map[string]*Record),
	}
}

// AddType registers a schema type.
func (g *Graph) AddType(t *Type) error {
	if _, exists := g.types[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
	}
	g.types[t.Name] = t
	return nil
}

// Type returns the registered type with the given name.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.types[name]
	return t, ok
}

// Types returns all registered types sorted by name.
func (g *Graph) Types() []*Type {
	out := make([]*Type, 0, len(g.types))
	for _, t := range g.types {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Type) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Add indexes a record. The record's type must be registered and its
// "type:id" key unique.
func (g *Graph) Add(r *Record) error {
	if _, ok := g.types[r.Schema().Name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, r.Schema().Name)
	}
	key := r.Key()
	if key == "" {
		return fmt.Errorf("%w (type %s)", ErrMissingID, r.Schema().Name)
	}
	if _, exists := g.index[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	g.records = append(g.records, r)
	g.index[key] = r
	return nil
}

// Find returns the record with the given type and id.
func (g *Graph) Find(typeName string, id any) (*Record, bool) {
	r, ok := g.index[fmt.Sprintf("%s:%v", typeName, id)]
	return r, ok
}

// FindKey returns the record with the given "type:id" key.
func (g *Graph) FindKey(key string) (*Record, bool) {
	r, ok := g.index[key]
	return r, ok
}

// Records returns all records in insertion order. The slice is shared;
// callers must not modify it.
func (g *Graph) Records() []*Record { return g.records }

// RecordsOf returns the records of one type, in insertion order.
func (g *Graph) RecordsOf(typeName string) []*Record {
	var out []*Record
	for _, r := range g.records {
		if r.Schema().Name == typeName {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of indexed records.
func (g *Graph) Len() int { return len(g.records) }
