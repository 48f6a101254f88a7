// Package record defines the in-memory data model for record graphs:
// schema types, records with named fields, and named relationships that may
// form cycles via back-references.
//
// Records are supplied fully populated by an external collaborator (see
// package source) before serialization begins. The serializer never mutates
// a record; it operates purely over the [Serializable] capability interface
// so that custom types can participate without inheriting anything.
package record

import (
	"fmt"

	"github.com/jmalten/recgraph/pkg/rules"
)

// Type describes a schema type: its name and the serialization defaults
// declared for it. Declared rules apply relative to every record of the
// type reached during a traversal, which is how back-reference cycles are
// cut (e.g. the animal type declares "-zookeeper.animals").
type Type struct {
	Name string

	// Rules are the type's declared serialize rules. Per-call overrides
	// take precedence over these for paths of equal specificity.
	Rules rules.Set

	// Only is the type's declared allow-list. When non-empty, fields and
	// relationships of records of this type default to excluded unless
	// listed (directly or via a dotted descendant path).
	Only []string
}

// NewType creates a schema type with declared rules parsed from their
// textual form (e.g. "-animals.zookeeper"). Invalid rule specs panic; types
// are package-level declarations where a bad rule is a programming error.
func NewType(name string, ruleSpecs ...string) *Type {
	return &Type{Name: name, Rules: rules.MustParseAll(ruleSpecs...)}
}

// WithOnly sets the type's declared allow-list and returns the type.
func (t *Type) WithOnly(paths ...string) *Type {
	t.Only = paths
	return t
}

// Serializable is the capability contract the serializer operates over.
// A type gains serialization by exposing its schema type, field map, and
// relationship map - no embedding or inheritance involved.
//
// Implementations must return stable views: calling the methods repeatedly
// on an unmodified value must yield equal results, and the serializer will
// not mutate the returned maps.
type Serializable interface {
	// Schema returns the schema type, carrying declared serialize rules.
	Schema() *Type

	// Fields returns the scalar fields by name. Values must be JSON-safe
	// scalars, Date, time.Time, or uuid.UUID; anything else fails
	// serialization with UNSUPPORTED_TYPE.
	Fields() map[string]any

	// Relations returns the named relationships to other records.
	Relations() map[string]Relation
}

// Relation is a named, directed edge to one or many related records.
// Neither side owns the other; lifetime is managed by whoever built the
// graph. The zero value is an empty to-one relation.
type Relation struct {
	// ToMany distinguishes list-valued relationships from single-valued
	// ones. A to-one relation serializes its (possibly nil) single target;
	// a to-many relation serializes an ordered sequence.
	ToMany bool

	// Records holds the targets. For to-one relations only the first entry
	// is meaningful.
	Records []Serializable
}

// One creates a to-one relation. The target may be nil.
func One(target Serializable) Relation {
	if target == nil {
		return Relation{}
	}
	return Relation{Records: []Serializable{target}}
}

// Many creates a to-many relation preserving target order.
func Many(targets ...Serializable) Relation {
	return Relation{ToMany: true, Records: targets}
}

// Target returns the single target of a to-one relation, or nil.
func (r Relation) Target() Serializable {
	if r.ToMany || len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Record is the canonical Serializable implementation: a bag of named
// scalar fields plus named relations, tagged with a schema type.
//
// The zero value is not usable - use New. Record is not safe for concurrent
// mutation, but concurrent serialization of an unmodified record graph is
// safe because serialization only reads.
type Record struct {
	typ    *Type
	fields map[string]any
	rels   map[string]Relation
}

// New creates an empty record of the given schema type.
func New(t *Type) *Record {
	return &Record{
		typ:    t,
		fields: make(map[string]any),
		rels:   make(map[string]Relation),
	}
}

// Schema returns the record's schema type.
func (r *Record) Schema() *Type { return r.typ }

// Fields returns the record's field map. The map is shared, not copied;
// callers must treat it as read-only.
func (r *Record) Fields() map[string]any { return r.fields }

// Relations returns the record's relation map. The map is shared, not
// copied; callers must treat it as read-only.
func (r *Record) Relations() map[string]Relation { return r.rels }

// Set assigns a scalar field and returns the record for chaining.
func (r *Record) Set(name string, value any) *Record {
	r.fields[name] = value
	return r
}

// SetOne assigns a to-one relation and returns the record for chaining.
// Assigning both sides of a bidirectional association creates the cycle
// the declared rules are expected to cut.
func (r *Record) SetOne(name string, target Serializable) *Record {
	r.rels[name] = One(target)
	return r
}

// SetMany assigns a to-many relation and returns the record for chaining.
func (r *Record) SetMany(name string, targets ...Serializable) *Record {
	r.rels[name] = Many(targets...)
	return r
}

// Field returns the named field value, or nil if absent.
func (r *Record) Field(name string) any { return r.fields[name] }

// Relation returns the named relation and whether it exists.
func (r *Record) Relation(name string) (Relation, bool) {
	rel, ok := r.rels[name]
	return rel, ok
}

// Key returns the record's graph key, "type:id", derived from the "id"
// field. Records without an id field have no key and cannot be indexed in
// a Graph.
func (r *Record) Key() string {
	id, ok := r.fields["id"]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%v", r.typ.Name, id)
}

// Ensure Record implements Serializable.
var _ Serializable = (*Record)(nil)
