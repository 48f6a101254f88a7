// Package schema loads TOML schema configuration: the record types of a
// graph, their declared serialize rules, and the relation bindings record
// sources use to link foreign keys into an in-memory graph.
//
// # Example
//
//	[types.zookeeper]
//	rules = ["-animals.zookeeper"]
//	dates = ["birthday"]
//
//	[types.animal]
//	rules = ["-zookeeper.animals", "-enclosure.animals"]
//
//	[[types.animal.relations]]
//	name        = "zookeeper"
//	target      = "zookeeper"
//	foreign_key = "zookeeper_id"
//	inverse     = "animals"
package schema

import (
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/rules"
)

// Relation binds a to-one relationship to the foreign key that realizes it
// in stored documents. Relations are declared on the side holding the key;
// the optional inverse names the to-many back-reference built on the
// target, which is the edge declared rules typically cut.
type Relation struct {
	Name       string `toml:"name"`
	Target     string `toml:"target"`
	ForeignKey string `toml:"foreign_key"`
	Inverse    string `toml:"inverse"`
}

// TypeConfig is the per-type declared configuration.
type TypeConfig struct {
	// Collection overrides the storage collection name (defaults to the
	// type name).
	Collection string `toml:"collection"`

	// Rules are declared serialize rules in textual form.
	Rules []string `toml:"rules"`

	// Only is the declared allow-list.
	Only []string `toml:"only"`

	// Dates lists fields holding date-only values; sources parse them
	// into record.Date so they serialize as "YYYY-MM-DD".
	Dates []string `toml:"dates"`

	// Relations are the type's foreign-key relation bindings.
	Relations []Relation `toml:"relations"`
}

// Schema is a full schema configuration keyed by type name.
type Schema struct {
	Types map[string]TypeConfig `toml:"types"`
}

// Load reads and validates a TOML schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "read schema %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates TOML schema bytes.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks type names, rule syntax, and relation targets.
func (s *Schema) Validate() error {
	if len(s.Types) == 0 {
		return errors.New(errors.ErrCodeInvalidSchema, "schema declares no types")
	}

	for name, cfg := range s.Types {
		if err := errors.ValidateTypeName(name); err != nil {
			return err
		}
		if _, err := rules.ParseAll(cfg.Rules...); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s", name)
		}
		for _, p := range cfg.Only {
			if err := errors.ValidateRulePath(p); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s", name)
			}
		}
		for _, rel := range cfg.Relations {
			if err := errors.ValidateName(rel.Name); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s relation", name)
			}
			if _, ok := s.Types[rel.Target]; !ok {
				return errors.New(errors.ErrCodeInvalidSchema,
					"type %s relation %s targets unknown type %s", name, rel.Name, rel.Target)
			}
			if rel.ForeignKey == "" {
				return errors.New(errors.ErrCodeInvalidSchema,
					"type %s relation %s has no foreign key", name, rel.Name)
			}
			if rel.Inverse != "" {
				if err := errors.ValidateName(rel.Inverse); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s relation %s inverse", name, rel.Name)
				}
			}
		}
	}
	return nil
}

// TypeNames returns the declared type names, sorted.
func (s *Schema) TypeNames() []string {
	return slices.Sorted(maps.Keys(s.Types))
}

// CollectionName returns the storage collection for a type, defaulting to
// the type name.
func (s *Schema) CollectionName(typeName string) string {
	if cfg, ok := s.Types[typeName]; ok && cfg.Collection != "" {
		return cfg.Collection
	}
	return typeName
}

// IsDateField reports whether the named field of a type holds a date-only
// value.
func (s *Schema) IsDateField(typeName, field string) bool {
	cfg, ok := s.Types[typeName]
	if !ok {
		return false
	}
	return slices.Contains(cfg.Dates, field)
}

// BuildGraph creates an empty record graph with every declared type
// registered, declared rules parsed, and allow-lists attached. Sources add
// records and link relations on top.
func (s *Schema) BuildGraph() (*record.Graph, error) {
	g := record.NewGraph()
	for _, name := range s.TypeNames() {
		cfg := s.Types[name]
		set, err := rules.ParseAll(cfg.Rules...)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "type %s", name)
		}
		t := &record.Type{Name: name, Rules: set, Only: cfg.Only}
		if err := g.AddType(t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "register type %s", name)
		}
	}
	return g, nil
}
