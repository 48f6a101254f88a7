// Package source supplies fully-loaded record graphs to the serializer.
//
// A source adapts already-persisted documents (a JSON file, MongoDB
// collections, or the built-in seed fixture) into an in-memory
// [record.Graph]: it materializes every record, then links foreign keys
// into to-one relations and their to-many back-references per the schema's
// relation bindings. The serializer places no constraint on how records
// were loaded - only that relation navigation yields records or nil/empty
// consistently, which link guarantees.
package source

import (
	"context"
	"encoding/json"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/schema"
)

// Source loads a fully-linked record graph. Implementations must return a
// graph whose relations are completely wired before serialization begins.
type Source interface {
	Load(ctx context.Context) (*record.Graph, error)
}

// link wires every declared relation: the foreign-key side becomes a
// to-one relation, and targets gain the inverse to-many back-reference.
// Back-references are set even when empty so records expose a consistent
// relation shape.
//
// A foreign key pointing at a record that was never loaded fails with
// DANGLING_REFERENCE - a half-linked graph would serialize misleadingly.
func link(g *record.Graph, s *schema.Schema) error {
	inverse := make(map[*record.Record]map[string][]record.Serializable)

	ensure := func(target *record.Record, name string) map[string][]record.Serializable {
		m := inverse[target]
		if m == nil {
			m = make(map[string][]record.Serializable)
			inverse[target] = m
		}
		if _, ok := m[name]; !ok {
			m[name] = nil
		}
		return m
	}

	for _, typeName := range s.TypeNames() {
		cfg := s.Types[typeName]
		for _, rel := range cfg.Relations {
			if rel.Inverse != "" {
				for _, target := range g.RecordsOf(rel.Target) {
					ensure(target, rel.Inverse)
				}
			}

			for _, rec := range g.RecordsOf(typeName) {
				fk := rec.Field(rel.ForeignKey)
				if fk == nil {
					rec.SetOne(rel.Name, nil)
					continue
				}
				target, ok := g.Find(rel.Target, fk)
				if !ok {
					return errors.New(errors.ErrCodeDanglingRef,
						"%s:%v relation %s references missing %s:%v",
						typeName, rec.Field("id"), rel.Name, rel.Target, fk)
				}
				rec.SetOne(rel.Name, target)
				if rel.Inverse != "" {
					m := ensure(target, rel.Inverse)
					m[rel.Inverse] = append(m[rel.Inverse], rec)
				}
			}
		}
	}

	for target, rels := range inverse {
		for name, members := range rels {
			target.SetMany(name, members...)
		}
	}
	return nil
}

// normalizeJSON converts a decoded JSON field value into the scalar types
// the serializer accepts. Integral numbers become int64 so ids compare
// consistently across sources.
func normalizeJSON(typeName, field string, v any, s *schema.Schema) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		if str, ok := x.(string); ok && s.IsDateField(typeName, field) {
			d, err := record.ParseDate(str)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
					"%s.%s is declared as a date", typeName, field)
			}
			return d, nil
		}
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
				"%s.%s is not a valid number", typeName, field)
		}
		return f, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"%s.%s: fields must be scalars, got %T", typeName, field, v)
	}
}
