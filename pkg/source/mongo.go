package source

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/schema"
)

// MongoSource loads a record graph from MongoDB: one collection per schema
// type (the type name unless the schema overrides it), relations linked by
// foreign-key fields exactly as with the file source.
type MongoSource struct {
	db     *mongo.Database
	schema *schema.Schema
}

// NewMongoSource creates a source reading from db under the given schema.
func NewMongoSource(db *mongo.Database, s *schema.Schema) *MongoSource {
	return &MongoSource{db: db, schema: s}
}

// Load fetches every collection declared by the schema, materializes the
// documents as records, and links relations.
func (m *MongoSource) Load(ctx context.Context) (*record.Graph, error) {
	g, err := m.schema.BuildGraph()
	if err != nil {
		return nil, err
	}

	for _, typeName := range m.schema.TypeNames() {
		coll := m.db.Collection(m.schema.CollectionName(typeName))

		cur, err := coll.Find(ctx, bson.D{})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSource, err, "find %s", coll.Name())
		}
		var docs []bson.M
		if err := cur.All(ctx, &docs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSource, err, "read %s", coll.Name())
		}

		t, _ := g.Type(typeName)
		for _, doc := range docs {
			rec := record.New(t)
			for name, raw := range doc {
				if name == "_id" {
					// Mongo's object id only stands in when the document
					// carries no domain id of its own.
					if _, hasID := doc["id"]; hasID {
						continue
					}
					if oid, ok := raw.(primitive.ObjectID); ok {
						rec.Set("id", oid.Hex())
						continue
					}
					name = "id"
				}
				v, err := normalizeBSON(typeName, name, raw, m.schema)
				if err != nil {
					return nil, err
				}
				rec.Set(name, v)
			}
			if err := g.Add(rec); err != nil {
				return nil, errors.Wrap(errors.ErrCodeSource, err, "index %s document", typeName)
			}
		}
	}

	if err := link(g, m.schema); err != nil {
		return nil, err
	}
	return g, nil
}

// normalizeBSON converts a decoded BSON field value into the scalar types
// the serializer accepts. int32 widens to int64 so ids compare
// consistently across sources.
func normalizeBSON(typeName, field string, v any, s *schema.Schema) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		if str, ok := x.(string); ok && s.IsDateField(typeName, field) {
			d, err := record.ParseDate(str)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err,
					"%s.%s is declared as a date", typeName, field)
			}
			return d, nil
		}
		return x, nil
	case int32:
		return int64(x), nil
	case primitive.DateTime:
		t := x.Time().UTC()
		if s.IsDateField(typeName, field) {
			return record.DateOf(t), nil
		}
		return t, nil
	case primitive.ObjectID:
		return x.Hex(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"%s.%s: fields must be scalars, got %T", typeName, field, v)
	}
}

// Ensure MongoSource implements Source.
var _ Source = (*MongoSource)(nil)
