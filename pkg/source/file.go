package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/schema"
)

// document is the JSON file format: a flat list of typed records whose
// relations are expressed through foreign-key fields, exactly as a
// relational store would hand them over.
type document struct {
	Records []recordDoc `json:"records"`
}

type recordDoc struct {
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// FileSource loads a record graph from a JSON document file.
type FileSource struct {
	schema *schema.Schema
	path   string
}

// NewFileSource creates a source reading the JSON document at path,
// interpreted under the given schema.
func NewFileSource(s *schema.Schema, path string) *FileSource {
	return &FileSource{schema: s, path: path}
}

// Load reads, materializes, and links the document's records.
func (f *FileSource) Load(ctx context.Context) (*record.Graph, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "open %s", f.path)
	}
	defer file.Close()

	g, err := Decode(f.schema, file)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeSource
		}
		return nil, errors.Wrap(code, err, "load %s", f.path)
	}
	return g, nil
}

// Decode materializes and links a record graph from JSON document bytes.
// The document format is a flat record list with foreign-key fields; see
// [FileSource].
func Decode(s *schema.Schema, r io.Reader) (*record.Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}

	g, err := s.BuildGraph()
	if err != nil {
		return nil, err
	}

	for i, rd := range doc.Records {
		t, ok := g.Type(rd.Type)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"record %d has undeclared type %q", i, rd.Type)
		}
		rec := record.New(t)
		for name, raw := range rd.Fields {
			v, err := normalizeJSON(rd.Type, name, raw, s)
			if err != nil {
				return nil, err
			}
			rec.Set(name, v)
		}
		if err := g.Add(rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSource, err, "index record %d", i)
		}
	}

	if err := link(g, s); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode writes a record graph to the JSON document format, fields only.
// Relations are not written - they are reconstructed from foreign keys on
// the next Decode. Records keep insertion order and fields are sorted for
// stable output.
func Encode(g *record.Graph) ([]byte, error) {
	doc := document{Records: make([]recordDoc, 0, g.Len())}
	for _, rec := range g.Records() {
		fields := make(map[string]any, len(rec.Fields()))
		for _, name := range slices.Sorted(maps.Keys(rec.Fields())) {
			v := rec.Fields()[name]
			if d, ok := v.(record.Date); ok {
				v = d.String()
			}
			fields[name] = v
		}
		doc.Records = append(doc.Records, recordDoc{Type: rec.Schema().Name, Fields: fields})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFile writes a record graph to a JSON document file via [Encode].
func SaveFile(g *record.Graph, path string) error {
	data, err := Encode(g)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Ensure FileSource implements Source.
var _ Source = (*FileSource)(nil)
