package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/jmalten/recgraph/pkg/rules"
	"github.com/jmalten/recgraph/pkg/schema"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes declared rules and date fields in node labels.
	// When false, only the type name is shown.
	Detailed bool

	// Root and Rules apply override rules relative to Root, on top of
	// each type's declared rules. Rules without a Root are ignored.
	Root  string
	Rules []string
}

// edge is one directed relationship in the type graph.
type edge struct {
	from, to string
	label    string
	toMany   bool
}

// ToDOT converts a schema's relationship graph to Graphviz DOT format.
// Each declared relation contributes a to-one edge and, when an inverse is
// bound, a to-many back-edge. Edges cut by exclusion rules are rendered
// with dashed grey lines so uncut cycles stand out.
func ToDOT(s *schema.Schema, opts Options) (string, error) {
	edges := collectEdges(s)
	cut, err := cutEdges(s, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range s.TypeNames() {
		label := fmtLabel(s, name, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", name, label)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		attrs := []string{fmt.Sprintf("label=%q", e.label)}
		if e.toMany {
			attrs = append(attrs, "arrowhead=crow")
		}
		if cut[e.from+"."+e.label] {
			attrs = append(attrs, "style=dashed", "color=grey", "fontcolor=grey")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.from, e.to, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtLabel(s *schema.Schema, name string, detailed bool) string {
	if !detailed {
		return name
	}

	cfg := s.Types[name]
	parts := []string{name}
	for _, r := range cfg.Rules {
		parts = append(parts, r)
	}
	if len(cfg.Only) > 0 {
		parts = append(parts, "only: "+strings.Join(cfg.Only, ","))
	}
	for _, d := range cfg.Dates {
		parts = append(parts, "date: "+d)
	}
	return strings.Join(parts, "\n")
}

// collectEdges lists every relationship edge in sorted type order so DOT
// output is deterministic.
func collectEdges(s *schema.Schema) []edge {
	var edges []edge
	for _, name := range s.TypeNames() {
		for _, rel := range s.Types[name].Relations {
			edges = append(edges, edge{from: name, to: rel.Target, label: rel.Name})
			if rel.Inverse != "" {
				edges = append(edges, edge{from: rel.Target, to: name, label: rel.Inverse, toMany: true})
			}
		}
	}
	return edges
}

// cutEdges resolves each rule path through the relationship graph and
// marks the edge its final segment names. Later rules win over earlier
// ones; override rules win over declared ones.
func cutEdges(s *schema.Schema, opts Options) (map[string]bool, error) {
	cut := make(map[string]bool)

	apply := func(declaring string, r rules.Rule) {
		cur := declaring
		segs := r.Segments()
		for _, seg := range segs[:len(segs)-1] {
			next, ok := relationTarget(s, cur, seg)
			if !ok {
				return
			}
			cur = next
		}
		last := segs[len(segs)-1]
		if _, ok := relationTarget(s, cur, last); !ok {
			return
		}
		cut[cur+"."+last] = r.Sign == rules.Exclude
	}

	for _, name := range s.TypeNames() {
		set, err := rules.ParseAll(s.Types[name].Rules...)
		if err != nil {
			return nil, err
		}
		for _, r := range set {
			apply(name, r)
		}
	}

	if opts.Root != "" {
		set, err := rules.ParseAll(opts.Rules...)
		if err != nil {
			return nil, err
		}
		for _, r := range set {
			apply(opts.Root, r)
		}
	}

	return cut, nil
}

// relationTarget resolves one relationship segment from a type, covering
// both declared to-one relations and inverse to-many back-references.
func relationTarget(s *schema.Schema, typeName, relName string) (string, bool) {
	for _, rel := range s.Types[typeName].Relations {
		if rel.Name == relName {
			return rel.Target, true
		}
	}
	for _, name := range s.TypeNames() {
		for _, rel := range s.Types[name].Relations {
			if rel.Target == typeName && rel.Inverse == relName {
				return name, true
			}
		}
	}
	return "", false
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
