// Package dot renders schema relationship graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// record types appear as boxes connected by labeled relationship arrows.
// Relationships that the schema's declared rules (or a set of override
// rules) exclude from serialization are drawn dashed and grey, so a cyclic
// schema can be inspected for uncut cycles before serializing.
//
// # Usage
//
// Convert a schema to DOT format, then render to SVG:
//
//	src, err := dot.ToDOT(sch, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// For PNG output:
//
//	png, err := dot.RenderPNG(src)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, node labels include the type's declared rules
//     and date fields.
//   - Root, Rules: Override rules applied relative to Root, shown the same
//     way declared rules are.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering.
package dot
