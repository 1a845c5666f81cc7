// Package scene holds the in-memory vector scene graph of a rendered chart.
//
// A [Scene] is a tree of [Node] values parsed from SVG markup. Attribute
// order is preserved so re-encoding is deterministic. Primitives are
// classified into chart roles ([Role]) from their class tokens and the groups
// they sit in: bars, lines, areas, points and axis decorations.
//
// The live scene owned by a chart renderer is exposed only through [Live],
// whose sole way to obtain a mutable tree is [Live.Clone]. Exporters always
// work on their own copy, so export never changes what is on screen.
package scene
