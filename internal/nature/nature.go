// Package nature defines the bit flags that classify feature edges and
// feature-graph vertices.
package nature

import "strings"

// Edge is a bitmask of the feature kinds carried by a mesh edge, a face
// layer, an FEdge or a ViewEdge. An edge can carry several kinds at once.
type Edge uint16

const (
	// NoFeature marks an edge that is not visually significant.
	NoFeature Edge = 0
	// Silhouette separates front-facing from back-facing surface.
	Silhouette Edge = 1 << (iota - 1)
	// Border has exactly one adjacent face.
	Border
	// Crease has a dihedral angle sharper than the configured crease angle.
	Crease
	// Ridge follows a positive extremum of the maximum principal curvature.
	Ridge
	// Valley follows a negative extremum of the maximum principal curvature.
	Valley
	// SuggestiveContour is a zero of the radial curvature.
	SuggestiveContour
	// MaterialBoundary separates faces with different materials.
	MaterialBoundary
	// EdgeMark was flagged explicitly by the input.
	EdgeMark
	// CuspEdge marks an FEdge ending at a cusp of a smooth silhouette.
	CuspEdge
)

// Visible reports whether the natures take part in exact 2D intersection
// (only silhouettes and borders do).
func (n Edge) Visible() bool {
	return n.Any(Silhouette | Border)
}

// Has reports whether all the bits in other are set.
func (n Edge) Has(other Edge) bool {
	return other != NoFeature && n&other == other
}

// Any reports whether at least one bit in other is set.
func (n Edge) Any(other Edge) bool {
	return n&other != 0
}

var edgeNames = []struct {
	bit  Edge
	name string
}{
	{Silhouette, "SILHOUETTE"},
	{Border, "BORDER"},
	{Crease, "CREASE"},
	{Ridge, "RIDGE"},
	{Valley, "VALLEY"},
	{SuggestiveContour, "SUGGESTIVE_CONTOUR"},
	{MaterialBoundary, "MATERIAL_BOUNDARY"},
	{EdgeMark, "EDGE_MARK"},
	{CuspEdge, "CUSP"},
}

func (n Edge) String() string {
	if n == NoFeature {
		return "NO_FEATURE"
	}
	var parts []string
	for _, e := range edgeNames {
		if n&e.bit != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}

// Vertex is a bitmask describing a feature-graph vertex.
type Vertex uint8

const (
	// SVertex is a plain chain vertex.
	SVertex Vertex = 0
	// ViewVertex anchors ViewEdges.
	ViewVertex Vertex = 1 << (iota - 1)
	// NonTVertex wraps a single SVertex.
	NonTVertex
	// TVertex is a 2D crossing of two FEdges.
	TVertex
	// Cusp is a view-alignment sign flip along a smooth silhouette.
	Cusp
)

// Has reports whether all the bits in other are set.
func (n Vertex) Has(other Vertex) bool {
	return other != SVertex && n&other == other
}

func (n Vertex) String() string {
	if n == SVertex {
		return "S_VERTEX"
	}
	var parts []string
	if n&ViewVertex != 0 {
		parts = append(parts, "VIEW_VERTEX")
	}
	if n&NonTVertex != 0 {
		parts = append(parts, "NON_T_VERTEX")
	}
	if n&TVertex != 0 {
		parts = append(parts, "T_VERTEX")
	}
	if n&Cusp != 0 {
		parts = append(parts, "CUSP")
	}
	return strings.Join(parts, "|")
}
