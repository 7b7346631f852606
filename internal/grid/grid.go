// Package grid indexes occluder polygons in a uniform 3D grid and walks
// the cells crossed by a ray.
package grid

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/pkg/math"
)

// ErrNoOccluders is returned when a grid is requested for a scene without
// any face.
var ErrNoOccluders = errors.New("grid has no occluders")

// DefaultCells is the default target number of cells.
const DefaultCells = 1000

// maxCellsPerAxis bounds the resolution on any axis.
const maxCellsPerAxis = 512

// Occluder is a face registered in the grid.
type Occluder struct {
	Face *mesh.Face
	Box  picking.AABB

	// stamp is the id of the last ray that reported the occluder.
	stamp uint64
}

// Grid is a uniform partition of a bounding box. It is not safe for
// concurrent ray casts: each cast stamps the occluders it reports.
type Grid struct {
	box       picking.AABB
	dims      [3]int
	cellSize  math.Vec3
	cells     [][]*Occluder
	occluders []*Occluder
	timestamp uint64
	log       *zap.Logger
}

// New creates an empty grid over box with roughly target cells.
func New(box picking.AABB, target int) *Grid {
	if target <= 0 {
		target = DefaultCells
	}
	size := box.Size()
	// Flat scenes still need a volume to partition.
	pad := 1e-6 * (size.Length() + 1)
	for axis := 0; axis < 3; axis++ {
		if size.Component(axis) < size.Length()*1e-2 {
			pad = gomath.Max(pad, size.Length()*1e-2)
		}
	}
	box = box.Expand(pad)
	size = box.Size()

	side := gomath.Cbrt(size.X * size.Y * size.Z / float64(target))
	g := &Grid{box: box, log: logger.Named("grid")}
	total := 1
	for axis := 0; axis < 3; axis++ {
		n := int(gomath.Ceil(size.Component(axis) / side))
		n = max(1, min(n, maxCellsPerAxis))
		g.dims[axis] = n
		total *= n
	}
	g.cellSize = math.Vec3{
		X: size.X / float64(g.dims[0]),
		Y: size.Y / float64(g.dims[1]),
		Z: size.Z / float64(g.dims[2]),
	}
	g.cells = make([][]*Occluder, total)
	return g
}

// Build creates a grid over every face of the shapes.
func Build(shapes []*mesh.Shape, target int) (*Grid, error) {
	var box picking.AABB
	faces := 0
	for _, s := range shapes {
		if len(s.Faces) == 0 {
			continue
		}
		if faces == 0 {
			box = s.Bounds
		} else {
			box = box.Union(s.Bounds)
		}
		faces += len(s.Faces)
	}
	if faces == 0 {
		return nil, fmt.Errorf("building grid over %d shapes: %w", len(shapes), ErrNoOccluders)
	}

	g := New(box, target)
	for _, s := range shapes {
		for _, f := range s.Faces {
			g.Insert(f)
		}
	}
	g.log.Debug("grid built",
		zap.Ints("cells", g.dims[:]),
		zap.Int("occluders", len(g.occluders)))
	return g, nil
}

// Dims returns the number of cells on each axis.
func (g *Grid) Dims() [3]int {
	return g.dims
}

// Bounds returns the partitioned box.
func (g *Grid) Bounds() picking.AABB {
	return g.box
}

// Len returns the number of registered occluders.
func (g *Grid) Len() int {
	return len(g.occluders)
}

func (g *Grid) index(c [3]int) int {
	return (c[2]*g.dims[1]+c[1])*g.dims[0] + c[0]
}

// cellOf returns the cell containing p, clamped to the grid.
func (g *Grid) cellOf(p math.Vec3) [3]int {
	var c [3]int
	for axis := 0; axis < 3; axis++ {
		i := int(gomath.Floor((p.Component(axis) - g.box.Min.Component(axis)) / g.cellSize.Component(axis)))
		c[axis] = max(0, min(i, g.dims[axis]-1))
	}
	return c
}

// Insert registers a face in every cell overlapped by its bounding box.
func (g *Grid) Insert(f *mesh.Face) {
	box := picking.NewAABB(f.Vertex(0).Point, f.Vertex(0).Point)
	for i := 1; i < f.NumVertices(); i++ {
		p := f.Vertex(i).Point
		box = box.Union(picking.AABB{Min: p, Max: p})
	}
	o := &Occluder{Face: f, Box: box}
	g.occluders = append(g.occluders, o)

	lo := g.cellOf(box.Min)
	hi := g.cellOf(box.Max)
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				i := g.index([3]int{x, y, z})
				g.cells[i] = append(g.cells[i], o)
			}
		}
	}
}
