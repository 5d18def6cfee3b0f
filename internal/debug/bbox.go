// Package debug provides gizmo line data for inspecting a split: the grid
// cells a mesh is cut into and the bounds of each output.
package debug

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// BoxVertexCount is the number of vertices in a box wireframe (12 edges × 2).
const BoxVertexCount = 24

// Wireframe is a named line list. Vertices are consumed in pairs.
type Wireframe struct {
	Name     string
	Vertices []math.Vec3
}

// LineCount returns the number of line segments.
func (w Wireframe) LineCount() int {
	return len(w.Vertices) / 2
}

// BoxLines returns the 12 edges of b as 24 line endpoints.
func BoxLines(b math.AABB) []math.Vec3 {
	lo, hi := b.Min, b.Max
	c := func(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }
	return []math.Vec3{
		// Bottom face
		c(lo.X, lo.Y, lo.Z), c(hi.X, lo.Y, lo.Z),
		c(hi.X, lo.Y, lo.Z), c(hi.X, lo.Y, hi.Z),
		c(hi.X, lo.Y, hi.Z), c(lo.X, lo.Y, hi.Z),
		c(lo.X, lo.Y, hi.Z), c(lo.X, lo.Y, lo.Z),
		// Top face
		c(lo.X, hi.Y, lo.Z), c(hi.X, hi.Y, lo.Z),
		c(hi.X, hi.Y, lo.Z), c(hi.X, hi.Y, hi.Z),
		c(hi.X, hi.Y, hi.Z), c(lo.X, hi.Y, hi.Z),
		c(lo.X, hi.Y, hi.Z), c(lo.X, hi.Y, lo.Z),
		// Verticals
		c(lo.X, lo.Y, lo.Z), c(lo.X, hi.Y, lo.Z),
		c(hi.X, lo.Y, lo.Z), c(hi.X, hi.Y, lo.Z),
		c(hi.X, lo.Y, hi.Z), c(hi.X, hi.Y, hi.Z),
		c(lo.X, lo.Y, hi.Z), c(lo.X, hi.Y, hi.Z),
	}
}

// BoundsWireframe outlines b grown by padding on all sides.
// An empty box yields no lines.
func BoundsWireframe(name string, b math.AABB, padding float32) Wireframe {
	if b.IsEmpty() {
		return Wireframe{Name: name}
	}
	return Wireframe{Name: name, Vertices: BoxLines(b.Expand(padding))}
}

// MeshBounds outlines the bounds of every split output.
func MeshBounds(meshes []meshsplit.SubMesh) []Wireframe {
	out := make([]Wireframe, len(meshes))
	for i := range meshes {
		out[i] = BoundsWireframe(meshes[i].Name, meshes[i].Bounds, 0)
	}
	return out
}

// GridWireframe outlines every grid cell touching bounds expanded by one cell.
// Cells are centered on multiples of gridSize along split axes; along other
// axes a cell spans the expanded bounds.
func GridWireframe(bounds math.AABB, gridSize float32, axes meshsplit.Axes) Wireframe {
	w := Wireframe{Name: "grid"}
	if bounds.IsEmpty() || gridSize <= 0 || !axes.Any() {
		return w
	}
	region := bounds.Expand(gridSize)

	xs := cellRange(region.Min.X, region.Max.X, gridSize, axes.X)
	ys := cellRange(region.Min.Y, region.Max.Y, gridSize, axes.Y)
	zs := cellRange(region.Min.Z, region.Max.Z, gridSize, axes.Z)

	w.Vertices = make([]math.Vec3, 0, len(xs)*len(ys)*len(zs)*BoxVertexCount)
	for _, z := range zs {
		for _, y := range ys {
			for _, x := range xs {
				cell := math.AABB{
					Min: math.Vec3{X: x[0], Y: y[0], Z: z[0]},
					Max: math.Vec3{X: x[1], Y: y[1], Z: z[1]},
				}
				w.Vertices = append(w.Vertices, BoxLines(cell)...)
			}
		}
	}
	return w
}

// cellRange returns the [min, max] extents of the cells covering lo..hi on one
// axis. A disabled axis is a single span over lo..hi.
func cellRange(lo, hi, gridSize float32, enabled bool) [][2]float32 {
	if !enabled {
		return [][2]float32{{lo, hi}}
	}
	half := gridSize / 2
	first := int(math32.Floor(lo/gridSize + 0.5))
	last := int(math32.Floor(hi/gridSize + 0.5))
	var out [][2]float32
	for k := first; k <= last; k++ {
		c := float32(k) * gridSize
		out = append(out, [2]float32{c - half, c + half})
	}
	return out
}
