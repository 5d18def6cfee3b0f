package meshsplit

import (
	"cmp"
	"fmt"
	gomath "math"
	"slices"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// GridKey identifies a grid cell by the world coordinate of its center,
// rounded to integers. Axes excluded from splitting are always 0.
type GridKey struct {
	X, Y, Z int32
}

// String returns the key as "(x, y, z)".
func (k GridKey) String() string {
	return fmt.Sprintf("(%d, %d, %d)", k.X, k.Y, k.Z)
}

// Vec3 returns the key as a point.
func (k GridKey) Vec3() math.Vec3 {
	return math.Vec3{X: float32(k.X), Y: float32(k.Y), Z: float32(k.Z)}
}

// Compare orders keys by X, then Y, then Z.
func (k GridKey) Compare(o GridKey) int {
	if c := cmp.Compare(k.X, o.X); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Y, o.Y); c != 0 {
		return c
	}
	return cmp.Compare(k.Z, o.Z)
}

// Bucket is the triangle list assigned to one grid cell: three source vertex
// indices per triangle, in source order.
type Bucket struct {
	Key     GridKey
	Indices []uint32
}

// TriangleCount returns the number of triangles in the bucket.
func (b Bucket) TriangleCount() int {
	return len(b.Indices) / 3
}

// quantize snaps one centroid coordinate to the nearest grid multiple.
// Both roundings are half-to-even so that results never depend on which side
// of a half-cell boundary a platform's rounding favors.
func quantize(c, gridSize float32) (int32, error) {
	cell := gomath.RoundToEven(float64(c / gridSize))
	v := gomath.RoundToEven(float64(float32(cell) * gridSize))
	if gomath.IsNaN(v) || v < gomath.MinInt32 || v > gomath.MaxInt32 {
		return 0, fmt.Errorf("%w: coordinate %g outside the representable grid", ErrInvalidSourceMesh, c)
	}
	return int32(v), nil
}

// CellKey returns the grid key of a point. Disabled axes are pinned to 0.
func CellKey(p math.Vec3, gridSize float32, axes Axes) (GridKey, error) {
	var key [3]int32
	for _, axis := range [3]math.Axis{math.AxisX, math.AxisY, math.AxisZ} {
		if !axes.Enabled(axis) {
			continue
		}
		v, err := quantize(p.Component(axis), gridSize)
		if err != nil {
			return GridKey{}, fmt.Errorf("axis %s: %w", axis, err)
		}
		key[axis] = v
	}
	return GridKey{key[0], key[1], key[2]}, nil
}

// Bucketize assigns every triangle to the cell containing its centroid.
// Buckets are returned sorted by key; each keeps its triangles in source order.
// Cells that receive no triangles never appear.
func Bucketize(indices []uint32, positions []math.Vec3, gridSize float32, axes Axes) ([]Bucket, error) {
	if !(gridSize > 0) {
		return nil, fmt.Errorf("%w: must be > 0, got %g", ErrInvalidGridSize, gridSize)
	}
	if !axes.Any() {
		return nil, ErrNoSplitAxis
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidSourceMesh, len(indices))
	}

	slot := make(map[GridKey]int)
	var buckets []Bucket

	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(max(a, b, c)) >= len(positions) {
			return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d",
				ErrInvalidSourceMesh, i/3, max(a, b, c), len(positions))
		}

		centroid := math.Centroid(positions[a], positions[b], positions[c])
		if !centroid.IsFinite() {
			return nil, fmt.Errorf("%w: triangle %d has non-finite centroid %v", ErrInvalidSourceMesh, i/3, centroid)
		}

		key, err := CellKey(centroid, gridSize, axes)
		if err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i/3, err)
		}

		n, ok := slot[key]
		if !ok {
			n = len(buckets)
			slot[key] = n
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[n].Indices = append(buckets[n].Indices, a, b, c)
	}

	slices.SortFunc(buckets, func(x, y Bucket) int {
		return x.Key.Compare(y.Key)
	})
	return buckets, nil
}
