package meshsplit

import (
	"fmt"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// SubMesh is one output mesh: the triangles of a single grid cell with their
// full vertex records, ready for upload. The caller owns all of its buffers.
type SubMesh struct {
	Name         string
	Key          GridKey
	VertexBuffer []byte
	Layout       Layout
	VertexCount  int
	IndexBuffer  []byte
	IndexFormat  IndexFormat
	SubMeshes    []SubMeshDescriptor
	Bounds       math.AABB
}

// Stride returns the byte length of one vertex record.
func (m *SubMesh) Stride() int {
	return m.Layout.Stride
}

// Indices returns the decoded index buffer.
func (m *SubMesh) Indices() []uint32 {
	return DecodeIndices(m.IndexBuffer, m.IndexFormat)
}

// IndexCount returns the number of indices in the index buffer.
func (m *SubMesh) IndexCount() int {
	return len(m.IndexBuffer) / m.IndexFormat.Size()
}

// TriangleCount returns the number of triangles.
func (m *SubMesh) TriangleCount() int {
	return m.IndexCount() / 3
}

// Position decodes the position of vertex i.
func (m *SubMesh) Position(i int) math.Vec3 {
	p, _ := m.Layout.Decode(m.VertexBuffer, i, AttrPosition)
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// RecalculateBounds sets Bounds to the tight box around all vertex positions.
// A mesh without vertices keeps its current bounds.
func (m *SubMesh) RecalculateBounds() {
	if m.VertexCount == 0 {
		return
	}
	b := math.EmptyAABB()
	for i := 0; i < m.VertexCount; i++ {
		b.Extend(m.Position(i))
	}
	m.Bounds = b
}

// assemble wraps built mesh data into SubMesh records. Bounds start as the
// grid cell and are immediately recomputed from the copied positions.
func assemble(buckets []Bucket, data []*MeshData, gridSize float32) ([]SubMesh, error) {
	if len(buckets) != len(data) {
		return nil, fmt.Errorf("%w: %d buckets but %d built meshes", ErrContractViolation, len(buckets), len(data))
	}

	out := make([]SubMesh, len(data))
	cell := math.Splat(gridSize)
	for i, md := range data {
		key := buckets[i].Key
		if md == nil {
			return nil, keyError("assemble", key, fmt.Errorf("%w: missing build result", ErrContractViolation))
		}
		out[i] = SubMesh{
			Name:         "SubMesh " + key.String(),
			Key:          key,
			VertexBuffer: md.VertexBuffer,
			Layout:       md.Layout,
			VertexCount:  md.VertexCount,
			IndexBuffer:  md.IndexBuffer,
			IndexFormat:  md.IndexFormat,
			SubMeshes:    md.SubMeshes,
			Bounds:       math.AABBFromCenterSize(key.Vec3(), cell),
		}
		out[i].RecalculateBounds()
	}
	return out, nil
}
