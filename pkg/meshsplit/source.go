package meshsplit

import (
	"fmt"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// SourceMesh is the read-only input to a split. The splitter snapshots what it
// needs at the start of Split, so the caller may reuse the buffers afterwards.
type SourceMesh struct {
	VertexCount  int
	Positions    []math.Vec3 // per-vertex positions used for bucketing
	Indices      []uint32    // triangle list, len%3 == 0
	VertexBuffer []byte      // VertexCount*Layout.Stride bytes
	Layout       Layout
}

// NewSourceMesh builds a SourceMesh over an interleaved vertex buffer,
// decoding the bucketing positions from the layout's Position channel.
func NewSourceMesh(vertexBuffer []byte, layout Layout, indices []uint32) (*SourceMesh, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(vertexBuffer)%layout.Stride != 0 {
		return nil, fmt.Errorf("%w: buffer of %d bytes is not a multiple of stride %d",
			ErrInvalidSourceMesh, len(vertexBuffer), layout.Stride)
	}
	n := len(vertexBuffer) / layout.Stride
	positions := make([]math.Vec3, n)
	for i := range positions {
		p, _ := layout.Decode(vertexBuffer, i, AttrPosition)
		positions[i] = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	return &SourceMesh{
		VertexCount:  n,
		Positions:    positions,
		Indices:      indices,
		VertexBuffer: vertexBuffer,
		Layout:       layout,
	}, nil
}

// Stride returns the byte length of one vertex record.
func (m *SourceMesh) Stride() int {
	return m.Layout.Stride
}

// TriangleCount returns the number of triangles in the index list.
func (m *SourceMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks the mesh is internally consistent.
func (m *SourceMesh) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrInvalidSourceMesh)
	}
	if err := m.Layout.Validate(); err != nil {
		return err
	}
	if m.VertexCount < 0 {
		return fmt.Errorf("%w: vertex count %d", ErrInvalidSourceMesh, m.VertexCount)
	}
	if want := m.VertexCount * m.Layout.Stride; len(m.VertexBuffer) != want {
		return fmt.Errorf("%w: vertex buffer is %d bytes, want %d (%d vertices x stride %d)",
			ErrInvalidSourceMesh, len(m.VertexBuffer), want, m.VertexCount, m.Layout.Stride)
	}
	if len(m.Positions) != m.VertexCount {
		return fmt.Errorf("%w: %d positions for %d vertices", ErrInvalidSourceMesh, len(m.Positions), m.VertexCount)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidSourceMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int64(idx) >= int64(m.VertexCount) {
			return fmt.Errorf("%w: index %d at position %d out of range [0,%d)",
				ErrInvalidSourceMesh, idx, i, m.VertexCount)
		}
	}
	return nil
}
