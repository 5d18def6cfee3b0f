package meshsplit

import "fmt"

// VertexBufferCache is an immutable snapshot of a source vertex buffer and
// its layout. Builders read it concurrently without locking.
type VertexBufferCache struct {
	data        []byte
	layout      Layout
	vertexCount int
}

// NewVertexBufferCache copies every vertex record of the mesh into a private
// buffer. Nothing read from the cache aliases the source mesh afterwards.
func NewVertexBufferCache(m *SourceMesh) (*VertexBufferCache, error) {
	if err := m.Layout.Validate(); err != nil {
		return nil, err
	}
	want := m.VertexCount * m.Layout.Stride
	if len(m.VertexBuffer) != want {
		return nil, fmt.Errorf("%w: cached %d bytes, layout needs %d", ErrContractViolation, len(m.VertexBuffer), want)
	}

	data := make([]byte, want)
	copy(data, m.VertexBuffer)

	return &VertexBufferCache{
		data:        data,
		layout:      m.Layout.Clone(),
		vertexCount: m.VertexCount,
	}, nil
}

// Stride returns the byte length of one vertex record.
func (c *VertexBufferCache) Stride() int {
	return c.layout.Stride
}

// VertexCount returns the number of cached vertices.
func (c *VertexBufferCache) VertexCount() int {
	return c.vertexCount
}

// Len returns the cached buffer length in bytes.
func (c *VertexBufferCache) Len() int {
	return len(c.data)
}

// Layout returns a copy of the cached layout.
func (c *VertexBufferCache) Layout() Layout {
	return c.layout.Clone()
}

// record returns vertex v's bytes. The slice aliases the cache and must not be written.
func (c *VertexBufferCache) record(v uint32) ([]byte, error) {
	if int64(v) >= int64(c.vertexCount) {
		return nil, fmt.Errorf("%w: vertex %d outside cache of %d", ErrContractViolation, v, c.vertexCount)
	}
	s := c.layout.Stride
	start := int(v) * s
	return c.data[start : start+s : start+s], nil
}
