package meshsplit

import (
	"encoding/binary"
	"fmt"
	gomath "math"
)

// IndexFormat is the width of one index in an index buffer.
type IndexFormat uint8

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

// Size returns the byte size of one index.
func (f IndexFormat) Size() int {
	if f == IndexUInt16 {
		return 2
	}
	return 4
}

func (f IndexFormat) String() string {
	if f == IndexUInt16 {
		return "UInt16"
	}
	return "UInt32"
}

// IndexFormatFor picks the narrowest index format able to address vertexCount
// vertices. The all-ones value of each width is kept free.
func IndexFormatFor(vertexCount int) (IndexFormat, error) {
	switch {
	case vertexCount < 0:
		return 0, fmt.Errorf("%w: vertex count %d", ErrContractViolation, vertexCount)
	case vertexCount <= gomath.MaxUint16:
		return IndexUInt16, nil
	case int64(vertexCount) <= gomath.MaxUint32:
		return IndexUInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d vertices exceed the 32-bit index range", ErrResourceExhaustion, vertexCount)
	}
}

// SubMeshDescriptor is a contiguous index range drawn as one triangle list.
type SubMeshDescriptor struct {
	IndexStart  int
	IndexCount  int
	VertexCount int
}

// MeshData is the raw result of building one bucket.
type MeshData struct {
	VertexBuffer []byte
	Layout       Layout
	VertexCount  int
	IndexBuffer  []byte
	IndexFormat  IndexFormat
	SubMeshes    []SubMeshDescriptor
}

// SubMeshBuilder turns buckets into standalone meshes by copying whole vertex
// records out of a shared cache. A builder holds no mutable state, so one
// value may serve any number of goroutines.
type SubMeshBuilder struct {
	cache *VertexBufferCache
}

// NewSubMeshBuilder returns a builder reading from cache.
func NewSubMeshBuilder(cache *VertexBufferCache) *SubMeshBuilder {
	return &SubMeshBuilder{cache: cache}
}

// Build creates the mesh for one bucket. Every index occurrence becomes its
// own output vertex, so the index buffer is simply 0..n-1 and triangle
// grouping and winding are preserved.
func (b *SubMeshBuilder) Build(bucket Bucket) (*MeshData, error) {
	n := len(bucket.Indices)
	if n%3 != 0 {
		return nil, fmt.Errorf("%w: bucket holds %d indices, not a multiple of 3", ErrContractViolation, n)
	}

	layout := b.cache.Layout()
	total := 0
	for _, d := range layout.Attributes {
		total += d.Size()
	}
	stride := b.cache.Stride()
	if total != stride {
		return nil, fmt.Errorf("%w: cached stride %d, attributes total %d", ErrContractViolation, stride, total)
	}

	format, err := IndexFormatFor(n)
	if err != nil {
		return nil, err
	}

	vertices := make([]byte, n*stride)
	for i, src := range bucket.Indices {
		rec, err := b.cache.record(src)
		if err != nil {
			return nil, err
		}
		copy(vertices[i*stride:(i+1)*stride], rec)
	}

	return &MeshData{
		VertexBuffer: vertices,
		Layout:       layout,
		VertexCount:  n,
		IndexBuffer:  sequentialIndices(n, format),
		IndexFormat:  format,
		SubMeshes:    []SubMeshDescriptor{{IndexStart: 0, IndexCount: n, VertexCount: n}},
	}, nil
}

// sequentialIndices encodes 0..n-1 little endian in the given width.
func sequentialIndices(n int, format IndexFormat) []byte {
	size := format.Size()
	buf := make([]byte, n*size)
	for i := 0; i < n; i++ {
		if format == IndexUInt16 {
			binary.LittleEndian.PutUint16(buf[i*size:], uint16(i))
		} else {
			binary.LittleEndian.PutUint32(buf[i*size:], uint32(i))
		}
	}
	return buf
}

// DecodeIndices expands an index buffer to uint32 values.
func DecodeIndices(buf []byte, format IndexFormat) []uint32 {
	size := format.Size()
	out := make([]uint32, len(buf)/size)
	for i := range out {
		if format == IndexUInt16 {
			out[i] = uint32(binary.LittleEndian.Uint16(buf[i*size:]))
		} else {
			out[i] = binary.LittleEndian.Uint32(buf[i*size:])
		}
	}
	return out
}
