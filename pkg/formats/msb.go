package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// MSB format errors.
var (
	ErrInvalidMSBMagic  = errors.New("invalid MSB magic: expected 'MSB1'")
	ErrTruncatedMSBData = errors.New("truncated MSB data")
	ErrInvalidMSBHeader = errors.New("invalid MSB header")
)

// MSBMagic opens every MSB file.
const MSBMagic = "MSB1"

// MaxMSBPayload bounds the decoded vertex plus index bytes of one file.
const MaxMSBPayload = 1 << 32

// MSBFlags is a bit set stored in the MSB header.
type MSBFlags uint8

const (
	MSBCompressed MSBFlags = 1 << iota // payload is a zstd frame
)

// msbHeader is the fixed-size part of an MSB file. It is followed by
// AttrCount attribute records, SubMeshCount submesh records, NameLen
// name bytes and PayloadLen payload bytes. The uncompressed payload is the
// vertex buffer followed by the index buffer.
type msbHeader struct {
	Magic        [4]byte
	Flags        MSBFlags
	IndexFormat  uint8
	AttrCount    uint8
	_            uint8
	Stride       uint16
	SubMeshCount uint16
	VertexCount  uint32
	IndexCount   uint32
	Key          [3]int32
	BoundsMin    [3]float32
	BoundsMax    [3]float32
	NameLen      uint16
	_            uint16
	PayloadLen   uint32
}

type msbAttribute struct {
	Attribute uint8
	Format    uint8
	Dimension uint8
	_         uint8
	Offset    uint16
}

type msbSubMesh struct {
	IndexStart  uint32
	IndexCount  uint32
	VertexCount uint32
}

// WriteMSB encodes m as an MSB file. With compress set the vertex and index
// payload is stored as one zstd frame.
func WriteMSB(w io.Writer, m *meshsplit.SubMesh, compress bool) error {
	if err := m.Layout.Validate(); err != nil {
		return err
	}
	if len(m.VertexBuffer) != m.VertexCount*m.Layout.Stride {
		return fmt.Errorf("%w: vertex buffer is %d bytes, want %d", ErrInvalidMSBHeader, len(m.VertexBuffer), m.VertexCount*m.Layout.Stride)
	}
	if len(m.Name) > 0xFFFF || len(m.SubMeshes) > 0xFFFF {
		return fmt.Errorf("%w: name or submesh table too long", ErrInvalidMSBHeader)
	}

	payload := make([]byte, 0, len(m.VertexBuffer)+len(m.IndexBuffer))
	payload = append(payload, m.VertexBuffer...)
	payload = append(payload, m.IndexBuffer...)

	h := msbHeader{
		IndexFormat:  uint8(m.IndexFormat),
		AttrCount:    uint8(len(m.Layout.Attributes)),
		Stride:       uint16(m.Layout.Stride),
		SubMeshCount: uint16(len(m.SubMeshes)),
		VertexCount:  uint32(m.VertexCount),
		IndexCount:   uint32(m.IndexCount()),
		Key:          [3]int32{m.Key.X, m.Key.Y, m.Key.Z},
		BoundsMin:    [3]float32{m.Bounds.Min.X, m.Bounds.Min.Y, m.Bounds.Min.Z},
		BoundsMax:    [3]float32{m.Bounds.Max.X, m.Bounds.Max.Y, m.Bounds.Max.Z},
		NameLen:      uint16(len(m.Name)),
	}
	copy(h.Magic[:], MSBMagic)

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		payload = enc.EncodeAll(payload, nil)
		enc.Close()
		h.Flags |= MSBCompressed
	}
	h.PayloadLen = uint32(len(payload))

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &h)
	for _, a := range m.Layout.Attributes {
		binary.Write(&buf, binary.LittleEndian, msbAttribute{
			Attribute: uint8(a.Attribute),
			Format:    uint8(a.Format),
			Dimension: uint8(a.Dimension),
			Offset:    uint16(a.Offset),
		})
	}
	for _, s := range m.SubMeshes {
		binary.Write(&buf, binary.LittleEndian, msbSubMesh{
			IndexStart:  uint32(s.IndexStart),
			IndexCount:  uint32(s.IndexCount),
			VertexCount: uint32(s.VertexCount),
		})
	}
	buf.WriteString(m.Name)
	buf.Write(payload)

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteMSBFile writes m to path.
func WriteMSBFile(path string, m *meshsplit.SubMesh, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMSB(f, m, compress); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMSB reads one MSB file from r.
func ReadMSB(r io.Reader) (*meshsplit.SubMesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMSB(data)
}

// ReadMSBFile reads and parses an MSB file from disk.
func ReadMSBFile(path string) (*meshsplit.SubMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MSB file: %w", err)
	}
	return ParseMSB(data)
}

// ParseMSB parses MSB data from a byte slice.
func ParseMSB(data []byte) (*meshsplit.SubMesh, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedMSBData
	}
	if string(data[:4]) != MSBMagic {
		return nil, ErrInvalidMSBMagic
	}

	r := bytes.NewReader(data)
	var h msbHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, ErrTruncatedMSBData
	}
	if h.Flags&^MSBCompressed != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrInvalidMSBHeader, uint8(h.Flags))
	}
	format := meshsplit.IndexFormat(h.IndexFormat)
	if format != meshsplit.IndexUInt16 && format != meshsplit.IndexUInt32 {
		return nil, fmt.Errorf("%w: index format %d", ErrInvalidMSBHeader, h.IndexFormat)
	}

	// Attribute table
	attrs := make([]meshsplit.AttributeDescriptor, h.AttrCount)
	for i := range attrs {
		var a msbAttribute
		if err := binary.Read(r, binary.LittleEndian, &a); err != nil {
			return nil, ErrTruncatedMSBData
		}
		attrs[i] = meshsplit.AttributeDescriptor{
			Attribute: meshsplit.VertexAttribute(a.Attribute),
			Format:    meshsplit.VertexFormat(a.Format),
			Dimension: int(a.Dimension),
			Offset:    int(a.Offset),
		}
	}
	layout := meshsplit.Layout{Attributes: attrs, Stride: int(h.Stride)}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMSBHeader, err)
	}

	vertexBytes := uint64(h.VertexCount) * uint64(layout.Stride)
	indexBytes := uint64(h.IndexCount) * uint64(format.Size())
	total := vertexBytes + indexBytes
	if total > MaxMSBPayload {
		return nil, fmt.Errorf("%w: declared payload of %d bytes exceeds %d", ErrInvalidMSBHeader, total, uint64(MaxMSBPayload))
	}
	if h.Flags&MSBCompressed == 0 && uint64(h.PayloadLen) != total {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrInvalidMSBHeader, h.PayloadLen, total)
	}

	// Submesh table
	subs := make([]meshsplit.SubMeshDescriptor, h.SubMeshCount)
	for i := range subs {
		var s msbSubMesh
		if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
			return nil, ErrTruncatedMSBData
		}
		if uint64(s.IndexStart)+uint64(s.IndexCount) > uint64(h.IndexCount) {
			return nil, fmt.Errorf("%w: submesh %d exceeds %d indices", ErrInvalidMSBHeader, i, h.IndexCount)
		}
		subs[i] = meshsplit.SubMeshDescriptor{
			IndexStart:  int(s.IndexStart),
			IndexCount:  int(s.IndexCount),
			VertexCount: int(s.VertexCount),
		}
	}

	name := make([]byte, h.NameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrTruncatedMSBData
	}
	if uint64(r.Len()) < uint64(h.PayloadLen) {
		return nil, ErrTruncatedMSBData
	}
	payload := make([]byte, h.PayloadLen)
	io.ReadFull(r, payload)

	if h.Flags&MSBCompressed != 0 {
		// Never decode more than the header declares
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(max(total, 1)))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: decompressing payload: %v", ErrInvalidMSBHeader, err)
		}
	}
	if uint64(len(payload)) != total {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrInvalidMSBHeader, len(payload), total)
	}

	vb := int(vertexBytes)
	m := &meshsplit.SubMesh{
		Name:         string(name),
		Key:          meshsplit.GridKey{X: h.Key[0], Y: h.Key[1], Z: h.Key[2]},
		VertexBuffer: payload[:vb:vb],
		Layout:       layout,
		VertexCount:  int(h.VertexCount),
		IndexBuffer:  payload[vb:],
		IndexFormat:  format,
		SubMeshes:    subs,
		Bounds: math.AABB{
			Min: math.Vec3{X: h.BoundsMin[0], Y: h.BoundsMin[1], Z: h.BoundsMin[2]},
			Max: math.Vec3{X: h.BoundsMax[0], Y: h.BoundsMax[1], Z: h.BoundsMax[2]},
		},
	}
	for _, idx := range m.Indices() {
		if int(idx) >= m.VertexCount {
			return nil, fmt.Errorf("%w: index %d with %d vertices", ErrInvalidMSBHeader, idx, m.VertexCount)
		}
	}
	return m, nil
}

// SourceFromMSB turns a stored mesh back into splitter input, so split
// outputs can be split again or merged.
func SourceFromMSB(m *meshsplit.SubMesh) (*meshsplit.SourceMesh, error) {
	return meshsplit.NewSourceMesh(m.VertexBuffer, m.Layout, m.Indices())
}
