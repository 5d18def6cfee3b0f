package meshsplit

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// VertexAttribute is the semantic of one vertex channel.
type VertexAttribute uint8

const (
	AttrPosition VertexAttribute = iota
	AttrNormal
	AttrTangent
	AttrColor
	AttrTexCoord0
	AttrTexCoord1
	AttrTexCoord2
	AttrTexCoord3
	AttrTexCoord4
	AttrTexCoord5
	AttrTexCoord6
	AttrTexCoord7
	AttrBlendWeight
	AttrBlendIndices
)

// MaxUVChannels is the number of texture coordinate channels a layout can carry.
const MaxUVChannels = 8

var attributeNames = [...]string{
	AttrPosition:     "Position",
	AttrNormal:       "Normal",
	AttrTangent:      "Tangent",
	AttrColor:        "Color",
	AttrTexCoord0:    "TexCoord0",
	AttrTexCoord1:    "TexCoord1",
	AttrTexCoord2:    "TexCoord2",
	AttrTexCoord3:    "TexCoord3",
	AttrTexCoord4:    "TexCoord4",
	AttrTexCoord5:    "TexCoord5",
	AttrTexCoord6:    "TexCoord6",
	AttrTexCoord7:    "TexCoord7",
	AttrBlendWeight:  "BlendWeight",
	AttrBlendIndices: "BlendIndices",
}

// String returns the attribute name.
func (a VertexAttribute) String() string {
	if int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return fmt.Sprintf("Unknown(%d)", a)
}

// TexCoord returns the texture coordinate attribute for channel n (0-7).
func TexCoord(n int) VertexAttribute {
	return AttrTexCoord0 + VertexAttribute(n)
}

// UVChannel returns the channel number of a texture coordinate attribute.
func (a VertexAttribute) UVChannel() (int, bool) {
	if a >= AttrTexCoord0 && a <= AttrTexCoord7 {
		return int(a - AttrTexCoord0), true
	}
	return 0, false
}

// VertexFormat is the numeric encoding of one component.
type VertexFormat uint8

const (
	FormatFloat32 VertexFormat = iota
	FormatFloat16
	FormatUNorm8
	FormatSNorm8
	FormatUNorm16
	FormatSNorm16
	FormatUInt8
	FormatSInt8
	FormatUInt16
	FormatSInt16
	FormatUInt32
	FormatSInt32
)

// Size returns the byte size of one component.
func (f VertexFormat) Size() int {
	switch f {
	case FormatFloat32, FormatUInt32, FormatSInt32:
		return 4
	case FormatFloat16, FormatUNorm16, FormatSNorm16, FormatUInt16, FormatSInt16:
		return 2
	case FormatUNorm8, FormatSNorm8, FormatUInt8, FormatSInt8:
		return 1
	default:
		return 0
	}
}

// String returns the format name.
func (f VertexFormat) String() string {
	switch f {
	case FormatFloat32:
		return "Float32"
	case FormatFloat16:
		return "Float16"
	case FormatUNorm8:
		return "UNorm8"
	case FormatSNorm8:
		return "SNorm8"
	case FormatUNorm16:
		return "UNorm16"
	case FormatSNorm16:
		return "SNorm16"
	case FormatUInt8:
		return "UInt8"
	case FormatSInt8:
		return "SInt8"
	case FormatUInt16:
		return "UInt16"
	case FormatSInt16:
		return "SInt16"
	case FormatUInt32:
		return "UInt32"
	case FormatSInt32:
		return "SInt32"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// AttributeDescriptor describes how one channel is stored inside a vertex record.
// It says how to interpret bytes; the splitter itself never decodes them.
type AttributeDescriptor struct {
	Attribute VertexAttribute
	Format    VertexFormat
	Dimension int // components, 1-4
	Offset    int // byte offset within the vertex record
}

// Size returns the byte size of the channel.
func (d AttributeDescriptor) Size() int {
	return d.Format.Size() * d.Dimension
}

// String formats the descriptor for logging.
func (d AttributeDescriptor) String() string {
	return fmt.Sprintf("%s %sx%d @%d", d.Attribute, d.Format, d.Dimension, d.Offset)
}

// Layout is an ordered attribute list plus the stride of one vertex record.
type Layout struct {
	Attributes []AttributeDescriptor
	Stride     int
}

// NewLayout packs attributes back to back in the given order, assigning offsets,
// and returns the resulting layout.
func NewLayout(attrs ...AttributeDescriptor) Layout {
	out := make([]AttributeDescriptor, len(attrs))
	offset := 0
	for i, a := range attrs {
		a.Offset = offset
		out[i] = a
		offset += a.Size()
	}
	return Layout{Attributes: out, Stride: offset}
}

// Clone returns a layout that shares no memory with l.
func (l Layout) Clone() Layout {
	attrs := make([]AttributeDescriptor, len(l.Attributes))
	copy(attrs, l.Attributes)
	return Layout{Attributes: attrs, Stride: l.Stride}
}

// Find returns the descriptor for the given semantic.
func (l Layout) Find(attr VertexAttribute) (AttributeDescriptor, bool) {
	for _, d := range l.Attributes {
		if d.Attribute == attr {
			return d, true
		}
	}
	return AttributeDescriptor{}, false
}

// Has reports whether the layout declares the semantic.
func (l Layout) Has(attr VertexAttribute) bool {
	_, ok := l.Find(attr)
	return ok
}

// Validate checks that the layout describes exactly one packed vertex record:
// known formats, dimensions 1-4, no duplicated semantics, no overlapping or
// out-of-range channels, a float position channel with at least three
// components, and attribute sizes summing to the stride.
func (l Layout) Validate() error {
	if l.Stride <= 0 {
		return fmt.Errorf("%w: stride %d", ErrContractViolation, l.Stride)
	}
	seen := make(map[VertexAttribute]bool, len(l.Attributes))
	used := make([]bool, l.Stride)
	total := 0
	for _, d := range l.Attributes {
		if d.Format.Size() == 0 {
			return fmt.Errorf("%w: %s has unknown format %d", ErrContractViolation, d.Attribute, d.Format)
		}
		if d.Dimension < 1 || d.Dimension > 4 {
			return fmt.Errorf("%w: %s has dimension %d", ErrContractViolation, d.Attribute, d.Dimension)
		}
		if seen[d.Attribute] {
			return fmt.Errorf("%w: %s declared twice", ErrContractViolation, d.Attribute)
		}
		seen[d.Attribute] = true
		if d.Offset < 0 || d.Offset+d.Size() > l.Stride {
			return fmt.Errorf("%w: %s spans [%d,%d) outside stride %d",
				ErrContractViolation, d.Attribute, d.Offset, d.Offset+d.Size(), l.Stride)
		}
		for b := d.Offset; b < d.Offset+d.Size(); b++ {
			if used[b] {
				return fmt.Errorf("%w: %s overlaps another attribute at byte %d", ErrContractViolation, d.Attribute, b)
			}
			used[b] = true
		}
		total += d.Size()
	}
	if total != l.Stride {
		return fmt.Errorf("%w: attributes total %d bytes, stride is %d", ErrContractViolation, total, l.Stride)
	}
	pos, ok := l.Find(AttrPosition)
	if !ok {
		return fmt.Errorf("%w: layout has no Position attribute", ErrContractViolation)
	}
	if pos.Dimension < 3 || (pos.Format != FormatFloat32 && pos.Format != FormatFloat16) {
		return fmt.Errorf("%w: Position must be a float format with 3+ components, got %sx%d",
			ErrContractViolation, pos.Format, pos.Dimension)
	}
	return nil
}

// Decode reads one channel of vertex v from buf and converts it to float32.
// Normalized formats map to [0,1] or [-1,1]; integer formats convert directly.
// Components beyond the channel's dimension are zero.
func (l Layout) Decode(buf []byte, v int, attr VertexAttribute) ([4]float32, bool) {
	var out [4]float32
	d, ok := l.Find(attr)
	if !ok {
		return out, false
	}
	base := v*l.Stride + d.Offset
	if v < 0 || base+d.Size() > len(buf) {
		return out, false
	}
	size := d.Format.Size()
	for c := 0; c < d.Dimension; c++ {
		out[c] = decodeComponent(buf[base+c*size:], d.Format)
	}
	return out, true
}

// Encode writes value into channel attr of vertex v. It is the inverse of
// Decode and is used when building source buffers, not by the splitter.
func (l Layout) Encode(buf []byte, v int, attr VertexAttribute, value [4]float32) bool {
	d, ok := l.Find(attr)
	if !ok {
		return false
	}
	base := v*l.Stride + d.Offset
	if v < 0 || base+d.Size() > len(buf) {
		return false
	}
	size := d.Format.Size()
	for c := 0; c < d.Dimension; c++ {
		encodeComponent(buf[base+c*size:], d.Format, value[c])
	}
	return true
}

func decodeComponent(b []byte, f VertexFormat) float32 {
	le := binary.LittleEndian
	switch f {
	case FormatFloat32:
		return math.Float32frombits(le.Uint32(b))
	case FormatFloat16:
		return float16.Frombits(le.Uint16(b)).Float32()
	case FormatUNorm8:
		return float32(b[0]) / 255
	case FormatSNorm8:
		return max(float32(int8(b[0]))/127, -1)
	case FormatUNorm16:
		return float32(le.Uint16(b)) / 65535
	case FormatSNorm16:
		return max(float32(int16(le.Uint16(b)))/32767, -1)
	case FormatUInt8:
		return float32(b[0])
	case FormatSInt8:
		return float32(int8(b[0]))
	case FormatUInt16:
		return float32(le.Uint16(b))
	case FormatSInt16:
		return float32(int16(le.Uint16(b)))
	case FormatUInt32:
		return float32(le.Uint32(b))
	case FormatSInt32:
		return float32(int32(le.Uint32(b)))
	}
	return 0
}

func encodeComponent(b []byte, f VertexFormat, v float32) {
	le := binary.LittleEndian
	clamp := func(x, lo, hi float32) float32 { return min(max(x, lo), hi) }
	round := func(x float32) float64 { return math.Round(float64(x)) }
	switch f {
	case FormatFloat32:
		le.PutUint32(b, math.Float32bits(v))
	case FormatFloat16:
		le.PutUint16(b, float16.Fromfloat32(v).Bits())
	case FormatUNorm8:
		b[0] = uint8(round(clamp(v, 0, 1) * 255))
	case FormatSNorm8:
		b[0] = uint8(int8(round(clamp(v, -1, 1) * 127)))
	case FormatUNorm16:
		le.PutUint16(b, uint16(round(clamp(v, 0, 1)*65535)))
	case FormatSNorm16:
		le.PutUint16(b, uint16(int16(round(clamp(v, -1, 1)*32767))))
	case FormatUInt8:
		b[0] = uint8(round(v))
	case FormatSInt8:
		b[0] = uint8(int8(round(v)))
	case FormatUInt16:
		le.PutUint16(b, uint16(round(v)))
	case FormatSInt16:
		le.PutUint16(b, uint16(int16(round(v))))
	case FormatUInt32:
		le.PutUint32(b, uint32(round(v)))
	case FormatSInt32:
		le.PutUint32(b, uint32(int32(round(v))))
	}
}
