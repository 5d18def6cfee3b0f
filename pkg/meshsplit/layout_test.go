package meshsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutPacksAttributes(t *testing.T) {
	l := fullLayout()
	require.NoError(t, l.Validate())

	// float32x3 + float16x4 + unorm8x4 + 8 * float16x2
	assert.Equal(t, 12+8+4+8*4, l.Stride)

	normal, ok := l.Find(AttrNormal)
	require.True(t, ok)
	assert.Equal(t, 12, normal.Offset)

	uv7, ok := l.Find(TexCoord(7))
	require.True(t, ok)
	assert.Equal(t, l.Stride-4, uv7.Offset)
	assert.False(t, l.Has(AttrTangent))
}

func TestLayoutValidate(t *testing.T) {
	pos := AttributeDescriptor{Attribute: AttrPosition, Format: FormatFloat32, Dimension: 3}
	tests := []struct {
		name   string
		layout Layout
		ok     bool
	}{
		{"position only", NewLayout(pos), true},
		{"padding not declared", Layout{Attributes: []AttributeDescriptor{pos}, Stride: 16}, false},
		{"stride too small", Layout{Attributes: []AttributeDescriptor{pos}, Stride: 8}, false},
		{"zero stride", Layout{}, false},
		{"missing position", NewLayout(AttributeDescriptor{Attribute: AttrNormal, Format: FormatFloat32, Dimension: 3}), false},
		{"integer position", NewLayout(AttributeDescriptor{Attribute: AttrPosition, Format: FormatSInt16, Dimension: 4}), false},
		{"2d position", NewLayout(AttributeDescriptor{Attribute: AttrPosition, Format: FormatFloat32, Dimension: 2}), false},
		{"half position", NewLayout(AttributeDescriptor{Attribute: AttrPosition, Format: FormatFloat16, Dimension: 4}), true},
		{"bad dimension", NewLayout(pos, AttributeDescriptor{Attribute: AttrColor, Format: FormatUNorm8, Dimension: 5}), false},
		{"unknown format", NewLayout(pos, AttributeDescriptor{Attribute: AttrColor, Format: VertexFormat(200), Dimension: 4}), false},
		{"duplicate semantic", NewLayout(pos, pos), false},
		{
			"overlap",
			Layout{Attributes: []AttributeDescriptor{
				pos,
				{Attribute: AttrColor, Format: FormatUNorm8, Dimension: 4, Offset: 10},
			}, Stride: 16},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrContractViolation)
			}
		})
	}
}

func TestLayoutEncodeDecode(t *testing.T) {
	tests := []struct {
		format VertexFormat
		in     [4]float32
		want   [4]float32
	}{
		{FormatFloat32, [4]float32{1.5, -2.25, 1e6, 0}, [4]float32{1.5, -2.25, 1e6, 0}},
		{FormatFloat16, [4]float32{0.5, -0.25, 2048, 1}, [4]float32{0.5, -0.25, 2048, 1}},
		{FormatUNorm8, [4]float32{0, 1, 2, -1}, [4]float32{0, 1, 1, 0}},
		{FormatSNorm8, [4]float32{-1, 1, 0, 0}, [4]float32{-1, 1, 0, 0}},
		{FormatUNorm16, [4]float32{0, 1, 0, 1}, [4]float32{0, 1, 0, 1}},
		{FormatSNorm16, [4]float32{-1, 1, 0, -1}, [4]float32{-1, 1, 0, -1}},
		{FormatUInt8, [4]float32{0, 7, 255, 3}, [4]float32{0, 7, 255, 3}},
		{FormatSInt8, [4]float32{-128, 127, 0, -1}, [4]float32{-128, 127, 0, -1}},
		{FormatUInt16, [4]float32{0, 1000, 65535, 1}, [4]float32{0, 1000, 65535, 1}},
		{FormatSInt16, [4]float32{-32768, 32767, 0, 5}, [4]float32{-32768, 32767, 0, 5}},
		{FormatUInt32, [4]float32{0, 1, 1 << 20, 9}, [4]float32{0, 1, 1 << 20, 9}},
		{FormatSInt32, [4]float32{-1 << 20, 1, 0, 9}, [4]float32{-1 << 20, 1, 0, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			l := NewLayout(
				AttributeDescriptor{Attribute: AttrPosition, Format: FormatFloat32, Dimension: 3},
				AttributeDescriptor{Attribute: AttrTexCoord3, Format: tt.format, Dimension: 4},
			)
			buf := make([]byte, 2*l.Stride)
			require.True(t, l.Encode(buf, 1, AttrTexCoord3, tt.in))

			got, ok := l.Decode(buf, 1, AttrTexCoord3)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			zero, ok := l.Decode(buf, 0, AttrTexCoord3)
			require.True(t, ok)
			assert.Equal(t, [4]float32{}, zero)
		})
	}
}

func TestLayoutDecodeOutOfRange(t *testing.T) {
	l := positionOnlyLayout()
	buf := make([]byte, l.Stride)

	_, ok := l.Decode(buf, 1, AttrPosition)
	assert.False(t, ok)
	_, ok = l.Decode(buf, -1, AttrPosition)
	assert.False(t, ok)
	_, ok = l.Decode(buf, 0, AttrNormal)
	assert.False(t, ok)
}

func TestActiveAttributes(t *testing.T) {
	l := fullLayout()

	names := func(ds []AttributeDescriptor) []VertexAttribute {
		var out []VertexAttribute
		for _, d := range ds {
			out = append(out, d.Attribute)
		}
		return out
	}

	p := DefaultParameters()
	assert.Equal(t, []VertexAttribute{AttrPosition, AttrNormal, AttrColor, AttrTexCoord0}, names(p.ActiveAttributes(l)))

	p.UseVertexNormals = false
	p.UseVertexColors = false
	p.UVChannels = 0
	assert.Equal(t, []VertexAttribute{AttrPosition}, names(p.ActiveAttributes(l)))

	p.UVChannels = 3
	assert.Equal(t, []VertexAttribute{AttrPosition, AttrTexCoord0, AttrTexCoord1, AttrTexCoord2}, names(p.ActiveAttributes(l)))
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr error
	}{
		{"defaults", func(*Parameters) {}, nil},
		{"min grid", func(p *Parameters) { p.GridSize = MinGridSize }, nil},
		{"grid too small", func(p *Parameters) { p.GridSize = 0.05 }, ErrInvalidGridSize},
		{"zero grid", func(p *Parameters) { p.GridSize = 0 }, ErrInvalidGridSize},
		{"no axes", func(p *Parameters) { p.SplitAxes = Axes{} }, ErrNoSplitAxis},
		{"too many uvs", func(p *Parameters) { p.UVChannels = 9 }, ErrInvalidUVChannels},
		{"negative uvs", func(p *Parameters) { p.UVChannels = -1 }, ErrInvalidUVChannels},
		{"collider shape", func(p *Parameters) { p.ColliderShape = "sphere" }, ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
