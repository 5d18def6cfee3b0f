package meshsplit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// fullLayout carries every channel the splitter is expected to preserve:
// position, normal, color and all eight UV sets, in mixed formats.
func fullLayout() Layout {
	attrs := []AttributeDescriptor{
		{Attribute: AttrPosition, Format: FormatFloat32, Dimension: 3},
		{Attribute: AttrNormal, Format: FormatFloat16, Dimension: 4},
		{Attribute: AttrColor, Format: FormatUNorm8, Dimension: 4},
	}
	for ch := 0; ch < MaxUVChannels; ch++ {
		attrs = append(attrs, AttributeDescriptor{Attribute: TexCoord(ch), Format: FormatFloat16, Dimension: 2})
	}
	return NewLayout(attrs...)
}

// positionOnlyLayout is the smallest valid layout.
func positionOnlyLayout() Layout {
	return NewLayout(AttributeDescriptor{Attribute: AttrPosition, Format: FormatFloat32, Dimension: 3})
}

// channelValue gives every vertex a distinct but exactly representable value per channel.
func channelValue(v int, attr VertexAttribute, c int) float32 {
	return float32((v*7+int(attr)*3+c)%16) / 16
}

func buildSource(t testing.TB, layout Layout, positions []math.Vec3, indices []uint32) *SourceMesh {
	t.Helper()
	buf := make([]byte, len(positions)*layout.Stride)
	for i, p := range positions {
		for _, d := range layout.Attributes {
			v := [4]float32{p.X, p.Y, p.Z, 1}
			if d.Attribute != AttrPosition {
				for c := range v {
					v[c] = channelValue(i, d.Attribute, c)
				}
			}
			require.True(t, layout.Encode(buf, i, d.Attribute, v))
		}
	}
	src, err := NewSourceMesh(buf, layout, indices)
	require.NoError(t, err)
	return src
}

// planeMesh returns an n x n grid of quads on the XZ plane with the given
// quad size. Neighbouring quads share vertices.
func planeMesh(n int, size float32) ([]math.Vec3, []uint32) {
	var positions []math.Vec3
	for z := 0; z <= n; z++ {
		for x := 0; x <= n; x++ {
			positions = append(positions, math.Vec3{X: float32(x) * size, Y: float32(x+z) * 0.25, Z: float32(z) * size})
		}
	}
	at := func(x, z int) uint32 { return uint32(z*(n+1) + x) }

	var indices []uint32
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			indices = append(indices,
				at(x, z), at(x, z+1), at(x+1, z+1),
				at(x, z), at(x+1, z+1), at(x+1, z),
			)
		}
	}
	return positions, indices
}

// triangleAt returns a triangle whose centroid is exactly c.
func triangleAt(c math.Vec3) []math.Vec3 {
	return []math.Vec3{
		{X: c.X - 1, Y: c.Y, Z: c.Z - 1},
		{X: c.X + 1, Y: c.Y, Z: c.Z - 1},
		{X: c.X, Y: c.Y, Z: c.Z + 2},
	}
}

// soup builds an unindexed triangle list with one triangle per centroid.
func soup(centroids ...math.Vec3) ([]math.Vec3, []uint32) {
	var positions []math.Vec3
	var indices []uint32
	for _, c := range centroids {
		base := uint32(len(positions))
		positions = append(positions, triangleAt(c)...)
		indices = append(indices, base, base+1, base+2)
	}
	return positions, indices
}
