package meshsplit

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshsplit/pkg/math"
)

// MinGridSize is the smallest accepted grid cell edge length.
const MinGridSize float32 = 0.1

// Axes selects which axes take part in splitting.
type Axes struct {
	X, Y, Z bool
}

// AllAxes enables splitting on every axis.
var AllAxes = Axes{true, true, true}

// Enabled reports whether axis a is enabled.
func (a Axes) Enabled(axis math.Axis) bool {
	switch axis {
	case math.AxisX:
		return a.X
	case math.AxisY:
		return a.Y
	default:
		return a.Z
	}
}

// Any reports whether at least one axis is enabled.
func (a Axes) Any() bool {
	return a.X || a.Y || a.Z
}

// ColliderShape selects the collider a scene consumer generates per output.
type ColliderShape string

const (
	ColliderMesh ColliderShape = "mesh"
	ColliderBox  ColliderShape = "box"
)

// Parameters configures a split.
type Parameters struct {
	GridSize  float32
	SplitAxes Axes

	// UVChannels, UseVertexNormals and UseVertexColors tell attribute-aware
	// consumers which channels to interpret. The raw vertex copy always carries
	// the whole record regardless of them.
	UVChannels       int
	UseVertexNormals bool
	UseVertexColors  bool

	// Parent attributes, applied by scene integration.
	UseParentLayer            bool
	UseParentStaticFlag       bool
	UseParentRendererSettings bool

	GenerateColliders bool
	ColliderShape     ColliderShape
	// UseConvexColliders marks mesh colliders as convex hulls for the
	// physics consumer. Box colliders ignore it.
	UseConvexColliders bool
}

// DefaultParameters returns the parameters used when nothing is configured.
func DefaultParameters() Parameters {
	return Parameters{
		GridSize:                  16,
		SplitAxes:                 AllAxes,
		UVChannels:                1,
		UseVertexNormals:          true,
		UseVertexColors:           true,
		UseParentLayer:            true,
		UseParentStaticFlag:       true,
		UseParentRendererSettings: true,
		GenerateColliders:         false,
		ColliderShape:             ColliderMesh,
		UseConvexColliders:        false,
	}
}

// Validate rejects parameters no split can run with.
func (p Parameters) Validate() error {
	if math32.IsNaN(p.GridSize) || math32.IsInf(p.GridSize, 0) || p.GridSize < MinGridSize {
		return fmt.Errorf("%w: must be a finite value >= %g, got %g", ErrInvalidGridSize, MinGridSize, p.GridSize)
	}
	if !p.SplitAxes.Any() {
		return ErrNoSplitAxis
	}
	if p.UVChannels < 0 || p.UVChannels > MaxUVChannels {
		return fmt.Errorf("%w: must be in [0,%d], got %d", ErrInvalidUVChannels, MaxUVChannels, p.UVChannels)
	}
	switch p.ColliderShape {
	case "", ColliderMesh, ColliderBox:
	default:
		return fmt.Errorf("%w: colliderShape %q", ErrConfiguration, p.ColliderShape)
	}
	return nil
}

// ActiveAttributes returns the channels of layout that a consumer should
// interpret under these parameters: position always, normal and color when
// enabled, and the first UVChannels texture coordinates.
func (p Parameters) ActiveAttributes(layout Layout) []AttributeDescriptor {
	var out []AttributeDescriptor
	for _, d := range layout.Attributes {
		switch d.Attribute {
		case AttrPosition:
		case AttrNormal:
			if !p.UseVertexNormals {
				continue
			}
		case AttrColor:
			if !p.UseVertexColors {
				continue
			}
		default:
			ch, ok := d.Attribute.UVChannel()
			if !ok || ch >= p.UVChannels {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}
