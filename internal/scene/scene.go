// Package scene turns split meshes into scene entities parented to the
// object that was split. It decides which parent settings each child
// inherits and optionally attaches a collider.
package scene

import (
	"fmt"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/meshsplit"
)

// DefaultSortingLayer is used when children do not inherit renderer settings.
const DefaultSortingLayer = "Default"

// RendererSettings controls how an entity is drawn.
type RendererSettings struct {
	Material       string
	SortingLayer   string
	SortingOrder   int
	CastShadows    bool
	ReceiveShadows bool
}

// DefaultRendererSettings returns the settings of a freshly created renderer.
func DefaultRendererSettings() RendererSettings {
	return RendererSettings{
		SortingLayer:   DefaultSortingLayer,
		CastShadows:    true,
		ReceiveShadows: true,
	}
}

// Parent describes the object whose mesh was split.
type Parent struct {
	Name     string
	Layer    int
	Static   bool
	Renderer RendererSettings
}

// Collider is the physics shape attached to an entity.
type Collider struct {
	Shape meshsplit.ColliderShape

	// Mesh colliders
	Positions []math.Vec3
	Indices   []uint32
	Convex    bool // physics should use the convex hull of Positions

	// Box colliders; also set for mesh colliders
	Bounds math.AABB
}

// Entity is one child object holding a split mesh.
type Entity struct {
	Name     string
	Parent   string
	Key      meshsplit.GridKey
	Layer    int
	Static   bool
	Renderer RendererSettings
	Mesh     *meshsplit.SubMesh

	// Channels lists the vertex attributes a renderer should bind.
	Channels []meshsplit.AttributeDescriptor

	Collider *Collider
}

// Build creates one entity per mesh, in mesh order. Entities reference the
// meshes in place; the slice must outlive them.
func Build(parent Parent, meshes []meshsplit.SubMesh, params meshsplit.Parameters) ([]Entity, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	entities := make([]Entity, len(meshes))
	for i := range meshes {
		m := &meshes[i]
		e := Entity{
			Name:     m.Name,
			Parent:   parent.Name,
			Key:      m.Key,
			Renderer: DefaultRendererSettings(),
			Mesh:     m,
			Channels: params.ActiveAttributes(m.Layout),
		}
		// The material always follows the parent
		e.Renderer.Material = parent.Renderer.Material

		if params.UseParentLayer {
			e.Layer = parent.Layer
		}
		if params.UseParentStaticFlag {
			e.Static = parent.Static
		}
		if params.UseParentRendererSettings {
			e.Renderer = parent.Renderer
		}

		if params.GenerateColliders {
			c, err := buildCollider(m, params.ColliderShape, params.UseConvexColliders)
			if err != nil {
				return nil, fmt.Errorf("collider for %s: %w", m.Name, err)
			}
			e.Collider = c
		}
		entities[i] = e
	}
	return entities, nil
}

func buildCollider(m *meshsplit.SubMesh, shape meshsplit.ColliderShape, convex bool) (*Collider, error) {
	if shape == "" {
		shape = meshsplit.ColliderMesh
	}
	c := &Collider{Shape: shape, Bounds: m.Bounds}

	switch shape {
	case meshsplit.ColliderBox:
		return c, nil
	case meshsplit.ColliderMesh:
		if !m.Layout.Has(meshsplit.AttrPosition) {
			return nil, fmt.Errorf("%w: mesh has no position attribute", meshsplit.ErrContractViolation)
		}
		c.Positions = make([]math.Vec3, m.VertexCount)
		for v := range c.Positions {
			c.Positions[v] = m.Position(v)
		}
		c.Indices = m.Indices()
		c.Convex = convex
		return c, nil
	default:
		return nil, fmt.Errorf("%w: colliderShape %q", meshsplit.ErrConfiguration, shape)
	}
}
