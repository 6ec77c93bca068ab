// Package kernel defines the abstract meshing kernel interface.
// Implementations convert geometry solids into their own representation,
// place them, and tessellate them into triangle meshes for inspection.
package kernel

import (
	"fmt"

	"github.com/chazu/solidprobe/pkg/geometry"
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract meshing kernel interface.
type Kernel interface {
	// FromSolid converts a geometry solid, centred on its own origin.
	FromSolid(s geometry.Solid) (Solid, error)

	// Translate moves a solid by (x, y, z).
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates a solid.
	ToMesh(s Solid) (*Mesh, error)
}

// UnsupportedError reports a geometry solid a kernel cannot convert.
type UnsupportedError struct {
	TypeName string
	Name     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("kernel: unsupported solid %s %q", e.TypeName, e.Name)
}
