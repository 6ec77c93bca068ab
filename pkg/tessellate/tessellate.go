// Package tessellate walks a catalog and produces triangle meshes using a
// meshing kernel. One mesh is produced per entry.
package tessellate

import (
	"fmt"

	"github.com/chazu/solidprobe/pkg/catalog"
	"github.com/chazu/solidprobe/pkg/geometry"
	"github.com/chazu/solidprobe/pkg/kernel"
)

// CoverSuffix is appended to the part name of cover meshes.
const CoverSuffix = " (cover)"

// Tessellate meshes every catalog entry at its placement using the
// provided kernel. The tessellator is read-only and never mutates the
// catalog.
func Tessellate(c *catalog.Catalog, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return walk(c, k, false, func(e *catalog.Entry) (geometry.Solid, string) {
		return e.Solid, e.Name
	})
}

// Covers meshes the outermost cover of every entry, so the bounding
// shapes can be inspected next to the solids they enclose.
func Covers(c *catalog.Catalog, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return walk(c, k, true, func(e *catalog.Entry) (geometry.Solid, string) {
		return geometry.CoverTop(e.Solid), e.Name + CoverSuffix
	})
}

// walk meshes the solid picked for every entry. Solids without volume
// produce empty meshes rather than errors.
func walk(c *catalog.Catalog, k kernel.Kernel, cover bool, pick func(*catalog.Entry) (geometry.Solid, string)) ([]*kernel.Mesh, error) {
	if c == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, e := range c.Entries() {
		s, name := pick(e)
		mesh, err := meshEntry(k, e, s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: entry %s (%q): %w", e.ID.Short(), e.Name, err)
		}
		mesh.PartName = name
		mesh.EntryID = e.ID.String()
		mesh.SolidType = s.TypeName()
		mesh.Cover = cover
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// meshEntry converts s, moves it to the entry's placement and meshes it.
func meshEntry(k kernel.Kernel, e *catalog.Entry, s geometry.Solid) (*kernel.Mesh, error) {
	solid, err := k.FromSolid(s)
	if err != nil {
		return nil, err
	}

	at := e.At
	if at.X != 0 || at.Y != 0 || at.Z != 0 {
		solid = k.Translate(solid, at.X, at.Y, at.Z)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed: %w", err)
	}
	return mesh, nil
}
