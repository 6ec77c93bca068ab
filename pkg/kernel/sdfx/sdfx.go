// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/solidprobe/pkg/geometry"
	"github.com/chazu/solidprobe/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// boundsMargin pads plane SDF bounding boxes so marching cubes sees the
// surface crossing at the faces.
const boundsMargin = 0.02

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// flatSolid stands in for a solid that encloses no volume. It keeps its
// bounding box so placement still applies, and meshes to nothing.
type flatSolid struct {
	bb sdf.Box3
}

func (s *flatSolid) BoundingBox() (min, max [3]float64) {
	min = [3]float64{s.bb.Min.X, s.bb.Min.Y, s.bb.Min.Z}
	max = [3]float64{s.bb.Max.X, s.bb.Max.Y, s.bb.Max.Z}
	return min, max
}

// isFlat reports whether bb has no extent along some axis.
func isFlat(bb sdf.Box3) bool {
	size := bb.Size()
	return size.X <= 0 || size.Y <= 0 || size.Z <= 0
}

// planeSDF is the distance bound of a convex polyhedron: the largest
// signed distance to any of its face planes.
type planeSDF struct {
	planes []geometry.Plane
	bb     sdf.Box3
}

func newPlaneSDF(p geometry.Polyhedral) *planeSDF {
	bb := p.BBox()
	size := bb.Max.Sub(bb.Min)
	pad := boundsMargin * math.Max(size.X, math.Max(size.Y, size.Z))
	return &planeSDF{
		planes: p.Planes(),
		bb: sdf.Box3{
			Min: v3.Vec{X: bb.Min.X - pad, Y: bb.Min.Y - pad, Z: bb.Min.Z - pad},
			Max: v3.Vec{X: bb.Max.X + pad, Y: bb.Max.Y + pad, Z: bb.Max.Z + pad},
		},
	}
}

// Evaluate returns the signed distance bound at p.
func (s *planeSDF) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for _, pl := range s.planes {
		d = math.Max(d, pl.Distance(p))
	}
	return d
}

// BoundingBox returns the padded bounding box of the polyhedron.
func (s *planeSDF) BoundingBox() sdf.Box3 { return s.bb }

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel meshing at DefaultMeshCells.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells)
}

// NewWithCells returns a kernel that meshes with the given number of
// marching cubes cells along the longest axis. Non-positive values fall
// back to DefaultMeshCells.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Cells returns the marching cubes resolution.
func (k *SdfxKernel) Cells() int { return k.cells }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// FromSolid converts a geometry solid. Boxes map onto sdf.Box3D; other
// shapes must expose their face planes. Solids without volume convert to a
// placeholder that meshes empty.
func (k *SdfxKernel) FromSolid(s geometry.Solid) (kernel.Solid, error) {
	if isFlat(s.BBox()) {
		switch s.(type) {
		case *geometry.Box, geometry.Polyhedral:
			return &flatSolid{bb: s.BBox()}, nil
		}
	}
	switch g := s.(type) {
	case *geometry.Box:
		h := g.HalfLengths()
		b, err := sdf.Box3D(h.MulScalar(2), 0)
		if err != nil {
			return nil, fmt.Errorf("sdfx.Box3D %q: %w", g.Name(), err)
		}
		return wrap(b), nil
	case geometry.Polyhedral:
		return wrap(newPlaneSDF(g)), nil
	default:
		return nil, &kernel.UnsupportedError{TypeName: s.TypeName(), Name: s.Name()}
	}
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	if f, ok := s.(*flatSolid); ok {
		return &flatSolid{bb: f.bb.Translate(v3.Vec{X: x, Y: y, Z: z})}
	}
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if _, ok := s.(*flatSolid); ok {
		return &kernel.Mesh{}, nil
	}
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
