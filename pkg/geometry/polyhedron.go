package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// planarityTolerance is the largest allowed distance of a face vertex from
// the face plane, relative to the size of the face.
const planarityTolerance = 1e-9

// Plane is the boundary of the half-space Normal·x + D <= 0.
// Normal has unit length and points out of the solid.
type Plane struct {
	Normal v3.Vec
	D      float64
}

// Distance returns the signed distance of p from the plane, positive on
// the outer side.
func (pl Plane) Distance(p v3.Vec) float64 { return pl.Normal.Dot(p) + pl.D }

// Polyhedral is implemented by solids whose exact geometry is a convex
// polyhedron.
type Polyhedral interface {
	Solid
	Vertices() []v3.Vec
	Planes() []Plane
}

// hexahedronFaces lists the faces of an eight-vertex solid whose vertices
// 0-3 lie on the -z end and 4-7 on the +z end, each end ordered
// (-x,-y), (+x,-y), (-x,+y), (+x,+y).
var hexahedronFaces = [6][4]int{
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
}

// polyhedron is a convex solid held as the intersection of half-spaces.
type polyhedron struct {
	vertices []v3.Vec
	planes   []Plane
	centroid v3.Vec
}

// newPolyhedron builds a polyhedron from its vertices and quadrilateral
// faces given as vertex indices. Faces that collapse to a segment or a
// point are skipped. A non-planar face, or a vertex set without volume,
// is reported as an *Error against s.
func newPolyhedron(s Solid, vertices []v3.Vec, faces [][4]int) (polyhedron, error) {
	ph := polyhedron{vertices: vertices}
	for _, v := range vertices {
		ph.centroid = ph.centroid.Add(v)
	}
	ph.centroid = ph.centroid.MulScalar(1 / float64(len(vertices)))

	for _, f := range faces {
		quad := [4]v3.Vec{vertices[f[0]], vertices[f[1]], vertices[f[2]], vertices[f[3]]}
		pl, ok, err := facePlane(s, quad, ph.centroid)
		if err != nil {
			return polyhedron{}, err
		}
		if !ok {
			continue
		}
		ph.planes = append(ph.planes, pl)
	}
	if len(ph.planes) < 4 {
		return polyhedron{}, newError(s, "vertices enclose no volume")
	}
	return ph, nil
}

// facePlane computes the outward plane of a quadrilateral face with
// Newell's method, which tolerates coincident vertices.
func facePlane(s Solid, quad [4]v3.Vec, inner v3.Vec) (Plane, bool, error) {
	var n, c v3.Vec
	size := 0.0
	for i := range quad {
		a, b := quad[i], quad[(i+1)%4]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
		c = c.Add(a)
		size = math.Max(size, a.Sub(b).Length())
	}
	c = c.MulScalar(0.25)
	l := n.Length()
	if size == 0 || l <= planarityTolerance*size*size {
		return Plane{}, false, nil
	}
	pl := Plane{Normal: n.MulScalar(1 / l)}
	pl.D = -pl.Normal.Dot(c)
	for _, q := range quad {
		if math.Abs(pl.Distance(q)) > planarityTolerance*math.Max(1, size) {
			return Plane{}, false, newError(s, "face is not planar")
		}
	}
	d := pl.Distance(inner)
	if math.Abs(d) <= planarityTolerance*math.Max(1, size) {
		return Plane{}, false, newError(s, "vertices enclose no volume")
	}
	if d > 0 {
		pl.Normal = pl.Normal.MulScalar(-1)
		pl.D = -pl.D
	}
	return pl, true, nil
}

// isInside reports whether p is strictly inside every half-space.
func (ph *polyhedron) isInside(p v3.Vec) bool {
	if len(ph.planes) == 0 {
		return false
	}
	for _, pl := range ph.planes {
		if pl.Distance(p) >= 0 {
			return false
		}
	}
	return true
}

// intersect clips the line p + t*v against every half-space and appends
// the resulting entry and exit ticks.
func (ph *polyhedron) intersect(p, v v3.Vec, ticks *Ticks) int {
	if len(ph.planes) == 0 {
		return 0
	}
	tEnter, tExit := math.Inf(-1), math.Inf(1)
	for _, pl := range ph.planes {
		dist := pl.Distance(p)
		nv := pl.Normal.Dot(v)
		if nv == 0 {
			if dist >= 0 {
				return 0
			}
			continue
		}
		t := -dist / nv
		if nv > 0 {
			if t < tExit {
				tExit = t
			}
		} else if t > tEnter {
			tEnter = t
		}
		if tEnter > tExit {
			return 0
		}
	}
	if math.IsInf(tEnter, 0) || math.IsInf(tExit, 0) {
		return 0
	}
	ticks.push(tEnter)
	ticks.push(tExit)
	return 2
}

// polyTicks is the unbounded query shared by polyhedral solids.
func polyTicks(s Solid, ph *polyhedron, p Point, v Vector, ticks *Ticks) int {
	ticks.Reset()
	if v.Length2() == 0 || !s.CrossBSphere(p, v, 0) {
		return 0
	}
	return ph.intersect(p, v, ticks)
}

func (ph *polyhedron) copyVertices() []v3.Vec {
	out := make([]v3.Vec, len(ph.vertices))
	copy(out, ph.vertices)
	return out
}

func (ph *polyhedron) copyPlanes() []Plane {
	out := make([]Plane, len(ph.planes))
	copy(out, ph.planes)
	return out
}
