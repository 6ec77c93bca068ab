package geometry

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

// unsetRadius marks bounding radii that have not been computed yet.
const unsetRadius = -1e10

// solidBase carries the name and the cached bounding volumes of a solid.
// Shapes embed it and fill it once from their own parameter check. The
// squared radii are kept exactly as computed so that boundary points of the
// untolerated tests are not lost to a sqrt round trip.
type solidBase struct {
	name   string
	rMax   float64
	rhoMax float64
	r2     float64
	rho2   float64
	bbox   sdf.Box3
}

func newSolidBase(name string) solidBase {
	return solidBase{name: name, rMax: unsetRadius, rhoMax: unsetRadius}
}

func (b *solidBase) Name() string    { return b.name }
func (b *solidBase) RMax() float64   { return b.rMax }
func (b *solidBase) RhoMax() float64 { return b.rhoMax }
func (b *solidBase) BBox() sdf.Box3  { return b.bbox }

// setRadii stores the squared sphere and cylinder radii and their roots.
func (b *solidBase) setRadii(r2, rho2 float64) {
	b.r2, b.rho2 = r2, rho2
	b.rMax, b.rhoMax = math.Sqrt(r2), math.Sqrt(rho2)
}

func (b *solidBase) setBBox(bb sdf.Box3) { b.bbox = bb }

func (b *solidBase) resetBase() {
	b.name = ""
	b.rMax, b.rhoMax = 0, 0
	b.r2, b.rho2 = 0, 0
	b.bbox = sdf.Box3{}
}

// radius2 returns the square of radius+tolerance, or false when that
// radius is not positive. Without tolerance the cached square is used.
func radius2(radius, square, tolerance float64) (float64, bool) {
	r := radius + tolerance
	if r <= 0 {
		return 0, false
	}
	if tolerance == 0 {
		return square, true
	}
	return r * r, true
}

// IsOutBBox reports whether p lies outside the bounding box grown by tolerance.
func (b *solidBase) IsOutBBox(p Point, tolerance float64) bool {
	mn, mx := b.bbox.Min, b.bbox.Max
	return p.X < mn.X-tolerance || p.X > mx.X+tolerance ||
		p.Y < mn.Y-tolerance || p.Y > mx.Y+tolerance ||
		p.Z < mn.Z-tolerance || p.Z > mx.Z+tolerance
}

// IsOutBBoxSegment reports whether the segment [a, b] is outside the
// bounding box. It only rejects when both ends are beyond the same face,
// so a segment passing outside a box corner is not rejected.
func (b *solidBase) IsOutBBoxSegment(a, c Point, tolerance float64) bool {
	mn, mx := b.bbox.Min, b.bbox.Max
	return (a.X < mn.X-tolerance && c.X < mn.X-tolerance) ||
		(a.X > mx.X+tolerance && c.X > mx.X+tolerance) ||
		(a.Y < mn.Y-tolerance && c.Y < mn.Y-tolerance) ||
		(a.Y > mx.Y+tolerance && c.Y > mx.Y+tolerance) ||
		(a.Z < mn.Z-tolerance && c.Z < mn.Z-tolerance) ||
		(a.Z > mx.Z+tolerance && c.Z > mx.Z+tolerance)
}

// IsOutBBoxLine is IsOutBBoxSegment on the points at tickMin and tickMax.
// Infinite ticks are allowed.
func (b *solidBase) IsOutBBoxLine(p Point, v Vector, tickMin, tickMax Tick, tolerance float64) bool {
	return b.IsOutBBoxSegment(along(p, v, tickMin), along(p, v, tickMax), tolerance)
}

// along returns p + t*v, keeping a coordinate fixed where v has no
// component so that an infinite t does not produce NaN.
func along(p Point, v Vector, t Tick) Point {
	at := func(p, v float64) float64 {
		if v == 0 {
			return p
		}
		return p + t*v
	}
	return v3.Vec{X: at(p.X, v.X), Y: at(p.Y, v.Y), Z: at(p.Z, v.Z)}
}

// IsOutBSphere reports whether p lies outside the bounding sphere. With a
// non-positive effective radius every point is outside.
func (b *solidBase) IsOutBSphere(p Point, tolerance float64) bool {
	r2, ok := radius2(b.rMax, b.r2, tolerance)
	if !ok {
		return true
	}
	return p.Length2() > r2
}

// IsOutBCylinder reports whether p lies outside the bounding cylinder
// around the z axis.
func (b *solidBase) IsOutBCylinder(p Point, tolerance float64) bool {
	rho2, ok := radius2(b.rhoMax, b.rho2, tolerance)
	if !ok {
		return true
	}
	return Perp2(p) > rho2
}

// CrossBSphere reports whether the infinite line p + t*v can cross the
// bounding sphere: (vv*pp - pv*pv) <= vv*r².
func (b *solidBase) CrossBSphere(p Point, v Vector, tolerance float64) bool {
	r2, ok := radius2(b.rMax, b.r2, tolerance)
	if !ok {
		return false
	}
	pp := p.Length2()
	vv := v.Length2()
	pv := p.Dot(v)
	return vv*pp-pv*pv <= vv*r2
}

// CrossBCylinder is CrossBSphere for the bounding cylinder. A line parallel
// to the cylinder axis crosses it only if it starts within the radius.
func (b *solidBase) CrossBCylinder(p Point, v Vector, tolerance float64) bool {
	rho2, ok := radius2(b.rhoMax, b.rho2, tolerance)
	if !ok {
		return false
	}
	pp := Perp2(p)
	vv := Perp2(v)
	if vv == 0 {
		return pp <= rho2
	}
	pv := p.X*v.X + p.Y*v.Y
	return vv*pp-pv*pv <= vv*rho2
}

// baseFields are the diagnostic fields common to every solid.
func (b *solidBase) baseFields(typeName string) logrus.Fields {
	return logrus.Fields{
		"solid":  typeName,
		"name":   b.name,
		"rmax":   b.rMax,
		"rhomax": b.rhoMax,
	}
}

// boundsOf returns the bounding box and the squared sphere and cylinder
// radii of a point set. The extremes of a convex hull are reached at its vertices.
func boundsOf(pts []v3.Vec) (sdf.Box3, float64, float64) {
	if len(pts) == 0 {
		return sdf.Box3{}, 0, 0
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	var r2, rho2 float64
	for _, p := range pts {
		bb.Min = v3.Vec{X: math.Min(bb.Min.X, p.X), Y: math.Min(bb.Min.Y, p.Y), Z: math.Min(bb.Min.Z, p.Z)}
		bb.Max = v3.Vec{X: math.Max(bb.Max.X, p.X), Y: math.Max(bb.Max.Y, p.Y), Z: math.Max(bb.Max.Z, p.Z)}
		if l := p.Length2(); l > r2 {
			r2 = l
		}
		if l := Perp2(p); l > rho2 {
			rho2 = l
		}
	}
	return bb, r2, rho2
}
