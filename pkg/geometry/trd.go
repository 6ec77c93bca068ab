package geometry

import (
	"fmt"
	"io"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

var _ Polyhedral = (*Trd)(nil)

// Trd is a trapezoid prism symmetric about the z axis: a rectangle of
// half-sizes (x1, y1) at z = -zHalf joined by planar faces to a rectangle
// of half-sizes (x2, y2) at z = +zHalf.
type Trd struct {
	solidBase
	zHalf          float64
	xHalf1, yHalf1 float64
	xHalf2, yHalf2 float64

	ph    polyhedron
	cover *Box
}

// NewTrd returns a trd. The z half-length must be positive and the end
// half-sizes non-negative, with each of x and y non-zero at one end at least.
func NewTrd(name string, zHalf, xHalf1, yHalf1, xHalf2, yHalf2 float64) (*Trd, error) {
	t := &Trd{
		solidBase: newSolidBase(name),
		zHalf:     zHalf,
		xHalf1:    xHalf1, yHalf1: yHalf1,
		xHalf2: xHalf2, yHalf2: yHalf2,
	}
	if err := t.makeAll(); err != nil {
		return nil, err
	}
	if err := CheckTickContainerCapacity(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trd) checkBP() error {
	switch {
	case t.zHalf <= 0:
		return newError(t, "z half-length is not positive (%g)", t.zHalf)
	case t.xHalf1 < 0 || t.xHalf2 < 0:
		return newError(t, "x half-length is negative (%g, %g)", t.xHalf1, t.xHalf2)
	case t.yHalf1 < 0 || t.yHalf2 < 0:
		return newError(t, "y half-length is negative (%g, %g)", t.yHalf1, t.yHalf2)
	case t.xHalf1+t.xHalf2 <= 0:
		return newError(t, "x half-lengths are both zero")
	case t.yHalf1+t.yHalf2 <= 0:
		return newError(t, "y half-lengths are both zero")
	}
	return nil
}

func (t *Trd) makeAll() error {
	if err := t.checkBP(); err != nil {
		return err
	}
	z, x1, y1, x2, y2 := t.zHalf, t.xHalf1, t.yHalf1, t.xHalf2, t.yHalf2
	vertices := []v3.Vec{
		{X: -x1, Y: -y1, Z: -z}, {X: x1, Y: -y1, Z: -z},
		{X: -x1, Y: y1, Z: -z}, {X: x1, Y: y1, Z: -z},
		{X: -x2, Y: -y2, Z: z}, {X: x2, Y: -y2, Z: z},
		{X: -x2, Y: y2, Z: z}, {X: x2, Y: y2, Z: z},
	}
	ph, err := newPolyhedron(t, vertices, hexahedronFaces[:])
	if err != nil {
		return err
	}
	t.ph = ph
	bb, r2, rho2 := boundsOf(vertices)
	t.setBBox(bb)
	t.setRadii(r2, rho2)

	cover, err := NewBox("Cover for "+t.name, math.Max(x1, x2), math.Max(y1, y2), z)
	if err != nil {
		return err
	}
	t.cover = cover
	return nil
}

func (t *Trd) ZHalfLength() float64  { return t.zHalf }
func (t *Trd) XHalfLength1() float64 { return t.xHalf1 }
func (t *Trd) YHalfLength1() float64 { return t.yHalf1 }
func (t *Trd) XHalfLength2() float64 { return t.xHalf2 }
func (t *Trd) YHalfLength2() float64 { return t.yHalf2 }

func (t *Trd) TypeName() string      { return "Trd" }
func (t *Trd) MaxNumberOfTicks() int { return 2 }

func (t *Trd) Vertices() []v3.Vec { return t.ph.copyVertices() }
func (t *Trd) Planes() []Plane    { return t.ph.copyPlanes() }

func (t *Trd) IsInside(p Point) bool {
	if t.IsOutBBox(p, 0) {
		return false
	}
	return t.ph.isInside(p)
}

// Cover returns the box enclosing the trd.
func (t *Trd) Cover() Solid {
	if t.cover == nil {
		return t
	}
	return t.cover
}

func (t *Trd) CoverTop() Solid { return CoverTop(t) }

func (t *Trd) IntersectionTicks(p Point, v Vector, ticks *Ticks) int {
	return polyTicks(t, &t.ph, p, v, ticks)
}

func (t *Trd) IntersectionTicksRange(p Point, v Vector, tickMin, tickMax Tick, ticks *Ticks) int {
	return rangeTicks(t, p, v, tickMin, tickMax, ticks)
}

func (t *Trd) TestForIntersection(p Point, v Vector) bool {
	return testForIntersection(t, p, v)
}

func (t *Trd) Reset() {
	t.resetBase()
	t.zHalf, t.xHalf1, t.yHalf1, t.xHalf2, t.yHalf2 = 0, 0, 0, 0, 0
	t.ph = polyhedron{}
	if t.cover != nil {
		t.cover.Reset()
	}
}

func (t *Trd) String() string {
	return fmt.Sprintf("Trd %q (z=%g, -z: %g x %g, +z: %g x %g)",
		t.name, t.zHalf, t.xHalf1, t.yHalf1, t.xHalf2, t.yHalf2)
}

func (t *Trd) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n  rmax=%g rhomax=%g faces=%d\n", t.String(), t.rMax, t.rhoMax, len(t.ph.planes))
	return err
}

func (t *Trd) Fields() logrus.Fields {
	f := t.baseFields(t.TypeName())
	f["zhalf"] = t.zHalf
	f["xhalf1"] = t.xHalf1
	f["yhalf1"] = t.yHalf1
	f["xhalf2"] = t.xHalf2
	f["yhalf2"] = t.yHalf2
	return f
}
