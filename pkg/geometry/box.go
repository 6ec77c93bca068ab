package geometry

import (
	"fmt"
	"io"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

// Compile-time interface check.
var _ Solid = (*Box)(nil)

// Box is an axis-aligned box centred on the origin, given by its three
// half-lengths. A zero half-length gives a flat box with no interior.
type Box struct {
	solidBase
	xHalf, yHalf, zHalf float64
}

// NewBox returns a box with the given half-lengths. Negative half-lengths
// are rejected with an *Error.
func NewBox(name string, xHalf, yHalf, zHalf float64) (*Box, error) {
	b := &Box{solidBase: newSolidBase(name), xHalf: xHalf, yHalf: yHalf, zHalf: zHalf}
	if err := b.setBP(); err != nil {
		return nil, err
	}
	if err := CheckTickContainerCapacity(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Box) checkBP() error {
	switch {
	case b.xHalf < 0:
		return newError(b, "x half-length is negative (%g)", b.xHalf)
	case b.yHalf < 0:
		return newError(b, "y half-length is negative (%g)", b.yHalf)
	case b.zHalf < 0:
		return newError(b, "z half-length is negative (%g)", b.zHalf)
	}
	return nil
}

// setBP validates the half-lengths and derives the bounding volumes.
func (b *Box) setBP() error {
	if err := b.checkBP(); err != nil {
		return err
	}
	rho2 := b.xHalf*b.xHalf + b.yHalf*b.yHalf
	b.setRadii(rho2+b.zHalf*b.zHalf, rho2)
	b.setBBox(sdf.Box3{
		Min: v3.Vec{X: -b.xHalf, Y: -b.yHalf, Z: -b.zHalf},
		Max: b.HalfLengths(),
	})
	return nil
}

func (b *Box) XHalfLength() float64 { return b.xHalf }
func (b *Box) YHalfLength() float64 { return b.yHalf }
func (b *Box) ZHalfLength() float64 { return b.zHalf }

// HalfLengths returns the three half-lengths as a vector.
func (b *Box) HalfLengths() v3.Vec { return v3.Vec{X: b.xHalf, Y: b.yHalf, Z: b.zHalf} }

func (b *Box) TypeName() string { return "Box" }

func (b *Box) MaxNumberOfTicks() int { return 2 }

// IsInside reports whether p is strictly inside the box.
func (b *Box) IsInside(p Point) bool {
	return math.Abs(p.X) < b.xHalf && math.Abs(p.Y) < b.yHalf && math.Abs(p.Z) < b.zHalf
}

// Cover returns the box itself.
func (b *Box) Cover() Solid    { return b }
func (b *Box) CoverTop() Solid { return b }

// slab narrows [tmin, tmax] by the pair of planes |x| = half along one
// axis. It returns false once the line is known to miss the box.
func slab(p, v, half float64, tmin, tmax *float64) bool {
	if v == 0 {
		return math.Abs(p) < half
	}
	t1 := (-half - p) / v
	t2 := (half - p) / v
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > *tmin {
		*tmin = t1
	}
	if t2 < *tmax {
		*tmax = t2
	}
	return *tmin <= *tmax
}

// IntersectionTicks fills ticks with the entry and exit of the line
// p + t*v. A box is convex, so there are either zero or two ticks.
func (b *Box) IntersectionTicks(p Point, v Vector, ticks *Ticks) int {
	ticks.Reset()
	if v.Length2() == 0 || !b.CrossBSphere(p, v, 0) {
		return 0
	}
	// A line parallel to a slab it starts outside of never enters.
	if (v.X == 0 && math.Abs(p.X) >= b.xHalf) ||
		(v.Y == 0 && math.Abs(p.Y) >= b.yHalf) ||
		(v.Z == 0 && math.Abs(p.Z) >= b.zHalf) {
		return 0
	}
	tmin, tmax := math.Inf(-1), math.Inf(1)
	if !slab(p.X, v.X, b.xHalf, &tmin, &tmax) ||
		!slab(p.Y, v.Y, b.yHalf, &tmin, &tmax) ||
		!slab(p.Z, v.Z, b.zHalf, &tmin, &tmax) {
		return 0
	}
	ticks.push(tmin)
	ticks.push(tmax)
	return 2
}

// IntersectionTicksRange returns the crossings within [tickMin, tickMax].
func (b *Box) IntersectionTicksRange(p Point, v Vector, tickMin, tickMax Tick, ticks *Ticks) int {
	return rangeTicks(b, p, v, tickMin, tickMax, ticks)
}

func (b *Box) TestForIntersection(p Point, v Vector) bool {
	return testForIntersection(b, p, v)
}

// Reset clears the name and collapses the box to a point.
func (b *Box) Reset() {
	b.resetBase()
	b.xHalf, b.yHalf, b.zHalf = 0, 0, 0
}

func (b *Box) String() string {
	return fmt.Sprintf("Box %q (%g, %g, %g)", b.name, b.xHalf, b.yHalf, b.zHalf)
}

// Print writes a multi-line description of the box.
func (b *Box) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n  rmax=%g rhomax=%g\n", b.String(), b.rMax, b.rhoMax)
	return err
}

func (b *Box) Fields() logrus.Fields {
	f := b.baseFields(b.TypeName())
	f["xhalf"] = b.xHalf
	f["yhalf"] = b.yHalf
	f["zhalf"] = b.zHalf
	return f
}
