package geometry

import (
	"io"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

// Point is a position in a solid's local frame.
type Point = v3.Vec

// Vector is a direction in a solid's local frame.
type Vector = v3.Vec

// Perp2 returns the squared transverse component x²+y² of v.
func Perp2(v v3.Vec) float64 { return v.X*v.X + v.Y*v.Y }

// Bounded is the set of fast rejection tests shared by every solid.
// All tolerances are additive margins; pass 0 for none. A true result
// means "definitely outside", false means an exact test is still needed.
type Bounded interface {
	RMax() float64
	RhoMax() float64
	BBox() sdf.Box3

	IsOutBBox(p Point, tolerance float64) bool
	IsOutBBoxSegment(a, b Point, tolerance float64) bool
	IsOutBBoxLine(p Point, v Vector, tickMin, tickMax Tick, tolerance float64) bool
	IsOutBSphere(p Point, tolerance float64) bool
	IsOutBCylinder(p Point, tolerance float64) bool
	CrossBSphere(p Point, v Vector, tolerance float64) bool
	CrossBCylinder(p Point, v Vector, tolerance float64) bool
}

// Solid is a shape answering containment and line crossing queries in its
// local frame. Queries never fail and never mutate the solid, so a fully
// constructed Solid may be queried from many goroutines at once.
type Solid interface {
	Bounded

	// Name is a diagnostic label, not a key.
	Name() string
	TypeName() string

	IsInside(p Point) bool

	// Cover returns a simpler solid containing this one. Never nil.
	Cover() Solid
	// CoverTop follows Cover until a solid covers itself.
	CoverTop() Solid

	// IntersectionTicks fills ticks with every crossing of the line
	// p + t*v in ascending order and returns how many there are.
	IntersectionTicks(p Point, v Vector, ticks *Ticks) int
	// IntersectionTicksRange is IntersectionTicks restricted to
	// t in [tickMin, tickMax]. Crossing intervals that overlap the
	// range are clipped to it.
	IntersectionTicksRange(p Point, v Vector, tickMin, tickMax Tick, ticks *Ticks) int
	TestForIntersection(p Point, v Vector) bool

	MaxNumberOfTicks() int

	// Reset returns the solid to an unnamed zero-extent state.
	// It must not run concurrently with queries.
	Reset()

	String() string
	Print(w io.Writer) error
	Fields() logrus.Fields
}

// CoverTop follows the cover chain of s until it reaches a solid that is
// its own cover.
func CoverTop(s Solid) Solid {
	for {
		c := s.Cover()
		if c == nil || c == s {
			return s
		}
		s = c
	}
}

// CheckTickContainerCapacity reports an *Error if s declares more crossings
// than a Ticks value can hold.
func CheckTickContainerCapacity(s Solid) error {
	if n := s.MaxNumberOfTicks(); n > MaxTicks {
		return newError(s, "declared maximum of %d ticks exceeds the limit of %d", n, MaxTicks)
	}
	return nil
}

// testForIntersection is the shared TestForIntersection body.
func testForIntersection(s Solid, p Point, v Vector) bool {
	var ts Ticks
	return s.IntersectionTicks(p, v, &ts) > 0
}

// rangeTicks implements IntersectionTicksRange for s on top of its
// unbounded query, after a segment rejection against the bounding box.
func rangeTicks(s Solid, p Point, v Vector, tickMin, tickMax Tick, ticks *Ticks) int {
	ticks.Reset()
	if tickMin > tickMax || s.IsOutBBoxLine(p, v, tickMin, tickMax, 0) {
		return 0
	}
	if s.IntersectionTicks(p, v, ticks) == 0 {
		return 0
	}
	return ticks.ClipTo(tickMin, tickMax)
}
