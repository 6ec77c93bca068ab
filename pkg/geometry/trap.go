package geometry

import (
	"fmt"
	"io"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

var _ Polyhedral = (*Trap)(nil)

// TrapParams are the eleven parameters of a general trapezoid.
//
// DZ is the half-length along z. Theta and Phi are the polar and azimuthal
// angles of the line joining the centres of the -z and +z faces. At the -z
// face DY1 is the half-length in y, DX1 and DX2 the half-lengths in x of
// the edges at -DY1 and +DY1, and Alpha1 the angle of the line joining the
// edge centres with the y axis. DY2, DX3, DX4 and Alpha2 are the same for
// the +z face.
type TrapParams struct {
	DZ, Theta, Phi        float64
	DY1, DX1, DX2, Alpha1 float64
	DY2, DX3, DX4, Alpha2 float64
}

// Trap is a general trapezoid: a hexahedron with two parallel end faces
// normal to z, each a trapezoid with its parallel edges along x.
type Trap struct {
	solidBase
	params TrapParams

	ph    polyhedron
	cover *Trd
}

// NewTrap builds a trapezoid from its parameters. Every half-length must
// be positive, the angles must stay within (-π/2, π/2) and the four side
// faces must be planar.
func NewTrap(name string, params TrapParams) (*Trap, error) {
	t := &Trap{solidBase: newSolidBase(name), params: params}
	if err := t.makeAll(); err != nil {
		return nil, err
	}
	if err := CheckTickContainerCapacity(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trap) checkBP() error {
	p := t.params
	lengths := []struct {
		name  string
		value float64
	}{
		{"dz", p.DZ}, {"dy1", p.DY1}, {"dx1", p.DX1}, {"dx2", p.DX2},
		{"dy2", p.DY2}, {"dx3", p.DX3}, {"dx4", p.DX4},
	}
	for _, l := range lengths {
		if !(l.value > 0) {
			return newError(t, "%s is not positive (%g)", l.name, l.value)
		}
	}
	angles := []struct {
		name  string
		value float64
	}{
		{"theta", p.Theta}, {"alpha1", p.Alpha1}, {"alpha2", p.Alpha2},
	}
	for _, a := range angles {
		if !(math.Abs(a.value) < math.Pi/2) {
			return newError(t, "%s is outside (-pi/2, pi/2) (%g)", a.name, a.value)
		}
	}
	if math.IsNaN(p.Phi) || math.IsInf(p.Phi, 0) {
		return newError(t, "phi is not finite (%g)", p.Phi)
	}
	return nil
}

// vertices returns the eight corners in hexahedronFaces order.
func (t *Trap) vertices() []v3.Vec {
	p := t.params
	tthetaCphi := math.Tan(p.Theta) * math.Cos(p.Phi)
	tthetaSphi := math.Tan(p.Theta) * math.Sin(p.Phi)
	ta1 := math.Tan(p.Alpha1)
	ta2 := math.Tan(p.Alpha2)

	x0, y0 := -p.DZ*tthetaCphi, -p.DZ*tthetaSphi
	x1, y1 := p.DZ*tthetaCphi, p.DZ*tthetaSphi
	return []v3.Vec{
		{X: x0 - p.DY1*ta1 - p.DX1, Y: y0 - p.DY1, Z: -p.DZ},
		{X: x0 - p.DY1*ta1 + p.DX1, Y: y0 - p.DY1, Z: -p.DZ},
		{X: x0 + p.DY1*ta1 - p.DX2, Y: y0 + p.DY1, Z: -p.DZ},
		{X: x0 + p.DY1*ta1 + p.DX2, Y: y0 + p.DY1, Z: -p.DZ},
		{X: x1 - p.DY2*ta2 - p.DX3, Y: y1 - p.DY2, Z: p.DZ},
		{X: x1 - p.DY2*ta2 + p.DX3, Y: y1 - p.DY2, Z: p.DZ},
		{X: x1 + p.DY2*ta2 - p.DX4, Y: y1 + p.DY2, Z: p.DZ},
		{X: x1 + p.DY2*ta2 + p.DX4, Y: y1 + p.DY2, Z: p.DZ},
	}
}

// makeAll validates the parameters, builds the faces and the bounding
// volumes, then the trd cover.
func (t *Trap) makeAll() error {
	if err := t.checkBP(); err != nil {
		return err
	}
	vertices := t.vertices()
	ph, err := newPolyhedron(t, vertices, hexahedronFaces[:])
	if err != nil {
		return err
	}
	t.ph = ph
	bb, r2, rho2 := boundsOf(vertices)
	t.setBBox(bb)
	t.setRadii(r2, rho2)

	// Each end face lies inside the rectangle spanned by its farthest
	// corner, so the trd joining the two rectangles holds the trapezoid.
	var x1, y1, x2, y2 float64
	for i, v := range vertices {
		ax, ay := math.Abs(v.X), math.Abs(v.Y)
		if i < 4 {
			x1, y1 = math.Max(x1, ax), math.Max(y1, ay)
		} else {
			x2, y2 = math.Max(x2, ax), math.Max(y2, ay)
		}
	}
	cover, err := NewTrd("Cover for "+t.name, t.params.DZ, x1, y1, x2, y2)
	if err != nil {
		return err
	}
	t.cover = cover
	return nil
}

// Params returns the defining parameters.
func (t *Trap) Params() TrapParams { return t.params }

func (t *Trap) TypeName() string      { return "Trap" }
func (t *Trap) MaxNumberOfTicks() int { return 2 }

func (t *Trap) Vertices() []v3.Vec { return t.ph.copyVertices() }
func (t *Trap) Planes() []Plane    { return t.ph.copyPlanes() }

func (t *Trap) IsInside(p Point) bool {
	if t.IsOutBBox(p, 0) {
		return false
	}
	return t.ph.isInside(p)
}

// Cover returns the trd built around the trapezoid.
func (t *Trap) Cover() Solid {
	if t.cover == nil {
		return t
	}
	return t.cover
}

func (t *Trap) CoverTop() Solid { return CoverTop(t) }

func (t *Trap) IntersectionTicks(p Point, v Vector, ticks *Ticks) int {
	return polyTicks(t, &t.ph, p, v, ticks)
}

func (t *Trap) IntersectionTicksRange(p Point, v Vector, tickMin, tickMax Tick, ticks *Ticks) int {
	return rangeTicks(t, p, v, tickMin, tickMax, ticks)
}

func (t *Trap) TestForIntersection(p Point, v Vector) bool {
	return testForIntersection(t, p, v)
}

func (t *Trap) Reset() {
	t.resetBase()
	t.params = TrapParams{}
	t.ph = polyhedron{}
	if t.cover != nil {
		t.cover.Reset()
	}
}

func (t *Trap) String() string {
	p := t.params
	return fmt.Sprintf("Trap %q (dz=%g theta=%g phi=%g | dy1=%g dx1=%g dx2=%g alpha1=%g | dy2=%g dx3=%g dx4=%g alpha2=%g)",
		t.name, p.DZ, p.Theta, p.Phi, p.DY1, p.DX1, p.DX2, p.Alpha1, p.DY2, p.DX3, p.DX4, p.Alpha2)
}

func (t *Trap) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n  rmax=%g rhomax=%g\n", t.String(), t.rMax, t.rhoMax); err != nil {
		return err
	}
	for i, v := range t.ph.vertices {
		if _, err := fmt.Fprintf(w, "  vertex %d: (%g, %g, %g)\n", i, v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trap) Fields() logrus.Fields {
	p := t.params
	f := t.baseFields(t.TypeName())
	f["dz"] = p.DZ
	f["theta"] = p.Theta
	f["phi"] = p.Phi
	f["dy1"], f["dx1"], f["dx2"], f["alpha1"] = p.DY1, p.DX1, p.DX2, p.Alpha1
	f["dy2"], f["dx3"], f["dx4"], f["alpha2"] = p.DY2, p.DX3, p.DX4, p.Alpha2
	return f
}
