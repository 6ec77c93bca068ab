package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/solidprobe/pkg/geometry"
	"github.com/chazu/solidprobe/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// testCells keeps marching cubes fast in tests.
const testCells = 40

func mustBox(t *testing.T, x, y, z float64) *geometry.Box {
	t.Helper()
	b, err := geometry.NewBox("box", x, y, z)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	return b
}

// checkMesh verifies array consistency and that every vertex lies within
// the given bounds padded by tol.
func checkMesh(t *testing.T, m *kernel.Mesh, min, max [3]float64, tol float64) {
	t.Helper()
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != m.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(m.Indices), m.TriangleCount()*3)
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for a := 0; a < 3; a++ {
			v := float64(m.Vertices[i+a])
			if v < min[a]-tol || v > max[a]+tol {
				t.Fatalf("vertex %d axis %d = %f outside [%f, %f]", i/3, a, v, min[a], max[a])
			}
		}
	}
}

func TestBox(t *testing.T) {
	k := NewWithCells(testCells)
	s, err := k.FromSolid(mustBox(t, 50, 25, 12.5))
	if err != nil {
		t.Fatalf("FromSolid failed: %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	checkMesh(t, mesh, [3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}, 3)
	t.Logf("box triangle count: %d", mesh.TriangleCount())
}

func TestBoundingBox(t *testing.T) {
	k := New()
	s, err := k.FromSolid(mustBox(t, 50, 25, 12.5))
	if err != nil {
		t.Fatalf("FromSolid failed: %v", err)
	}
	min, max := s.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -25, -12.5}
	expectMax := [3]float64{50, 25, 12.5}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	k := NewWithCells(testCells)
	s, err := k.FromSolid(mustBox(t, 5, 5, 5))
	if err != nil {
		t.Fatalf("FromSolid failed: %v", err)
	}
	translated := k.Translate(s, 100, 200, 300)

	min, max := translated.BoundingBox()

	// Box half-lengths (5,5,5) moved to (100,200,300).
	const tol = 0.5
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestTrd(t *testing.T) {
	trd, err := geometry.NewTrd("trd", 10, 5, 5, 10, 15)
	if err != nil {
		t.Fatalf("NewTrd failed: %v", err)
	}
	k := NewWithCells(testCells)
	s, err := k.FromSolid(trd)
	if err != nil {
		t.Fatalf("FromSolid failed: %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	checkMesh(t, mesh, [3]float64{-10, -15, -10}, [3]float64{10, 15, 10}, 2)
}

func TestTrap(t *testing.T) {
	trap, err := geometry.NewTrap("trap", geometry.TrapParams{
		DZ: 10, Theta: 0.3, Phi: 0.5,
		DY1: 5, DX1: 5, DX2: 5, Alpha1: 0.1,
		DY2: 5, DX3: 5, DX4: 5, Alpha2: 0.1,
	})
	if err != nil {
		t.Fatalf("NewTrap failed: %v", err)
	}
	k := NewWithCells(testCells)
	s, err := k.FromSolid(trap)
	if err != nil {
		t.Fatalf("FromSolid failed: %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	bb := trap.BBox()
	checkMesh(t, mesh,
		[3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z},
		[3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}, 2)
}

func TestPlaneSDFSign(t *testing.T) {
	trd, err := geometry.NewTrd("trd", 1, 1, 1, 2, 2)
	if err != nil {
		t.Fatalf("NewTrd failed: %v", err)
	}
	s := newPlaneSDF(trd)
	if d := s.Evaluate(v3.Vec{}); d >= 0 {
		t.Errorf("Evaluate(origin) = %f, want negative", d)
	}
	if d := s.Evaluate(v3.Vec{Z: 3}); math.Abs(d-2) > 1e-9 {
		t.Errorf("Evaluate(0,0,3) = %f, want 2", d)
	}
	bb := s.BoundingBox()
	if bb.Max.Z <= 1 || bb.Min.Z >= -1 {
		t.Errorf("bounding box %v is not padded", bb)
	}
}

// opaqueSolid hides the concrete Box type from the kernel.
type opaqueSolid struct{ *geometry.Box }

func TestUnsupported(t *testing.T) {
	k := New()
	_, err := k.FromSolid(opaqueSolid{mustBox(t, 1, 1, 1)})
	var ue *kernel.UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatalf("FromSolid error = %v, want *kernel.UnsupportedError", err)
	}
}

func TestNewWithCells(t *testing.T) {
	if got := NewWithCells(0).Cells(); got != DefaultMeshCells {
		t.Errorf("NewWithCells(0).Cells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := NewWithCells(17).Cells(); got != 17 {
		t.Errorf("NewWithCells(17).Cells() = %d, want 17", got)
	}
}

func TestFlatBox(t *testing.T) {
	k := NewWithCells(testCells)
	s, err := k.FromSolid(mustBox(t, 1, 1, 0))
	if err != nil {
		t.Fatalf("FromSolid failed for a flat box: %v", err)
	}
	moved := k.Translate(s, 10, 0, 0)
	min, max := moved.BoundingBox()
	if min != [3]float64{9, -1, 0} || max != [3]float64{11, 1, 0} {
		t.Errorf("flat box bounds = %v, %v", min, max)
	}
	mesh, err := k.ToMesh(moved)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if !mesh.IsEmpty() {
		t.Errorf("flat box mesh has %d vertices, want 0", mesh.VertexCount())
	}
}
