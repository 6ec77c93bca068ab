package kernel

import (
	"errors"
	"testing"

	"github.com/chazu/solidprobe/pkg/geometry"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshBounds(t *testing.T) {
	if _, _, ok := (&Mesh{}).Bounds(); ok {
		t.Error("Bounds() ok = true for empty mesh")
	}
	m := &Mesh{Vertices: []float32{1, -2, 3, -4, 5, 0, 2, 2, 2}}
	min, max, ok := m.Bounds()
	if !ok {
		t.Fatal("Bounds() ok = false for non-empty mesh")
	}
	if min != [3]float32{-4, -2, 0} || max != [3]float32{2, 5, 3} {
		t.Errorf("Bounds() = %v, %v", min, max)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel converts boxes to their bounding boxes and rejects every
// other shape.
type stubKernel struct{}

func (k *stubKernel) FromSolid(s geometry.Solid) (Solid, error) {
	if _, ok := s.(*geometry.Box); !ok {
		return nil, &UnsupportedError{TypeName: s.TypeName(), Name: s.Name()}
	}
	bb := s.BBox()
	return &stubSolid{
		minBB: [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z},
		maxBB: [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z},
	}, nil
}

func (k *stubKernel) Translate(s Solid, x, y, z float64) Solid {
	min, max := s.BoundingBox()
	d := [3]float64{x, y, z}
	for i := range d {
		min[i] += d[i]
		max[i] += d[i]
	}
	return &stubSolid{minBB: min, maxBB: max}
}

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	b, err := geometry.NewBox("b", 1, 2, 3)
	if err != nil {
		t.Fatalf("NewBox() error = %v", err)
	}
	s, err := k.FromSolid(b)
	if err != nil {
		t.Fatalf("FromSolid() error = %v", err)
	}
	min, max := k.Translate(s, 10, 0, 0).BoundingBox()
	if min != [3]float64{9, -2, -3} {
		t.Errorf("Box min = %v, want [9 -2 -3]", min)
	}
	if max != [3]float64{11, 2, 3} {
		t.Errorf("Box max = %v, want [11 2 3]", max)
	}
}

func TestStubKernelUnsupported(t *testing.T) {
	var k Kernel = &stubKernel{}
	trd, err := geometry.NewTrd("wedge", 1, 1, 1, 2, 2)
	if err != nil {
		t.Fatalf("NewTrd() error = %v", err)
	}
	_, err = k.FromSolid(trd)
	var ue *UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatalf("FromSolid() error = %v, want *UnsupportedError", err)
	}
	if got, want := ue.Error(), `kernel: unsupported solid Trd "wedge"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	b, _ := geometry.NewBox("b", 1, 1, 1)
	s, _ := k.FromSolid(b)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}
