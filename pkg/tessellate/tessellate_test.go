package tessellate_test

import (
	"strings"
	"testing"

	"github.com/chazu/solidprobe/pkg/catalog"
	"github.com/chazu/solidprobe/pkg/geometry"
	"github.com/chazu/solidprobe/pkg/kernel"
	"github.com/chazu/solidprobe/pkg/kernel/sdfx"
	"github.com/chazu/solidprobe/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(40)
}

func makeBox(t *testing.T, name string, x, y, z float64) *geometry.Box {
	t.Helper()
	b, err := geometry.NewBox(name, x, y, z)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	return b
}

// centroid returns the mean of the mesh vertices.
func centroid(m *kernel.Mesh) (cx, cy, cz float64) {
	n := m.VertexCount()
	for i := 0; i < n; i++ {
		cx += float64(m.Vertices[i*3])
		cy += float64(m.Vertices[i*3+1])
		cz += float64(m.Vertices[i*3+2])
	}
	return cx / float64(n), cy / float64(n), cz / float64(n)
}

func TestSingleBox(t *testing.T) {
	c := catalog.New()
	c.Add("block", makeBox(t, "block", 50, 25, 5), v3.Vec{})

	meshes, err := tessellate.Tessellate(c, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	if meshes[0].IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if meshes[0].PartName != "block" {
		t.Errorf("expected PartName %q, got %q", "block", meshes[0].PartName)
	}
}

func TestPlacement(t *testing.T) {
	c := catalog.New()
	c.Add("shelf", makeBox(t, "shelf", 50, 25, 5), v3.Vec{X: 250, Y: 125, Z: 55})

	meshes, err := tessellate.Tessellate(c, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	cx, cy, cz := centroid(meshes[0])

	// Use a generous tolerance since marching cubes is approximate.
	const tol = 20.0
	if abs(cx-250) > tol {
		t.Errorf("centroid X = %.1f, expected near 250", cx)
	}
	if abs(cy-125) > tol {
		t.Errorf("centroid Y = %.1f, expected near 125", cy)
	}
	if abs(cz-55) > tol {
		t.Errorf("centroid Z = %.1f, expected near 55", cz)
	}
}

func TestMixedShapes(t *testing.T) {
	c := catalog.New()
	c.Add("box", makeBox(t, "box", 10, 10, 10), v3.Vec{})
	trd, err := geometry.NewTrd("trd", 10, 5, 5, 10, 10)
	if err != nil {
		t.Fatalf("NewTrd failed: %v", err)
	}
	c.Add("trd", trd, v3.Vec{X: 40})

	meshes, err := tessellate.Tessellate(c, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "box" || meshes[1].PartName != "trd" {
		t.Errorf("unexpected part names %q, %q", meshes[0].PartName, meshes[1].PartName)
	}
	if cx, _, _ := centroid(meshes[1]); abs(cx-40) > 5 {
		t.Errorf("trd centroid X = %.1f, expected near 40", cx)
	}
}

func TestCovers(t *testing.T) {
	trd, err := geometry.NewTrd("trd", 10, 5, 5, 10, 10)
	if err != nil {
		t.Fatalf("NewTrd failed: %v", err)
	}
	c := catalog.New()
	c.Add("trd", trd, v3.Vec{})

	meshes, err := tessellate.Covers(c, newKernel())
	if err != nil {
		t.Fatalf("Covers failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	if want := "trd" + tessellate.CoverSuffix; meshes[0].PartName != want {
		t.Errorf("expected PartName %q, got %q", want, meshes[0].PartName)
	}
	// The cover box reaches x=10 at the -z end where the trd is narrower.
	found := false
	m := meshes[0]
	for i := 0; i < m.VertexCount(); i++ {
		if m.Vertices[i*3] > 9 && m.Vertices[i*3+2] < -9 {
			found = true
			break
		}
	}
	if !found {
		t.Error("cover mesh does not reach the wide corner of the cover box")
	}
}

// opaque hides the concrete shape from the kernel.
type opaque struct{ *geometry.Box }

func TestUnsupportedSolid(t *testing.T) {
	c := catalog.New()
	c.Add("odd", opaque{makeBox(t, "odd", 1, 1, 1)}, v3.Vec{})

	_, err := tessellate.Tessellate(c, newKernel())
	if err == nil {
		t.Fatal("expected error for unsupported solid")
	}
	if !strings.Contains(err.Error(), `"odd"`) {
		t.Errorf("error %q does not name the entry", err)
	}
}

func TestFlatBoxAmongSolids(t *testing.T) {
	c := catalog.New()
	c.Add("left", makeBox(t, "left", 5, 5, 5), v3.Vec{X: -20})
	flat := c.Add("foil", makeBox(t, "foil", 5, 5, 0), v3.Vec{})
	c.Add("right", makeBox(t, "right", 5, 5, 5), v3.Vec{X: 20})

	meshes, err := tessellate.Tessellate(c, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	if !meshes[1].IsEmpty() {
		t.Errorf("flat box mesh has %d vertices, want 0", meshes[1].VertexCount())
	}
	if meshes[1].EntryID != flat.ID.String() {
		t.Errorf("flat box mesh EntryID = %q, want %q", meshes[1].EntryID, flat.ID)
	}
	if meshes[0].IsEmpty() || meshes[2].IsEmpty() {
		t.Error("meshes next to the flat box should not be empty")
	}

	covers, err := tessellate.Covers(c, newKernel())
	if err != nil {
		t.Fatalf("Covers failed: %v", err)
	}
	if len(covers) != 3 {
		t.Fatalf("expected 3 cover meshes, got %d", len(covers))
	}
}

func TestMeshMetadata(t *testing.T) {
	trd, err := geometry.NewTrd("trd", 10, 5, 5, 10, 10)
	if err != nil {
		t.Fatalf("NewTrd failed: %v", err)
	}
	c := catalog.New()
	e := c.Add("trd", trd, v3.Vec{})

	solids, err := tessellate.Tessellate(c, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	covers, err := tessellate.Covers(c, newKernel())
	if err != nil {
		t.Fatalf("Covers failed: %v", err)
	}

	tests := []struct {
		name      string
		mesh      *kernel.Mesh
		solidType string
		cover     bool
	}{
		{"solid", solids[0], "Trd", false},
		{"cover", covers[0], "Box", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mesh.EntryID != e.ID.String() {
				t.Errorf("EntryID = %q, want %q", tt.mesh.EntryID, e.ID)
			}
			if tt.mesh.SolidType != tt.solidType {
				t.Errorf("SolidType = %q, want %q", tt.mesh.SolidType, tt.solidType)
			}
			if tt.mesh.Cover != tt.cover {
				t.Errorf("Cover = %t, want %t", tt.mesh.Cover, tt.cover)
			}
		})
	}
}

func TestEmptyCatalog(t *testing.T) {
	meshes, err := tessellate.Tessellate(catalog.New(), newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(nil, newKernel())
	if err != nil || meshes != nil {
		t.Errorf("Tessellate(nil) = %v, %v; want nil, nil", meshes, err)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
