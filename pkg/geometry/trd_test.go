package geometry

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrdValidation(t *testing.T) {
	tests := []struct {
		name              string
		z, x1, y1, x2, y2 float64
		wantErr           bool
	}{
		{"regular", 2, 1, 1, 2, 2, false},
		{"wedge", 1, 0, 1, 1, 1, false},
		{"zero z", 0, 1, 1, 1, 1, true},
		{"negative x", 1, -1, 1, 1, 1, true},
		{"negative y", 1, 1, 1, 1, -1, true},
		{"no x extent", 1, 0, 1, 0, 1, true},
		{"no y extent", 1, 1, 0, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trd, err := NewTrd(tt.name, tt.z, tt.x1, tt.y1, tt.x2, tt.y2)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, trd)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, trd)
		})
	}
}

func TestTrdGeometry(t *testing.T) {
	trd, err := NewTrd("trd", 2, 1, 1, 2, 2)
	require.NoError(t, err)

	assert.InDelta(t, math.Sqrt(12), trd.RMax(), 1e-12)
	assert.InDelta(t, math.Sqrt(8), trd.RhoMax(), 1e-12)
	assert.Len(t, trd.Planes(), 6)
	assert.Len(t, trd.Vertices(), 8)

	assert.True(t, trd.IsInside(v3.Vec{}))
	assert.True(t, trd.IsInside(v3.Vec{X: 1.4}))
	assert.False(t, trd.IsInside(v3.Vec{X: 1.6}))
	assert.True(t, trd.IsInside(v3.Vec{X: 1.9, Y: 1.9, Z: 1.9}))
	assert.False(t, trd.IsInside(v3.Vec{X: 1.9, Y: 1.9, Z: -1.9}))

	var ts Ticks
	require.Equal(t, 2, trd.IntersectionTicks(v3.Vec{}, v3.Vec{X: 1}, &ts))
	assert.InDelta(t, -1.5, ts.At(0), 1e-12)
	assert.InDelta(t, 1.5, ts.At(1), 1e-12)

	require.Equal(t, 2, trd.IntersectionTicks(v3.Vec{Z: -10}, v3.Vec{Z: 1}, &ts))
	assert.InDelta(t, 8, ts.At(0), 1e-12)
	assert.InDelta(t, 12, ts.At(1), 1e-12)
}

func TestTrdWedge(t *testing.T) {
	wedge, err := NewTrd("wedge", 1, 0, 1, 1, 1)
	require.NoError(t, err)
	assert.Len(t, wedge.Planes(), 5, "the collapsed -z face adds no plane")
	assert.True(t, wedge.IsInside(v3.Vec{Z: 0.5, X: 0.7}))
	assert.False(t, wedge.IsInside(v3.Vec{Z: -0.5, X: 0.7}))
}

func TestTrdCover(t *testing.T) {
	trd, err := NewTrd("trd", 2, 1, 3, 2, 1)
	require.NoError(t, err)
	box, ok := trd.Cover().(*Box)
	require.True(t, ok, "cover is %T", trd.Cover())
	assert.Equal(t, v3.Vec{X: 2, Y: 3, Z: 2}, box.HalfLengths())
	assert.Equal(t, "Cover for trd", box.Name())
	assert.Same(t, box, trd.CoverTop())
}

func TestTrdReset(t *testing.T) {
	trd, err := NewTrd("trd", 2, 1, 1, 2, 2)
	require.NoError(t, err)
	cover := trd.Cover()
	trd.Reset()
	assert.False(t, trd.IsInside(v3.Vec{}))
	assert.False(t, trd.TestForIntersection(v3.Vec{X: -5}, v3.Vec{X: 1}))
	assert.Equal(t, 0.0, cover.RMax())
}
