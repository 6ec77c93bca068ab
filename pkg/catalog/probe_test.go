package catalog

import (
	"encoding/json"
	"testing"

	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeKind_TextRoundTrip(t *testing.T) {
	for _, k := range []ProbeKind{ProbeInside, ProbeTicks, ProbeTicksRange, ProbeIntersects} {
		t.Run(k.String(), func(t *testing.T) {
			text, err := k.MarshalText()
			require.NoError(t, err)
			var got ProbeKind
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, k, got)
		})
	}
}

func TestProbeKind_UnmarshalUnknown(t *testing.T) {
	var k ProbeKind
	assert.Error(t, k.UnmarshalText([]byte("ProbeKind(9)")))
	assert.Error(t, k.UnmarshalText(nil))
}

func TestEntryID_TextRoundTrip(t *testing.T) {
	id := NewEntryID(3, "Box", "absorber")
	text, err := id.MarshalText()
	require.NoError(t, err)

	var got EntryID
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, id, got)
	assert.Error(t, got.UnmarshalText([]byte("not-a-uuid")))
}

func TestProbe_JSONRoundTrip(t *testing.T) {
	c := New()
	e := c.Add("b", mustBox(t, "b", 1, 1, 1), v3.Vec{})

	lo, hi := geometry.Tick(0), geometry.Tick(5)
	c.Record(Probe{Kind: ProbeInside, Solid: "b", Point: v3.Vec{}, Result: true})
	c.Record(Probe{
		Kind: ProbeTicksRange, Solid: "b",
		Point: v3.Vec{X: -2}, Vector: &v3.Vec{X: 1},
		TickMin: &lo, TickMax: &hi,
		Ticks: []geometry.Tick{1, 3},
	})

	type report struct {
		ID     EntryID `json:"id"`
		Probes []Probe `json:"probes"`
	}
	in := report{ID: e.ID, Probes: c.Probes()}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out report
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Probes, out.Probes)
}
