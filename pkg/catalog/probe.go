package catalog

import (
	"fmt"

	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ProbeKind distinguishes the queries recorded in a catalog.
type ProbeKind int

const (
	ProbeInside     ProbeKind = iota // containment query
	ProbeTicks                       // unbounded line crossing query
	ProbeTicksRange                  // line crossing query over a tick range
	ProbeIntersects                  // boolean line crossing query
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeInside:
		return "inside"
	case ProbeTicks:
		return "ticks"
	case ProbeTicksRange:
		return "ticks-range"
	case ProbeIntersects:
		return "intersects"
	default:
		return fmt.Sprintf("ProbeKind(%d)", int(k))
	}
}

func (k ProbeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ProbeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "inside":
		*k = ProbeInside
	case "ticks":
		*k = ProbeTicks
	case "ticks-range":
		*k = ProbeTicksRange
	case "intersects":
		*k = ProbeIntersects
	default:
		return fmt.Errorf("unknown probe kind %q", text)
	}
	return nil
}

// Probe records one query and its answer.
type Probe struct {
	Kind    ProbeKind       `json:"kind"`
	Solid   string          `json:"solid"`
	Point   v3.Vec          `json:"point"`
	Vector  *v3.Vec         `json:"vector,omitempty"`
	TickMin *geometry.Tick  `json:"tick_min,omitempty"`
	TickMax *geometry.Tick  `json:"tick_max,omitempty"`
	Result  bool            `json:"result"`
	Ticks   []geometry.Tick `json:"ticks,omitempty"`
}

func (p Probe) String() string {
	switch p.Kind {
	case ProbeInside, ProbeIntersects:
		return fmt.Sprintf("%s %s %v -> %t", p.Kind, p.Solid, p.Point, p.Result)
	default:
		return fmt.Sprintf("%s %s %v -> %v", p.Kind, p.Solid, p.Point, p.Ticks)
	}
}

// Record appends a probe to the log.
func (c *Catalog) Record(p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, p)
}

// Probes returns the recorded probes in order.
func (c *Catalog) Probes() []Probe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Probe, len(c.probes))
	copy(out, c.probes)
	return out
}
