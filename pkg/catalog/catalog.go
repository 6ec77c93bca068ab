package catalog

import (
	"math"
	"sort"
	"sync"

	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"github.com/samber/lo"
)

// rectPad keeps flat bounding boxes indexable; the R-tree rejects
// rectangles with a zero side.
const rectPad = 1e-9

// Entry is a solid placed at a translation.
type Entry struct {
	ID    EntryID        `json:"id"`
	Name  string         `json:"name"`
	Solid geometry.Solid `json:"-"`
	At    v3.Vec         `json:"at"`

	seq  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial with the world bounding box.
func (e *Entry) Bounds() rtreego.Rect { return e.rect }

// Local converts a world point into the solid's frame.
func (e *Entry) Local(p v3.Vec) v3.Vec { return p.Sub(e.At) }

// Crossing is the part of a world line inside one entry.
type Crossing struct {
	Entry *Entry          `json:"-"`
	Name  string          `json:"name"`
	Ticks []geometry.Tick `json:"ticks"`
}

// Catalog is a set of placed solids plus the log of queries made against
// them. Reads may run concurrently; Add takes an exclusive lock.
type Catalog struct {
	mu      sync.RWMutex
	entries []*Entry
	byID    map[EntryID]*Entry
	byName  map[string][]*Entry
	tree    *rtreego.Rtree
	probes  []Probe
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		byID:   make(map[EntryID]*Entry),
		byName: make(map[string][]*Entry),
		tree:   rtreego.NewTree(3, 4, 16),
	}
}

// Add places s at the translation at and returns the new entry. Names
// need not be unique.
func (c *Catalog) Add(name string, s geometry.Solid, at v3.Vec) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := len(c.entries)
	e := &Entry{
		ID:    NewEntryID(seq, s.TypeName(), name),
		Name:  name,
		Solid: s,
		At:    at,
		seq:   seq,
	}
	bb := s.BBox()
	e.rect = worldRect(bb.Min.Add(at), bb.Max.Add(at))

	c.entries = append(c.entries, e)
	c.byID[e.ID] = e
	c.byName[name] = append(c.byName[name], e)
	c.tree.Insert(e)
	return e
}

// worldRect builds an R-tree rectangle from two corners.
func worldRect(lo, hi v3.Vec) rtreego.Rect {
	min := rtreego.Point{
		math.Min(lo.X, hi.X) - rectPad, math.Min(lo.Y, hi.Y) - rectPad, math.Min(lo.Z, hi.Z) - rectPad,
	}
	max := rtreego.Point{
		math.Max(lo.X, hi.X) + rectPad, math.Max(lo.Y, hi.Y) + rectPad, math.Max(lo.Z, hi.Z) + rectPad,
	}
	r, err := rtreego.NewRectFromPoints(min, max)
	if err != nil {
		// Both points are three-dimensional and ordered.
		panic("catalog: " + err.Error())
	}
	return r
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns the entries in insertion order.
func (c *Catalog) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the entry names in insertion order.
func (c *Catalog) Names() []string {
	return lo.Map(c.Entries(), func(e *Entry, _ int) string { return e.Name })
}

// Get returns the entry with the given ID, or nil.
func (c *Catalog) Get(id EntryID) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

// Lookup returns the first entry added under name, or nil.
func (c *Catalog) Lookup(name string) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if es := c.byName[name]; len(es) > 0 {
		return es[0]
	}
	return nil
}

// candidates returns the entries whose boxes intersect r, in insertion order.
func (c *Catalog) candidates(r rtreego.Rect) []*Entry {
	hits := c.tree.SearchIntersect(r)
	out := make([]*Entry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*Entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Locate returns the entries whose solid contains the world point p.
func (c *Catalog) Locate(p v3.Vec) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r := worldRect(p, p)
	return lo.Filter(c.candidates(r), func(e *Entry, _ int) bool {
		return e.Solid.IsInside(e.Local(p))
	})
}

// Crossings returns, for every entry the segment p + t*v with t in
// [tickMin, tickMax] passes through, the ticks of that passage. Ticks do
// not depend on the placement, so they are directly comparable across
// entries. Results are ordered by their first tick.
func (c *Catalog) Crossings(p, v v3.Vec, tickMin, tickMax geometry.Tick) []Crossing {
	if tickMin > tickMax {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var cands []*Entry
	if math.IsInf(tickMin, 0) || math.IsInf(tickMax, 0) {
		// An unbounded segment has no finite box to search with.
		cands = c.entries
	} else {
		cands = c.candidates(worldRect(p.Add(v.MulScalar(tickMin)), p.Add(v.MulScalar(tickMax))))
	}

	var out []Crossing
	var ts geometry.Ticks
	for _, e := range cands {
		if e.Solid.IntersectionTicksRange(e.Local(p), v, tickMin, tickMax, &ts) == 0 {
			continue
		}
		out = append(out, Crossing{Entry: e, Name: e.Name, Ticks: ts.Slice()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ticks[0] < out[j].Ticks[0] })
	return out
}
