package geometry

import (
	"fmt"
	"math"
	"strings"
)

// MaxTicks is the largest number of crossings any solid may declare.
// A solid that declares more is rejected at construction.
const MaxTicks = 32

// Tick is the parameter t of a point p + t*v on a line.
type Tick = float64

// Ticks is a fixed-capacity ascending sequence of Tick values filled by a
// single intersection query. The zero value is empty and ready to use.
type Ticks struct {
	t [MaxTicks]Tick
	n int
}

// Len returns the number of ticks held.
func (ts *Ticks) Len() int { return ts.n }

// At returns the i-th tick.
func (ts *Ticks) At(i int) Tick {
	if i < 0 || i >= ts.n {
		panic(fmt.Sprintf("geometry: tick index %d out of range [0,%d)", i, ts.n))
	}
	return ts.t[i]
}

// Slice returns a copy of the held ticks.
func (ts *Ticks) Slice() []Tick {
	out := make([]Tick, ts.n)
	copy(out, ts.t[:ts.n])
	return out
}

// Reset empties the sequence.
func (ts *Ticks) Reset() { ts.n = 0 }

// push appends a tick. Capacity is guaranteed by the construction-time
// check of every solid's MaxNumberOfTicks, so overflow is a programming error.
func (ts *Ticks) push(t Tick) {
	if ts.n == MaxTicks {
		panic("geometry: tick container overflow")
	}
	ts.t[ts.n] = t
	ts.n++
}

// ClipTo restricts the sequence to [tickMin, tickMax]. Ticks are taken in
// entry/exit pairs: a pair lying entirely outside the range is dropped, a
// pair overlapping it is clipped to the range bounds. It returns the new
// length. A trailing unpaired tick is kept only if it lies inside the range.
func (ts *Ticks) ClipTo(tickMin, tickMax Tick) int {
	if tickMin > tickMax {
		ts.n = 0
		return 0
	}
	n := 0
	i := 0
	for ; i+1 < ts.n; i += 2 {
		t0, t1 := ts.t[i], ts.t[i+1]
		if t1 < tickMin || t0 > tickMax {
			continue
		}
		ts.t[n] = math.Max(t0, tickMin)
		ts.t[n+1] = math.Min(t1, tickMax)
		n += 2
	}
	if i < ts.n {
		if t := ts.t[i]; t >= tickMin && t <= tickMax {
			ts.t[n] = t
			n++
		}
	}
	ts.n = n
	return n
}

func (ts *Ticks) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < ts.n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", ts.t[i])
	}
	sb.WriteByte(']')
	return sb.String()
}
