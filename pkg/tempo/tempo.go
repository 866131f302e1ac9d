// Package tempo converts MIDI ticks to wall-clock time and frames across
// tempo changes.
package tempo

import (
	"math"
	"sort"
)

// DefaultMicrosPerQuarter is 120 BPM, the MIDI default before any tempo event.
const DefaultMicrosPerQuarter = 500000

// Change is a tempo in effect from Tick onwards.
type Change struct {
	Tick             int // MIDI tick position
	MicrosPerQuarter int // Microseconds per quarter note
}

// Map answers tick/time questions for one file.
type Map struct {
	ppq      int
	changes  []Change
	secondAt []float64 // seconds elapsed at each change
}

// NewMap builds a tempo map. Changes are stable-sorted by tick; when no change
// starts at tick 0 the default tempo is inserted there. Non-positive tempos
// are dropped.
func NewMap(ppq int, changes []Change) *Map {
	cs := make([]Change, 0, len(changes)+1)
	for _, c := range changes {
		if c.MicrosPerQuarter > 0 && c.Tick >= 0 {
			cs = append(cs, c)
		}
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Tick < cs[j].Tick })
	if len(cs) == 0 || cs[0].Tick > 0 {
		cs = append([]Change{{Tick: 0, MicrosPerQuarter: DefaultMicrosPerQuarter}}, cs...)
	}
	m := &Map{ppq: ppq, changes: cs}
	m.precalculate()
	return m
}

// precalculate computes elapsed seconds at each tempo change so lookups only
// need the segment they fall in.
func (m *Map) precalculate() {
	m.secondAt = make([]float64, len(m.changes))
	for i := 1; i < len(m.changes); i++ {
		prev := m.changes[i-1]
		ticks := m.changes[i].Tick - prev.Tick
		m.secondAt[i] = m.secondAt[i-1] + float64(ticks)*m.secondsPerTick(prev)
	}
}

// 1 quarter note = ppq ticks = MicrosPerQuarter microseconds.
func (m *Map) secondsPerTick(c Change) float64 {
	if m.ppq <= 0 {
		return 0
	}
	return float64(c.MicrosPerQuarter) / float64(m.ppq) / 1000000.0
}

func (m *Map) segment(tick int) int {
	// changes[0].Tick is always 0, so the search never returns -1 for tick >= 0.
	i := sort.Search(len(m.changes), func(i int) bool { return m.changes[i].Tick > tick }) - 1
	if i < 0 {
		return 0
	}
	return i
}

// Seconds returns the time of tick from the start of the file.
func (m *Map) Seconds(tick int) float64 {
	i := m.segment(tick)
	c := m.changes[i]
	return m.secondAt[i] + float64(tick-c.Tick)*m.secondsPerTick(c)
}

// Frame returns the unrounded frame of tick at the given frame rate.
func (m *Map) Frame(tick int, fps float64) float64 {
	return m.Seconds(tick) * fps
}

// TickAt converts seconds back to a tick, truncating partial ticks.
func (m *Map) TickAt(seconds float64) int {
	i := len(m.changes) - 1
	for ; i > 0; i-- {
		if seconds >= m.secondAt[i] {
			break
		}
	}
	c := m.changes[i]
	spt := m.secondsPerTick(c)
	if spt <= 0 {
		return c.Tick
	}
	return c.Tick + int(math.Floor((seconds-m.secondAt[i])/spt))
}

// Changes returns the normalised tempo changes.
func (m *Map) Changes() []Change {
	out := make([]Change, len(m.changes))
	copy(out, m.changes)
	return out
}
