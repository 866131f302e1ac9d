// Package timeline turns resolved note events into one sparse keyframe
// timeline per note name.
package timeline

import "github.com/zurustar/midicurve/pkg/eventlog"

// Seed is the sample every timeline starts with, so curves begin closed.
var Seed = Sample{Frame: 1, Value: 0}

// Sample is one keyframe.
type Sample struct {
	Frame float64 `json:"frame"`
	Value float64 `json:"value"`
}

// Timeline is the ordered samples of one note. Samples appear in source
// order and may repeat a frame.
type Timeline struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
}

func (t *Timeline) add(frame, value float64) {
	t.Samples = append(t.Samples, Sample{Frame: frame, Value: value})
}

// Len returns the number of samples including the seed.
func (t *Timeline) Len() int {
	return len(t.Samples)
}

// Collapsed returns a copy in which runs of samples sharing a frame are
// reduced to the last one, for keyframe APIs that reject duplicate frames.
func (t *Timeline) Collapsed() *Timeline {
	out := &Timeline{Name: t.Name, Samples: make([]Sample, 0, len(t.Samples))}
	for _, s := range t.Samples {
		if n := len(out.Samples); n > 0 && out.Samples[n-1].Frame == s.Frame {
			out.Samples[n-1] = s
			continue
		}
		out.Samples = append(out.Samples, s)
	}
	return out
}

// ValueAt holds the value of the latest sample at or before frame, scanning
// in source order. Frames before the first sample read as 0.
func (t *Timeline) ValueAt(frame float64) float64 {
	v := 0.0
	for _, s := range t.Samples {
		if s.Frame > frame {
			continue
		}
		v = s.Value
	}
	return v
}

// Set is the result of a build: timelines keyed by note name, iterated in
// first-seen order.
type Set struct {
	names []string
	byKey map[string]*Timeline
}

// Names returns note names in first-seen order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get returns the timeline for a note name.
func (s *Set) Get(name string) (*Timeline, bool) {
	t, ok := s.byKey[name]
	return t, ok
}

// Len returns the number of timelines.
func (s *Set) Len() int {
	return len(s.names)
}

// Each calls fn for every timeline in order and stops at the first error.
func (s *Set) Each(fn func(*Timeline) error) error {
	for _, name := range s.names {
		if err := fn(s.byKey[name]); err != nil {
			return err
		}
	}
	return nil
}

// Collapsed applies Timeline.Collapsed to every timeline of the set.
func (s *Set) Collapsed() *Set {
	out := &Set{names: s.Names(), byKey: make(map[string]*Timeline, len(s.byKey))}
	for name, t := range s.byKey {
		out.byKey[name] = t.Collapsed()
	}
	return out
}

// Build creates one timeline per entry of names, seeded with Seed, then
// appends (frame, gate) for every event of that name in event order. Names
// repeated in names are built once. Events whose name is not listed are
// ignored.
func Build(events []eventlog.NoteEvent, names []string) *Set {
	set := &Set{byKey: make(map[string]*Timeline, len(names))}
	for _, name := range names {
		if _, ok := set.byKey[name]; ok {
			continue
		}
		t := &Timeline{Name: name}
		t.add(Seed.Frame, Seed.Value)
		set.byKey[name] = t
		set.names = append(set.names, name)
	}
	for _, ev := range events {
		if t, ok := set.byKey[ev.NoteName]; ok {
			t.add(ev.Frame, ev.Gate)
		}
	}
	return set
}

// FromResult builds the timelines of a parse.
func FromResult(res *eventlog.ParseResult) *Set {
	return Build(res.Events, res.NoteNames)
}
