package timeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/midicurve/pkg/eventlog"
)

func ev(name string, frame, gate float64) eventlog.NoteEvent {
	return eventlog.NoteEvent{NoteName: name, Frame: frame, Gate: gate}
}

func TestBuild_SeedsAndAppendsInOrder(t *testing.T) {
	events := []eventlog.NoteEvent{
		ev("a4", 60, 1),
		ev("c5", 60, 1),
		ev("a4", 120, 0),
		ev("c5", 90, 0),
	}
	set := Build(events, []string{"a4", "c5"})

	if got := set.Names(); !reflect.DeepEqual(got, []string{"a4", "c5"}) {
		t.Fatalf("Names() = %v", got)
	}

	a4, ok := set.Get("a4")
	if !ok {
		t.Fatal("a4 timeline missing")
	}
	want := []Sample{{1, 0}, {60, 1}, {120, 0}}
	if !reflect.DeepEqual(a4.Samples, want) {
		t.Errorf("a4 samples = %v, want %v", a4.Samples, want)
	}

	c5, _ := set.Get("c5")
	want = []Sample{{1, 0}, {60, 1}, {90, 0}}
	if !reflect.DeepEqual(c5.Samples, want) {
		t.Errorf("c5 samples = %v, want %v", c5.Samples, want)
	}
}

func TestBuild_KeepsDuplicateFrames(t *testing.T) {
	set := Build([]eventlog.NoteEvent{ev("e4", 10, 1), ev("e4", 10, 0)}, []string{"e4"})
	tl, _ := set.Get("e4")
	if tl.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", tl.Len())
	}
	if tl.Samples[1].Frame != tl.Samples[2].Frame {
		t.Error("duplicate frames should be preserved")
	}
}

func TestBuild_RepeatedNameBuiltOnce(t *testing.T) {
	set := Build([]eventlog.NoteEvent{ev("g3", 5, 1)}, []string{"g3", "g3"})
	if set.Len() != 1 {
		t.Fatalf("expected 1 timeline, got %d", set.Len())
	}
	tl, _ := set.Get("g3")
	if tl.Len() != 2 {
		t.Errorf("expected seed plus one sample, got %d", tl.Len())
	}
}

func TestBuild_UnlistedEventsIgnored(t *testing.T) {
	set := Build([]eventlog.NoteEvent{ev("b2", 5, 1)}, []string{"a4"})
	tl, _ := set.Get("a4")
	if tl.Len() != 1 {
		t.Errorf("expected only the seed, got %v", tl.Samples)
	}
	if _, ok := set.Get("b2"); ok {
		t.Error("b2 should not have a timeline")
	}
}

func TestBuild_Empty(t *testing.T) {
	set := Build(nil, nil)
	if set.Len() != 0 {
		t.Errorf("expected empty set, got %d", set.Len())
	}
	if err := set.Each(func(*Timeline) error { return errors.New("called") }); err != nil {
		t.Errorf("Each on empty set returned %v", err)
	}
}

func TestEach_StopsOnError(t *testing.T) {
	set := Build(nil, []string{"a0", "b0", "c1"})
	stop := errors.New("stop")
	var visited []string
	err := set.Each(func(tl *Timeline) error {
		visited = append(visited, tl.Name)
		if tl.Name == "b0" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Each error = %v, want stop", err)
	}
	if !reflect.DeepEqual(visited, []string{"a0", "b0"}) {
		t.Errorf("visited = %v", visited)
	}
}

func TestCollapsed(t *testing.T) {
	tl := &Timeline{Name: "a4", Samples: []Sample{{1, 0}, {10, 1}, {10, 0}, {20, 1}, {10, 1}}}
	got := tl.Collapsed()
	want := []Sample{{1, 0}, {10, 0}, {20, 1}, {10, 1}}
	if !reflect.DeepEqual(got.Samples, want) {
		t.Errorf("Collapsed() = %v, want %v", got.Samples, want)
	}
	if len(tl.Samples) != 5 {
		t.Error("Collapsed must not modify the receiver")
	}
}

func TestSetCollapsed(t *testing.T) {
	set := Build([]eventlog.NoteEvent{ev("c4", 1, 1), ev("a4", 5, 1), ev("a4", 5, 0)}, []string{"c4", "a4"})
	got := set.Collapsed()
	if !reflect.DeepEqual(got.Names(), []string{"c4", "a4"}) {
		t.Errorf("Names() = %v", got.Names())
	}
	c4, _ := got.Get("c4")
	if !reflect.DeepEqual(c4.Samples, []Sample{{1, 1}}) {
		t.Errorf("c4 = %v", c4.Samples)
	}
	a4, _ := got.Get("a4")
	if !reflect.DeepEqual(a4.Samples, []Sample{{1, 0}, {5, 0}}) {
		t.Errorf("a4 = %v", a4.Samples)
	}
	if orig, _ := set.Get("a4"); orig.Len() != 3 {
		t.Error("Collapsed must not modify the source set")
	}
}

func TestValueAt(t *testing.T) {
	tl := &Timeline{Name: "a4", Samples: []Sample{{1, 0}, {10, 1}, {20, 0}}}
	tests := []struct {
		frame float64
		want  float64
	}{
		{0, 0},
		{5, 0},
		{10, 1},
		{15, 1},
		{25, 0},
	}
	for _, tt := range tests {
		if got := tl.ValueAt(tt.frame); got != tt.want {
			t.Errorf("ValueAt(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestFromResult(t *testing.T) {
	lines := []string{
		"0, 0, Header, 1, 2, 96",
		"1, 0, Tempo, 500000",
		"2, 0, Title_t, \"Piano\"",
		"2, 480, Note_on_c, 0, 69, 100",
		"2, 960, Note_off_c, 0, 69, 0",
	}
	opts := eventlog.DefaultOptions()
	opts.Channel = "2"
	res, err := eventlog.NewParser(opts, nil).Parse(lines)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	set := FromResult(res)
	tl, ok := set.Get("a4")
	if !ok {
		t.Fatal("a4 timeline missing")
	}
	want := []Sample{{1, 0}, {60, 1}, {120, 0}}
	if !reflect.DeepEqual(tl.Samples, want) {
		t.Errorf("samples = %v, want %v", tl.Samples, want)
	}
}

func TestProperty_OneSeededTimelinePerName(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	names := eventlog.NoteNames()[:12]

	properties.Property("every listed name gets exactly one timeline starting at (1,0)", prop.ForAll(
		func(picks []int) bool {
			var events []eventlog.NoteEvent
			var order []string
			seen := map[string]bool{}
			for i, p := range picks {
				n := names[p]
				events = append(events, ev(n, float64(i), float64(i%2)))
				if !seen[n] {
					seen[n] = true
					order = append(order, n)
				}
			}
			set := Build(events, order)
			if !reflect.DeepEqual(set.Names(), order) {
				return false
			}
			total := 0
			for _, n := range order {
				tl, ok := set.Get(n)
				if !ok || tl.Samples[0] != Seed {
					return false
				}
				total += tl.Len() - 1
			}
			return total == len(events)
		},
		gen.SliceOf(gen.IntRange(0, len(names)-1)),
	))

	properties.TestingRun(t)
}
