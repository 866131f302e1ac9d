package eventlog

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/midicurve/pkg/logger"
)

// Property-based tests for tick to frame conversion and note resolution.

func TestProperty_FrameMonotonicInTick(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("frames keep source tick order", prop.ForAll(
		func(ticks []int, us int, ppq int, fps int) bool {
			sort.Ints(ticks)
			lines := []string{
				fmt.Sprintf("0, 0, Header, 1, 2, %d", ppq),
				fmt.Sprintf("1, 0, Tempo, %d", us),
			}
			for _, tick := range ticks {
				lines = append(lines, fmt.Sprintf("2, %d, Note_on_c, 0, 60, 100", tick))
			}
			opts := DefaultOptions()
			opts.Channel = "2"
			opts.FPS = float64(fps)
			res, err := NewParser(opts, logger.Discard()).Parse(lines)
			if err != nil || len(res.Events) != len(ticks) {
				return false
			}
			for i := 1; i < len(res.Events); i++ {
				if res.Events[i].Frame < res.Events[i-1].Frame {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 200000)),
		gen.IntRange(100000, 2000000),
		gen.IntRange(24, 960),
		gen.IntRange(1, 120),
	))

	properties.Property("every pitch on the keyboard resolves, all others fail", prop.ForAll(
		func(pitch int) bool {
			lines := []string{
				"0, 0, Header, 1, 2, 96",
				"1, 0, Tempo, 500000",
				fmt.Sprintf("2, 0, Note_off_c, 0, %d, 0", pitch),
			}
			opts := DefaultOptions()
			opts.Channel = "2"
			res, err := NewParser(opts, logger.Discard()).Parse(lines)
			if pitch < MinPitch || pitch > MaxPitch {
				return err != nil && res == nil
			}
			return err == nil && len(res.NoteNames) == 1
		},
		gen.IntRange(0, 127),
	))

	properties.Property("parsing is idempotent", prop.ForAll(
		func(pitches []int, titles []bool) bool {
			lines := []string{"0, 0, Header, 1, 2, 96", "1, 0, Tempo, 500000"}
			for _, named := range titles {
				if named {
					lines = append(lines, `2, 0, Title_t, "Lead"`)
				} else {
					lines = append(lines, `2, 0, Title_t, ""`)
				}
			}
			for i, p := range pitches {
				lines = append(lines, fmt.Sprintf("2, %d, Note_on_c, 0, %d, %d", i*48, p, i%128))
			}
			opts := DefaultOptions()
			opts.Channel = "2"
			opts.UseVelocity = true
			p := NewParser(opts, logger.Discard())
			a, errA := p.Parse(lines)
			b, errB := p.Parse(lines)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.IntRange(MinPitch, MaxPitch)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		pitch int
		want  string
	}{
		{21, "a0"},
		{22, "a0s"},
		{24, "c1"},
		{60, "c4"},
		{61, "c4s"},
		{69, "a4"},
		{107, "b7"},
		{108, "c8"},
	}
	for _, tt := range tests {
		got, err := NoteName(tt.pitch)
		if err != nil {
			t.Errorf("NoteName(%d) error: %v", tt.pitch, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NoteName(%d) = %q, want %q", tt.pitch, got, tt.want)
		}
	}
	for _, pitch := range []int{20, 109, -1} {
		if _, err := NoteName(pitch); err == nil {
			t.Errorf("NoteName(%d) should fail", pitch)
		}
	}
	if n := len(NoteNames()); n != 88 {
		t.Errorf("NoteNames() has %d entries, want 88", n)
	}
}
