// Package bake runs one event log through parsing, re-timing and timeline
// building, and hands the curves and the control index to host sinks.
package bake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/midicurve/pkg/eventlog"
	"github.com/zurustar/midicurve/pkg/fileutil"
	"github.com/zurustar/midicurve/pkg/logger"
	"github.com/zurustar/midicurve/pkg/smfcsv"
	"github.com/zurustar/midicurve/pkg/tempo"
	"github.com/zurustar/midicurve/pkg/timeline"
)

// LoadFirstReason is the reason of an Outcome baked without a file.
const LoadFirstReason = "Load MIDI CSV File First! Have you set Use Velocity, Easing & Offset?"

// ErrNotBaked is returned by Apply for an empty outcome.
var ErrNotBaked = errors.New("nothing baked")

// Options configure a Baker.
type Options struct {
	Parse    eventlog.Options
	Encoding fileutil.Encoding
	// FollowTempo re-times notes across tempo changes instead of using the
	// initial tempo for the whole file.
	FollowTempo bool
	// Collapse drops same-frame duplicates before the curves leave the baker.
	Collapse bool
}

// Status tags an Outcome.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
)

// String returns "ok" or "empty".
func (s Status) String() string {
	if s == StatusEmpty {
		return "empty"
	}
	return "ok"
}

// Outcome is one bake. Result and Timelines are nil when Status is
// StatusEmpty.
type Outcome struct {
	Status      Status
	Reason      string
	Source      string // resolved path
	Name        string // file name without extension
	Result      *eventlog.ParseResult
	Timelines   *timeline.Set
	StatusLines [2]string
	// SMF is set when the source was a Standard MIDI File.
	SMF *smfcsv.Summary
}

// OK reports whether the outcome carries curves.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Baker bakes files with fixed options.
type Baker struct {
	opts Options
	log  *slog.Logger
}

// New validates opts and creates a Baker. A nil logger falls back to
// logger.GetLogger().
func New(opts Options, log *slog.Logger) (*Baker, error) {
	if err := opts.Parse.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Baker{opts: opts, log: log}, nil
}

// Bake reads path, which may be an event log or a Standard MIDI File. An
// empty path is not an error; it yields an empty outcome.
func (b *Baker) Bake(path string) (Outcome, error) {
	if path == "" {
		b.log.Warn("No input file")
		return Outcome{Status: StatusEmpty, Reason: LoadFirstReason}, nil
	}

	resolved, err := fileutil.Resolve(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to find %s: %w", path, err)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to open %s: %w", resolved, err)
	}
	defer f.Close()

	out, err := b.bake(baseName(resolved), fileutil.IsSMF(resolved), f)
	if err != nil {
		return Outcome{}, err
	}
	out.Source = resolved
	return out, nil
}

// BakeReader bakes an already opened source. name labels the status lines.
func (b *Baker) BakeReader(name string, r io.Reader, smf bool) (Outcome, error) {
	return b.bake(name, smf, r)
}

func (b *Baker) bake(name string, isSMF bool, r io.Reader) (Outcome, error) {
	out := Outcome{Status: StatusOK, Name: name}

	var text io.Reader
	if isSMF {
		var buf bytes.Buffer
		sum, err := smfcsv.New(b.log).Transcode(r, &buf)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to transcode %s: %w", name, err)
		}
		out.SMF = &sum
		text = &buf
	} else {
		dec, err := fileutil.NewReader(r, b.opts.Encoding)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		text = dec
	}

	res, err := eventlog.NewParser(b.opts.Parse, b.log).ParseReader(text)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if b.opts.FollowTempo && len(res.TempoChanges) > 0 {
		Retime(res, b.opts.Parse.FPS, b.opts.Parse.Offset)
	}

	set := timeline.FromResult(res)
	if b.opts.Collapse {
		set = set.Collapsed()
	}

	out.Result = res
	out.Timelines = set
	out.StatusLines = res.StatusLines(name)

	b.log.Info("Baked",
		"file", name,
		"channel", res.Channel,
		"curves", set.Len(),
		"events", len(res.Events),
		"tempo_changes", len(res.TempoChanges),
		"follow_tempo", b.opts.FollowTempo)
	return out, nil
}

// TempoMap builds the tempo map of a parse: the initial tempo from tick 0
// followed by every recorded change.
func TempoMap(res *eventlog.ParseResult) *tempo.Map {
	changes := []tempo.Change{{Tick: 0, MicrosPerQuarter: res.Tempo.MicrosecondsPerQuarter}}
	for _, c := range res.TempoChanges {
		changes = append(changes, tempo.Change{Tick: c.Tick, MicrosPerQuarter: c.MicrosecondsPerQuarter})
	}
	return tempo.NewMap(res.PulsesPerQuarter, changes)
}

// Retime recomputes every event frame through TempoMap, rounded to two
// places as the single-tempo conversion is.
func Retime(res *eventlog.ParseResult, fps float64, offset int) {
	m := TempoMap(res)
	for i := range res.Events {
		ev := &res.Events[i]
		ev.Frame = math.Round(m.Frame(ev.Tick, fps)*100)/100 + float64(offset)
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
