package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/zurustar/midicurve/pkg/logger"
)

// ErrInvalidOptions is returned before any input is read when Options
// cannot produce frames.
var ErrInvalidOptions = errors.New("invalid parser options")

// Options are supplied by the host for one parse.
type Options struct {
	// Channel is compared verbatim against field 0 of note rows.
	Channel string
	// FPS is the host frame rate used for tick to frame conversion.
	FPS float64
	// Offset is added to every frame after rounding.
	Offset int
	// UseVelocity scales note-on gates by velocity/127.
	UseVelocity bool
	// Easing is carried for the host's curve smoothing and not used here.
	Easing float64
	// ZeroVelocityOff treats Note_on_c with velocity 0 as a note-off.
	ZeroVelocityOff bool
}

// DefaultOptions returns the host defaults: 24 fps, no offset, gate values
// of 0/1 and an easing of 0.2.
func DefaultOptions() Options {
	return Options{
		FPS:    24,
		Easing: 0.2,
	}
}

// Validate checks that the options can be used for a parse.
func (o Options) Validate() error {
	if o.FPS <= 0 || math.IsNaN(o.FPS) || math.IsInf(o.FPS, 0) {
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalidOptions, o.FPS)
	}
	return nil
}

// Parser converts event logs into ParseResults. A Parser holds no state
// between calls and may be shared by goroutines.
type Parser struct {
	opts Options
	log  *slog.Logger
}

// NewParser creates a parser. A nil log uses the process logger.
func NewParser(opts Options, log *slog.Logger) *Parser {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Parser{opts: opts, log: log}
}

// Parse parses an already split log.
func (p *Parser) Parse(lines []string) (*ParseResult, error) {
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}
	st := newParseState(p.opts)
	for i, line := range lines {
		if err := st.feed(i+1, line); err != nil {
			return nil, err
		}
	}
	return p.finish(st)
}

// ParseReader streams a log line by line.
func (p *Parser) ParseReader(r io.Reader) (*ParseResult, error) {
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}
	st := newParseState(p.opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	number := 0
	for scanner.Scan() {
		number++
		if err := st.feed(number, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return p.finish(st)
}

func (p *Parser) finish(st *parseState) (*ParseResult, error) {
	res, err := st.finish()
	if err != nil {
		return nil, err
	}
	p.log.Debug("Event log rows skipped", "count", st.skipped)
	p.log.Info("Event log parsed",
		"channel", res.Channel,
		"pulse", res.PulsesPerQuarter,
		"bpm", res.BPM,
		"controls", res.Diagnostics.Controls,
		"events", res.Diagnostics.Events)
	return res, nil
}

// parseState is the per-call accumulator. The Channel_ title counter lives
// here so that it restarts at 2 on every parse.
type parseState struct {
	opts       Options
	res        ParseResult
	haveHeader bool
	haveTempo  bool
	titleIndex int
	seen       map[string]struct{}
	skipped    int
}

func newParseState(opts Options) *parseState {
	return &parseState{
		opts:       opts,
		res:        ParseResult{Channel: opts.Channel},
		titleIndex: 2,
		seen:       make(map[string]struct{}),
	}
}

func (st *parseState) feed(number int, raw string) error {
	ln, ok := ParseLine(number, raw)
	if !ok {
		return nil
	}
	switch ln.Kind {
	case KindHeader:
		return st.header(ln)
	case KindTempo:
		return st.tempo(ln)
	case KindTitle:
		st.title(ln)
	case KindNoteOn, KindNoteOff:
		return st.note(ln)
	default:
		st.skipped++
	}
	return nil
}

func (st *parseState) header(ln LogLine) error {
	if len(ln.Fields) < headerFields {
		st.skipped++
		return nil
	}
	ppq, err := ln.Pulses()
	if err != nil {
		return newParseError(KindMalformedHeader, ln.Number, fmt.Sprintf("pulses %q", ln.Fields[5]), err)
	}
	if ppq <= 0 {
		return newParseError(KindMalformedHeader, ln.Number, fmt.Sprintf("pulses must be positive, got %d", ppq), nil)
	}
	if st.haveHeader {
		st.skipped++
		return nil
	}
	st.haveHeader = true
	st.res.PulsesPerQuarter = ppq
	st.res.Tempo.PulsesPerQuarter = ppq
	return nil
}

func (st *parseState) tempo(ln LogLine) error {
	if len(ln.Fields) < tempoFields || !ln.trackValid() {
		st.skipped++
		return nil
	}
	if !st.haveHeader {
		return newParseError(KindMissingHeader, ln.Number, "tempo row before header", nil)
	}
	us, err := ln.MicrosPerQuarter()
	if err != nil {
		return newParseError(KindMalformedTempo, ln.Number, fmt.Sprintf("tempo %q", ln.Fields[3]), err)
	}
	if us <= 0 {
		return newParseError(KindMalformedTempo, ln.Number, fmt.Sprintf("tempo must be positive, got %d", us), nil)
	}
	if ln.Track == 1 && !st.haveTempo {
		st.haveTempo = true
		st.res.Tempo.MicrosecondsPerQuarter = us
		st.res.BPM = BPMFromMicros(us)
		st.res.BPS = roundTo(st.res.BPM/60, 5)
		return nil
	}
	st.res.TempoChanges = append(st.res.TempoChanges, TempoChange{
		Track:                  ln.Track,
		Tick:                   ln.Tick,
		MicrosecondsPerQuarter: us,
		Line:                   ln.Number,
	})
	return nil
}

func (st *parseState) title(ln LogLine) {
	if len(ln.Fields) < titleFields || !ln.trackValid() || ln.Track <= 1 {
		st.skipped++
		return
	}
	name := ln.Title()
	if name == "" {
		name = "Channel_" + strconv.Itoa(st.titleIndex)
		st.titleIndex++
	}
	st.res.ControlNames = append(st.res.ControlNames, name)
}

func (st *parseState) note(ln LogLine) error {
	if len(ln.Fields) != noteFields || ln.Fields[0] != st.opts.Channel {
		st.skipped++
		return nil
	}
	if !st.haveHeader {
		return newParseError(KindMissingHeader, ln.Number, "note row before header", nil)
	}
	if !st.haveTempo {
		return newParseError(KindMissingTempo, ln.Number, "note row before initial tempo", nil)
	}

	tick, err := strconv.Atoi(ln.Fields[1])
	if err != nil {
		return newParseError(KindMalformedNote, ln.Number, fmt.Sprintf("tick %q", ln.Fields[1]), err)
	}
	if tick < 0 {
		return newParseError(KindMalformedNote, ln.Number, fmt.Sprintf("negative tick %d", tick), nil)
	}
	_, pitch, velocity, err := ln.Note()
	if err != nil {
		return newParseError(KindMalformedNote, ln.Number, "channel, pitch and velocity must be integers", err)
	}
	name, err := NoteName(pitch)
	if err != nil {
		return newParseError(KindMalformedNote, ln.Number, "", err)
	}
	if velocity < 0 || velocity > 127 {
		return newParseError(KindMalformedNote, ln.Number, fmt.Sprintf("velocity %d outside [0,127]", velocity), nil)
	}

	gate := 0.0
	if ln.Kind == KindNoteOn && !(st.opts.ZeroVelocityOff && velocity == 0) {
		if st.opts.UseVelocity {
			gate = float64(velocity) / 127
		} else {
			gate = 1
		}
	}

	st.res.Events = append(st.res.Events, NoteEvent{
		Gate:        gate,
		Frame:       TickToFrame(tick, st.res.BPM, st.res.PulsesPerQuarter, st.opts.FPS, st.opts.Offset),
		NoteName:    name,
		RawVelocity: velocity,
		Tick:        tick,
		Line:        ln.Number,
	})
	if _, ok := st.seen[name]; !ok {
		st.seen[name] = struct{}{}
		st.res.NoteNames = append(st.res.NoteNames, name)
	}
	return nil
}

func (st *parseState) finish() (*ParseResult, error) {
	if !st.haveHeader {
		return nil, newParseError(KindMissingHeader, 0, "no header row in log", nil)
	}
	if !st.haveTempo {
		return nil, newParseError(KindMissingTempo, 0, "no tempo row on track 1", nil)
	}
	res := st.res
	res.Diagnostics = Diagnostics{
		Controls: len(res.NoteNames),
		Events:   len(res.Events) + len(res.TempoChanges),
	}
	return &res, nil
}

// BPMFromMicros converts microseconds per quarter note to beats per minute,
// rounded to five decimals.
func BPMFromMicros(us int) float64 {
	return roundTo(60000000/float64(us), 5)
}

// TickToFrame converts a tick to a frame at a fixed tempo:
// round(tick * 60/(bpm*ppq) * fps, 2) + offset.
func TickToFrame(tick int, bpm float64, ppq int, fps float64, offset int) float64 {
	conv := 60 / (bpm * float64(ppq))
	return roundTo(float64(tick)*conv*fps, 2) + float64(offset)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
