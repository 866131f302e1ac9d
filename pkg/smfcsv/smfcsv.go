// Package smfcsv transcodes a binary Standard MIDI File into the comma
// separated event log read by package eventlog.
//
// Tracks are numbered from 1 as midicsv does, so the channel selector of the
// event log parser is a track number:
//
//	0, 0, Header, 1, 2, 96
//	1, 0, Start_track
//	1, 0, Tempo, 500000
//	1, 0, End_track
//	2, 0, Start_track
//	2, 0, Title_t, "Lead"
//	2, 480, Note_on_c, 0, 69, 100
//	...
//	0, 0, End_of_file
package smfcsv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/midicurve/pkg/fileutil"
	"github.com/zurustar/midicurve/pkg/logger"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	// ErrInvalidSMF is returned when the input cannot be read as an SMF.
	ErrInvalidSMF = errors.New("invalid standard MIDI file")
	// ErrSMPTEUnsupported is returned for SMPTE time division, which has no
	// pulses-per-quarter value for the event log header.
	ErrSMPTEUnsupported = errors.New("SMPTE time division is not supported")
)

// Summary describes a transcoded file.
type Summary struct {
	Format       int
	Tracks       int
	PPQ          int
	Rows         int
	Notes        int // note-ons with velocity > 0
	TempoChanges int
	// Length is the playing time measured by the synthesizer's MIDI reader.
	// Zero when that reader rejects the file.
	Length time.Duration
}

// Transcoder writes event log rows for SMF input.
type Transcoder struct {
	log *slog.Logger
}

// New creates a Transcoder. A nil logger falls back to logger.GetLogger().
func New(log *slog.Logger) *Transcoder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Transcoder{log: log}
}

// Transcode is New(nil).Transcode.
func Transcode(r io.Reader, w io.Writer) (Summary, error) {
	return New(nil).Transcode(r, w)
}

// Transcode reads an SMF from r and writes the event log to w.
func (t *Transcoder) Transcode(r io.Reader, w io.Writer) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read MIDI data: %w", err)
	}

	sm, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidSMF, err)
	}
	ticks, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok {
		return Summary{}, ErrSMPTEUnsupported
	}

	sum := Summary{
		Format: int(sm.Format()),
		Tracks: len(sm.Tracks),
		PPQ:    int(ticks.Resolution()),
		Length: t.measure(data),
	}

	out := &rowWriter{w: bufio.NewWriter(w)}
	out.row(0, 0, "Header", sum.Format, sum.Tracks, sum.PPQ)
	for i, track := range sm.Tracks {
		t.writeTrack(out, i+1, track, &sum)
	}
	out.row(0, 0, "End_of_file")

	if err := out.flush(); err != nil {
		return Summary{}, fmt.Errorf("failed to write event log: %w", err)
	}
	sum.Rows = out.rows

	t.log.Info("SMF transcoded",
		"format", sum.Format,
		"tracks", sum.Tracks,
		"ppq", sum.PPQ,
		"notes", sum.Notes,
		"length", sum.Length)
	return sum, nil
}

func (t *Transcoder) measure(data []byte) time.Duration {
	mf, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		t.log.Warn("MIDI length unavailable", "error", err)
		return 0
	}
	return mf.GetLength()
}

func (t *Transcoder) writeTrack(out *rowWriter, number int, track smf.Track, sum *Summary) {
	var tick int64
	closed := false

	out.row(number, 0, "Start_track")
	for _, ev := range track {
		tick += int64(ev.Delta)
		msg := ev.Message

		var (
			bpm             float64
			name            string
			ch, key, vel    uint8
			ctrl, val, prog uint8
		)
		switch {
		case isEndOfTrack(msg):
			out.row(number, tick, "End_track")
			closed = true
		case msg.GetMetaTempo(&bpm):
			out.row(number, tick, "Tempo", microsPerQuarter(bpm))
			sum.TempoChanges++
		case msg.GetMetaTrackName(&name):
			out.row(number, tick, "Title_t", quote(fileutil.DecodeString(name)))
		case midi.Message(msg).GetNoteOn(&ch, &key, &vel):
			out.row(number, tick, "Note_on_c", ch, key, vel)
			if vel > 0 {
				sum.Notes++
			}
		case midi.Message(msg).GetNoteOff(&ch, &key, &vel):
			out.row(number, tick, "Note_off_c", ch, key, vel)
		case midi.Message(msg).GetControlChange(&ch, &ctrl, &val):
			out.row(number, tick, "Control_c", ch, ctrl, val)
		case midi.Message(msg).GetProgramChange(&ch, &prog):
			out.row(number, tick, "Program_c", ch, prog)
		default:
			t.log.Debug("SMF event skipped", "track", number, "tick", tick, "message", msg.String())
		}
	}
	if !closed {
		out.row(number, tick, "End_track")
	}
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

func microsPerQuarter(bpm float64) int {
	if bpm <= 0 {
		return 0
	}
	return int(math.Round(60000000 / bpm))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type rowWriter struct {
	w    *bufio.Writer
	rows int
	err  error
}

func (rw *rowWriter) row(track int, tick int64, kind string, fields ...any) {
	if rw.err != nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d, %d, %s", track, tick, kind)
	for _, f := range fields {
		fmt.Fprintf(&b, ", %v", f)
	}
	b.WriteByte('\n')
	if _, err := rw.w.WriteString(b.String()); err != nil {
		rw.err = err
		return
	}
	rw.rows++
}

func (rw *rowWriter) flush() error {
	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}
