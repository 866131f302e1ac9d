package eventlog

import (
	"fmt"
	"strings"
)

// DefaultChannelName is used when the log carries no track titles.
const DefaultChannelName = "Unknown"

// TempoInfo holds the timing constants of a log. Both fields are positive in
// any ParseResult.
type TempoInfo struct {
	PulsesPerQuarter       int
	MicrosecondsPerQuarter int
}

// NoteEvent is a note row resolved against the initial tempo and frame rate.
// Gate is 0 for note-off, 1 for note-on, or velocity/127 when velocity
// scaling is enabled.
type NoteEvent struct {
	Gate        float64
	Frame       float64
	NoteName    string
	RawVelocity int
	Tick        int
	Line        int
}

// TempoChange is a tempo row that did not set the initial tempo.
type TempoChange struct {
	Track                  int
	Tick                   int
	MicrosecondsPerQuarter int
	Line                   int
}

// Diagnostics are the counts shown to the user after a parse.
type Diagnostics struct {
	Controls int // distinct note names, i.e. curves to create
	Events   int // note events plus recorded tempo changes
}

// ParseResult is everything extracted from one log for one channel.
type ParseResult struct {
	Channel          string
	Tempo            TempoInfo
	BPM              float64
	BPS              float64
	PulsesPerQuarter int
	ControlNames     []string
	NoteNames        []string
	Events           []NoteEvent
	TempoChanges     []TempoChange
	Diagnostics      Diagnostics
}

// ChannelName is the first track title, which names the baked curves.
func (r *ParseResult) ChannelName() string {
	if len(r.ControlNames) == 0 {
		return DefaultChannelName
	}
	return r.ControlNames[0]
}

// CurveName returns "<channel>_<note>", e.g. "Piano_a4". Any "_" in the
// channel name becomes "-" so the note stays the second "_" segment
// ("Channel_2" gives "Channel-2_a4").
func (r *ParseResult) CurveName(note string) string {
	return strings.ReplaceAll(r.ChannelName(), "_", "-") + "_" + note
}

// CurveNames returns CurveName for every distinct note in first-seen order.
func (r *ParseResult) CurveNames() []string {
	names := make([]string, len(r.NoteNames))
	for i, n := range r.NoteNames {
		names[i] = r.CurveName(n)
	}
	return names
}

// StatusLines returns the two one-line summaries displayed after baking.
func (r *ParseResult) StatusLines(fileName string) [2]string {
	return [2]string{
		fmt.Sprintf("Baking File: %s, Controls= %d, Channel No = %s",
			fileName, r.Diagnostics.Controls, r.Channel),
		fmt.Sprintf("Events = %d, Pulse = %d, BPM = %d, Tempo = %d",
			r.Diagnostics.Events, r.PulsesPerQuarter, int(r.BPM), r.Tempo.MicrosecondsPerQuarter),
	}
}
