// Package eventlog parses the comma-separated MIDI event log produced by
// midicsv-style transcoders and resolves one channel's note rows into
// frame-stamped events.
//
// A log looks like:
//
//	0, 0, Header, 1, 2, 96
//	1, 0, Tempo, 500000
//	2, 0, Title_t, "Piano"
//	2, 480, Note_on_c, 0, 69, 100
//	2, 960, Note_off_c, 0, 69, 0
package eventlog

import (
	"strconv"
	"strings"
)

// Kind classifies a log row by its third field.
type Kind int

const (
	KindOther Kind = iota
	KindHeader
	KindTempo
	KindTitle
	KindNoteOn
	KindNoteOff
)

// String returns a short name of the kind for logs, e.g. "NoteOn".
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "Header"
	case KindTempo:
		return "Tempo"
	case KindTitle:
		return "Title"
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	}
	return "Other"
}

// Row type names as written in the log.
const (
	rowHeader  = "Header"
	rowTempo   = "Tempo"
	rowTitle   = "Title_t"
	rowTitleNS = "Title"
	rowNoteOn  = "Note_on_c"
	notePrefix = "Note"
)

// Minimum field counts per kind. Shorter rows are treated as metadata.
const (
	headerFields = 6
	tempoFields  = 4
	titleFields  = 4
	noteFields   = 6
)

// LogLine is one parsed row. Fields holds every comma-separated field with
// surrounding whitespace removed; Raw is the trimmed source line.
type LogLine struct {
	Number int
	Raw    string
	Track  int
	Tick   int
	Kind   Kind
	Fields []string
}

// SplitFields splits a raw log line on commas and trims every field.
func SplitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ParseLine classifies a raw line. ok is false for blank lines, comments
// and rows with fewer than three fields.
func ParseLine(number int, raw string) (LogLine, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] == '#' || trimmed[0] == ';' {
		return LogLine{}, false
	}
	fields := SplitFields(trimmed)
	if len(fields) < 3 {
		return LogLine{}, false
	}
	ln := LogLine{Number: number, Raw: trimmed, Fields: fields, Kind: classify(fields)}
	// Track and tick are informational for rows we never interpret.
	ln.Track, _ = strconv.Atoi(fields[0])
	ln.Tick, _ = strconv.Atoi(fields[1])
	return ln, true
}

func classify(fields []string) Kind {
	switch name := fields[2]; {
	case name == rowHeader:
		return KindHeader
	case name == rowTempo:
		return KindTempo
	case name == rowTitle || name == rowTitleNS:
		return KindTitle
	case strings.HasPrefix(name, notePrefix):
		if name == rowNoteOn {
			return KindNoteOn
		}
		return KindNoteOff
	}
	return KindOther
}

// trackValid reports whether the track field is an integer. Tempo and Title
// rows are only interpreted when it is.
func (l LogLine) trackValid() bool {
	_, err := strconv.Atoi(l.Fields[0])
	return err == nil
}

// Pulses returns the pulses-per-quarter value of a Header row.
func (l LogLine) Pulses() (int, error) {
	return strconv.Atoi(l.Fields[5])
}

// MicrosPerQuarter returns the tempo value of a Tempo row.
func (l LogLine) MicrosPerQuarter() (int, error) {
	return strconv.Atoi(l.Fields[3])
}

// Title returns the unquoted text of a Title row. The text is taken from the
// raw line after the third comma so that titles may contain commas.
func (l LogLine) Title() string {
	text := l.Raw
	for i := 0; i < 3; i++ {
		cut := strings.IndexByte(text, ',')
		if cut < 0 {
			return ""
		}
		text = text[cut+1:]
	}
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	} else {
		text = strings.Trim(text, `"`)
	}
	return strings.ReplaceAll(text, `""`, `"`)
}

// Note returns channel, pitch and velocity of a Note row.
func (l LogLine) Note() (channel, pitch, velocity int, err error) {
	if channel, err = strconv.Atoi(l.Fields[3]); err != nil {
		return 0, 0, 0, err
	}
	if pitch, err = strconv.Atoi(l.Fields[4]); err != nil {
		return 0, 0, 0, err
	}
	if velocity, err = strconv.Atoi(l.Fields[5]); err != nil {
		return 0, 0, 0, err
	}
	return channel, pitch, velocity, nil
}
