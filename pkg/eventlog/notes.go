package eventlog

import "fmt"

// Lowest and highest MIDI pitch on an 88-key keyboard.
const (
	MinPitch = 21  // A0
	MaxPitch = 108 // C8
)

// noteTable maps pitch-MinPitch to a note name. Sharps only, suffixed with "s".
var noteTable = [MaxPitch - MinPitch + 1]string{
	"a0", "a0s", "b0",
	"c1", "c1s", "d1", "d1s", "e1", "f1", "f1s", "g1", "g1s", "a1", "a1s", "b1",
	"c2", "c2s", "d2", "d2s", "e2", "f2", "f2s", "g2", "g2s", "a2", "a2s", "b2",
	"c3", "c3s", "d3", "d3s", "e3", "f3", "f3s", "g3", "g3s", "a3", "a3s", "b3",
	"c4", "c4s", "d4", "d4s", "e4", "f4", "f4s", "g4", "g4s", "a4", "a4s", "b4",
	"c5", "c5s", "d5", "d5s", "e5", "f5", "f5s", "g5", "g5s", "a5", "a5s", "b5",
	"c6", "c6s", "d6", "d6s", "e6", "f6", "f6s", "g6", "g6s", "a6", "a6s", "b6",
	"c7", "c7s", "d7", "d7s", "e7", "f7", "f7s", "g7", "g7s", "a7", "a7s", "b7",
	"c8",
}

// NoteName returns the table name for a MIDI pitch, e.g. 69 -> "a4".
func NoteName(pitch int) (string, error) {
	if pitch < MinPitch || pitch > MaxPitch {
		return "", fmt.Errorf("pitch %d outside [%d,%d]", pitch, MinPitch, MaxPitch)
	}
	return noteTable[pitch-MinPitch], nil
}

// NoteNames returns a copy of the full table from a0 to c8.
func NoteNames() []string {
	out := make([]string, len(noteTable))
	copy(out, noteTable[:])
	return out
}
