// Package nameindex aligns two independently named lists, controls and keys,
// by a token extracted from each name.
//
// A control named "Piano_a4" carries the token "a4" (second "_" segment) and
// a key named "a4_mesh" carries "a4" (first segment). Index maps every
// control to the position of a key with the same token.
package nameindex

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel is the index reported for a control with no matching key.
const Sentinel = 0

// ErrNoMatchInGroups is the reason of an Outcome when a name source is absent.
var ErrNoMatchInGroups = errors.New("select controls and keys")

// InsufficientKeysError reports fewer keys than controls.
type InsufficientKeysError struct {
	Have int // keys
	Need int // controls
}

// Error implements error with the message hosts display as a warning.
func (e *InsufficientKeysError) Error() string {
	return fmt.Sprintf("Insufficient Keys for Controls (keys=%d, controls=%d)", e.Have, e.Need)
}

// Mode selects the matching rule.
type Mode int

const (
	// FirstMatch picks the first key whose token equals the control token.
	FirstMatch Mode = iota
	// LegacyLastMatch picks the last matching key among all keys but the
	// final one. It reproduces an older matcher and exists for compatibility.
	LegacyLastMatch
)

// String returns the --match name of the mode.
func (m Mode) String() string {
	switch m {
	case FirstMatch:
		return "first"
	case LegacyLastMatch:
		return "legacy"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "first" or "legacy".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return FirstMatch, nil
	case "legacy", "last":
		return LegacyLastMatch, nil
	}
	return 0, fmt.Errorf("unknown match mode: %s (must be first or legacy)", s)
}

// Options control Index.
type Options struct {
	Mode Mode
	// Strict turns an insufficient key count into an error.
	Strict bool
}

// Result is the index list plus any non-fatal diagnostics.
type Result struct {
	Indices  []int
	Matched  int
	Warnings []string
}

// ControlToken returns the second "_" segment of a control name.
func ControlToken(name string) (string, bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// KeyToken returns the first "_" segment of a key name.
func KeyToken(name string) string {
	return strings.Split(name, "_")[0]
}

// Index maps each control to a key position. It never fails unless
// opts.Strict is set and there are fewer keys than controls.
func Index(controls, keys []string, opts Options) (Result, error) {
	res := Result{Indices: make([]int, 0, len(controls))}
	if len(keys) < len(controls) {
		short := &InsufficientKeysError{Have: len(keys), Need: len(controls)}
		if opts.Strict {
			return Result{}, short
		}
		res.Warnings = append(res.Warnings, short.Error())
	}

	keyTokens := make([]string, len(keys))
	for i, k := range keys {
		keyTokens[i] = KeyToken(k)
	}

	for _, c := range controls {
		idx, ok := Sentinel, false
		if tok, has := ControlToken(c); has {
			idx, ok = match(tok, keyTokens, opts.Mode)
		}
		if ok {
			res.Matched++
		}
		res.Indices = append(res.Indices, idx)
	}
	return res, nil
}

func match(tok string, keyTokens []string, mode Mode) (int, bool) {
	switch mode {
	case LegacyLastMatch:
		idx, ok := Sentinel, false
		for i := 0; i < len(keyTokens)-1; i++ {
			if keyTokens[i] == tok {
				idx, ok = i, true
			}
		}
		return idx, ok
	default:
		for i, k := range keyTokens {
			if k == tok {
				return i, true
			}
		}
		return Sentinel, false
	}
}
