package nameindex

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTokens(t *testing.T) {
	if tok, ok := ControlToken("Ch1_A4"); !ok || tok != "A4" {
		t.Errorf("ControlToken(Ch1_A4) = %q, %v", tok, ok)
	}
	if tok, ok := ControlToken("Piano_c4s_extra"); !ok || tok != "c4s" {
		t.Errorf("ControlToken(Piano_c4s_extra) = %q, %v", tok, ok)
	}
	if _, ok := ControlToken("NoUnderscore"); ok {
		t.Error("ControlToken without underscore should report no token")
	}
	if tok := KeyToken("A4_mesh"); tok != "A4" {
		t.Errorf("KeyToken(A4_mesh) = %q", tok)
	}
	if tok := KeyToken("plain"); tok != "plain" {
		t.Errorf("KeyToken(plain) = %q", tok)
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name     string
		controls []string
		keys     []string
		opts     Options
		want     []int
		warnings int
	}{
		{
			name:     "first match",
			controls: []string{"Ch1_A4", "Ch1_C5"},
			keys:     []string{"A4_mesh", "C5_mesh", "E5_mesh"},
			want:     []int{0, 1},
		},
		{
			name:     "no match falls back to sentinel",
			controls: []string{"Ch1_G9"},
			keys:     []string{"A4_mesh"},
			want:     []int{0},
		},
		{
			name:     "first of duplicate keys",
			controls: []string{"Ch1_E5"},
			keys:     []string{"A4_x", "E5_a", "E5_b"},
			want:     []int{1},
		},
		{
			name:     "legacy picks last match before final key",
			controls: []string{"Ch1_E5"},
			keys:     []string{"E5_a", "A4_x", "E5_b", "C5_x"},
			opts:     Options{Mode: LegacyLastMatch},
			want:     []int{2},
		},
		{
			name:     "legacy never considers final key",
			controls: []string{"Ch1_C5"},
			keys:     []string{"A4_x", "C5_x"},
			opts:     Options{Mode: LegacyLastMatch},
			want:     []int{0},
		},
		{
			name:     "empty controls",
			controls: []string{},
			keys:     []string{"A4_mesh"},
			want:     []int{},
		},
		{
			name:     "empty keys gives sentinels with warning",
			controls: []string{"Ch1_A4", "Ch1_B4"},
			keys:     nil,
			want:     []int{0, 0},
			warnings: 1,
		},
		{
			name:     "control without token",
			controls: []string{"A4"},
			keys:     []string{"A4_mesh"},
			want:     []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Index(tt.controls, tt.keys, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(res.Indices, tt.want) {
				t.Errorf("Indices = %v, want %v", res.Indices, tt.want)
			}
			if len(res.Warnings) != tt.warnings {
				t.Errorf("Warnings = %v, want %d", res.Warnings, tt.warnings)
			}
		})
	}
}

func TestIndex_Matched(t *testing.T) {
	res, err := Index([]string{"Ch1_A4", "Ch1_Z9"}, []string{"A4_mesh", "B4_mesh"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched != 1 {
		t.Errorf("Matched = %d, want 1", res.Matched)
	}
}

func TestIndex_Strict(t *testing.T) {
	_, err := Index([]string{"Ch1_A4", "Ch1_C5"}, []string{"A4_mesh"}, Options{Strict: true})
	var short *InsufficientKeysError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientKeysError, got %v", err)
	}
	if short.Have != 1 || short.Need != 2 {
		t.Errorf("InsufficientKeysError = %+v", short)
	}
}

func TestIndex_InsufficientNonStrict(t *testing.T) {
	res, err := Index([]string{"Ch1_A4", "Ch1_C5"}, []string{"C5_mesh"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.Indices, []int{0, 0}) {
		t.Errorf("Indices = %v", res.Indices)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Insufficient Keys for Controls (keys=1, controls=2)" {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestIndexGroups(t *testing.T) {
	out, err := IndexGroups(nil, &Group{Name: "keys"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.OK() || out.Status != StatusEmpty || out.Reason != ErrNoMatchInGroups.Error() {
		t.Errorf("nil controls outcome = %+v", out)
	}

	out, err = IndexGroups(
		&Group{Name: "controls", Members: []string{"Ch1_A4"}},
		&Group{Name: "keys", Members: []string{"C5_k", "A4_k"}},
		Options{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK() || !reflect.DeepEqual(out.Result.Indices, []int{1}) {
		t.Errorf("outcome = %+v", out)
	}

	_, err = IndexGroups(
		&Group{Members: []string{"Ch1_A4", "Ch1_B4"}},
		&Group{Members: []string{"A4_k"}},
		Options{Strict: true},
	)
	if err == nil {
		t.Error("expected strict error")
	}
}

func TestIndexGroups_EmptyMembers(t *testing.T) {
	tests := []struct {
		name     string
		controls *Group
		keys     *Group
		reason   string
	}{
		{
			name:     "no keys",
			controls: &Group{Name: "controls", Members: []string{"Ch1_A4"}},
			keys:     &Group{Name: "k"},
			reason:   `select controls and keys: no keys in "k"`,
		},
		{
			name:     "no controls",
			controls: &Group{},
			keys:     &Group{Name: "k", Members: []string{"A4_k"}},
			reason:   "select controls and keys: no controls",
		},
	}
	for _, tt := range tests {
		for _, strict := range []bool{false, true} {
			out, err := IndexGroups(tt.controls, tt.keys, Options{Strict: strict})
			if err != nil {
				t.Fatalf("%s strict=%v: unexpected error: %v", tt.name, strict, err)
			}
			if out.Status != StatusEmpty || out.Reason != tt.reason {
				t.Errorf("%s strict=%v: outcome = %+v", tt.name, strict, out)
			}
			if out.Result.Indices != nil || out.Result.Warnings != nil {
				t.Errorf("%s strict=%v: empty outcome carries result %+v", tt.name, strict, out.Result)
			}
		}
	}

	// Index itself still answers zeros for an empty key list.
	res, err := Index([]string{"Ch1_A4"}, nil, Options{})
	if err != nil || !reflect.DeepEqual(res.Indices, []int{0}) {
		t.Errorf("Index(c, []) = %+v, %v", res, err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", FirstMatch, false},
		{"first", FirstMatch, false},
		{"LEGACY", LegacyLastMatch, false},
		{"last", LegacyLastMatch, false},
		{"middle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProperty_IndexShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	tokens := []string{"a4", "c5", "e5", "g3", "b2"}
	toControls := func(picks []int) []string {
		out := make([]string, len(picks))
		for i, p := range picks {
			out[i] = "Piano_" + tokens[p]
		}
		return out
	}
	toKeys := func(picks []int) []string {
		out := make([]string, len(picks))
		for i, p := range picks {
			out[i] = tokens[p] + "_mesh"
		}
		return out
	}

	properties.Property("one index per control, always within key range", prop.ForAll(
		func(cp, kp []int) bool {
			controls, keys := toControls(cp), toKeys(kp)
			for _, mode := range []Mode{FirstMatch, LegacyLastMatch} {
				res, err := Index(controls, keys, Options{Mode: mode})
				if err != nil || len(res.Indices) != len(controls) {
					return false
				}
				for _, idx := range res.Indices {
					if idx != Sentinel && (idx < 0 || idx >= len(keys)) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(tokens)-1)),
		gen.SliceOf(gen.IntRange(0, len(tokens)-1)),
	))

	properties.Property("first match points at a key with the same token", prop.ForAll(
		func(cp, kp []int) bool {
			controls, keys := toControls(cp), toKeys(kp)
			res, _ := Index(controls, keys, Options{})
			for i, idx := range res.Indices {
				tok, _ := ControlToken(controls[i])
				found := -1
				for j, k := range keys {
					if KeyToken(k) == tok {
						found = j
						break
					}
				}
				if found == -1 && idx != Sentinel {
					return false
				}
				if found != -1 && idx != found {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(tokens)-1)),
		gen.SliceOf(gen.IntRange(0, len(tokens)-1)),
	))

	properties.Property("empty keys yields all sentinels", prop.ForAll(
		func(cp []int) bool {
			res, err := Index(toControls(cp), nil, Options{})
			if err != nil || len(res.Indices) != len(cp) {
				return false
			}
			for _, idx := range res.Indices {
				if idx != Sentinel {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(tokens)-1)),
	))

	properties.TestingRun(t)
}
