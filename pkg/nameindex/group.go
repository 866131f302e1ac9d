package nameindex

import "fmt"

// Group is a named list of object names supplied by the host.
type Group struct {
	Name    string
	Members []string
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

// Outcome is either an index Result or an explicit empty reason.
type Outcome struct {
	Status Status
	Reason string
	Result Result
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Empty builds an empty outcome.
func Empty(reason string) Outcome {
	return Outcome{Status: StatusEmpty, Reason: reason}
}

// IndexGroups indexes two host groups. A missing group short-circuits to an
// empty outcome naming ErrNoMatchInGroups, and a group without members to an
// empty outcome naming that group. Errors are only returned in strict mode.
func IndexGroups(controls, keys *Group, opts Options) (Outcome, error) {
	if controls == nil || keys == nil {
		return Empty(ErrNoMatchInGroups.Error()), nil
	}
	if len(controls.Members) == 0 {
		return Empty(emptyReason("controls", controls.Name)), nil
	}
	if len(keys.Members) == 0 {
		return Empty(emptyReason("keys", keys.Name)), nil
	}
	res, err := Index(controls.Members, keys.Members, opts)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: StatusOK, Result: res}, nil
}

func emptyReason(side, name string) string {
	if name == "" {
		return fmt.Sprintf("%s: no %s", ErrNoMatchInGroups, side)
	}
	return fmt.Sprintf("%s: no %s in %q", ErrNoMatchInGroups, side, name)
}
