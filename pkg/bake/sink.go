package bake

import (
	"fmt"

	"github.com/zurustar/midicurve/pkg/nameindex"
	"github.com/zurustar/midicurve/pkg/timeline"
)

// CurveSink receives one named curve at a time. Names are
// eventlog.ParseResult.CurveName values and can be fed back to nameindex.
type CurveSink interface {
	AddCurve(name string, samples []timeline.Sample) error
}

// IndexSink receives the control to key index list.
type IndexSink interface {
	SetIndices(indices []int) error
}

// Apply pushes every timeline of out to sink as "<channel>_<note>".
func Apply(out Outcome, sink CurveSink) error {
	if !out.OK() {
		return fmt.Errorf("%w: %s", ErrNotBaked, out.Reason)
	}
	return out.Timelines.Each(func(t *timeline.Timeline) error {
		name := out.Result.CurveName(t.Name)
		if err := sink.AddCurve(name, t.Samples); err != nil {
			return fmt.Errorf("failed to add curve %s: %w", name, err)
		}
		return nil
	})
}

// Controls returns the control names Link matches against keys. They are the
// same names Apply hands to a CurveSink.
func Controls(out Outcome) []string {
	if !out.OK() {
		return nil
	}
	return out.Result.CurveNames()
}

// Link indexes the curves of out against keys and, when the outcome carries
// a result, hands the indices to sink. A nil keys group or an empty bake
// gives an empty outcome.
func Link(out Outcome, keys *nameindex.Group, sink IndexSink, opts nameindex.Options) (nameindex.Outcome, error) {
	var controls *nameindex.Group
	if out.OK() {
		controls = &nameindex.Group{Name: out.Result.ChannelName(), Members: Controls(out)}
	}
	res, err := nameindex.IndexGroups(controls, keys, opts)
	if err != nil {
		return nameindex.Outcome{}, err
	}
	if !res.OK() || sink == nil {
		return res, nil
	}
	if err := sink.SetIndices(res.Result.Indices); err != nil {
		return nameindex.Outcome{}, fmt.Errorf("failed to set indices: %w", err)
	}
	return res, nil
}
