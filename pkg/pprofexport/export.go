// Package pprofexport converts a parsed gprof report into a pprof profile so
// it can be inspected with `go tool pprof` and other pprof-aware tools.
package pprofexport

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/google/pprof/profile"

	"github.com/danpilch/cgraph/pkg/gprof"
)

// gprof samples the program counter every 10ms.
const samplePeriod = 10 * time.Millisecond

// Convert builds a profile with one two-frame sample per call arc, valued by
// the call count and the time propagated along the arc. Functions with stats
// that are never called get a single-frame sample carrying their self time.
func Convert(rep *gprof.Report) (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:     samplePeriod.Nanoseconds(),
	}
	if rep == nil {
		return p, nil
	}

	locations := make(map[string]*profile.Location)
	location := func(name string) *profile.Location {
		if l, ok := locations[name]; ok {
			return l
		}
		id := uint64(len(p.Function) + 1)
		f := &profile.Function{ID: id, Name: name, SystemName: name}
		l := &profile.Location{ID: id, Line: []profile.Line{{Function: f}}}
		p.Function = append(p.Function, f)
		p.Location = append(p.Location, l)
		locations[name] = l
		return l
	}

	called := make(map[string]bool)
	for _, r := range rep.Records {
		callee, caller := location(r.Callee), location(r.Caller)
		called[r.Callee] = true
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{callee, caller},
			Value:    []int64{int64(r.Calls), nanos(r.SelfSeconds)},
		})
	}

	for _, name := range sortedStatNames(rep) {
		if called[name] {
			continue
		}
		s := rep.Stats[name]
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{location(name)},
			Value:    []int64{int64(s.Calls), nanos(s.SelfSeconds)},
		})
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// Write converts rep and writes it to w in the gzipped protobuf encoding.
func Write(w io.Writer, rep *gprof.Report) error {
	p, err := Convert(rep)
	if err != nil {
		return err
	}
	return p.Write(w)
}

func nanos(seconds float64) int64 {
	return int64(math.Round(seconds * float64(time.Second)))
}

// sortedStatNames orders stats by gprof index, then name.
func sortedStatNames(rep *gprof.Report) []string {
	names := make([]string, 0, len(rep.Stats))
	for name := range rep.Stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := rep.Stats[names[i]], rep.Stats[names[j]]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return names[i] < names[j]
	})
	return names
}
