package gprof

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `Flat profile:

Each sample counts as 0.01 seconds.
  %   cumulative   self              self     total
 time   seconds   seconds    calls  ms/call  ms/call  name
 60.00      0.03     0.03        5     6.00     6.00  baz
 40.00      0.05     0.02        3     6.67    16.67  foo
  0.00      0.05     0.00        1     0.00    50.00  main

			Call graph (explanation follows)


granularity: each sample hit covers 2 byte(s) for 20.00% of 0.05 seconds

index % time    self  children    called     name
                                                 <spontaneous>
[1]    100.0    0.00    0.05                 main [1]
                0.02    0.03       3/3           foo [2]
-----------------------------------------------
                0.02    0.03       3/3           main [1]
[2]    100.0    0.02    0.03       3         foo [2]
                0.03    0.00       5/5           baz [3]
-----------------------------------------------
                0.03    0.00       5/5           foo [2]
[3]     60.0    0.03    0.00       5         baz [3]
-----------------------------------------------

Index by function name

   [3] baz                     [2] foo                     [1] main
`

func TestParse_FullReport(t *testing.T) {
	rep := Parse(strings.NewReader(sampleReport))

	// Each arc is listed under both of its endpoints but recorded once.
	assert.Equal(t, []CallRecord{
		{Caller: "main", Callee: "foo", Calls: 3, SelfSeconds: 0.02, ChildrenSeconds: 0.03},
		{Caller: "foo", Callee: "baz", Calls: 5, SelfSeconds: 0.03},
	}, rep.Records)

	require.Len(t, rep.Stats, 3)
	foo := rep.Stats["foo"]
	assert.Equal(t, 2, foo.Index)
	assert.Equal(t, 100.0, foo.PercentTime)
	assert.Equal(t, 3, foo.Calls)
	assert.Equal(t, 5, foo.CalleeCalls)
	assert.InDelta(t, 0.05, foo.TotalSeconds(), 1e-9)

	main := rep.Stats["main"]
	assert.Equal(t, 0, main.Calls)
	assert.Equal(t, 3, main.Weight())

	require.Len(t, rep.Flat, 3)
	assert.Equal(t, "baz", rep.Flat[0].Name)
	assert.Equal(t, 5, rep.Flat[0].Calls)
	assert.Equal(t, 50.0, rep.Flat[2].TotalMsPerCall)

	// <spontaneous> and the granularity preamble are not malformed.
	assert.Zero(t, rep.Skipped)
}

// A single block: bar calls foo three times, foo calls baz five times.
func TestParse_SingleBlock(t *testing.T) {
	input := `index % time    self  children    called     name
                0.00    0.00       3/3           bar [2]
[1]     50.0    0.01    0.00       3         foo [1]
                0.00    0.00       5/5           baz [3]
-----------------------------------------------
`
	rep := Parse(strings.NewReader(input))

	require.Len(t, rep.Records, 2)
	assert.Equal(t, "bar", rep.Records[0].Caller)
	assert.Equal(t, "foo", rep.Records[0].Callee)
	assert.Equal(t, 3, rep.Records[0].Calls)
	assert.Equal(t, "foo", rep.Records[1].Caller)
	assert.Equal(t, "baz", rep.Records[1].Callee)
	assert.Equal(t, 5, rep.Records[1].Calls)

	require.Contains(t, rep.Stats, "foo")
	assert.Equal(t, 1, rep.Stats["foo"].Index)
	assert.Zero(t, rep.Skipped)
}

func TestParse_SplitCountsForSameCallee(t *testing.T) {
	input := `[1]     50.0    0.01    0.00       5         foo [1]
                0.00    0.00       2/5           baz [2]
                0.00    0.00       3/5           baz [2]
`
	rep := Parse(strings.NewReader(input))

	require.Len(t, rep.Records, 2)
	total := 0
	for _, r := range rep.Records {
		assert.Equal(t, "foo", r.Caller)
		assert.Equal(t, "baz", r.Callee)
		total += r.Calls
	}
	assert.Equal(t, 5, total)
}

func TestParse_SkipsTruncatedLines(t *testing.T) {
	input := `[1]     50.0    0.01    0.00       3         foo [1]
                0.00    0.00       5/
                0.00    0.00       7/7           qux [4]
[2]     10.
                0.00    0.00       1/1           baz [3]
-----------------------------------------------
[5]     20.0    0.01    0.00       2         bar [5]
                0.00    0.00       2/2           foo [1]
`
	rep := Parse(strings.NewReader(input))

	assert.Equal(t, 2, rep.Skipped)
	require.Len(t, rep.Records, 3)
	assert.Equal(t, CallRecord{Caller: "foo", Callee: "qux", Calls: 7}, rep.Records[0])
	assert.Equal(t, CallRecord{Caller: "foo", Callee: "baz", Calls: 1}, rep.Records[1])
	assert.Equal(t, CallRecord{Caller: "bar", Callee: "foo", Calls: 2}, rep.Records[2])
}

func TestParse_ArcSurvivesTruncatedCalleeLine(t *testing.T) {
	input := `[2]     40.0    0.02    0.03       1         bar [2]
                0.00    0.00       3/
-----------------------------------------------
                0.00    0.00       3/3           bar [2]
[1]     50.0    0.01    0.00       3         foo [1]
-----------------------------------------------
`
	rep := Parse(strings.NewReader(input))

	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []CallRecord{{Caller: "bar", Callee: "foo", Calls: 3}}, rep.Records)
}

func TestParse_IgnoresExplanationText(t *testing.T) {
	input := `Call graph (explanation follows)

granularity: each sample hit covers 2 byte(s) for 20.00% of 0.05 seconds

index % time    self  children    called     name
                                                 <spontaneous>
[1]    100.0    0.00    0.05                 main [1]
                0.02    0.03       3/3           foo [2]
-----------------------------------------------

 This table describes the call tree of the program, and was sorted by
 the total amount of time spent in each function and its children.
`
	rep := Parse(strings.NewReader(input))

	assert.Zero(t, rep.Skipped)
	assert.Equal(t, []CallRecord{{Caller: "main", Callee: "foo", Calls: 3, SelfSeconds: 0.02, ChildrenSeconds: 0.03}}, rep.Records)
}

func TestParse_ComplexNames(t *testing.T) {
	input := `                0.00    0.00       1/1           main [3]
[1]     75.0    0.03    0.00       1         std::vector<int, std::allocator<int> >::push_back(int const&) [1]
                0.00    0.00       4/4           ns::Widget::operator()(int, int) const <cycle 2> [2]
-----------------------------------------------
`
	rep := Parse(strings.NewReader(input))

	require.Len(t, rep.Records, 2)
	assert.Equal(t, "main", rep.Records[0].Caller)
	assert.Equal(t, "std::vector<int, std::allocator<int> >::push_back(int const&)", rep.Records[0].Callee)
	assert.Equal(t, "ns::Widget::operator()(int, int) const", rep.Records[1].Callee)
	assert.Equal(t, 4, rep.Records[1].Calls)
}

func TestParse_RecursiveAndBareCounts(t *testing.T) {
	input := `                0.00    0.00       1/1           main [2]
[1]     90.0    0.04    0.00       1+4       fact [1]
                                   4             fact [1]
-----------------------------------------------
`
	rep := Parse(strings.NewReader(input))

	require.Len(t, rep.Records, 2)
	assert.Equal(t, CallRecord{Caller: "fact", Callee: "fact", Calls: 4}, rep.Records[1])

	fact := rep.Stats["fact"]
	assert.Equal(t, 1, fact.Calls)
	assert.Equal(t, 4, fact.RecursiveCalls)
	assert.Equal(t, 5, fact.Weight())
}

func TestParse_MissingCountDefaultsToOne(t *testing.T) {
	input := `[1]    100.0    0.00    0.05                 main [1]
                0.02    0.03                     worker [2]
`
	rep := Parse(strings.NewReader(input))

	require.Len(t, rep.Records, 1)
	assert.Equal(t, 1, rep.Records[0].Calls)
	assert.Equal(t, 0.02, rep.Records[0].SelfSeconds)
}

func TestParse_DuplicatePrimaryLastWins(t *testing.T) {
	input := `[1]     10.0    0.01    0.00       2         foo [1]
-----------------------------------------------
[1]     30.0    0.03    0.00       6         foo [1]
-----------------------------------------------
`
	rep := Parse(strings.NewReader(input))

	require.Contains(t, rep.Stats, "foo")
	assert.Equal(t, 30.0, rep.Stats["foo"].PercentTime)
	assert.Equal(t, 6, rep.Stats["foo"].Calls)
}

func TestParse_CallersWithoutPrimaryAreDropped(t *testing.T) {
	input := `                0.00    0.00       1/1           orphan [9]
-----------------------------------------------
[1]     10.0    0.01    0.00       2         foo [1]
`
	rep := Parse(strings.NewReader(input))

	assert.Empty(t, rep.Records)
	assert.Len(t, rep.Stats, 1)
}

func TestParse_EmptyInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "",
		"blank":      "\n\n   \n",
		"headers":    "Flat profile:\n\nCall graph\n",
		"separators": "-----\n------\n",
	} {
		t.Run(name, func(t *testing.T) {
			rep := Parse(strings.NewReader(input))
			assert.True(t, rep.Empty())
			assert.NotNil(t, rep.Stats)
		})
	}

	assert.True(t, NewParser(nil).Parse(nil).Empty())
}

func TestParseCalled(t *testing.T) {
	tests := []struct {
		in        string
		calls     int
		recursive int
		wantErr   bool
	}{
		{"7", 7, 0, false},
		{"3/10", 3, 0, false},
		{"1+4", 1, 4, false},
		{"3/", 0, 0, true},
		{"+", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			calls, recursive, err := parseCalled(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.calls, calls)
			assert.Equal(t, tt.recursive, recursive)
		})
	}
}
