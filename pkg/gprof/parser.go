package gprof

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type section int

const (
	sectionUnknown section = iota
	sectionFlat
	sectionCallGraph
	sectionIndex
)

var (
	primaryIndexRe  = regexp.MustCompile(`^\[(\d+)\]\s*`)
	trailingIndexRe = regexp.MustCompile(`\s*\[(\d+)\]$`)
	cycleRe         = regexp.MustCompile(`\s*<cycle (\d+)>$`)
)

// maxLineSize bounds a single report line. Demangled template names get long.
const maxLineSize = 1024 * 1024

// Parser converts gprof text output into a Report.
type Parser struct {
	logger *logrus.Logger
}

// NewParser creates a parser. A nil logger logs warnings only.
func NewParser(logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Parser{logger: logger}
}

// Parse reads a report with a default parser.
func Parse(r io.Reader) *Report {
	return NewParser(nil).Parse(r)
}

// block accumulates one call graph entry between dash separators.
type block struct {
	primary string
	callers []CallRecord // Callee is filled in once the primary line is seen
}

// state is the per-call parsing state.
type state struct {
	rep *Report
	blk block
	// fromCaller marks records that came from a caller line, parallel to rep.Records.
	fromCaller []bool
	// listed holds the arcs seen on callee lines, i.e. under the caller's own block.
	listed map[[2]string]bool
}

func (st *state) emit(rec CallRecord, fromCaller bool) {
	st.rep.Records = append(st.rep.Records, rec)
	st.fromCaller = append(st.fromCaller, fromCaller)
	if !fromCaller {
		st.listed[[2]string{rec.Caller, rec.Callee}] = true
	}
}

// Parse reads r to completion. Lines that cannot be understood are skipped;
// a read error ends parsing and returns what was collected so far.
func (p *Parser) Parse(r io.Reader) *Report {
	rep := newReport()
	if r == nil {
		return rep
	}
	st := &state{rep: rep, listed: make(map[[2]string]bool)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	current := sectionUnknown
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			continue
		}

		if next, ok := sectionHeader(trimmed); ok {
			p.flush(st)
			current = next
			continue
		}

		switch current {
		case sectionFlat:
			p.parseFlatLine(rep, trimmed, lineNo)
		case sectionIndex:
			continue
		default:
			if isSeparator(trimmed) {
				p.flush(st)
				continue
			}
			p.parseGraphLine(st, trimmed, lineNo)
		}
	}
	p.flush(st)
	p.dropMirroredArcs(st)

	if err := scanner.Err(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"line":  lineNo,
			"error": err,
		}).Warn("Report read stopped early")
	}

	p.logger.WithFields(logrus.Fields{
		"records":   len(rep.Records),
		"functions": len(rep.Stats),
		"flat":      len(rep.Flat),
		"skipped":   rep.Skipped,
	}).Debug("Parsed gprof report")

	return rep
}

// sectionHeader recognizes the headers gprof prints in front of each section.
func sectionHeader(line string) (section, bool) {
	switch {
	case strings.HasPrefix(line, "Flat profile"):
		return sectionFlat, true
	case strings.HasPrefix(line, "Call graph"):
		return sectionCallGraph, true
	case strings.HasPrefix(line, "Index by function name"):
		return sectionIndex, true
	case strings.HasPrefix(line, "index") && strings.Contains(line, "called"):
		return sectionCallGraph, true
	}
	return sectionUnknown, false
}

func isSeparator(line string) bool {
	return strings.Trim(line, "-") == ""
}

func (p *Parser) flush(st *state) {
	if st.blk.primary == "" && len(st.blk.callers) > 0 {
		p.logger.WithField("callers", len(st.blk.callers)).Debug("Dropping callers of a block without primary line")
	}
	st.blk = block{}
}

// dropMirroredArcs removes caller-line records for arcs that the caller's own
// block also lists as a callee line. gprof prints every arc under both
// endpoints; an arc whose caller block is missing or lost that line keeps its
// caller-line record.
func (p *Parser) dropMirroredArcs(st *state) {
	kept := st.rep.Records[:0]
	dropped := 0
	for i, rec := range st.rep.Records {
		if st.fromCaller[i] && st.listed[[2]string{rec.Caller, rec.Callee}] {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	st.rep.Records = kept
	st.fromCaller = nil
	if dropped > 0 {
		p.logger.WithField("arcs", dropped).Debug("Dropped arcs reported under both endpoints")
	}
}

func (p *Parser) parseGraphLine(st *state, line string, lineNo int) {
	rep, blk := st.rep, &st.blk
	body := line
	isPrimary := false
	if m := primaryIndexRe.FindString(line); m != "" {
		isPrimary = true
		body = line[len(m):]
	}

	nums, rest := splitNumeric(body)
	name, index, cycle, ok := parseName(rest)
	if !ok {
		if !isPrimary && len(nums) == 0 {
			// <spontaneous>, the granularity preamble and explanation text
			// carry neither columns nor an index.
			return
		}
		p.skip(rep, line, lineNo, "no function name")
		return
	}

	if isPrimary {
		p.parsePrimary(st, nums, name, index, cycle, line, lineNo)
		return
	}

	rec := CallRecord{Calls: 1}
	switch len(nums) {
	case 0:
		// No count reported
	case 1:
		calls, _, err := parseCalled(nums[0])
		if err != nil {
			p.skip(rep, line, lineNo, "bad call count")
			return
		}
		rec.Calls = calls
	case 2:
		// Times without a count
		self, err1 := strconv.ParseFloat(nums[0], 64)
		children, err2 := strconv.ParseFloat(nums[1], 64)
		if err1 != nil || err2 != nil {
			p.skip(rep, line, lineNo, "bad time column")
			return
		}
		rec.SelfSeconds, rec.ChildrenSeconds = self, children
	default:
		self, err1 := strconv.ParseFloat(nums[0], 64)
		children, err2 := strconv.ParseFloat(nums[1], 64)
		calls, _, err3 := parseCalled(nums[2])
		if err1 != nil || err2 != nil || err3 != nil {
			p.skip(rep, line, lineNo, "bad numeric column")
			return
		}
		rec.SelfSeconds, rec.ChildrenSeconds, rec.Calls = self, children, calls
	}

	if blk.primary == "" {
		rec.Caller = name
		blk.callers = append(blk.callers, rec)
		return
	}

	rec.Caller = blk.primary
	rec.Callee = name
	st.emit(rec, false)

	stat := rep.Stats[blk.primary]
	stat.CalleeCalls += rec.Calls
	rep.Stats[blk.primary] = stat
}

func (p *Parser) parsePrimary(st *state, nums []string, name string, index, cycle int, line string, lineNo int) {
	rep, blk := st.rep, &st.blk
	if len(nums) < 3 {
		p.skip(rep, line, lineNo, "primary line too short")
		return
	}
	pct, err1 := strconv.ParseFloat(nums[0], 64)
	self, err2 := strconv.ParseFloat(nums[1], 64)
	children, err3 := strconv.ParseFloat(nums[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		p.skip(rep, line, lineNo, "bad primary column")
		return
	}

	stat := FunctionStat{
		Name:            name,
		Index:           index,
		PercentTime:     pct,
		SelfSeconds:     self,
		ChildrenSeconds: children,
		Cycle:           cycle,
	}
	if len(nums) >= 4 {
		calls, recursive, err := parseCalled(nums[3])
		if err != nil {
			p.skip(rep, line, lineNo, "bad call count")
			return
		}
		stat.Calls, stat.RecursiveCalls = calls, recursive
	}

	// Last primary line for a name wins.
	if _, dup := rep.Stats[name]; dup {
		p.logger.WithFields(logrus.Fields{
			"function": name,
			"line":     lineNo,
		}).Debug("Function is primary in more than one block, overwriting")
	}
	rep.Stats[name] = stat

	blk.primary = name
	for _, rec := range blk.callers {
		rec.Callee = name
		st.emit(rec, true)
	}
	blk.callers = nil
}

// parseFlatLine reads "%time cumulative self [calls self/call total/call] name".
func (p *Parser) parseFlatLine(rep *Report, line string, lineNo int) {
	nums, name := splitNumeric(line)
	if len(nums) < 3 || name == "" {
		// Column headers and explanatory text land here.
		return
	}

	values := make([]float64, len(nums))
	for i, n := range nums {
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			p.skip(rep, line, lineNo, "bad flat profile column")
			return
		}
		values[i] = v
	}

	entry := FlatEntry{
		Name:              name,
		PercentTime:       values[0],
		CumulativeSeconds: values[1],
		SelfSeconds:       values[2],
	}
	if len(values) > 3 {
		entry.Calls = int(values[3])
	}
	if len(values) > 4 {
		entry.SelfMsPerCall = values[4]
	}
	if len(values) > 5 {
		entry.TotalMsPerCall = values[5]
	}
	rep.Flat = append(rep.Flat, entry)
}

func (p *Parser) skip(rep *Report, line string, lineNo int, reason string) {
	rep.Skipped++
	p.logger.WithFields(logrus.Fields{
		"line":   lineNo,
		"reason": reason,
		"text":   line,
	}).Debug("Skipping malformed line")
}

// splitNumeric splits the leading numeric columns off s and returns the rest
// untouched, so names containing spaces survive.
func splitNumeric(s string) ([]string, string) {
	var nums []string
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		start := i
		for i < len(s) && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		tok := s[start:i]
		if tok == "" {
			break
		}
		if !isNumericField(tok) {
			return nums, strings.TrimSpace(s[start:])
		}
		nums = append(nums, tok)
	}
	return nums, ""
}

func isNumericField(tok string) bool {
	if tok[0] < '0' || tok[0] > '9' {
		return false
	}
	for _, c := range tok {
		if (c < '0' || c > '9') && c != '.' && c != '/' && c != '+' {
			return false
		}
	}
	return true
}

// parseName strips the trailing "[N]" index and "<cycle N>" annotation.
func parseName(rest string) (name string, index, cycle int, ok bool) {
	m := trailingIndexRe.FindStringSubmatchIndex(rest)
	if m == nil {
		return "", 0, 0, false
	}
	index, _ = strconv.Atoi(rest[m[2]:m[3]])
	name = rest[:m[0]]

	if cm := cycleRe.FindStringSubmatchIndex(name); cm != nil {
		cycle, _ = strconv.Atoi(name[cm[2]:cm[3]])
		name = name[:cm[0]]
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, 0, false
	}
	return name, index, cycle, true
}

// parseCalled reads a gprof "called" column: "n", "n/total" or "n+recursive".
func parseCalled(s string) (calls, recursive int, err error) {
	if i := strings.IndexByte(s, '+'); i >= 0 {
		if calls, err = strconv.Atoi(s[:i]); err != nil {
			return 0, 0, err
		}
		recursive, err = strconv.Atoi(s[i+1:])
		return calls, recursive, err
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		if _, err = strconv.Atoi(s[i+1:]); err != nil {
			return 0, 0, err
		}
		s = s[:i]
	}
	calls, err = strconv.Atoi(s)
	return calls, 0, err
}
