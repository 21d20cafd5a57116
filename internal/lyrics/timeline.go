package lyrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOutOfRange is returned when a line index falls outside the timeline.
var ErrOutOfRange = errors.New("line index out of range")

// TimedLine is one line of synced lyrics.
type TimedLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int64  `json:"start_ms"` // milliseconds, meaningful only when Timed
	Timed bool   `json:"timed"`
}

// Range is the half-open interval [Start, End) during which a line is active.
// A nil bound means absent: an untimed line has no Start, and the last timed
// stretch of a track has no End.
type Range struct {
	Start *int64 `json:"start_ms"`
	End   *int64 `json:"end_ms"`
}

// Timeline is the parsed, immutable line sequence of one track.
type Timeline struct {
	lines []TimedLine
	// next[i] is the index of the first timed line after i, or -1.
	next []int
	// timed holds the indices of timed lines in sequence order.
	timed     []int
	monotonic bool
}

// Parse splits raw synced lyrics into a Timeline. It never fails: lines without
// a well-formed leading tag are kept as untimed lines. A trailing line break
// yields a trailing empty line, so Len is always the number of "\n"-separated
// segments of raw (zero for empty input).
func Parse(raw string) *Timeline {
	t := &Timeline{monotonic: true}
	if raw == "" {
		return t
	}

	segments := strings.Split(raw, "\n")
	t.lines = make([]TimedLine, len(segments))
	for i, seg := range segments {
		line := TimedLine{Index: i}
		if ms, rest, ok := scanTag(seg); ok {
			line.Start = ms
			line.Timed = true
			line.Text = strings.TrimSpace(rest)
			if n := len(t.timed); n > 0 && t.lines[t.timed[n-1]].Start > ms {
				t.monotonic = false
			}
			t.timed = append(t.timed, i)
		} else {
			line.Text = strings.TrimSpace(seg)
		}
		t.lines[i] = line
	}

	t.next = make([]int, len(t.lines))
	following := -1
	for i := len(t.lines) - 1; i >= 0; i-- {
		t.next[i] = following
		if t.lines[i].Timed {
			following = i
		}
	}
	return t
}

// Len returns the number of lines, timed or not.
func (t *Timeline) Len() int {
	return len(t.lines)
}

// TimedCount returns how many lines carry a timestamp.
func (t *Timeline) TimedCount() int {
	return len(t.timed)
}

// Line returns the line at index.
func (t *Timeline) Line(index int) (TimedLine, error) {
	if err := t.check(index); err != nil {
		return TimedLine{}, err
	}
	return t.lines[index], nil
}

// Lines returns a copy of every line in original order.
func (t *Timeline) Lines() []TimedLine {
	out := make([]TimedLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// RangeOf reports the time range covered by the line at index. End is the start
// of the nearest later timed line, skipping any untimed lines in between.
func (t *Timeline) RangeOf(index int) (Range, error) {
	if err := t.check(index); err != nil {
		return Range{}, err
	}

	var r Range
	if line := t.lines[index]; line.Timed {
		start := line.Start
		r.Start = &start
	}
	if n := t.next[index]; n >= 0 {
		end := t.lines[n].Start
		r.End = &end
	}
	return r, nil
}

// LineAt returns the index of the last timed line whose start is at or before
// ms. Lines sharing a timestamp resolve to the latest one. ok is false when no
// line has started yet.
func (t *Timeline) LineAt(ms int64) (index int, ok bool) {
	if len(t.timed) == 0 {
		return -1, false
	}

	if t.monotonic {
		// first timed position whose start is past ms
		pos := sort.Search(len(t.timed), func(i int) bool {
			return t.lines[t.timed[i]].Start > ms
		})
		if pos == 0 {
			return -1, false
		}
		return t.timed[pos-1], true
	}

	for i := len(t.timed) - 1; i >= 0; i-- {
		if idx := t.timed[i]; t.lines[idx].Start <= ms {
			return idx, true
		}
	}
	return -1, false
}

// Tags returns the LRC ID tags ([ar:...], [ti:...], [offset:...]) found on
// untimed lines. The lines themselves remain in the sequence.
func (t *Timeline) Tags() map[string]string {
	tags := make(map[string]string)
	for _, line := range t.lines {
		if line.Timed {
			continue
		}
		if key, value, ok := scanIDTag(line.Text); ok {
			tags[key] = value
		}
	}
	return tags
}

func (t *Timeline) check(index int) error {
	if index < 0 || index >= len(t.lines) {
		return fmt.Errorf("%w: index %d, timeline has %d lines", ErrOutOfRange, index, len(t.lines))
	}
	return nil
}

// scanTag matches "[MM:SS.CS]" or bare "MM:SS.CS" at the start of s and returns
// the offset in milliseconds and the remainder of the line.
func scanTag(s string) (ms int64, rest string, ok bool) {
	bracketed := strings.HasPrefix(s, "[")
	body := s
	if bracketed {
		body = s[1:]
	}

	// MM:SS.CS
	if len(body) < 8 || body[2] != ':' || body[5] != '.' {
		return 0, s, false
	}
	mm, ok1 := twoDigits(body[0:2])
	ss, ok2 := twoDigits(body[3:5])
	cs, ok3 := twoDigits(body[6:8])
	if !ok1 || !ok2 || !ok3 || ss >= 60 {
		return 0, s, false
	}

	rest = body[8:]
	if bracketed {
		if !strings.HasPrefix(rest, "]") {
			return 0, s, false
		}
		rest = rest[1:]
	}
	return int64(mm)*60000 + int64(ss)*1000 + int64(cs)*10, rest, true
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// scanIDTag matches "[key:value]" where key is alphabetic.
func scanIDTag(s string) (key, value string, ok bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	inner := s[1 : len(s)-1]
	key, value, found := strings.Cut(inner, ":")
	if !found || key == "" {
		return "", "", false
	}
	for _, r := range key {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", "", false
		}
	}
	return strings.ToLower(key), strings.TrimSpace(value), true
}
