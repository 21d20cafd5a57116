package lyrics

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	NoTimestamp = "No timestamp"
	NoMoreLines = "No more lines"
)

// Selection is what a viewer shows when a line is picked: the line's start and
// the start of the next timed line, both as MM:SS.CS labels.
type Selection struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Describe renders the range of the line at index as human-readable labels.
func (t *Timeline) Describe(index int) (Selection, error) {
	r, err := t.RangeOf(index)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{
		Index: index,
		Text:  t.lines[index].Text,
		Start: NoTimestamp,
		End:   NoMoreLines,
	}
	if r.Start != nil {
		sel.Start = FormatTimestamp(*r.Start)
	}
	if r.End != nil {
		sel.End = FormatTimestamp(*r.End)
	}
	return sel, nil
}

// FormatTimestamp renders ms in the LRC tag form MM:SS.CS, truncating to
// centiseconds. Minutes are not capped at two digits.
func FormatTimestamp(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	cs := ms / 10
	return fmt.Sprintf("%s%02d:%02d.%02d", sign, cs/6000, (cs/100)%60, cs%100)
}

// ParseTimestamp reads a position given as "MM:SS.CS", "[MM:SS.CS]" or a plain
// number of milliseconds.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative time %q", s)
		}
		return ms, nil
	}

	ms, rest, ok := scanTag(s)
	if !ok || rest != "" {
		return 0, fmt.Errorf("invalid time %q, want MM:SS.CS or milliseconds", s)
	}
	return ms, nil
}
