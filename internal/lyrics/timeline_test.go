package lyrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(v int64) *int64 {
	return &v
}

func TestParseScenario(t *testing.T) {
	tl := Parse("[00:01.00]Hello\n[00:03.50]World\nNo tag here")
	require.Equal(t, 3, tl.Len())

	r, err := tl.RangeOf(0)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: ms(1000), End: ms(3500)}, r)

	r, err = tl.RangeOf(1)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: ms(3500)}, r)

	r, err = tl.RangeOf(2)
	require.NoError(t, err)
	assert.Nil(t, r.Start)
	assert.Nil(t, r.End)

	line, err := tl.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "No tag here", line.Text)
	assert.False(t, line.Timed)
}

func TestParseEmpty(t *testing.T) {
	tl := Parse("")
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0, tl.TimedCount())

	for _, idx := range []int{-1, 0, 1} {
		_, err := tl.RangeOf(idx)
		assert.True(t, errors.Is(err, ErrOutOfRange), "index %d", idx)
	}

	_, ok := tl.LineAt(0)
	assert.False(t, ok)
}

func TestParseLineCountPreserved(t *testing.T) {
	inputs := []string{
		"one line",
		"\n",
		"\n\n\n",
		"[00:01.00]a\n",
		"[00:01.00]a\n\n[00:02.00]b\n\n",
		"no tags\nat all\n",
		"[99:59.99]max\r\n[00:00.00]zero\r\n",
	}
	for _, raw := range inputs {
		tl := Parse(raw)
		assert.Equal(t, strings.Count(raw, "\n")+1, tl.Len(), "raw %q", raw)
		for i, line := range tl.Lines() {
			assert.Equal(t, i, line.Index)
		}
	}
}

func TestParseTrailingLineBreakKeepsEmptyLine(t *testing.T) {
	tl := Parse("[00:01.00]a\n")
	require.Equal(t, 2, tl.Len())

	last, err := tl.Line(1)
	require.NoError(t, err)
	assert.Equal(t, TimedLine{Index: 1}, last)
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		timed bool
		start int64
		text  string
	}{
		{"bracketed", "[01:02.03]text", true, 62030, "text"},
		{"bare", "01:02.03 text", true, 62030, "text"},
		{"zero", "[00:00.00]", true, 0, ""},
		{"max", "[99:59.99]end", true, 5999990, "end"},
		{"whitespace around text", "[00:10.00]   spaced out  ", true, 10000, "spaced out"},
		{"crlf", "[00:10.00]dos\r", true, 10000, "dos"},
		{"second tag stays in text", "[00:01.00][00:05.00]chorus", true, 1000, "[00:05.00]chorus"},
		{"unclosed bracket", "[00:01.00 text", false, 0, "[00:01.00 text"},
		{"one digit minutes", "[0:01.00]text", false, 0, "[0:01.00]text"},
		{"three digit centis", "[00:01.000]text", false, 0, "[00:01.000]text"},
		{"missing dot", "[00:01:00]text", false, 0, "[00:01:00]text"},
		{"seconds overflow", "[00:60.00]text", false, 0, "[00:60.00]text"},
		{"letters", "[ab:cd.ef]text", false, 0, "[ab:cd.ef]text"},
		{"not at start", "text [00:01.00]", false, 0, "text [00:01.00]"},
		{"leading space", " [00:01.00]text", false, 0, "[00:01.00]text"},
		{"id tag", "[ar:Someone]", false, 0, "[ar:Someone]"},
		{"blank", "   ", false, 0, ""},
		{"short", "[00:0", false, 0, "[00:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Parse(tt.line)
			require.Equal(t, 1, tl.Len())
			line, err := tl.Line(0)
			require.NoError(t, err)
			assert.Equal(t, tt.timed, line.Timed)
			assert.Equal(t, tt.start, line.Start)
			assert.Equal(t, tt.text, line.Text)
		})
	}
}

func TestRangeOfSkipsUntimedLines(t *testing.T) {
	tl := Parse("[00:01.00]a\n\nuntimed\n[00:04.00]b\nlast")

	r, err := tl.RangeOf(0)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: ms(1000), End: ms(4000)}, r)

	// untimed lines have no start but still see the next timed line
	r, err = tl.RangeOf(2)
	require.NoError(t, err)
	assert.Equal(t, Range{End: ms(4000)}, r)

	r, err = tl.RangeOf(4)
	require.NoError(t, err)
	assert.Equal(t, Range{}, r)

	_, err = tl.RangeOf(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRangeOfProperties(t *testing.T) {
	raws := []string{
		"[00:01.00]a\n[00:02.00]b\n[00:03.00]c",
		"x\n[00:05.00]y\n\nz\n[00:01.00]back in time\n",
		"[00:05.00]same\n[00:05.00]same again\nno tag",
		"\n\n[10:00.00]late",
	}
	for _, raw := range raws {
		tl := Parse(raw)
		lines := tl.Lines()
		for i, line := range lines {
			r, err := tl.RangeOf(i)
			require.NoError(t, err)

			if line.Timed {
				require.NotNil(t, r.Start)
				assert.Equal(t, line.Start, *r.Start)
			} else {
				assert.Nil(t, r.Start)
			}

			var want *int64
			for _, later := range lines[i+1:] {
				if later.Timed {
					want = ms(later.Start)
					break
				}
			}
			assert.Equal(t, want, r.End, "raw %q line %d", raw, i)
		}
	}
}

func TestRangeOfOutOfOrderSourcePreserved(t *testing.T) {
	tl := Parse("[00:05.00]first\n[00:01.00]second")

	lines := tl.Lines()
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)

	r, err := tl.RangeOf(0)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: ms(5000), End: ms(1000)}, r)
}

func TestParseIdempotent(t *testing.T) {
	raw := "[ti:Song]\n[00:01.00]a\n\n[00:02.50] b \nplain\n"
	assert.Equal(t, Parse(raw), Parse(raw))
}

func TestLinesReturnsCopy(t *testing.T) {
	tl := Parse("[00:01.00]a")
	lines := tl.Lines()
	lines[0].Text = "changed"

	line, err := tl.Line(0)
	require.NoError(t, err)
	assert.Equal(t, "a", line.Text)
}

func TestLineAt(t *testing.T) {
	tl := Parse("intro\n[00:01.00]a\n[00:03.00]b\n\n[00:05.00]c")

	tests := []struct {
		at   int64
		want int
		ok   bool
	}{
		{-1, -1, false},
		{0, -1, false},
		{999, -1, false},
		{1000, 1, true},
		{2999, 1, true},
		{3000, 2, true},
		{4999, 2, true},
		{5000, 4, true},
		{600000, 4, true},
	}
	for _, tt := range tests {
		got, ok := tl.LineAt(tt.at)
		assert.Equal(t, tt.ok, ok, "at %d", tt.at)
		if tt.ok {
			assert.Equal(t, tt.want, got, "at %d", tt.at)
		}
	}
}

func TestLineAtTiesResolveToLatest(t *testing.T) {
	tl := Parse("[00:05.00]one\n[00:05.00]two\n[00:07.00]three")

	got, ok := tl.LineAt(5000)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	got, ok = tl.LineAt(6000)
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestLineAtNoTimedLines(t *testing.T) {
	tl := Parse("just\nplain\nlyrics")
	_, ok := tl.LineAt(100000)
	assert.False(t, ok)
}

func TestLineAtUnsortedMatchesLinearScan(t *testing.T) {
	tl := Parse("[00:10.00]a\n[00:02.00]b\n[00:06.00]c\nplain\n[00:04.00]d")

	scan := func(at int64) (int, bool) {
		lines := tl.Lines()
		for i := len(lines) - 1; i >= 0; i-- {
			if lines[i].Timed && lines[i].Start <= at {
				return i, true
			}
		}
		return -1, false
	}

	for at := int64(0); at <= 12000; at += 500 {
		wantIdx, wantOK := scan(at)
		gotIdx, gotOK := tl.LineAt(at)
		assert.Equal(t, wantOK, gotOK, "at %d", at)
		assert.Equal(t, wantIdx, gotIdx, "at %d", at)
	}
}

func TestTags(t *testing.T) {
	tl := Parse("[ti:Let's Twist Again]\n[ar: Chubby Checker ]\n[offset:+250]\n[00:12.00]Lyrics beginning\n[bad tag]")
	assert.Equal(t, map[string]string{
		"ti":     "Let's Twist Again",
		"ar":     "Chubby Checker",
		"offset": "+250",
	}, tl.Tags())
	assert.Equal(t, 5, tl.Len())
}
