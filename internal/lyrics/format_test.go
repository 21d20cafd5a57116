package lyrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tests := map[int64]string{
		0:         "00:00.00",
		1000:      "00:01.00",
		3500:      "00:03.50",
		62035:     "01:02.03",
		5999990:   "99:59.99",
		6000000:   "100:00.00",
		-1500:     "-00:01.50",
		123456789: "2057:36.78",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatTimestamp(in), "ms %d", in)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"00:03.50", 3500, false},
		{"[01:02.03]", 62030, false},
		{" 4200 ", 4200, false},
		{"0", 0, false},
		{"-5", 0, true},
		{"1:02.03", 0, true},
		{"[01:02.03]trailing", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 10, 990, 59990, 60000, 5999990} {
		got, err := ParseTimestamp(FormatTimestamp(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDescribe(t *testing.T) {
	tl := Parse("[00:01.00]Hello\n[00:03.50]World\nNo tag here")

	tests := []struct {
		index int
		want  Selection
	}{
		{0, Selection{Index: 0, Text: "Hello", Start: "00:01.00", End: "00:03.50"}},
		{1, Selection{Index: 1, Text: "World", Start: "00:03.50", End: NoMoreLines}},
		{2, Selection{Index: 2, Text: "No tag here", Start: NoTimestamp, End: NoMoreLines}},
	}
	for _, tt := range tests {
		got, err := tl.Describe(tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := tl.Describe(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
