package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lrcview/internal/lyrics"
	"lrcview/pkg/lrclib"
)

func TestCell(t *testing.T) {
	assert.Equal(t, "ab  ", cell("ab", 4))
	assert.Equal(t, 4, runewidth.StringWidth(cell("日本語", 4)))
	assert.Equal(t, 10, runewidth.StringWidth(cell("夜に駆ける", 10)))
}

func TestTracks(t *testing.T) {
	var buf bytes.Buffer
	err := Tracks(&buf, []lrclib.Track{
		{ID: 42, TrackName: "Hello", ArtistName: "Adele", AlbumName: "25", Duration: 295.4, SyncedLyrics: "[00:01.00]x"},
		{ID: 7, TrackName: "夜に駆ける", ArtistName: "YOASOBI", Duration: 261},
	}, 100)
	require.NoError(t, err)

	rows := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, rows, 3)
	assert.True(t, strings.HasPrefix(rows[0], "ID"))
	assert.Contains(t, rows[1], "4:55")
	assert.True(t, strings.HasSuffix(rows[1], "yes"))
	assert.True(t, strings.HasSuffix(rows[2], "no"))
	// both rows end up the same display width
	assert.Equal(t, runewidth.StringWidth(rows[1]), runewidth.StringWidth(rows[2])+1)
}

func TestTracksEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tracks(&buf, nil, 80))
	assert.Equal(t, "No tracks found\n", buf.String())
}

func TestTimeline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Timeline(&buf, lyrics.Parse("[00:01.00]a\nb\n[00:03.50]c")))
	assert.Equal(t,
		"0  [00:01.00 → 00:03.50]  a\n"+
			"1  [No timestamp → 00:03.50]  b\n"+
			"2  [00:03.50 → No more lines]  c\n",
		buf.String())
}

func TestRange(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Range(&buf, lyrics.Selection{Start: "00:12.34", End: lyrics.NoMoreLines}))
	assert.Equal(t, "Starting Timestamp: 00:12.34\nEnding Timestamp: No more lines\n", buf.String())
}

func TestFormatLength(t *testing.T) {
	assert.Equal(t, "4:55", formatLength(295.4))
	assert.Equal(t, "-", formatLength(0))
	assert.Equal(t, "61:01", formatLength(3661))
}
