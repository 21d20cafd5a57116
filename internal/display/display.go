package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"lrcview/internal/lyrics"
	"lrcview/pkg/lrclib"
)

const defaultWidth = 100

// TerminalWidth returns the width of f when it is a terminal, else a default.
func TerminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// cell pads or truncates s to exactly width display columns, so CJK titles
// keep the columns aligned.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// Tracks writes search results as a table fitted to width columns.
func Tracks(w io.Writer, tracks []lrclib.Track, width int) error {
	if len(tracks) == 0 {
		_, err := fmt.Fprintln(w, "No tracks found")
		return err
	}

	const (
		idWidth     = 9
		lenWidth    = 8
		syncedWidth = 6
		gaps        = 5 * 2
	)
	free := width - idWidth - lenWidth - syncedWidth - gaps
	if free < 30 {
		free = 30
	}
	titleWidth := free * 4 / 10
	artistWidth := free * 3 / 10
	albumWidth := free - titleWidth - artistWidth

	row := func(cols ...string) error {
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cols, "  "), " "))
		return err
	}

	if err := row(
		cell("ID", idWidth), cell("TITLE", titleWidth), cell("ARTIST", artistWidth),
		cell("ALBUM", albumWidth), cell("LENGTH", lenWidth), "SYNCED",
	); err != nil {
		return err
	}
	for _, t := range tracks {
		synced := "no"
		if t.HasSynced() {
			synced = "yes"
		}
		if err := row(
			cell(strconv.FormatInt(t.ID, 10), idWidth),
			cell(t.TrackName, titleWidth),
			cell(t.ArtistName, artistWidth),
			cell(t.AlbumName, albumWidth),
			cell(formatLength(t.Duration), lenWidth),
			synced,
		); err != nil {
			return err
		}
	}
	return nil
}

func formatLength(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Timeline writes every line with its index and active range.
func Timeline(w io.Writer, tl *lyrics.Timeline) error {
	digits := len(strconv.Itoa(tl.Len()))
	for i := 0; i < tl.Len(); i++ {
		sel, err := tl.Describe(i)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%*d  [%s → %s]  %s\n", digits, i, sel.Start, sel.End, sel.Text); err != nil {
			return err
		}
	}
	return nil
}

// Range writes the two labels shown when a line is selected.
func Range(w io.Writer, sel lyrics.Selection) error {
	_, err := fmt.Fprintf(w, "Starting Timestamp: %s\nEnding Timestamp: %s\n", sel.Start, sel.End)
	return err
}
