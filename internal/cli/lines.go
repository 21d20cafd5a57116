package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"lrcview/internal/display"
	"lrcview/internal/lyrics"
)

// lyricsFile is shared by show, range and at; each command registers it.
var lyricsFile string

var (
	showCmd = &cobra.Command{
		Use:   "show <id> | --file <path>",
		Short: "Print every line with its time range",
		Args:  timelineArgs(0),
		RunE:  runShow,
	}

	rangeCmd = &cobra.Command{
		Use:   "range <id> <index> | --file <path> <index>",
		Short: "Print the start and end timestamps of one line",
		Args:  timelineArgs(1),
		RunE:  runRange,
	}

	atCmd = &cobra.Command{
		Use:   "at <id> <time> | --file <path> <time>",
		Short: "Print the line active at a time (MM:SS.CS or milliseconds)",
		Args:  timelineArgs(1),
		RunE:  runAt,
	}
)

func init() {
	for _, cmd := range []*cobra.Command{showCmd, rangeCmd, atCmd} {
		cmd.Flags().StringVarP(&lyricsFile, "file", "f", "", "Read lyrics from a local .lrc file")
	}
}

// timelineArgs expects a track id unless --file is set, followed by extra
// positional arguments.
func timelineArgs(extra int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		want := extra + 1
		if lyricsFile != "" {
			want = extra
		}
		if len(args) != want {
			return fmt.Errorf("accepts %d arg(s), received %d", want, len(args))
		}
		return nil
	}
}

// loadTimeline returns the timeline and the remaining positional arguments.
func loadTimeline(ctx context.Context, args []string) (*lyrics.Timeline, []string, error) {
	if lyricsFile != "" {
		raw, err := os.ReadFile(lyricsFile)
		if err != nil {
			return nil, nil, err
		}
		return lyrics.Parse(string(raw)), args, nil
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return nil, nil, fmt.Errorf("invalid track id %q", args[0])
	}

	manager, closeStore, err := newManager(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeStore()

	track, err := manager.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !track.HasSynced() {
		return nil, nil, fmt.Errorf("track %d has no synced lyrics", id)
	}
	return lyrics.Parse(track.SyncedLyrics), args[1:], nil
}

func runShow(cmd *cobra.Command, args []string) error {
	tl, _, err := loadTimeline(cmd.Context(), args)
	if err != nil {
		return err
	}
	return display.Timeline(cmd.OutOrStdout(), tl)
}

func runRange(cmd *cobra.Command, args []string) error {
	tl, rest, err := loadTimeline(cmd.Context(), args)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("invalid line index %q", rest[0])
	}

	sel, err := tl.Describe(index)
	if err != nil {
		return err
	}
	return display.Range(cmd.OutOrStdout(), sel)
}

func runAt(cmd *cobra.Command, args []string) error {
	tl, rest, err := loadTimeline(cmd.Context(), args)
	if err != nil {
		return err
	}
	ms, err := lyrics.ParseTimestamp(rest[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	index, ok := tl.LineAt(ms)
	if !ok {
		_, err := fmt.Fprintf(out, "No line active at %s\n", lyrics.FormatTimestamp(ms))
		return err
	}
	sel, err := tl.Describe(index)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "%d: %s\n", index, sel.Text); err != nil {
		return err
	}
	return display.Range(out, sel)
}
