package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"lrcview/internal/display"
)

var (
	searchJSON  bool
	searchLimit int

	searchCmd = &cobra.Command{
		Use:   "search <query...>",
		Short: "Search LRCLib for tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
)

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print raw JSON")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Limit result count (0 = unlimited)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	manager, closeStore, err := newManager(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tracks, err := manager.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if searchLimit > 0 && len(tracks) > searchLimit {
		tracks = tracks[:searchLimit]
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		data, err := sonic.ConfigStd.MarshalIndent(tracks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tracks: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	width := 100
	if out == os.Stdout {
		width = display.TerminalWidth(os.Stdout)
	}
	return display.Tracks(out, tracks, width)
}
