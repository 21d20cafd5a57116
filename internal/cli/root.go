package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lrcview/internal/config"
)

var (
	// Logging related
	debug    bool
	logLevel string

	configPath string

	// cfg is loaded before any subcommand runs
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "lrcview",
		Short: "Synced lyrics viewer and follower",
		Long: `lrcview looks up synced (LRC) lyrics on LRCLib and shows which line is active at
any moment of a track.

Examples:
  lrcview search hello adele                 # Find tracks with lyrics
  lrcview show 3396226                       # Print every line with its time range
  lrcview range 3396226 12                   # Start and end of line 12
  lrcview at --file song.lrc 01:02.50        # Line active at 1m02.5s
  lrcview follow                             # Follow the running player
  lrcview serve --addr :8080                 # Serve the HTTP API`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default $XDG_CONFIG_HOME/lrcview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error); overrides app.log_level")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging")

	rootCmd.AddCommand(searchCmd, showCmd, rangeCmd, atCmd, followCmd, serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	// logging first with the flag level so config loading is visible
	if err := setupLogging(resolveLevel("")); err != nil {
		return err
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := setupLogging(resolveLevel(cfg.App.LogLevel)); err != nil {
		return err
	}
	log.Debug().Str("config", cfg.Path).Str("command", cmd.Name()).Msg("Configuration loaded")
	return nil
}

func resolveLevel(fromConfig string) string {
	switch {
	case debug:
		return "debug"
	case logLevel != "":
		return logLevel
	case fromConfig != "":
		return fromConfig
	default:
		return "info"
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		TimeFormat: time.TimeOnly,
	})
	return nil
}
