package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lrcview/internal/app"
	"lrcview/internal/i3block"
	"lrcview/internal/ipc"
	"lrcview/internal/player"
)

var (
	followFile   string
	followPlayer string

	followCmd = &cobra.Command{
		Use:   "follow",
		Short: "Follow the running player and broadcast the active line",
		Long: `follow polls playerctl for the current song, fetches its lyrics and writes the
active line to every client of the IPC socket (and the optional state file).
With --file the lyrics come from a local .lrc file that is reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: runFollow,
	}
)

func init() {
	followCmd.Flags().StringVarP(&followFile, "file", "f", "", "Follow a local .lrc file instead of fetching lyrics")
	followCmd.Flags().StringVar(&followPlayer, "player", "", "playerctl player name (default: first available)")
}

func runFollow(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ipcServer := ipc.NewServer(cfg.App.SocketPath, cfg.App.StateFile)
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Close()

	opts := app.Options{
		Player:        player.New(followPlayer),
		Out:           ipcServer,
		CheckInterval: cfg.App.CheckInterval,
		LeadTime:      cfg.App.LeadTime,
	}
	if cfg.I3Block.Enabled {
		ctrl := i3block.NewController(cfg.I3Block.Signal)
		go ctrl.Run(ctx)
		opts.Signaler = ctrl
	}

	if followFile != "" {
		log.Info().Str("path", followFile).Msg("Following local lyrics file")
		return app.New(opts).RunFile(ctx, followFile)
	}

	manager, closeStore, err := newManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := newProvider(ctx, cfg, manager)
	if err != nil {
		return err
	}
	opts.Lyrics = provider
	return app.New(opts).Run(ctx)
}
