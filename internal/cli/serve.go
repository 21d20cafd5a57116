package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lrcview/internal/server"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, closeStore, err := newManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	return server.New(manager, cfg.Server.Mode).ListenAndServe(ctx, addr)
}
