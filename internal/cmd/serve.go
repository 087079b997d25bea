package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the collection root over the optional HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := server.New(current.root, current.orch, current.bus, current.orch.Runs, current.log)
		current.log.Info("serving", zap.String("addr", serveAddr), zap.String("root", current.root))

		httpServer := &http.Server{Addr: serveAddr, Handler: srv.Handler(), BaseContext: func(_ http.Listener) context.Context { return cmd.Context() }}
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.ListenAndServe() }()

		select {
		case <-cmd.Context().Done():
			return httpServer.Shutdown(context.Background())
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
