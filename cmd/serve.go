package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	docsmcp "github.com/sylinko/everywhere-web/mcp"
	"github.com/sylinko/everywhere-web/site"
	"go.uber.org/zap"
)

var serveNoMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the website",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.logger.Sync() //nolint:errcheck

		idx, err := a.buildSearch(ctx)
		if err != nil {
			return err
		}
		defer idx.Close()

		var opts []site.Option
		if !serveNoMCP {
			mcpServer := docsmcp.NewServer(docsmcp.Docs{
				Registry: a.registry,
				Source:   a.collections.Docs,
				Search:   idx,
				URL:      a.docURL,
			})
			opts = append(opts, site.WithAPIHandler(docsmcp.Endpoint, docsmcp.NewHTTPHandler(mcpServer, docsmcp.Endpoint)))
		}
		srv, err := a.newServer(idx, opts...)
		if err != nil {
			return err
		}

		httpServer := &http.Server{
			Addr:              a.cfg.Addr,
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errs := make(chan error, 1)
		go func() {
			a.logger.Info("listening", zap.String("addr", a.cfg.Addr), zap.String("baseUrl", a.cfg.BaseURL))
			errs <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errs:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}
