package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flakeorder/cmd/flakeorder/internal/ui"
	transport "github.com/example/flakeorder/internal/transport/grpc"
	"github.com/example/flakeorder/internal/web"
)

var (
	serveAddr     string
	serveHTTPAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner over gRPC",
	Long: `Expose plan, select, square and history as the flakeorder.v1.Planner gRPC
service. Plans are serialized. With --http-addr, an HTTP server also exposes
run history at /api/runs and /api/runs/{id}, a run table at /, and stage
timings and run counters at /metrics (text) or /metrics?format=json.

EXAMPLES:
  flakeorder serve
  flakeorder serve --addr :7070 --http-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7070", "gRPC listen address")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "", "HTTP history and metrics listen address (disabled when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	r, closeStore, err := ws.Runner(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var httpServer *http.Server
	if serveHTTPAddr != "" {
		site := web.NewServer(serveHTTPAddr, r, r.Metrics())
		httpServer = &http.Server{Addr: serveHTTPAddr, Handler: site.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				ui.PrintError(fmt.Sprintf("http server: %v", err))
			}
		}()
		ui.PrintInfo(fmt.Sprintf("Run history on http://%s/", serveHTTPAddr))
	}

	srv := transport.NewServer(r)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(serveAddr) }()
	ui.PrintSuccess(fmt.Sprintf("Planner serving on %s", serveAddr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	ui.PrintStep("Shutting down")
	srv.GracefulStop()
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
	return nil
}
