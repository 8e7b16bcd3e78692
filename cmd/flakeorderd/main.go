// Command flakeorderd serves the order-dependence planner for a single
// workspace over gRPC, with run history and metrics over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/example/flakeorder/detector/runner"
	"github.com/example/flakeorder/internal/config"
	"github.com/example/flakeorder/internal/depfile"
	"github.com/example/flakeorder/internal/storage"
	"github.com/example/flakeorder/internal/storage/sqlite"
	grpcTransport "github.com/example/flakeorder/internal/transport/grpc"
	"github.com/example/flakeorder/internal/web"
	"github.com/example/flakeorder/pkg/id"
)

// Config holds the daemon configuration.
type Config struct {
	GRPCPort  int
	WebPort   int
	DebugPort int
	Workspace string
}

func main() {
	cfg := loadConfig()

	runtime.SetMutexProfileFraction(1)
	runtime.SetBlockProfileRate(1)

	loaded, err := config.Discover(cfg.Workspace)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	plannerCfg := loaded.Config
	if !filepath.IsAbs(plannerCfg.ArtifactsDir) {
		plannerCfg.ArtifactsDir = filepath.Join(cfg.Workspace, plannerCfg.ArtifactsDir)
	}
	if loaded.Path != "" {
		log.Printf("Using config %s", loaded.Path)
	}

	if err := os.MkdirAll(plannerCfg.ArtifactsDir, 0o755); err != nil {
		log.Fatalf("Failed to create artifacts dir: %v", err)
	}
	dbPath := config.DatabasePath(plannerCfg)
	log.Printf("Initializing SQLite storage at %s", dbPath)
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	facts := depfile.NewDir(plannerCfg.ArtifactsDir)
	planner, err := runner.NewRunner(plannerCfg, facts, id.Generate,
		runner.WithWriter(facts),
		runner.WithRunStore(storage.NewRunStore(store)),
		runner.WithChecksumStore(storage.NewChecksumStore(store)),
	)
	if err != nil {
		log.Fatalf("Failed to create planner: %v", err)
	}

	// Debug server for pprof and metrics
	go func() {
		addr := fmt.Sprintf(":%d", cfg.DebugPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", planner.Metrics())
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
		log.Printf("Starting debug server on %s (pprof + metrics)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Debug server error: %v", err)
		}
	}()

	webAddr := fmt.Sprintf(":%d", cfg.WebPort)
	webServer := web.NewServer(webAddr, planner, planner.Metrics())
	go func() {
		if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	server := grpcTransport.NewServer(planner)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		server.GracefulStop()
	}()

	addr := fmt.Sprintf(":%d", cfg.GRPCPort)
	log.Printf("Starting flakeorder planner for %s on %s", cfg.Workspace, addr)
	if err := server.Serve(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig() Config {
	cfg := Config{
		GRPCPort:  7070,
		WebPort:   8080,
		DebugPort: 6060,
		Workspace: ".",
	}

	// Override from environment
	for name, port := range map[string]*int{
		"GRPC_PORT":  &cfg.GRPCPort,
		"WEB_PORT":   &cfg.WebPort,
		"DEBUG_PORT": &cfg.DebugPort,
	} {
		if v := os.Getenv(name); v != "" {
			if _, err := fmt.Sscanf(v, "%d", port); err != nil {
				log.Printf("Invalid %s, using default: %v", name, err)
			}
		}
	}

	if dir := os.Getenv("FLAKEORDER_WORKSPACE"); dir != "" {
		cfg.Workspace = dir
	}
	if abs, err := filepath.Abs(cfg.Workspace); err == nil {
		cfg.Workspace = abs
	}

	return cfg
}
