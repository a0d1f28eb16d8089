package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/config"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/mcp"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/server"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	httpAddr := flag.String("addr", "", "HTTP listen address (overrides the config file)")
	dataDir := flag.String("data", "", "Dataset directory holding manifest.json (overrides the config file)")
	authToken := flag.String("token", "", "Bearer token required by the API (overrides the config file)")
	preload := flag.Bool("preload", false, "Load every manifest year at startup")
	mcpMode := flag.Bool("mcp", false, "Serve the Model Context Protocol over stdio instead of HTTP")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// Command-line flags win over the config file.
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *authToken != "" {
		cfg.AuthToken = *authToken
	}
	if *preload {
		cfg.PreloadAll = true
	}

	opts := engine.DefaultOptions(cfg.DataDir)
	opts.CacheSnapshots = cfg.CacheSnapshots
	opts.PreloadAll = cfg.PreloadAll
	opts.ManifestRefreshInterval = time.Duration(cfg.ManifestRefreshInterval)

	eng, err := engine.Open(opts)
	if err != nil {
		log.Fatalf("Could not open the engine: %v", err)
	}
	defer eng.Close()

	if *mcpMode {
		// The MCP client owns stdout, so everything we log goes to stderr.
		log.SetOutput(os.Stderr)
		log.Printf("MCP server speaking on stdio (data dir %s)", cfg.DataDir)
		if err := mcp.ServeStdio(context.Background(), eng); err != nil {
			log.Fatalf("MCP server stopped: %v", err)
		}
		return
	}

	srv, err := server.NewServer(eng, cfg.HTTPAddr, cfg.AuthToken)
	if err != nil {
		log.Fatalf("Could not create the server: %v", err)
	}

	// Channel listening for the interrupt signal (Ctrl+C).
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the HTTP server in a goroutine so main can block on the signal.
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatal(err)
		}
	}()

	// Block until shutdown is requested, then drain cleanly. The engine is
	// closed by the deferred call after the HTTP server stops accepting.
	<-shutdownChan

	srv.Shutdown()
}
