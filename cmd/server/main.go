package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hotpush/backend/internal/config"
	"github.com/hotpush/backend/internal/graph/local"
	"github.com/hotpush/backend/internal/hmr"
	"github.com/hotpush/backend/internal/session"
	"github.com/hotpush/backend/internal/status"
	"github.com/hotpush/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	root := flag.String("root", "", "Override project root to watch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("No config file at %s, using defaults", *configPath)
		cfg = config.Default()
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Watch.Roots = []string{*root}
	}
	if len(cfg.Watch.Roots) == 0 {
		cfg.Watch.Roots = []string{"."}
	}

	svc, err := local.NewService(local.Options{
		Root:       cfg.Watch.Roots[0],
		Extensions: cfg.Bundler.Extensions,
		Ignore:     cfg.Watch.Ignore,
		Debounce:   cfg.Watch.Debounce,
	})
	if err != nil {
		log.Fatalf("Failed to create build graph service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start file watcher: %v", err)
	}

	registry := session.NewRegistry()
	coordinator := hmr.NewCoordinator(svc, registry, cfg.Server.Host, cfg.Server.Port, cfg.Bundler.ExcludedPaths)
	server := ws.NewServer(coordinator, cfg.Server.AllowedOrigins)

	reporter, err := status.NewReporter(func() int {
		if sess := registry.Live(); sess != nil {
			return len(sess.Snapshot().Dependencies)
		}
		return 0
	})
	if err != nil {
		log.Fatalf("Failed to create status reporter: %v", err)
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)
	reporter.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
