package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/xapet-0/openclaw/internal/bridge"
	"github.com/xapet-0/openclaw/internal/config"
	"github.com/xapet-0/openclaw/internal/handlers"
	"github.com/xapet-0/openclaw/internal/turnlog"
)

var version = "dev"

const chromeStartTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Printf("openclaw %s\n", version)
			return
		case "config":
			config.HandleConfigCommand(cfg)
			return
		case "platforms":
			runPlatforms(cfg)
			return
		case "send":
			runSend(cfg, os.Args[2:])
			return
		case "help", "-h", "--help":
			printHelp()
			return
		case "serve":
			// fall through to the server below
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	runServe(cfg)
}

func runServe(cfg *config.RuntimeConfig) {
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		slog.Error("cannot create state dir", "err", err)
		os.Exit(1)
	}

	stopChrome, err := ensureBrowser(cfg)
	if err != nil {
		slog.Error("browser unavailable", "err", err)
		os.Exit(1)
	}

	registry, err := bridge.NewRegistry(cfg.PlatformsPath)
	if err != nil {
		slog.Error("platforms file rejected", "path", cfg.PlatformsPath, "err", err)
		os.Exit(1)
	}

	var turns *turnlog.Store
	if cfg.TurnLogPath != "" {
		turns, err = turnlog.Open(cfg.TurnLogPath)
		if err != nil {
			slog.Error("turn log unavailable", "path", cfg.TurnLogPath, "err", err)
			os.Exit(1)
		}
		slog.Info("turn log enabled", "path", cfg.TurnLogPath)
	}

	b := bridge.New(cfg, registry)

	mux := http.NewServeMux()
	h := handlers.New(b, cfg, turns, version)

	var srv *http.Server
	shutdownOnce := &sync.Once{}
	doShutdown := func() {
		shutdownOnce.Do(func() {
			slog.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Warn("server shutdown", "err", err)
			}
			if err := turns.Close(); err != nil {
				slog.Warn("turn log close", "err", err)
			}
			stopChrome()
		})
	}

	h.RegisterRoutes(mux, doShutdown)

	handler := handlers.RequestIDMiddleware(
		handlers.LoggingMiddleware(handlers.CorsMiddleware(handlers.AuthMiddleware(cfg, mux))))

	srv = &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: handler,
		// Only the header read is bounded: chat streams and sockets stay
		// open for as long as a turn takes.
		ReadHeaderTimeout: 10 * time.Second,
	}

	setupSignalHandler(doShutdown, func() {
		stopChrome()
	})

	slog.Info("🦞 openclaw ready", "addr", cfg.ListenAddr(), "cdp", cfg.CdpURL, "platforms", len(registry.All()))
	if cfg.Token != "" {
		slog.Info("auth enabled")
	} else {
		slog.Info("auth disabled (set CLAW_TOKEN to enable)")
	}

	go runStartupHealthCheck(cfg)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server", "err", err)
		os.Exit(1)
	}
}

func setupSignalHandler(shutdownFn func(), forceFn func()) {
	go func() {
		sig := make(chan os.Signal, 2)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		go shutdownFn()
		<-sig
		slog.Warn("force shutdown requested")
		forceFn()
		os.Exit(130)
	}()
}

func runStartupHealthCheck(cfg *config.RuntimeConfig) {
	time.Sleep(500 * time.Millisecond)
	client := &http.Client{Timeout: 5 * time.Second}
	req, _ := http.NewRequest("GET", fmt.Sprintf("http://localhost:%s/health", cfg.Port), nil)
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Error("startup health check failed", "err", err)
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		slog.Info("startup health check passed")
	} else {
		slog.Warn("startup health check unexpected status", "status", resp.StatusCode)
	}
}
