package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/tabkeeper/internal/api"
	"github.com/dgnsrekt/tabkeeper/internal/bridge"
	"github.com/dgnsrekt/tabkeeper/internal/browser"
	"github.com/dgnsrekt/tabkeeper/internal/config"
	"github.com/dgnsrekt/tabkeeper/internal/controller"
	"github.com/dgnsrekt/tabkeeper/internal/memhost"
	"github.com/dgnsrekt/tabkeeper/internal/netutil"
	"github.com/dgnsrekt/tabkeeper/internal/organizer"
	"github.com/dgnsrekt/tabkeeper/internal/relay"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("tabkeeper config loaded",
		"bind_addr", cfg.BindAddr,
		"host", cfg.Host,
		"port_candidates", cfg.PortCandidates,
		"call_timeout_ms", cfg.CallTimeoutMS,
		"launch_browser", cfg.LaunchBrowser,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	// The extension dials back to whatever address was actually bound.
	cfg.BindAddr = ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		platform  tabs.Platform
		bridgeSrv *bridge.Server
	)
	switch cfg.Host {
	case config.HostMemory:
		if cfg.MemoryFixture == "" {
			platform = memhost.New()
			break
		}
		host, err := memhost.LoadFixture(cfg.MemoryFixture)
		if err != nil {
			slog.Error("failed to load memory fixture", "path", cfg.MemoryFixture, "error", err)
			os.Exit(1)
		}
		platform = host
	default:
		bridgeSrv = bridge.NewServer(time.Duration(cfg.CallTimeoutMS) * time.Millisecond)
		platform = bridgeSrv
	}

	broker := relay.NewBroker()
	orch := organizer.NewOrchestrator(platform, organizer.WithObserver(relay.ActivityObserver(broker)))
	disp := organizer.NewDispatcher(ctx, orch)

	var bridgeHandler http.Handler
	if bridgeSrv != nil {
		bridgeSrv.OnUpdated(disp.Dispatch)
		bridgeHandler = bridgeSrv
	}

	svc := controller.NewService(cfg.Host, platform, orch, disp)
	srv := &http.Server{Addr: cfg.BindAddr, Handler: api.NewServer(svc, broker, bridgeHandler)}

	go func() {
		slog.Info("tabkeeper listening", "addr", cfg.BindAddr, "docs", "http://"+cfg.BindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("tabkeeper server failed", "error", err)
			os.Exit(1)
		}
	}()

	var launcher *browser.Launcher
	if cfg.LaunchBrowser {
		extDir, err := filepath.Abs(cfg.ExtensionDir)
		if err != nil {
			slog.Error("failed to resolve extension dir", "dir", cfg.ExtensionDir, "error", err)
			os.Exit(1)
		}
		if err := bridge.WriteExtension(extDir, cfg.BridgeURL()); err != nil {
			slog.Error("failed to write bridge extension", "dir", extDir, "error", err)
			os.Exit(1)
		}
		launcher = browser.NewLauncher(browser.Config{
			ProfileDir:   cfg.ProfileDir,
			ExtensionDir: extDir,
			StartURL:     cfg.StartURL,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("tabkeeper shutdown failed", "error", err)
	}
	cancel()
	disp.Wait()
	if bridgeSrv != nil {
		bridgeSrv.Close()
	}
	slog.Info("tabkeeper stopped", "handled", disp.Handled())
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
