// Package browser starts a Chromium profile with the bridge extension loaded.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Config holds browser launch configuration.
type Config struct {
	ProfileDir   string
	ExtensionDir string
	StartURL     string
	// ReadyTimeout bounds the wait for the extension service worker.
	ReadyTimeout time.Duration
}

// Launcher manages the lifecycle of a browser process.
type Launcher struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	worker        *target.Info
}

// NewLauncher creates a new browser launcher with the given config.
func NewLauncher(cfg Config) *Launcher {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 15 * time.Second
	}
	return &Launcher{cfg: cfg}
}

// detectBrowser finds an available Chrome/Chromium binary.
func detectBrowser() (string, error) {
	candidates := []string{"chromium-browser", "chromium", "google-chrome"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried chromium-browser, chromium, google-chrome)")
}

func (l *Launcher) allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	return append(opts,
		chromedp.ExecPath(execPath),
		chromedp.UserDataDir(l.cfg.ProfileDir),
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-extensions", false),
		chromedp.Flag("disable-extensions-except", l.cfg.ExtensionDir),
		chromedp.Flag("load-extension", l.cfg.ExtensionDir),
		chromedp.Flag("disable-sync", true),
	)
}

// Launch starts the browser and blocks until the extension's service worker
// is running.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.cfg.ExtensionDir == "" {
		return fmt.Errorf("extension dir is required")
	}
	browserPath, err := detectBrowser()
	if err != nil {
		return err
	}
	slog.Info("detected browser", "path", browserPath)

	if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions(browserPath)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	l.allocCancel, l.browserCancel = allocCancel, browserCancel

	var actions []chromedp.Action
	if l.cfg.StartURL != "" {
		actions = append(actions, chromedp.Navigate(l.cfg.StartURL))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		l.Stop()
		return fmt.Errorf("start browser: %w", err)
	}
	slog.Info("browser process started", "profile", l.cfg.ProfileDir)

	worker, err := l.waitForWorker(ctx, browserCtx)
	if err != nil {
		l.Stop()
		return fmt.Errorf("waiting for extension: %w", err)
	}
	l.worker = worker
	slog.Info("extension service worker ready", "url", worker.URL, "target_id", worker.TargetID)
	return nil
}

// waitForWorker polls the browser targets until the extension worker shows up.
func (l *Launcher) waitForWorker(ctx, browserCtx context.Context) (*target.Info, error) {
	deadline := time.After(l.cfg.ReadyTimeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("extension worker did not start within %s", l.cfg.ReadyTimeout)
		case <-ticker.C:
			targets, err := chromedp.Targets(browserCtx)
			if err != nil {
				slog.Debug("target listing failed", "error", err)
				continue
			}
			if w, ok := extensionWorker(targets); ok {
				return w, nil
			}
		}
	}
}

func extensionWorker(targets []*target.Info) (*target.Info, bool) {
	for _, t := range targets {
		if t.Type == "service_worker" && strings.HasPrefix(t.URL, "chrome-extension://") {
			return t, true
		}
	}
	return nil, false
}

// Worker returns the extension service worker target found by Launch.
func (l *Launcher) Worker() *target.Info { return l.worker }

// Stop closes the browser started by Launch.
func (l *Launcher) Stop() {
	if l.browserCancel != nil {
		l.browserCancel()
		l.browserCancel = nil
	}
	if l.allocCancel != nil {
		l.allocCancel()
		l.allocCancel = nil
		slog.Info("browser stopped")
	}
}
