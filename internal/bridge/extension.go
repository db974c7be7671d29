package bridge

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed extension/*
var extensionFS embed.FS

const bridgeURLPlaceholder = "__BRIDGE_URL__"

// WriteExtension writes the unpacked bridge extension into dir, pointed at
// bridgeURL (e.g. "ws://127.0.0.1:8189/bridge").
func WriteExtension(dir, bridgeURL string) error {
	if !strings.HasPrefix(bridgeURL, "ws://") && !strings.HasPrefix(bridgeURL, "wss://") {
		return fmt.Errorf("bridge extension: url must be ws:// or wss://, got %q", bridgeURL)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bridge extension: mkdir %s: %w", dir, err)
	}

	entries, err := fs.ReadDir(extensionFS, "extension")
	if err != nil {
		return fmt.Errorf("bridge extension: %w", err)
	}
	for _, e := range entries {
		data, err := extensionFS.ReadFile("extension/" + e.Name())
		if err != nil {
			return fmt.Errorf("bridge extension: read %s: %w", e.Name(), err)
		}
		body := strings.ReplaceAll(string(data), bridgeURLPlaceholder, bridgeURL)
		if err := os.WriteFile(filepath.Join(dir, e.Name()), []byte(body), 0o644); err != nil {
			return fmt.Errorf("bridge extension: write %s: %w", e.Name(), err)
		}
	}
	return nil
}
