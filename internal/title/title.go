// Package title derives short group titles from tab URLs.
package title

import (
	"regexp"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

const (
	Absent  = "!"
	Unknown = "?"
)

var (
	// Label right before the last run of 2-3 char suffixes: www.example.co.uk -> example.
	domainPattern = regexp.MustCompile(`http(?:s)?://(?:\w+\.)?([\w-]{1,63})(?:\.\w{2,3})+(?:$|/)`)
	localPattern  = regexp.MustCompile(`^http(?:s)?://(localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(?::(\d{4}))?(?:$|/)`)
	chromePattern = regexp.MustCompile(`^chrome://([\w-]{1,63})(?:$|/)`)
)

// Derive returns the group title for url. An empty url means the tab has no
// URL yet. The result is never empty.
func Derive(url string) string {
	if url == "" {
		return Absent
	}

	if m := domainPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}

	if m := localPattern.FindStringSubmatch(url); m != nil {
		host, port := m[1], m[2]
		switch {
		case port != "":
			return port
		case host == "127.0.0.1":
			return "localhost"
		default:
			return host
		}
	}

	if m := chromePattern.FindStringSubmatch(url); m != nil {
		return "(" + m[1] + ")"
	}

	return Unknown
}

// ForTab derives the title from the URL the tab is navigating to, falling
// back to its settled URL.
func ForTab(tab tabs.Tab) string {
	if tab.PendingURL != "" {
		return Derive(tab.PendingURL)
	}
	return Derive(tab.URL)
}
