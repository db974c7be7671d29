package memhost

import (
	"fmt"
	"os"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"gopkg.in/yaml.v3"
)

// Fixture describes a starting browser state for the memory host mode.
type Fixture struct {
	Windows []WindowFixture `yaml:"windows"`
}

type WindowFixture struct {
	ID     int            `yaml:"id"`
	Tabs   []TabFixture   `yaml:"tabs"`
	Groups []GroupFixture `yaml:"groups,omitempty"`
}

type TabFixture struct {
	URL    string `yaml:"url"`
	Active bool   `yaml:"active,omitempty"`
	Pinned bool   `yaml:"pinned,omitempty"`
}

// GroupFixture groups tabs of the same window by their index in Tabs.
type GroupFixture struct {
	Title     string `yaml:"title"`
	Collapsed bool   `yaml:"collapsed,omitempty"`
	Tabs      []int  `yaml:"tabs"`
}

// LoadFixture reads and applies a YAML fixture file to a new Host.
func LoadFixture(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memhost fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("memhost fixture: %w", err)
	}
	return FromFixture(fx)
}

// FromFixture builds a Host holding the fixture's tabs and groups.
func FromFixture(fx Fixture) (*Host, error) {
	h := New()
	for _, w := range fx.Windows {
		ids := make([]tabs.TabID, 0, len(w.Tabs))
		for _, t := range w.Tabs {
			n := h.OpenTab(tabs.WindowID(w.ID), t.URL, t.Active, t.Pinned)
			ids = append(ids, n.TabID)
		}
		for i, g := range w.Groups {
			if len(g.Tabs) == 0 {
				return nil, fmt.Errorf("memhost fixture: window %d group[%d] (%s) has no tabs", w.ID, i, g.Title)
			}
			members := make([]tabs.TabID, 0, len(g.Tabs))
			for _, idx := range g.Tabs {
				if idx < 0 || idx >= len(ids) {
					return nil, fmt.Errorf("memhost fixture: window %d group[%d] (%s) tab index %d out of range", w.ID, i, g.Title, idx)
				}
				members = append(members, ids[idx])
			}
			if _, err := h.AddGroup(g.Title, g.Collapsed, members...); err != nil {
				return nil, fmt.Errorf("memhost fixture: window %d group[%d]: %w", w.ID, i, err)
			}
		}
	}
	return h, nil
}
