package organizer

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/dgnsrekt/tabkeeper/internal/memhost"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// countingHost records how often grouping commands reach the host.
type countingHost struct {
	*memhost.Host
	groupCalls atomic.Int64
}

func (c *countingHost) GroupTabs(ctx context.Context, req tabs.GroupRequest) (tabs.GroupID, error) {
	c.groupCalls.Add(1)
	return c.Host.GroupTabs(ctx, req)
}

func mustGroup(t *testing.T, h *memhost.Host, title string, collapsed bool, ids ...tabs.TabID) tabs.GroupID {
	t.Helper()
	gid, err := h.AddGroup(title, collapsed, ids...)
	if err != nil {
		t.Fatalf("AddGroup(%q) = %v", title, err)
	}
	return gid
}

func mustTab(t *testing.T, h *memhost.Host, id tabs.TabID) tabs.Tab {
	t.Helper()
	tab, ok := h.Tab(id)
	if !ok {
		t.Fatalf("tab %d not found", id)
	}
	return tab
}

func groupByID(groups []tabs.Group, id tabs.GroupID) (tabs.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return tabs.Group{}, false
}
