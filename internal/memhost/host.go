// Package memhost is an in-memory tabs.Platform with the host browser's
// grouping semantics. It backs tests and the memory host mode.
package memhost

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// Host keeps tabs and groups in creation order.
type Host struct {
	mu        sync.Mutex
	tabs      []tabs.Tab
	groups    []tabs.Group
	nextTab   tabs.TabID
	nextGroup tabs.GroupID

	// Fail lets tests inject errors per method name ("GroupTabs", ...).
	// A nil entry means the call goes through.
	Fail map[string]error
}

func New() *Host {
	return &Host{nextTab: 1, nextGroup: 1, Fail: map[string]error{}}
}

// OpenTab adds a loading tab and returns the notification the host would
// deliver for it. An active tab deactivates the others in its window.
func (h *Host) OpenTab(window tabs.WindowID, url string, active, pinned bool) tabs.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := tabs.Tab{
		ID:       h.nextTab,
		URL:      url,
		WindowID: window,
		GroupID:  tabs.NoGroup,
		Pinned:   pinned,
		Status:   tabs.StatusLoading,
	}
	h.nextTab++
	h.tabs = append(h.tabs, t)
	if active {
		h.activateLocked(t.ID)
	}
	t, _ = h.findTabLocked(t.ID)
	return tabs.Notification{TabID: t.ID, Change: tabs.ChangeInfo{Status: tabs.StatusLoading}, Tab: t}
}

// AddGroup creates a titled group holding ids, the way a user dragging tabs
// together would. Tests use it to set up duplicate groups.
func (h *Host) AddGroup(title string, collapsed bool, ids ...tabs.TabID) (tabs.GroupID, error) {
	gid, err := h.GroupTabs(context.Background(), tabs.GroupRequest{TabIDs: ids})
	if err != nil {
		return 0, err
	}
	_, err = h.UpdateGroup(context.Background(), gid, tabs.GroupUpdate{Title: &title, Collapsed: &collapsed})
	return gid, err
}

// Tab returns a snapshot of one tab.
func (h *Host) Tab(id tabs.TabID) (tabs.Tab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.findTabLocked(id)
}

// Tabs returns a snapshot of every tab.
func (h *Host) Tabs() []tabs.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.tabs)
}

// Groups returns a snapshot of every group.
func (h *Host) Groups() []tabs.Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.groups)
}

func (h *Host) QueryTabs(_ context.Context, q tabs.TabQuery) ([]tabs.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail["QueryTabs"]; err != nil {
		return nil, err
	}
	out := []tabs.Tab{}
	for _, t := range h.tabs {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (h *Host) RemoveTabs(_ context.Context, ids ...tabs.TabID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail["RemoveTabs"]; err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := h.findTabLocked(id); !ok {
			return tabs.TabVanished(id)
		}
	}
	h.tabs = slices.DeleteFunc(h.tabs, func(t tabs.Tab) bool { return slices.Contains(ids, t.ID) })
	h.pruneGroupsLocked()
	return nil
}

func (h *Host) UpdateTab(_ context.Context, id tabs.TabID, u tabs.TabUpdate) (tabs.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail["UpdateTab"]; err != nil {
		return tabs.Tab{}, err
	}
	i := h.tabIndexLocked(id)
	if i < 0 {
		return tabs.Tab{}, tabs.TabVanished(id)
	}
	if u.Active != nil {
		if *u.Active {
			h.activateLocked(id)
		} else {
			h.tabs[i].Active = false
		}
	}
	return h.tabs[i], nil
}

func (h *Host) GroupTabs(_ context.Context, req tabs.GroupRequest) (tabs.GroupID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail["GroupTabs"]; err != nil {
		return 0, err
	}
	if len(req.TabIDs) == 0 {
		return 0, tabs.NewError(tabs.CodeValidation, "no tabs to group", nil)
	}

	var window tabs.WindowID
	for n, id := range req.TabIDs {
		t, ok := h.findTabLocked(id)
		if !ok {
			return 0, tabs.TabVanished(id)
		}
		if n == 0 {
			window = t.WindowID
		}
	}

	var gid tabs.GroupID
	if req.GroupID != nil {
		g, ok := h.findGroupLocked(*req.GroupID)
		if !ok {
			return 0, tabs.GroupVanished(*req.GroupID)
		}
		gid, window = g.ID, g.WindowID
	} else {
		gid = h.nextGroup
		h.nextGroup++
		h.groups = append(h.groups, tabs.Group{ID: gid, WindowID: window})
	}

	for _, id := range req.TabIDs {
		i := h.tabIndexLocked(id)
		h.tabs[i].GroupID = gid
		h.tabs[i].WindowID = window
	}
	h.pruneGroupsLocked()
	return gid, nil
}

func (h *Host) QueryGroups(_ context.Context, q tabs.GroupQuery) ([]tabs.Group, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail["QueryGroups"]; err != nil {
		return nil, err
	}
	out := []tabs.Group{}
	for _, g := range h.groups {
		if q.Matches(g) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (h *Host) UpdateGroup(_ context.Context, id tabs.GroupID, u tabs.GroupUpdate) (tabs.Group, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Fail[fmt.Sprintf("UpdateGroup/%d", id)]; err != nil {
		return tabs.Group{}, err
	}
	if err := h.Fail["UpdateGroup"]; err != nil {
		return tabs.Group{}, err
	}
	for i := range h.groups {
		if h.groups[i].ID != id {
			continue
		}
		if u.Title != nil {
			h.groups[i].Title = *u.Title
		}
		if u.Collapsed != nil {
			h.groups[i].Collapsed = *u.Collapsed
		}
		return h.groups[i], nil
	}
	return tabs.Group{}, tabs.GroupVanished(id)
}

func (h *Host) activateLocked(id tabs.TabID) {
	i := h.tabIndexLocked(id)
	if i < 0 {
		return
	}
	for j := range h.tabs {
		if h.tabs[j].WindowID == h.tabs[i].WindowID {
			h.tabs[j].Active = j == i
		}
	}
}

// pruneGroupsLocked drops groups left without tabs.
func (h *Host) pruneGroupsLocked() {
	h.groups = slices.DeleteFunc(h.groups, func(g tabs.Group) bool {
		return !slices.ContainsFunc(h.tabs, func(t tabs.Tab) bool { return t.GroupID == g.ID })
	})
}

func (h *Host) tabIndexLocked(id tabs.TabID) int {
	return slices.IndexFunc(h.tabs, func(t tabs.Tab) bool { return t.ID == id })
}

func (h *Host) findTabLocked(id tabs.TabID) (tabs.Tab, bool) {
	if i := h.tabIndexLocked(id); i >= 0 {
		return h.tabs[i], true
	}
	return tabs.Tab{}, false
}

func (h *Host) findGroupLocked(id tabs.GroupID) (tabs.Group, bool) {
	if i := slices.IndexFunc(h.groups, func(g tabs.Group) bool { return g.ID == id }); i >= 0 {
		return h.groups[i], true
	}
	return tabs.Group{}, false
}
