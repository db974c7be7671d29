package organizer

import (
	"context"
	"sync"
	"testing"

	"github.com/dgnsrekt/tabkeeper/internal/memhost"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		name   string
		change tabs.ChangeInfo
		want   bool
	}{
		{"loading", tabs.ChangeInfo{Status: tabs.StatusLoading}, true},
		{"loading and grouped", tabs.ChangeInfo{Status: tabs.StatusLoading, GroupID: tabs.Ptr(tabs.GroupID(3))}, true},
		{"complete", tabs.ChangeInfo{Status: "complete"}, false},
		{"title change", tabs.ChangeInfo{}, false},
		{"ungrouped", tabs.ChangeInfo{GroupID: tabs.Ptr(tabs.NoGroup)}, true},
		{"moved into group", tabs.ChangeInfo{GroupID: tabs.Ptr(tabs.GroupID(3))}, false},
		{"complete and ungrouped", tabs.ChangeInfo{Status: "complete", GroupID: tabs.Ptr(tabs.NoGroup)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldProcess(tt.change); got != tt.want {
				t.Fatalf("ShouldProcess(%+v) = %v; want %v", tt.change, got, tt.want)
			}
		})
	}
}

func TestHandleUpdatedGroupsAndCollapsesOthers(t *testing.T) {
	h := memhost.New()
	docs := h.OpenTab(1, "https://go.dev/doc/", false, false)
	docsGroup := mustGroup(t, h, "go", false, docs.TabID)

	var mu sync.Mutex
	var kinds []string
	orch := NewOrchestrator(h, WithObserver(func(a Activity) {
		mu.Lock()
		kinds = append(kinds, a.Kind)
		mu.Unlock()
	}))

	n := h.OpenTab(1, "https://github.com/golang/go", true, false)
	rep, err := orch.HandleUpdated(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleUpdated() = %v", err)
	}
	if !rep.Processed || rep.Grouping == nil || rep.Grouping.Title != "github" {
		t.Fatalf("report = %+v; want github grouping", rep)
	}

	newGroup, _ := groupByID(h.Groups(), rep.Grouping.GroupID)
	if newGroup.Collapsed {
		t.Fatal("group of the loaded tab was collapsed")
	}
	if g, _ := groupByID(h.Groups(), docsGroup); !g.Collapsed {
		t.Fatal("group without an active tab stayed expanded")
	}
	if len(kinds) != 2 || kinds[0] != KindGrouped || kinds[1] != KindCollapsed {
		t.Fatalf("activities = %v; want [grouped collapsed]", kinds)
	}
}

func TestHandleUpdatedKeepsBackgroundTabGroupExpanded(t *testing.T) {
	h := memhost.New()
	h.OpenTab(1, "https://go.dev/", true, false)
	bg := h.OpenTab(1, "https://github.com/", false, false)

	rep, err := NewOrchestrator(h).HandleUpdated(context.Background(), bg)
	if err != nil {
		t.Fatalf("HandleUpdated() = %v", err)
	}
	if g, _ := groupByID(h.Groups(), rep.Grouping.GroupID); g.Collapsed {
		t.Fatal("freshly grouped background tab had its group collapsed")
	}
}

func TestHandleUpdatedPinnedTabSkipsGrouping(t *testing.T) {
	h := memhost.New()
	other := h.OpenTab(1, "https://go.dev/", false, false)
	gid := mustGroup(t, h, "go", false, other.TabID)
	host := &countingHost{Host: h}

	pinned := h.OpenTab(1, "https://mail.example.com/", true, true)
	rep, err := NewOrchestrator(host).HandleUpdated(context.Background(), pinned)
	if err != nil {
		t.Fatalf("HandleUpdated() = %v", err)
	}
	if rep.Grouping != nil || host.groupCalls.Load() != 0 {
		t.Fatalf("pinned tab was grouped: %+v, %d calls", rep.Grouping, host.groupCalls.Load())
	}
	if g, _ := groupByID(h.Groups(), gid); !g.Collapsed {
		t.Fatal("collapse did not run for pinned tab")
	}
}

func TestHandleUpdatedStopsAfterDuplicate(t *testing.T) {
	h := memhost.New()
	orig := h.OpenTab(1, "https://go.dev/", false, false)
	host := &countingHost{Host: h}
	dup := h.OpenTab(1, "https://go.dev/", true, false)

	rep, err := NewOrchestrator(host).HandleUpdated(context.Background(), dup)
	if err != nil {
		t.Fatalf("HandleUpdated() = %v", err)
	}
	if !rep.Duplicate.Handled() || rep.Grouping != nil || rep.Collapsed != nil {
		t.Fatalf("report = %+v; want duplicate only", rep)
	}
	if host.groupCalls.Load() != 0 {
		t.Fatal("duplicate tab went on to grouping")
	}
	if got := mustTab(t, h, orig.TabID); !got.Active {
		t.Fatal("surviving tab did not inherit active state")
	}
}

func TestHandleUpdatedSkipsGroupedCompleteTab(t *testing.T) {
	h := memhost.New()
	host := &countingHost{Host: h}
	n := h.OpenTab(1, "https://go.dev/", true, false)
	n.Change = tabs.ChangeInfo{Status: "complete"}

	rep, err := NewOrchestrator(host).HandleUpdated(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleUpdated() = %v", err)
	}
	if rep.Processed || host.groupCalls.Load() != 0 {
		t.Fatalf("report = %+v; want skipped", rep)
	}
}

func TestCollapseInactive(t *testing.T) {
	h := memhost.New()
	a := h.OpenTab(1, "https://a.com/", false, false)
	b := h.OpenTab(1, "https://b.com/", true, false)
	ga := mustGroup(t, h, "a", false, a.TabID)
	gb := mustGroup(t, h, "b", false, b.TabID)

	res, err := NewOrchestrator(h).CollapseInactive(context.Background())
	if err != nil {
		t.Fatalf("CollapseInactive() = %v", err)
	}
	if len(res) != 1 || res[0].GroupID != ga {
		t.Fatalf("CollapseInactive() = %+v; want only group %d", res, ga)
	}
	if g, _ := groupByID(h.Groups(), gb); g.Collapsed {
		t.Fatal("group holding the active tab was collapsed")
	}
}
