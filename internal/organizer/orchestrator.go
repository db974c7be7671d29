// Package organizer deduplicates, groups and collapses browser tabs in
// response to host tab-update notifications.
package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"github.com/dgnsrekt/tabkeeper/internal/title"
	"github.com/google/uuid"
)

// Activity kinds published to observers.
const (
	KindSkipped   = "skipped"
	KindDuplicate = "duplicate"
	KindGrouped   = "grouped"
	KindMerged    = "merged"
	KindCollapsed = "collapsed"
)

// Activity is one decision the orchestrator took.
type Activity struct {
	TaskID  string       `json:"task_id"`
	Kind    string       `json:"kind"`
	TabID   tabs.TabID   `json:"tab_id,omitempty"`
	GroupID tabs.GroupID `json:"group_id,omitempty"`
	Title   string       `json:"title,omitempty"`
	Outcome tabs.Outcome `json:"outcome"`
}

// Report summarises one handled notification.
type Report struct {
	TaskID    string           `json:"task_id"`
	TabID     tabs.TabID       `json:"tab_id"`
	Processed bool             `json:"processed"`
	Duplicate DuplicateResult  `json:"duplicate"`
	Grouping  *GroupResult     `json:"grouping,omitempty"`
	Protected []tabs.GroupID   `json:"protected,omitempty"`
	Collapsed []CollapseResult `json:"collapsed,omitempty"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers fn to receive every Activity. fn must not block.
func WithObserver(fn func(Activity)) Option {
	return func(o *Orchestrator) { o.observe = fn }
}

// Orchestrator sequences duplicate check, grouping and collapse for one
// notification at a time. It holds no tab state; every step re-queries the
// host immediately before acting.
type Orchestrator struct {
	platform tabs.Platform
	observe  func(Activity)
}

func NewOrchestrator(p tabs.Platform, opts ...Option) *Orchestrator {
	o := &Orchestrator{platform: p, observe: func(Activity) {}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ShouldProcess reports whether a change warrants re-evaluating the tab:
// it started loading, or it was just taken out of every group. A tab that
// is not loading and sits in a real group is left alone.
func ShouldProcess(change tabs.ChangeInfo) bool {
	if change.Status == tabs.StatusLoading {
		return true
	}
	return change.GroupID != nil && !change.GroupID.IsGroup()
}

// HandleUpdated runs the organizer pipeline for one tab-update notification.
// Duplicate-resolution and collapse query errors abort the run and are
// returned; grouping and per-group collapse failures only show in the Report.
func (o *Orchestrator) HandleUpdated(ctx context.Context, n tabs.Notification) (Report, error) {
	rep := Report{TaskID: uuid.NewString(), TabID: n.TabID}
	tab := n.Tab
	tab.ID = n.TabID

	if !ShouldProcess(n.Change) {
		o.emit(Activity{TaskID: rep.TaskID, Kind: KindSkipped, TabID: tab.ID, Outcome: tabs.Skipped})
		return rep, nil
	}
	rep.Processed = true

	dup, err := ResolveDuplicates(ctx, o.platform, tab)
	rep.Duplicate = dup
	if err != nil {
		return rep, fmt.Errorf("tab %d: %w", tab.ID, err)
	}
	if dup.Handled() {
		slog.Info("duplicate tab closed", "task_id", rep.TaskID, "tab_id", tab.ID, "survivor_tab_id", dup.Survivor, "url", tab.URL)
		o.emit(Activity{TaskID: rep.TaskID, Kind: KindDuplicate, TabID: tab.ID, Outcome: dup.Outcome})
		return rep, nil
	}

	protected := Protect(tab.GroupID)
	if !tab.Pinned {
		res := Consolidate(ctx, o.platform, tab, title.ForTab(tab))
		rep.Grouping = &res
		if res.Outcome == tabs.Applied {
			protected.Add(res.GroupID)
			slog.Debug("tab grouped", "task_id", rep.TaskID, "tab_id", tab.ID, "group_id", res.GroupID, "title", res.Title, "created", res.Created)
		}
		o.emit(Activity{TaskID: rep.TaskID, Kind: KindGrouped, TabID: tab.ID, GroupID: res.GroupID, Title: res.Title, Outcome: res.Outcome})
		for _, gid := range res.Merged {
			o.emit(Activity{TaskID: rep.TaskID, Kind: KindMerged, GroupID: gid, Title: res.Title, Outcome: tabs.Applied})
		}
	}

	active, err := o.platform.QueryTabs(ctx, tabs.TabQuery{Active: tabs.Ptr(true)})
	if err != nil {
		return rep, fmt.Errorf("tab %d: query active tabs: %w", tab.ID, err)
	}
	for _, t := range active {
		protected.Add(t.GroupID)
	}
	for id := range protected {
		rep.Protected = append(rep.Protected, id)
	}
	slices.Sort(rep.Protected)

	collapsed, err := CollapseExcept(ctx, o.platform, protected)
	rep.Collapsed = collapsed
	if err != nil {
		return rep, fmt.Errorf("tab %d: %w", tab.ID, err)
	}
	for _, c := range collapsed {
		o.emit(Activity{TaskID: rep.TaskID, Kind: KindCollapsed, GroupID: c.GroupID, Outcome: c.Outcome})
	}
	return rep, nil
}

// CollapseInactive collapses every group that holds no active tab. It is the
// collapse half of HandleUpdated, run on demand.
func (o *Orchestrator) CollapseInactive(ctx context.Context) ([]CollapseResult, error) {
	active, err := o.platform.QueryTabs(ctx, tabs.TabQuery{Active: tabs.Ptr(true)})
	if err != nil {
		return nil, fmt.Errorf("query active tabs: %w", err)
	}
	protected := Protect()
	for _, t := range active {
		protected.Add(t.GroupID)
	}
	taskID := uuid.NewString()
	results, err := CollapseExcept(ctx, o.platform, protected)
	for _, c := range results {
		o.emit(Activity{TaskID: taskID, Kind: KindCollapsed, GroupID: c.GroupID, Outcome: c.Outcome})
	}
	return results, err
}

func (o *Orchestrator) emit(a Activity) { o.observe(a) }
