package organizer

import (
	"context"
	"log/slog"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// GroupResult reports where Consolidate put a tab.
type GroupResult struct {
	Outcome tabs.Outcome   `json:"outcome"`
	GroupID tabs.GroupID   `json:"group_id,omitempty"`
	Title   string         `json:"title"`
	Created bool           `json:"created,omitempty"`
	Merged  []tabs.GroupID `json:"merged,omitempty"`
}

// Consolidate puts tab into the group titled title in the tab's window,
// creating the group when none exists. When several groups carry the title
// the first one wins and the others are emptied into it. The resulting group
// always ends up titled and expanded.
//
// Grouping is cosmetic: failures are reported through the Outcome only.
func Consolidate(ctx context.Context, p tabs.Platform, tab tabs.Tab, title string) GroupResult {
	res := GroupResult{Title: title}

	groups, err := p.QueryGroups(ctx, tabs.GroupQuery{Title: &title, WindowID: &tab.WindowID})
	if err != nil {
		slog.Debug("organizer group query failed", "tab_id", tab.ID, "title", title, "error", err)
		res.Outcome = tabs.OutcomeOf(err)
		return res
	}

	var target *tabs.GroupID
	if len(groups) > 0 {
		target = &groups[0].ID
		res.Merged = mergeGroups(ctx, p, groups[0].ID, groups[1:])
	}

	gid, err := p.GroupTabs(ctx, tabs.GroupRequest{TabIDs: []tabs.TabID{tab.ID}, GroupID: target})
	if err != nil {
		slog.Debug("organizer group tab failed", "tab_id", tab.ID, "title", title, "error", err)
		res.Outcome = tabs.OutcomeOf(err)
		return res
	}
	res.GroupID = gid
	res.Created = target == nil

	if _, err := p.UpdateGroup(ctx, gid, tabs.GroupUpdate{Title: &title, Collapsed: tabs.Ptr(false)}); err != nil {
		slog.Debug("organizer group update failed", "group_id", gid, "title", title, "error", err)
		res.Outcome = tabs.OutcomeOf(err)
		return res
	}

	res.Outcome = tabs.Applied
	return res
}

// mergeGroups moves the members of every extra group into base. Every move
// is issued before it returns. Failed moves are logged and skipped; the stray
// group gets merged on a later pass.
func mergeGroups(ctx context.Context, p tabs.TabStore, base tabs.GroupID, extra []tabs.Group) []tabs.GroupID {
	var merged []tabs.GroupID
	for _, g := range extra {
		members, err := p.QueryTabs(ctx, tabs.TabQuery{GroupID: &g.ID})
		if err != nil || len(members) == 0 {
			continue
		}
		ids := make([]tabs.TabID, 0, len(members))
		for _, t := range members {
			ids = append(ids, t.ID)
		}
		if _, err := p.GroupTabs(ctx, tabs.GroupRequest{TabIDs: ids, GroupID: &base}); err != nil {
			slog.Debug("organizer merge failed", "from_group_id", g.ID, "into_group_id", base, "error", err)
			continue
		}
		merged = append(merged, g.ID)
	}
	return merged
}
