package organizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"golang.org/x/sync/errgroup"
)

// ProtectedSet holds the groups that must stay expanded.
type ProtectedSet map[tabs.GroupID]struct{}

// Protect builds a ProtectedSet from ids, dropping NoGroup and other
// non-group values.
func Protect(ids ...tabs.GroupID) ProtectedSet {
	set := make(ProtectedSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s ProtectedSet) Add(id tabs.GroupID) {
	if id.IsGroup() {
		s[id] = struct{}{}
	}
}

func (s ProtectedSet) Has(id tabs.GroupID) bool {
	_, ok := s[id]
	return ok
}

// CollapseResult is the outcome for one group CollapseExcept tried to fold.
type CollapseResult struct {
	GroupID tabs.GroupID `json:"group_id"`
	Outcome tabs.Outcome `json:"outcome"`
}

// CollapseExcept collapses every expanded group not in protected. Commands
// are sent concurrently; one group failing does not stop the others.
// Results follow the host's group order.
func CollapseExcept(ctx context.Context, store tabs.GroupStore, protected ProtectedSet) ([]CollapseResult, error) {
	expanded, err := store.QueryGroups(ctx, tabs.GroupQuery{Collapsed: tabs.Ptr(false)})
	if err != nil {
		return nil, fmt.Errorf("query expanded groups: %w", err)
	}

	targets := make([]tabs.GroupID, 0, len(expanded))
	for _, g := range expanded {
		if !protected.Has(g.ID) {
			targets = append(targets, g.ID)
		}
	}

	results := make([]CollapseResult, len(targets))
	var eg errgroup.Group
	for i, id := range targets {
		eg.Go(func() error {
			_, err := store.UpdateGroup(ctx, id, tabs.GroupUpdate{Collapsed: tabs.Ptr(true)})
			if err != nil {
				slog.Debug("organizer collapse failed", "group_id", id, "error", err)
			}
			results[i] = CollapseResult{GroupID: id, Outcome: tabs.OutcomeOf(err)}
			return nil
		})
	}
	_ = eg.Wait()
	return results, nil
}
