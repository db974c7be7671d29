package organizer

import (
	"context"
	"fmt"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// DuplicateResult reports what ResolveDuplicates did with a loaded tab.
type DuplicateResult struct {
	Outcome  tabs.Outcome `json:"outcome"`
	Survivor tabs.TabID   `json:"survivor,omitempty"`
}

// Handled reports whether the loaded tab was closed as a duplicate.
func (r DuplicateResult) Handled() bool { return r.Outcome == tabs.Applied }

// ResolveDuplicates closes tab when another tab already shows its URL and
// hands the tab's active state to the first such tab. Only one survivor is
// picked per call; older duplicates are left alone.
//
// Host errors are returned as-is: a tab closed under us is picked up again
// by the next notification.
func ResolveDuplicates(ctx context.Context, store tabs.TabStore, tab tabs.Tab) (DuplicateResult, error) {
	if tab.URL == "" {
		return DuplicateResult{Outcome: tabs.Skipped}, nil
	}

	same, err := store.QueryTabs(ctx, tabs.TabQuery{URL: tab.URL})
	if err != nil {
		return DuplicateResult{Outcome: tabs.OutcomeOf(err)}, fmt.Errorf("query duplicates: %w", err)
	}
	if len(same) < 2 {
		return DuplicateResult{Outcome: tabs.Skipped}, nil
	}

	survivor := tabs.TabID(0)
	found := false
	for _, t := range same {
		if t.ID != tab.ID {
			survivor, found = t.ID, true
			break
		}
	}
	if !found {
		return DuplicateResult{Outcome: tabs.Skipped}, nil
	}

	if err := store.RemoveTabs(ctx, tab.ID); err != nil {
		return DuplicateResult{Outcome: tabs.OutcomeOf(err), Survivor: survivor}, fmt.Errorf("remove duplicate %d: %w", tab.ID, err)
	}
	if _, err := store.UpdateTab(ctx, survivor, tabs.TabUpdate{Active: tabs.Ptr(tab.Active)}); err != nil {
		return DuplicateResult{Outcome: tabs.OutcomeOf(err), Survivor: survivor}, fmt.Errorf("activate survivor %d: %w", survivor, err)
	}
	return DuplicateResult{Outcome: tabs.Applied, Survivor: survivor}, nil
}
