package organizer

import (
	"context"
	"testing"

	"github.com/dgnsrekt/tabkeeper/internal/memhost"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

func TestResolveDuplicatesKeepsOneTab(t *testing.T) {
	for _, active := range []bool{true, false} {
		h := memhost.New()
		old := h.OpenTab(1, "https://go.dev/doc/", false, false)
		h.OpenTab(1, "https://go.dev/blog/", true, false)
		fresh := h.OpenTab(1, "https://go.dev/doc/", active, false)

		res, err := ResolveDuplicates(context.Background(), h, fresh.Tab)
		if err != nil {
			t.Fatalf("active=%v: ResolveDuplicates() = %v", active, err)
		}
		if !res.Handled() || res.Survivor != old.TabID {
			t.Fatalf("active=%v: result = %+v; want handled with survivor %d", active, res, old.TabID)
		}

		left, _ := h.QueryTabs(context.Background(), tabs.TabQuery{URL: "https://go.dev/doc/"})
		if len(left) != 1 || left[0].ID != old.TabID {
			t.Fatalf("active=%v: remaining tabs = %+v; want only %d", active, left, old.TabID)
		}
		if left[0].Active != active {
			t.Fatalf("active=%v: survivor active = %v", active, left[0].Active)
		}
	}
}

func TestResolveDuplicatesPicksFirstOtherTab(t *testing.T) {
	h := memhost.New()
	first := h.OpenTab(1, "https://example.com/", false, false)
	second := h.OpenTab(2, "https://example.com/", false, false)
	fresh := h.OpenTab(1, "https://example.com/", true, false)

	res, err := ResolveDuplicates(context.Background(), h, fresh.Tab)
	if err != nil {
		t.Fatalf("ResolveDuplicates() = %v", err)
	}
	if res.Survivor != first.TabID {
		t.Fatalf("survivor = %d; want %d", res.Survivor, first.TabID)
	}
	if _, ok := h.Tab(second.TabID); !ok {
		t.Fatal("older duplicate was closed; only the new tab should go")
	}
}

func TestResolveDuplicatesSkips(t *testing.T) {
	h := memhost.New()
	lone := h.OpenTab(1, "https://example.com/", true, false)

	res, err := ResolveDuplicates(context.Background(), h, lone.Tab)
	if err != nil || res.Outcome != tabs.Skipped {
		t.Fatalf("ResolveDuplicates() = %+v, %v; want skipped", res, err)
	}

	blank := h.OpenTab(1, "", false, false)
	h.OpenTab(1, "", false, false)
	res, err = ResolveDuplicates(context.Background(), h, blank.Tab)
	if err != nil || res.Outcome != tabs.Skipped {
		t.Fatalf("ResolveDuplicates(no url) = %+v, %v; want skipped", res, err)
	}
	if len(h.Tabs()) != 3 {
		t.Fatalf("tabs = %d; want 3", len(h.Tabs()))
	}
}

func TestResolveDuplicatesReportsVanishedTab(t *testing.T) {
	h := memhost.New()
	h.OpenTab(1, "https://example.com/", false, false)
	fresh := h.OpenTab(1, "https://example.com/", true, false)
	h.Fail["RemoveTabs"] = tabs.TabVanished(fresh.TabID)

	res, err := ResolveDuplicates(context.Background(), h, fresh.Tab)
	if err == nil {
		t.Fatal("ResolveDuplicates() = nil error; want vanished")
	}
	if res.Outcome != tabs.Vanished {
		t.Fatalf("outcome = %s; want vanished", res.Outcome)
	}
}
