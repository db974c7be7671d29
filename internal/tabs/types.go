package tabs

// TabID, GroupID and WindowID are opaque host-assigned identifiers.
type (
	TabID    int
	GroupID  int
	WindowID int
)

// NoGroup is the group id the host reports for a tab outside any group.
const NoGroup GroupID = -1

// StatusLoading is the tab status reported when navigation starts.
const StatusLoading = "loading"

// IsGroup reports whether id names a real group.
func (id GroupID) IsGroup() bool { return id > 0 }

// Tab mirrors the host's view of an open tab.
type Tab struct {
	ID         TabID    `json:"id"`
	URL        string   `json:"url,omitempty"`
	PendingURL string   `json:"pending_url,omitempty"`
	WindowID   WindowID `json:"window_id"`
	GroupID    GroupID  `json:"group_id"`
	Pinned     bool     `json:"pinned"`
	Active     bool     `json:"active"`
	Status     string   `json:"status,omitempty"`
}

// Group mirrors the host's view of a tab group.
type Group struct {
	ID        GroupID  `json:"id"`
	Title     string   `json:"title"`
	WindowID  WindowID `json:"window_id"`
	Collapsed bool     `json:"collapsed"`
}

// ChangeInfo lists the tab properties that changed in one update
// notification. Nil pointers mean "unchanged".
type ChangeInfo struct {
	Status  string   `json:"status,omitempty"`
	URL     string   `json:"url,omitempty"`
	GroupID *GroupID `json:"group_id,omitempty"`
	Pinned  *bool    `json:"pinned,omitempty"`
}

// Notification is one tab-state-changed callback from the host.
type Notification struct {
	TabID  TabID      `json:"tab_id"`
	Change ChangeInfo `json:"change"`
	Tab    Tab        `json:"tab"`
}

// TabQuery filters tabs. Zero fields match everything.
type TabQuery struct {
	URL      string
	Active   *bool
	GroupID  *GroupID
	WindowID *WindowID
}

// Matches reports whether t satisfies every set field of q.
func (q TabQuery) Matches(t Tab) bool {
	if q.URL != "" && t.URL != q.URL {
		return false
	}
	if q.Active != nil && t.Active != *q.Active {
		return false
	}
	if q.GroupID != nil && t.GroupID != *q.GroupID {
		return false
	}
	if q.WindowID != nil && t.WindowID != *q.WindowID {
		return false
	}
	return true
}

// GroupQuery filters tab groups. Zero fields match everything.
type GroupQuery struct {
	Title     *string
	WindowID  *WindowID
	Collapsed *bool
}

func (q GroupQuery) Matches(g Group) bool {
	if q.Title != nil && g.Title != *q.Title {
		return false
	}
	if q.WindowID != nil && g.WindowID != *q.WindowID {
		return false
	}
	if q.Collapsed != nil && g.Collapsed != *q.Collapsed {
		return false
	}
	return true
}

// TabUpdate changes tab properties. Nil fields are left alone.
type TabUpdate struct {
	Active *bool
}

// GroupUpdate changes group properties. Nil fields are left alone.
type GroupUpdate struct {
	Title     *string
	Collapsed *bool
}

// GroupRequest moves tabs into GroupID, or into a new group when GroupID
// is nil.
type GroupRequest struct {
	TabIDs  []TabID
	GroupID *GroupID
}

// Ptr returns a pointer to v. Queries and updates use it for optional fields.
func Ptr[T any](v T) *T { return &v }
