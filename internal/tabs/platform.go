package tabs

import "context"

// TabStore is the host's tab capability surface.
type TabStore interface {
	QueryTabs(ctx context.Context, q TabQuery) ([]Tab, error)
	RemoveTabs(ctx context.Context, ids ...TabID) error
	UpdateTab(ctx context.Context, id TabID, u TabUpdate) (Tab, error)
	// GroupTabs returns the id of the group the tabs ended up in.
	GroupTabs(ctx context.Context, req GroupRequest) (GroupID, error)
}

// GroupStore is the host's tab-group capability surface.
type GroupStore interface {
	QueryGroups(ctx context.Context, q GroupQuery) ([]Group, error)
	UpdateGroup(ctx context.Context, id GroupID, u GroupUpdate) (Group, error)
}

// Platform is everything the organizer needs from the host. All state lives
// there; callers re-query before every decision instead of caching.
type Platform interface {
	TabStore
	GroupStore
}
