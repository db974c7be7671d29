package bridge

import (
	"encoding/json"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

// Method names understood by the extension. They mirror the browser APIs
// the extension calls.
const (
	methodQueryTabs    = "tabs.query"
	methodRemoveTabs   = "tabs.remove"
	methodUpdateTab    = "tabs.update"
	methodGroupTabs    = "tabs.group"
	methodQueryGroups  = "tabGroups.query"
	methodUpdateGroup  = "tabGroups.update"
	eventTabUpdated    = "tabs.onUpdated"
	eventHello         = "hello"
	eventKeepalivePing = "ping"
)

type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// message is anything the extension sends: a response when ID is set,
// an event otherwise.
type message struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type wireTab struct {
	ID         int    `json:"id"`
	URL        string `json:"url,omitempty"`
	PendingURL string `json:"pendingUrl,omitempty"`
	WindowID   int    `json:"windowId"`
	GroupID    int    `json:"groupId"`
	Pinned     bool   `json:"pinned"`
	Active     bool   `json:"active"`
	Status     string `json:"status,omitempty"`
}

func (w wireTab) toTab() tabs.Tab {
	return tabs.Tab{
		ID:         tabs.TabID(w.ID),
		URL:        w.URL,
		PendingURL: w.PendingURL,
		WindowID:   tabs.WindowID(w.WindowID),
		GroupID:    tabs.GroupID(w.GroupID),
		Pinned:     w.Pinned,
		Active:     w.Active,
		Status:     w.Status,
	}
}

type wireGroup struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	WindowID  int    `json:"windowId"`
	Collapsed bool   `json:"collapsed"`
}

func (w wireGroup) toGroup() tabs.Group {
	return tabs.Group{
		ID:        tabs.GroupID(w.ID),
		Title:     w.Title,
		WindowID:  tabs.WindowID(w.WindowID),
		Collapsed: w.Collapsed,
	}
}

type wireChange struct {
	Status  string `json:"status,omitempty"`
	URL     string `json:"url,omitempty"`
	GroupID *int   `json:"groupId,omitempty"`
	Pinned  *bool  `json:"pinned,omitempty"`
}

type wireUpdated struct {
	TabID      int        `json:"tabId"`
	ChangeInfo wireChange `json:"changeInfo"`
	Tab        wireTab    `json:"tab"`
}

func (w wireUpdated) toNotification() tabs.Notification {
	n := tabs.Notification{
		TabID: tabs.TabID(w.TabID),
		Change: tabs.ChangeInfo{
			Status: w.ChangeInfo.Status,
			URL:    w.ChangeInfo.URL,
			Pinned: w.ChangeInfo.Pinned,
		},
		Tab: w.Tab.toTab(),
	}
	if w.ChangeInfo.GroupID != nil {
		n.Change.GroupID = tabs.Ptr(tabs.GroupID(*w.ChangeInfo.GroupID))
	}
	return n
}

type tabQueryParams struct {
	URL      string `json:"url,omitempty"`
	Active   *bool  `json:"active,omitempty"`
	GroupID  *int   `json:"groupId,omitempty"`
	WindowID *int   `json:"windowId,omitempty"`
}

func newTabQueryParams(q tabs.TabQuery) tabQueryParams {
	p := tabQueryParams{URL: q.URL, Active: q.Active}
	if q.GroupID != nil {
		p.GroupID = tabs.Ptr(int(*q.GroupID))
	}
	if q.WindowID != nil {
		p.WindowID = tabs.Ptr(int(*q.WindowID))
	}
	return p
}

type groupQueryParams struct {
	Title     *string `json:"title,omitempty"`
	WindowID  *int    `json:"windowId,omitempty"`
	Collapsed *bool   `json:"collapsed,omitempty"`
}

func newGroupQueryParams(q tabs.GroupQuery) groupQueryParams {
	p := groupQueryParams{Title: q.Title, Collapsed: q.Collapsed}
	if q.WindowID != nil {
		p.WindowID = tabs.Ptr(int(*q.WindowID))
	}
	return p
}

type removeParams struct {
	TabIDs []int `json:"tabIds"`
}

type updateTabParams struct {
	TabID int `json:"tabId"`
	Props struct {
		Active *bool `json:"active,omitempty"`
	} `json:"props"`
}

type groupParams struct {
	TabIDs  []int `json:"tabIds"`
	GroupID *int  `json:"groupId,omitempty"`
}

type updateGroupParams struct {
	GroupID int `json:"groupId"`
	Props   struct {
		Title     *string `json:"title,omitempty"`
		Collapsed *bool   `json:"collapsed,omitempty"`
	} `json:"props"`
}

func tabIDs(ids []tabs.TabID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
