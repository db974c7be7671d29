package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/tabkeeper/internal/memhost"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type inbound struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// fakeExtension answers bridge requests from an in-memory host, or with
// reply when it is set.
type fakeExtension struct {
	conn  net.Conn
	host  *memhost.Host
	reply func(inbound) (any, string, bool)
}

func startBridge(t *testing.T, timeout time.Duration) (*Server, string) {
	t.Helper()
	s := NewServer(timeout)
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialExtension(t *testing.T, s *Server, url string, host *memhost.Host) *fakeExtension {
	t.Helper()
	conn, _, _, err := ws.Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("ws.Dial() = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for !s.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("bridge never saw the extension connect")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return &fakeExtension{conn: conn, host: host}
}

func (f *fakeExtension) serve() {
	go func() {
		for {
			data, err := wsutil.ReadServerText(f.conn)
			if err != nil {
				return
			}
			var req inbound
			if json.Unmarshal(data, &req) != nil {
				continue
			}
			var (
				result any
				errMsg string
			)
			if f.reply != nil {
				var send bool
				result, errMsg, send = f.reply(req)
				if !send {
					continue
				}
			} else {
				result, errMsg = f.answer(req)
			}
			out, _ := json.Marshal(struct {
				ID     int64  `json:"id"`
				Result any    `json:"result,omitempty"`
				Error  string `json:"error,omitempty"`
			}{ID: req.ID, Result: result, Error: errMsg})
			if wsutil.WriteClientText(f.conn, out) != nil {
				return
			}
		}
	}()
}

func (f *fakeExtension) answer(req inbound) (any, string) {
	ctx := context.Background()
	fail := func(err error) (any, string) { return nil, err.Error() }

	switch req.Method {
	case methodQueryTabs:
		var p tabQueryParams
		_ = json.Unmarshal(req.Params, &p)
		q := tabs.TabQuery{URL: p.URL, Active: p.Active}
		if p.GroupID != nil {
			q.GroupID = tabs.Ptr(tabs.GroupID(*p.GroupID))
		}
		found, err := f.host.QueryTabs(ctx, q)
		if err != nil {
			return fail(err)
		}
		out := make([]wireTab, len(found))
		for i, t := range found {
			out[i] = wireTab{ID: int(t.ID), URL: t.URL, WindowID: int(t.WindowID), GroupID: int(t.GroupID), Active: t.Active, Pinned: t.Pinned}
		}
		return out, ""
	case methodGroupTabs:
		var p groupParams
		_ = json.Unmarshal(req.Params, &p)
		r := tabs.GroupRequest{}
		for _, id := range p.TabIDs {
			r.TabIDs = append(r.TabIDs, tabs.TabID(id))
		}
		if p.GroupID != nil {
			r.GroupID = tabs.Ptr(tabs.GroupID(*p.GroupID))
		}
		gid, err := f.host.GroupTabs(ctx, r)
		if err != nil {
			return fail(err)
		}
		return int(gid), ""
	case methodUpdateGroup:
		var p updateGroupParams
		_ = json.Unmarshal(req.Params, &p)
		g, err := f.host.UpdateGroup(ctx, tabs.GroupID(p.GroupID), tabs.GroupUpdate{Title: p.Props.Title, Collapsed: p.Props.Collapsed})
		if err != nil {
			return fail(err)
		}
		return wireGroup{ID: int(g.ID), Title: g.Title, WindowID: int(g.WindowID), Collapsed: g.Collapsed}, ""
	case methodQueryGroups:
		var p groupQueryParams
		_ = json.Unmarshal(req.Params, &p)
		found, err := f.host.QueryGroups(ctx, tabs.GroupQuery{Title: p.Title, Collapsed: p.Collapsed})
		if err != nil {
			return fail(err)
		}
		out := make([]wireGroup, len(found))
		for i, g := range found {
			out[i] = wireGroup{ID: int(g.ID), Title: g.Title, WindowID: int(g.WindowID), Collapsed: g.Collapsed}
		}
		return out, ""
	case methodRemoveTabs:
		var p removeParams
		_ = json.Unmarshal(req.Params, &p)
		for _, id := range p.TabIDs {
			if err := f.host.RemoveTabs(ctx, tabs.TabID(id)); err != nil {
				return nil, "No tab with id: " + strings.TrimPrefix(err.Error(), "TARGET_VANISHED: no tab with id ") + "."
			}
		}
		return nil, ""
	case methodUpdateTab:
		var p updateTabParams
		_ = json.Unmarshal(req.Params, &p)
		t, err := f.host.UpdateTab(ctx, tabs.TabID(p.TabID), tabs.TabUpdate{Active: p.Props.Active})
		if err != nil {
			return fail(err)
		}
		return wireTab{ID: int(t.ID), URL: t.URL, WindowID: int(t.WindowID), GroupID: int(t.GroupID), Active: t.Active}, ""
	}
	return nil, "unknown method " + req.Method
}

func TestCallWithoutExtension(t *testing.T) {
	s := NewServer(time.Second)
	_, err := s.QueryTabs(context.Background(), tabs.TabQuery{})
	var coded *tabs.CodedError
	if !errors.As(err, &coded) || coded.Code != tabs.CodeHostUnavailable {
		t.Fatalf("QueryTabs() = %v; want %s", err, tabs.CodeHostUnavailable)
	}
}

func TestPlatformRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, url := startBridge(t, 2*time.Second)
	host := memhost.New()
	a := host.OpenTab(1, "https://github.com/a", false, false)
	b := host.OpenTab(1, "https://github.com/b", true, false)
	dialExtension(t, s, url, host).serve()

	gid, err := s.GroupTabs(ctx, tabs.GroupRequest{TabIDs: []tabs.TabID{a.TabID, b.TabID}})
	if err != nil {
		t.Fatalf("GroupTabs() = %v", err)
	}
	g, err := s.UpdateGroup(ctx, gid, tabs.GroupUpdate{Title: tabs.Ptr("github"), Collapsed: tabs.Ptr(true)})
	if err != nil {
		t.Fatalf("UpdateGroup() = %v", err)
	}
	if g.Title != "github" || !g.Collapsed {
		t.Fatalf("UpdateGroup() = %+v", g)
	}

	groups, err := s.QueryGroups(ctx, tabs.GroupQuery{Title: tabs.Ptr("github")})
	if err != nil || len(groups) != 1 || groups[0].ID != gid {
		t.Fatalf("QueryGroups() = %+v, %v; want group %d", groups, err, gid)
	}

	members, err := s.QueryTabs(ctx, tabs.TabQuery{GroupID: &gid})
	if err != nil || len(members) != 2 {
		t.Fatalf("QueryTabs(group) = %+v, %v; want two tabs", members, err)
	}

	if _, err := s.UpdateTab(ctx, a.TabID, tabs.TabUpdate{Active: tabs.Ptr(true)}); err != nil {
		t.Fatalf("UpdateTab() = %v", err)
	}
	if err := s.RemoveTabs(ctx, b.TabID); err != nil {
		t.Fatalf("RemoveTabs() = %v", err)
	}
	if err := s.RemoveTabs(ctx, b.TabID); !tabs.IsVanished(err) {
		t.Fatalf("RemoveTabs(gone) = %v; want vanished", err)
	}
}

func TestCallTimesOut(t *testing.T) {
	s, url := startBridge(t, 50*time.Millisecond)
	ext := dialExtension(t, s, url, nil)
	ext.reply = func(inbound) (any, string, bool) { return nil, "", false }
	ext.serve()

	_, err := s.QueryGroups(context.Background(), tabs.GroupQuery{})
	var coded *tabs.CodedError
	if !errors.As(err, &coded) || coded.Code != tabs.CodeHostTimeout {
		t.Fatalf("QueryGroups() = %v; want %s", err, tabs.CodeHostTimeout)
	}
}

func TestExtensionErrorsAreClassified(t *testing.T) {
	s, url := startBridge(t, time.Second)
	ext := dialExtension(t, s, url, nil)
	ext.reply = func(req inbound) (any, string, bool) {
		if req.Method == methodUpdateGroup {
			return nil, "No group with id: 12.", true
		}
		return nil, "Tabs cannot be dragged right now", true
	}
	ext.serve()

	if _, err := s.UpdateGroup(context.Background(), 12, tabs.GroupUpdate{}); !tabs.IsVanished(err) {
		t.Fatalf("UpdateGroup() = %v; want vanished", err)
	}
	_, err := s.GroupTabs(context.Background(), tabs.GroupRequest{TabIDs: []tabs.TabID{1}})
	var coded *tabs.CodedError
	if !errors.As(err, &coded) || coded.Code != tabs.CodeHostRejected {
		t.Fatalf("GroupTabs() = %v; want %s", err, tabs.CodeHostRejected)
	}
}

func TestTabUpdatedEventReachesHandler(t *testing.T) {
	s, url := startBridge(t, time.Second)
	got := make(chan tabs.Notification, 1)
	s.OnUpdated(func(n tabs.Notification) { got <- n })
	ext := dialExtension(t, s, url, nil)

	evt := `{"method":"tabs.onUpdated","params":{"tabId":7,"changeInfo":{"groupId":-1},` +
		`"tab":{"id":7,"url":"https://go.dev/","pendingUrl":"https://go.dev/doc/","windowId":3,"groupId":-1,"pinned":false,"active":true}}}`
	if err := wsutil.WriteClientText(ext.conn, []byte(evt)); err != nil {
		t.Fatalf("WriteClientText() = %v", err)
	}

	select {
	case n := <-got:
		if n.TabID != 7 || n.Tab.WindowID != 3 || n.Tab.PendingURL != "https://go.dev/doc/" {
			t.Fatalf("notification = %+v", n)
		}
		if n.Change.GroupID == nil || *n.Change.GroupID != tabs.NoGroup {
			t.Fatalf("change group = %v; want NoGroup", n.Change.GroupID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestNewConnectionReplacesOld(t *testing.T) {
	s, url := startBridge(t, time.Second)
	dialExtension(t, s, url, memhost.New())
	dialExtension(t, s, url, memhost.New())

	deadline := time.Now().Add(2 * time.Second)
	for s.Connects() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Connects() = %d; want 2", s.Connects())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !s.Connected() {
		t.Fatal("Connected() = false after replacement")
	}
}

func TestWriteExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ext")
	if err := WriteExtension(dir, "ws://127.0.0.1:9999/bridge"); err != nil {
		t.Fatalf("WriteExtension() = %v", err)
	}
	worker, err := os.ReadFile(filepath.Join(dir, "service_worker.js"))
	if err != nil {
		t.Fatalf("os.ReadFile() failed: %v", err)
	}
	if !strings.Contains(string(worker), `"ws://127.0.0.1:9999/bridge"`) || strings.Contains(string(worker), bridgeURLPlaceholder) {
		t.Fatal("service worker does not carry the bridge url")
	}
	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}

	if err := WriteExtension(dir, "http://127.0.0.1/bridge"); err == nil {
		t.Fatal("WriteExtension(http) = nil; want error")
	}
}
