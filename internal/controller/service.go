package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgnsrekt/tabkeeper/internal/organizer"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"github.com/dgnsrekt/tabkeeper/internal/title"
)

// HostStatus is implemented by hosts that can lose their connection.
type HostStatus interface {
	Connected() bool
}

// Health describes the daemon's view of its host.
type Health struct {
	Host      string `json:"host"`
	Connected bool   `json:"connected"`
	InFlight  int64  `json:"in_flight"`
	Handled   int64  `json:"handled"`
}

// Service wraps on-demand organizer operations for the HTTP API.
type Service struct {
	hostName string
	platform tabs.Platform
	orch     *organizer.Orchestrator
	disp     *organizer.Dispatcher
}

func NewService(hostName string, p tabs.Platform, orch *organizer.Orchestrator, disp *organizer.Dispatcher) *Service {
	return &Service{hostName: hostName, platform: p, orch: orch, disp: disp}
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &tabs.CodedError{Code: tabs.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

func (s *Service) Health(ctx context.Context) (Health, error) {
	h := Health{Host: s.hostName, Connected: true}
	if st, ok := s.platform.(HostStatus); ok {
		h.Connected = st.Connected()
	}
	if s.disp != nil {
		h.InFlight = s.disp.InFlight()
		h.Handled = s.disp.Handled()
	}
	return h, nil
}

func (s *Service) DeriveTitle(ctx context.Context, url string) (string, error) {
	if err := s.requireNonEmpty(url, "url"); err != nil {
		return "", err
	}
	return title.Derive(strings.TrimSpace(url)), nil
}

func (s *Service) ListTabs(ctx context.Context, window int) ([]tabs.Tab, error) {
	q := tabs.TabQuery{}
	if window > 0 {
		q.WindowID = tabs.Ptr(tabs.WindowID(window))
	}
	return s.platform.QueryTabs(ctx, q)
}

func (s *Service) ListGroups(ctx context.Context, window int) ([]tabs.Group, error) {
	q := tabs.GroupQuery{}
	if window > 0 {
		q.WindowID = tabs.Ptr(tabs.WindowID(window))
	}
	return s.platform.QueryGroups(ctx, q)
}

// OrganizeTab runs the full pipeline for one tab as if it had just started
// loading.
func (s *Service) OrganizeTab(ctx context.Context, tabID int) (organizer.Report, error) {
	if tabID <= 0 {
		return organizer.Report{}, &tabs.CodedError{Code: tabs.CodeValidation, Message: "tab_id must be positive"}
	}
	all, err := s.platform.QueryTabs(ctx, tabs.TabQuery{})
	if err != nil {
		return organizer.Report{}, err
	}
	for _, t := range all {
		if t.ID != tabs.TabID(tabID) {
			continue
		}
		n := tabs.Notification{TabID: t.ID, Change: tabs.ChangeInfo{Status: tabs.StatusLoading}, Tab: t}
		return s.orch.HandleUpdated(ctx, n)
	}
	return organizer.Report{}, tabs.NewError(tabs.CodeNoMatch, fmt.Sprintf("tab %d not found", tabID), nil)
}

func (s *Service) CollapseInactive(ctx context.Context) ([]organizer.CollapseResult, error) {
	return s.orch.CollapseInactive(ctx)
}
