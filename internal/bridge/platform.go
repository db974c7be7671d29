package bridge

import (
	"context"

	"github.com/dgnsrekt/tabkeeper/internal/tabs"
)

func (s *Server) QueryTabs(ctx context.Context, q tabs.TabQuery) ([]tabs.Tab, error) {
	var raw []wireTab
	if err := s.call(ctx, methodQueryTabs, newTabQueryParams(q), &raw); err != nil {
		return nil, err
	}
	out := make([]tabs.Tab, len(raw))
	for i, w := range raw {
		out[i] = w.toTab()
	}
	return out, nil
}

func (s *Server) RemoveTabs(ctx context.Context, ids ...tabs.TabID) error {
	return s.call(ctx, methodRemoveTabs, removeParams{TabIDs: tabIDs(ids)}, nil)
}

func (s *Server) UpdateTab(ctx context.Context, id tabs.TabID, u tabs.TabUpdate) (tabs.Tab, error) {
	p := updateTabParams{TabID: int(id)}
	p.Props.Active = u.Active
	var raw wireTab
	if err := s.call(ctx, methodUpdateTab, p, &raw); err != nil {
		return tabs.Tab{}, err
	}
	return raw.toTab(), nil
}

func (s *Server) GroupTabs(ctx context.Context, req tabs.GroupRequest) (tabs.GroupID, error) {
	p := groupParams{TabIDs: tabIDs(req.TabIDs)}
	if req.GroupID != nil {
		p.GroupID = tabs.Ptr(int(*req.GroupID))
	}
	var gid int
	if err := s.call(ctx, methodGroupTabs, p, &gid); err != nil {
		return 0, err
	}
	return tabs.GroupID(gid), nil
}

func (s *Server) QueryGroups(ctx context.Context, q tabs.GroupQuery) ([]tabs.Group, error) {
	var raw []wireGroup
	if err := s.call(ctx, methodQueryGroups, newGroupQueryParams(q), &raw); err != nil {
		return nil, err
	}
	out := make([]tabs.Group, len(raw))
	for i, w := range raw {
		out[i] = w.toGroup()
	}
	return out, nil
}

func (s *Server) UpdateGroup(ctx context.Context, id tabs.GroupID, u tabs.GroupUpdate) (tabs.Group, error) {
	p := updateGroupParams{GroupID: int(id)}
	p.Props.Title = u.Title
	p.Props.Collapsed = u.Collapsed
	var raw wireGroup
	if err := s.call(ctx, methodUpdateGroup, p, &raw); err != nil {
		return tabs.Group{}, err
	}
	return raw.toGroup(), nil
}
