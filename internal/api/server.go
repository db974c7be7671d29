package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/tabkeeper/internal/controller"
	"github.com/dgnsrekt/tabkeeper/internal/organizer"
	"github.com/dgnsrekt/tabkeeper/internal/relay"
	"github.com/dgnsrekt/tabkeeper/internal/tabs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	Health(ctx context.Context) (controller.Health, error)
	DeriveTitle(ctx context.Context, url string) (string, error)
	ListTabs(ctx context.Context, window int) ([]tabs.Tab, error)
	ListGroups(ctx context.Context, window int) ([]tabs.Group, error)
	OrganizeTab(ctx context.Context, tabID int) (organizer.Report, error)
	CollapseInactive(ctx context.Context) ([]organizer.CollapseResult, error)
}

type windowInput struct {
	Window int `query:"window" default:"0" doc:"Restrict to one window id. Omit for all windows."`
}

// NewServer builds the control API. bridge serves the extension WebSocket
// and may be nil when the daemon runs without a browser.
func NewServer(svc Service, broker *relay.Broker, bridge http.Handler) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("tabkeeper API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/api/v1/events", relay.SSEHandler(broker))
	if bridge != nil {
		router.Handle("/bridge", bridge)
	}

	registerStatusHandlers(api, svc)
	registerTabHandlers(api, svc)
	registerGroupHandlers(api, svc)

	return router
}

func registerStatusHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body controller.Health
	}

	huma.Register(api, huma.Operation{OperationID: "get-health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Host connection and dispatcher status", Tags: []string{"Status"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			h, err := svc.Health(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &healthOutput{Body: h}, nil
		})

	type titleOutput struct {
		Body struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "derive-title", Method: http.MethodGet, Path: "/api/v1/title", Summary: "Derive the group title for a URL", Tags: []string{"Status"}},
		func(ctx context.Context, input *struct {
			URL string `query:"url" doc:"URL to derive a group title from"`
		}) (*titleOutput, error) {
			t, err := svc.DeriveTitle(ctx, input.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &titleOutput{}
			out.Body.URL = input.URL
			out.Body.Title = t
			return out, nil
		})
}

func registerTabHandlers(api huma.API, svc Service) {
	type listTabsOutput struct {
		Body struct {
			Tabs []tabs.Tab `json:"tabs"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List open tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *windowInput) (*listTabsOutput, error) {
			found, err := svc.ListTabs(ctx, input.Window)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTabsOutput{}
			out.Body.Tabs = found
			return out, nil
		})

	type reportOutput struct {
		Body organizer.Report
	}

	huma.Register(api, huma.Operation{OperationID: "organize-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/organize", Summary: "Deduplicate, group and collapse around one tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct {
			TabID int `path:"tab_id"`
		}) (*reportOutput, error) {
			rep, err := svc.OrganizeTab(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &reportOutput{Body: rep}, nil
		})
}

func registerGroupHandlers(api huma.API, svc Service) {
	type listGroupsOutput struct {
		Body struct {
			Groups []tabs.Group `json:"groups"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-groups", Method: http.MethodGet, Path: "/api/v1/groups", Summary: "List tab groups", Tags: []string{"Groups"}},
		func(ctx context.Context, input *windowInput) (*listGroupsOutput, error) {
			found, err := svc.ListGroups(ctx, input.Window)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listGroupsOutput{}
			out.Body.Groups = found
			return out, nil
		})

	type collapseOutput struct {
		Body struct {
			Collapsed []organizer.CollapseResult `json:"collapsed"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "collapse-groups", Method: http.MethodPost, Path: "/api/v1/groups/collapse", Summary: "Collapse every group without an active tab", Tags: []string{"Groups"}},
		func(ctx context.Context, input *struct{}) (*collapseOutput, error) {
			res, err := svc.CollapseInactive(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &collapseOutput{}
			out.Body.Collapsed = res
			return out, nil
		})
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *tabs.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case tabs.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case tabs.CodeNoMatch, tabs.CodeTargetVanished:
			return huma.Error404NotFound(coded.Message)
		case tabs.CodeHostTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case tabs.CodeHostUnavailable, tabs.CodeHostRejected:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
