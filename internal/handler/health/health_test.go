package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/memorama/internal/handler/health"
)

func ok(context.Context) error { return nil }

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "no checks",
			checks:     map[string]health.Checker{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{},
		},
		{
			name: "all healthy",
			checks: map[string]health.Checker{
				"games": health.CheckerFunc(ok),
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"games": "ok"},
		},
		{
			name: "games closed",
			checks: map[string]health.Checker{
				"games": health.CheckerFunc(func(context.Context) error { return errors.New("registry closed") }),
				"clock": health.CheckerFunc(ok),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"games": "error", "clock": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body health.Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}

			if len(body) != len(tt.wantBody) {
				t.Errorf("got %d results, want %d", len(body), len(tt.wantBody))
			}
			for name, want := range tt.wantBody {
				if got := body[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHandlerReportsError(t *testing.T) {
	h := health.NewHandler(slog.Default(), map[string]health.Checker{
		"games": health.CheckerFunc(func(context.Context) error { return errors.New("registry closed") }),
	})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body health.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := body["games"].Error; got != "registry closed" {
		t.Errorf("error = %q, want %q", got, "registry closed")
	}
}
