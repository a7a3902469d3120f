package handlers

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/errors"
)

func TestNewSSEHandlers(t *testing.T) {
	renderer := createTestRenderer(&stubCache{})
	logger := testLogger()

	handlers := NewSSEHandlers(renderer, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.dashboard != renderer {
		t.Error("NewSSEHandlers() should set dashboard field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	handlers := NewSSEHandlers(createTestRenderer(&stubCache{}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected event stream content type, got %q", ct)
	}

	body := w.Body.String()
	expectedContent := []string{
		"event: datastar-patch-signals",
		`"total":"2.26K"`,
		"event: datastar-patch-elements",
		`id="status"`,
		`id="charts"`,
		`id="insights"`,
		`<table class="modern-table">`,
		"Showing 2 of 3 orders",
		"Laptop",
		"/charts/product.svg",
	}
	for _, content := range expectedContent {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE body to contain %q", content)
		}
	}
}

func TestSSEHandlers_HandleDashboard_Signals(t *testing.T) {
	renderer := createTestRenderer(&stubCache{})
	handlers := NewSSEHandlers(renderer, testLogger())

	signals := `{"start":"2024-02-01","end":"","regions":["Ontario"],"products":[]}`
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+url.QueryEscape(signals), nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	if got := renderer.last.Regions; len(got) != 1 || got[0] != "Ontario" {
		t.Errorf("expected Ontario selection, got %v", got)
	}
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !renderer.last.Start.Equal(want) {
		t.Errorf("expected start %v, got %v", want, renderer.last.Start)
	}

	body := w.Body.String()
	if strings.Contains(body, "availableRegions") || strings.Contains(body, "availableProducts") {
		t.Error("filter options should not be pushed as signals")
	}
	if !strings.Contains(body, "region=Ontario") {
		t.Error("expected chart urls to carry the selection")
	}
	if !strings.Contains(body, "Showing 1 of 1 orders") {
		t.Error("expected detail table of the filtered records")
	}
}

func TestSSEHandlers_HandleDashboard_NoMatches(t *testing.T) {
	handlers := NewSSEHandlers(createTestRenderer(&stubCache{}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?product=Keyboard", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	body := w.Body.String()
	for _, content := range []string{
		"No orders match the selected filters",
		`<p class="empty">no data</p>`,
		"Showing 0 of 0 orders",
	} {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE body to contain %q", content)
		}
	}
	if strings.Contains(body, "<img") {
		t.Error("empty panels should not link a chart")
	}
}

func TestSSEHandlers_HandleDashboard_InvalidSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestRenderer(&stubCache{}), testLogger())

	tests := []struct {
		name  string
		query string
	}{
		{"malformed json", "?datastar=" + url.QueryEscape(`{"start":`)},
		{"bad date", "?datastar=" + url.QueryEscape(`{"start":"01/02/2024"}`)},
		{"bad query date", "?end=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/dashboard"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.HandleDashboard(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json error, got %q", ct)
			}
		})
	}
}

func TestSSEHandlers_HandleDashboard_DataSourceUnavailable(t *testing.T) {
	cause := stderrors.New("login failed")
	handlers := NewSSEHandlers(createTestRenderer(&stubCache{err: errors.DataSourceUnavailable(cause)}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `class="status error"`) {
		t.Error("expected the status line to be replaced with an error")
	}
	if !strings.Contains(body, "Sales data is temporarily unavailable") {
		t.Error("expected a data source message")
	}
	if strings.Contains(body, `id="charts"`) || strings.Contains(body, "datastar-patch-signals") {
		t.Error("a failed render must not patch a partial dashboard")
	}
}

func TestSSEHandlers_HandleRefresh(t *testing.T) {
	cache := &stubCache{}
	renderer := createTestRenderer(cache)
	handlers := NewSSEHandlers(renderer, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefresh(w, req)

	if !renderer.refreshed {
		t.Error("expected refresh to go through Refresh")
	}
	if cache.invalidated != 1 {
		t.Errorf("expected cache to be invalidated once, got %d", cache.invalidated)
	}
	if !strings.Contains(w.Body.String(), `id="insights"`) {
		t.Error("expected insights fragment after refresh")
	}
}
