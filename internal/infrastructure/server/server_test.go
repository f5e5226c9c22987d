package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/socialdesk/core/internal/adapters/kv"
	"github.com/socialdesk/core/internal/adapters/platform"
	"github.com/socialdesk/core/internal/application/persistence"
	"github.com/socialdesk/core/internal/application/services"
	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) *Server {
	t.Helper()
	log := logger.NewNop()
	m := metrics.New()

	adapter := persistence.New(kv.NewMemoryStore(), log, m)
	stores := persistence.Open(context.Background(), adapter, persistence.StoreOptions{Metrics: m})
	t.Cleanup(stores.Close)

	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.Storage.Backend = config.BackendMemory
	cfg.Security.CORSAllowedOrigins = "*"
	cfg.Metrics.Enabled = true
	configure(cfg)

	remote := services.Platform{
		Client: platform.NewSimulatedClient(config.PlatformConfig{SuccessRate: 1}, log),
	}
	return New(cfg, Services{
		Tasks:    services.NewTaskService(stores.Tasks, log, m),
		Posts:    services.NewPostService(stores.Posts, stores.Channels, remote, log, m),
		Channels: services.NewChannelService(stores.Channels, remote, log),
		Pages:    services.NewBioLinkService(stores.Pages, log),
	}, adapter, m, log)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		if rec := do(t, s, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestTaskRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/tasks", map[string]string{"title": "Plan launch"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	task := decode[entities.Task](t, rec)
	if task.Status != entities.TaskStatusUnassigned {
		t.Fatalf("status = %q", task.Status)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/tasks", map[string]string{"description": "no title"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing title = %d", rec.Code)
	}
	if e := decode[ports.ErrorResponse](t, rec); e.Code != "required" {
		t.Errorf("error code = %q", e.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/tasks/"+task.ID+"/transition", map[string]string{"status": "in-progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("transition = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/tasks?status=in-progress", nil)
	if got := decode[ports.ListResponse[entities.Task]](t, rec); got.Total != 1 {
		t.Errorf("in-progress total = %d", got.Total)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/tasks/"+task.ID, `{"priority":"high"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown patch field = %d", rec.Code)
	}

	if rec = do(t, s, http.MethodDelete, "/api/v1/tasks/"+task.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec = do(t, s, http.MethodDelete, "/api/v1/tasks/"+task.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", rec.Code)
	}
}

func TestPostWorkflowRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/channels", map[string]string{"name": "Brand Page", "platform": "facebook"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("connect = %d: %s", rec.Code, rec.Body.String())
	}
	channel := decode[entities.Channel](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/posts", map[string]string{"content": "Spring sale"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post = %d: %s", rec.Code, rec.Body.String())
	}
	post := decode[entities.Post](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/schedule", map[string]string{"preset": "tomorrow"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("schedule without channels = %d", rec.Code)
	}
	if e := decode[ports.ErrorResponse](t, rec); e.Code != string(entities.CodeChannelRequired) {
		t.Errorf("error code = %q", e.Code)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/posts/"+post.ID, map[string][]string{"channelIds": {channel.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/schedule", map[string]string{"at": "2001-01-01T10:00:00Z"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("past schedule = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/schedule", map[string]string{"preset": "nextWeek"})
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[entities.Post](t, rec); got.Status != entities.PostStatusScheduled || got.ScheduledFor == nil {
		t.Fatalf("scheduled post = %+v", got)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/transition", map[string]string{"status": "sent"})
	if rec.Code != http.StatusConflict {
		t.Errorf("direct sent = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/sent", map[string]interface{}{
		"platformIds": map[string]string{channel.ID: "remote-1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark sent = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/v1/posts/"+post.ID+"/failed", map[string]string{"reason": "late"})
	if rec.Code != http.StatusConflict {
		t.Errorf("fail after sent = %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/channels/"+channel.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete channel = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/channels/"+channel.ID+"/label", nil)
	if got := decode[map[string]string](t, rec); got["label"] != services.UnknownChannelLabel {
		t.Errorf("label = %q", got["label"])
	}
}

func TestPageRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/pages/slug/"+persistence.DefaultPageSlug, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("default page = %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[entities.BioLinkPage](t, rec)

	for _, title := range []string{"Shop", "Blog", "Newsletter"} {
		rec = do(t, s, http.MethodPost, "/api/v1/pages/"+page.ID+"/links", map[string]string{"title": title, "url": "example.com/" + strings.ToLower(title)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add link = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec = do(t, s, http.MethodPost, "/api/v1/pages/"+page.ID+"/links/reorder", map[string]int{"from": 2, "to": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder = %d: %s", rec.Code, rec.Body.String())
	}
	page = decode[entities.BioLinkPage](t, rec)
	if page.Links[0].Title != "Newsletter" || page.Links[0].Order != 0 {
		t.Fatalf("links after reorder = %+v", page.Links)
	}
	if page.Links[1].URL != "https://example.com/shop" {
		t.Errorf("url not normalized: %q", page.Links[1].URL)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/pages/"+page.ID+"/links/reorder", map[string]int{"from": 0, "to": 5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range reorder = %d", rec.Code)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/pages/"+page.ID+"/links/"+page.Links[0].ID, map[string]bool{"enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable link = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodGet, "/api/v1/pages/"+page.ID+"/links?visible=true", nil)
	if got := decode[ports.ListResponse[entities.BioLink]](t, rec); got.Total != 2 {
		t.Errorf("visible links = %d", got.Total)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/pages", map[string]string{"title": "Other", "slug": persistence.DefaultPageSlug})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate slug = %d", rec.Code)
	}
}

func TestScheduleResolve(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/schedule/resolve", map[string]string{"preset": "tomorrow"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[map[string]string](t, rec)
	if when, err := time.Parse(time.RFC3339Nano, got["scheduledFor"]); err != nil || when.Location() != time.UTC || !strings.HasSuffix(got["scheduledFor"], "Z") {
		t.Errorf("scheduledFor = %q, want a UTC timestamp", got["scheduledFor"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/schedule/resolve", map[string]string{"preset": "someday"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown preset = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/api/v1/tasks", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("http_requests_total missing from /metrics")
	}
}

func TestChannelStatsRefresh(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/channels", map[string]string{"name": "Company Facebook Page", "platform": "facebook"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("connect = %d: %s", rec.Code, rec.Body.String())
	}
	ch := decode[entities.Channel](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/channels/"+ch.ID+"/stats/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[entities.Channel](t, rec); got.Stats == nil || got.Stats.Followers < 1000 {
		t.Fatalf("stats = %+v", got.Stats)
	}

	if rec = do(t, s, http.MethodPost, "/api/v1/channels/"+ch.ID+"/disconnect", nil); rec.Code != http.StatusOK {
		t.Fatalf("disconnect = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPost, "/api/v1/channels/"+ch.ID+"/stats/refresh", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("refresh disconnected = %d", rec.Code)
	}
	if e := decode[ports.ErrorResponse](t, rec); e.Code != "disconnected" {
		t.Errorf("error code = %q", e.Code)
	}

	if rec = do(t, s, http.MethodPost, "/api/v1/channels/missing/stats/refresh", nil); rec.Code != http.StatusNotFound {
		t.Errorf("refresh missing = %d", rec.Code)
	}
}

func TestHSTSOnlyInProduction(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("development HSTS = %q", got)
	}

	prod := newTestServerWith(t, func(cfg *config.Config) { cfg.App.Environment = "production" })
	rec = httptest.NewRecorder()
	prod.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=31536000") {
		t.Errorf("production HSTS = %q", got)
	}
}
