package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

var (
	_ ports.PlatformClient = (*SimulatedClient)(nil)
	_ ports.PlatformClient = (*HTTPClient)(nil)
)

var creds = ports.ChannelCredentials{ChannelID: "page-1", Platform: entities.PlatformFacebook, AccessToken: "tok"}

func TestSimulatedClientOutcomes(t *testing.T) {
	ctx := context.Background()

	ok := NewSimulatedClient(config.PlatformConfig{SuccessRate: 1}, logger.NewNop())
	id, err := ok.SchedulePost(ctx, ports.PublishRequest{Channel: creds, Message: "hi"})
	if err != nil || id == "" {
		t.Fatalf("SchedulePost() = %q, %v", id, err)
	}

	failing := NewSimulatedClient(config.PlatformConfig{SuccessRate: 0}, logger.NewNop())
	_, err = failing.SchedulePost(ctx, ports.PublishRequest{Channel: creds})
	var perr *ports.PlatformError
	if !errors.As(err, &perr) || !perr.Retryable || perr.Op != opSchedulePost {
		t.Fatalf("SchedulePost() error = %v", err)
	}
}

func TestSimulatedClientHonorsContext(t *testing.T) {
	c := NewSimulatedClient(config.PlatformConfig{SuccessRate: 1, Latency: time.Second}, logger.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := c.ScheduleReel(ctx, ports.ReelRequest{Channel: creds}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ScheduleReel() error = %v", err)
	}
}

func TestHTTPClientSchedulePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fb/schedule-post" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("page_id") != "page-1" || r.FormValue("page_access_token") != "tok" ||
			r.FormValue("message") != "hello" || r.FormValue("scheduled_time") != "1742221800" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad form"})
			return
		}
		if _, hdr, err := r.FormFile("file"); err != nil || hdr.Filename != "img.png" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "missing file"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"post_id": "fb-123"})
	}))
	defer srv.Close()

	c := NewHTTPClient(config.PlatformConfig{BaseURL: srv.URL + "/fb", Timeout: time.Second}, logger.NewNop())
	when := time.Date(2025, time.March, 17, 14, 30, 0, 0, time.UTC)
	id, err := c.SchedulePost(context.Background(), ports.PublishRequest{
		Channel:       creds,
		Message:       "hello",
		ScheduledTime: &when,
		Media:         &ports.MediaUpload{Filename: "img.png", Content: []byte("\x89PNG\r\n\x1a\n")},
	})
	if err != nil || id != "fb-123" {
		t.Fatalf("SchedulePost() = %q, %v", id, err)
	}
}

func TestHTTPClientReelAndInsights(t *testing.T) {
	video := []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2mp41")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedule-reel":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			_, hdr, err := r.FormFile("file")
			if err != nil || hdr.Filename != "clip.mp4" || hdr.Header.Get("Content-Type") != "video/mp4" ||
				r.FormValue("description") != "launch" || r.FormValue("page_id") != "page-1" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "bad reel"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"reel_id": "reel-9"})
		case "/insights":
			if r.URL.Query().Get("page_id") != "page-1" || r.URL.Query().Get("access_token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "bad token"})
				return
			}
			json.NewEncoder(w).Encode(ports.Insights{Followers: 4200, Engagement: 3.5})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(config.PlatformConfig{BaseURL: srv.URL, Timeout: time.Second}, logger.NewNop())
	ctx := context.Background()

	id, err := c.ScheduleReel(ctx, ports.ReelRequest{
		Channel:     creds,
		Description: "launch",
		Video:       ports.MediaUpload{Filename: "clip.mp4", Content: video},
	})
	if err != nil || id != "reel-9" {
		t.Fatalf("ScheduleReel() = %q, %v", id, err)
	}

	insights, err := c.FetchInsights(ctx, creds)
	if err != nil || insights.Followers != 4200 || insights.Engagement != 3.5 {
		t.Fatalf("FetchInsights() = %+v, %v", insights, err)
	}
}

func TestHTTPClientErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
	}))
	defer srv.Close()

	c := NewHTTPClient(config.PlatformConfig{BaseURL: srv.URL, Timeout: time.Second}, logger.NewNop())

	_, err := c.ScheduleReel(context.Background(), ports.ReelRequest{Channel: creds, Video: ports.MediaUpload{Filename: "a.mp4"}})
	var perr *ports.PlatformError
	if !errors.As(err, &perr) || !perr.Retryable || perr.Message != "nope" {
		t.Fatalf("503 error = %v", err)
	}

	status.Store(http.StatusBadRequest)
	err = c.DeletePost(context.Background(), creds, "fb-1")
	if !errors.As(err, &perr) || perr.Retryable {
		t.Fatalf("400 error = %v", err)
	}
}

func TestNewSelectsMode(t *testing.T) {
	if _, ok := New(config.PlatformConfig{Mode: "http", BaseURL: "example.com"}, logger.NewNop()).(*HTTPClient); !ok {
		t.Fatal("http mode did not build HTTPClient")
	}
	if _, ok := New(config.PlatformConfig{Mode: "simulated"}, logger.NewNop()).(*SimulatedClient); !ok {
		t.Fatal("simulated mode did not build SimulatedClient")
	}
}
