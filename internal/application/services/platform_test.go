package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/socialdesk/core/internal/adapters/memstore"
	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

func TestRefreshStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "Company Instagram", Platform: entities.PlatformInstagram})

	f.remote.insights = ports.Insights{Followers: 1200, Engagement: 4.5}
	got, err := f.channels.RefreshStats(ctx, ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stats == nil || got.Stats.Followers != 1200 || got.Stats.Engagement != 4.5 {
		t.Fatalf("stats = %+v", got.Stats)
	}
	stored, _ := f.channels.GetChannel(ctx, ch.ID)
	if stored.Stats == nil || stored.Stats.Followers != 1200 {
		t.Fatalf("stored stats = %+v", stored.Stats)
	}
}

func TestRefreshStatsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{
		Name:     "Company Facebook Page",
		Platform: entities.PlatformFacebook,
		Stats:    &entities.ChannelStats{Followers: 10, Engagement: 1},
	})

	f.remote.insightsErr = &ports.PlatformError{Platform: entities.PlatformFacebook, Op: "fetch-insights", Message: "rate limited", Retryable: true}
	if _, err := f.channels.RefreshStats(ctx, ch.ID); !errors.As(err, new(*ports.PlatformError)) {
		t.Fatalf("platform failure error = %v", err)
	}
	stored, _ := f.channels.GetChannel(ctx, ch.ID)
	if stored.Stats.Followers != 10 {
		t.Fatalf("stats changed after failed refresh: %+v", stored.Stats)
	}

	f.channels.Disconnect(ctx, ch.ID)
	calls := f.remote.calls
	if _, err := f.channels.RefreshStats(ctx, ch.ID); !errors.Is(err, entities.ErrDisconnected) {
		t.Fatalf("disconnected error = %v", err)
	}
	if f.remote.calls != calls {
		t.Fatal("platform called for a disconnected channel")
	}

	if _, err := f.channels.RefreshStats(ctx, "missing"); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("missing error = %v", err)
	}
}

func TestRefreshStatsWithoutPlatform(t *testing.T) {
	ctx := context.Background()
	store := memstore.New[entities.Channel](memstore.Options[entities.Channel]{Name: "channels", Metrics: metrics.New()})
	t.Cleanup(store.Close)
	channels := NewChannelService(store, Platform{}, logger.NewNop())

	ch, _ := channels.Connect(ctx, ports.ConnectChannelRequest{Name: "X", Platform: entities.PlatformTwitter})
	if _, err := channels.RefreshStats(ctx, ch.ID); !errors.Is(err, ports.ErrNoPlatform) {
		t.Fatalf("error = %v", err)
	}
}

func TestDeleteSentPostWithdrawsRemoteCopies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "FB", Platform: entities.PlatformFacebook})
	post := scheduleDue(t, f, ch.ID)
	if sent, _ := newDispatcher(f, f.remote, 1).DispatchDue(ctx); sent != 1 {
		t.Fatalf("sent = %d", sent)
	}

	f.remote.deleteErr = errors.New("connection reset")
	if _, err := f.posts.DeletePost(ctx, post.ID); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if _, err := f.posts.GetPost(ctx, post.ID); err != nil {
		t.Fatalf("post removed after failed withdrawal: %v", err)
	}

	f.remote.deleteErr = nil
	ok, err := f.posts.DeletePost(ctx, post.ID)
	if err != nil || !ok {
		t.Fatalf("DeletePost() = %v, %v", ok, err)
	}
	if len(f.remote.deleted) != 1 || f.remote.deleted[0] != "remote-"+ch.ID {
		t.Fatalf("deleted = %v", f.remote.deleted)
	}
	if _, err := f.posts.GetPost(ctx, post.ID); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("GetPost() error = %v", err)
	}
}

func TestDeleteUnsentPostStaysLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post, _ := f.posts.CreatePost(ctx, ports.CreatePostRequest{Content: "Draft"})

	ok, err := f.posts.DeletePost(ctx, post.ID)
	if err != nil || !ok {
		t.Fatalf("DeletePost() = %v, %v", ok, err)
	}
	if f.remote.calls != 0 {
		t.Fatalf("platform calls = %d", f.remote.calls)
	}
	ok, err = f.posts.DeletePost(ctx, post.ID)
	if err != nil || ok {
		t.Fatalf("second DeletePost() = %v, %v", ok, err)
	}
}

func writeMedia(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mp4Header = []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2mp41")
)

func TestDispatcherAttachesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeMedia(t, dir, "images/launch.png", pngHeader)

	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "FB", Platform: entities.PlatformFacebook})
	scheduleDueWithMedia(t, f, []string{"/images/launch.png", "https://cdn.example/teaser.jpg"}, ch.ID)

	if sent, _ := newDispatcherWithMedia(f, f.remote, 1, dir).DispatchDue(ctx); sent != 1 {
		t.Fatalf("sent = %d", sent)
	}
	if len(f.remote.published) != 1 {
		t.Fatalf("published = %d", len(f.remote.published))
	}
	req := f.remote.published[0]
	if req.Media == nil || req.Media.Filename != "launch.png" || !bytes.Equal(req.Media.Content, pngHeader) {
		t.Fatalf("media = %+v", req.Media)
	}
	if req.Message != "Hi\nhttps://cdn.example/teaser.jpg" {
		t.Fatalf("message = %q", req.Message)
	}
	if req.Channel.AccessToken != "token" {
		t.Fatalf("credentials = %+v", req.Channel)
	}
}

func TestDispatcherSendsVideoAsReel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := t.TempDir()
	writeMedia(t, dir, "clip.mp4", mp4Header)

	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "IG", Platform: entities.PlatformInstagram})
	post := scheduleDueWithMedia(t, f, []string{"clip.mp4"}, ch.ID)

	if sent, _ := newDispatcherWithMedia(f, f.remote, 1, dir).DispatchDue(ctx); sent != 1 {
		t.Fatalf("sent = %d", sent)
	}
	if len(f.remote.reels) != 1 || len(f.remote.published) != 0 {
		t.Fatalf("reels = %d published = %d", len(f.remote.reels), len(f.remote.published))
	}
	if reel := f.remote.reels[0]; reel.Description != "Hi" || reel.Video.Filename != "clip.mp4" {
		t.Fatalf("reel = %+v", reel)
	}
	got, _ := f.posts.GetPost(ctx, post.ID)
	if got.PlatformIDs[ch.ID] != "reel-"+ch.ID {
		t.Fatalf("platform ids = %v", got.PlatformIDs)
	}
}

func TestDispatcherFailsUnreadableMedia(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "FB", Platform: entities.PlatformFacebook})
	post := scheduleDueWithMedia(t, f, []string{"../../etc/missing.png"}, ch.ID)

	if _, failed := newDispatcherWithMedia(f, f.remote, 1, t.TempDir()).DispatchDue(ctx); failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
	if f.remote.calls != 0 {
		t.Fatalf("platform calls = %d", f.remote.calls)
	}
	got, _ := f.posts.GetPost(ctx, post.ID)
	if got.Status != entities.PostStatusFailed || got.FailureReason == nil || !strings.Contains(*got.FailureReason, "missing.png") {
		t.Fatalf("post = %+v", got)
	}
}

func TestDispatcherWithoutPlatformFailsPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch, _ := f.channels.Connect(ctx, ports.ConnectChannelRequest{Name: "FB", Platform: entities.PlatformFacebook})
	post := scheduleDue(t, f, ch.ID)

	if _, failed := newDispatcher(f, nil, 1).DispatchDue(ctx); failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
	got, _ := f.posts.GetPost(ctx, post.ID)
	if got.FailureReason == nil || *got.FailureReason != ports.ErrNoPlatform.Error() {
		t.Fatalf("post = %+v", got)
	}
}
