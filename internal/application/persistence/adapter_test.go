package persistence

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/socialdesk/core/internal/adapters/kv"
	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

type failingKV struct{}

var errBackend = errors.New("backend down")

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errBackend }
func (failingKV) Set(context.Context, string, string) error         { return errBackend }
func (failingKV) Delete(context.Context, string) error              { return errBackend }
func (failingKV) Ping(context.Context) error                        { return errBackend }
func (failingKV) Close() error                                      { return nil }

func newAdapter(store ports.KVStore) *Adapter {
	return New(store, logger.NewNop(), metrics.New())
}

func TestTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(kv.NewMemoryStore())

	due := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC)
	assignee := "sam"
	tasks := []entities.Task{
		{
			ID: "1", Title: "Plan launch", Status: entities.TaskStatusTodo,
			Assignee: &assignee, DueDate: &due, Tags: []string{"launch", "q2"},
			CreatedAt: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC), UpdatedAt: &updated,
		},
		{
			ID: "2", Title: "Empty tags", Status: entities.TaskStatusDone, Tags: []string{},
			CreatedAt: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "3", Title: "Nil tags", Status: entities.TaskStatusUnassigned,
			CreatedAt: time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC),
		},
	}

	a.Save(ctx, ports.KeyTasks, tasks)
	got := Load(ctx, a, ports.KeyTasks, []entities.Task{})
	if !reflect.DeepEqual(got, tasks) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tasks)
	}
}

func TestPostRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(kv.NewMemoryStore())

	when := time.Date(2025, time.March, 17, 14, 30, 0, 0, time.UTC)
	at := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	posts := []entities.Post{{
		ID: "p1", Content: "Hello", Media: []string{"a.png"}, ChannelIDs: []string{"c1"},
		ScheduledFor: &when, Status: entities.PostStatusScheduled, Author: "me",
		Tags: []string{"x"}, CreatedAt: at, UpdatedAt: at,
	}}

	a.Save(ctx, ports.KeyPosts, posts)
	if got := Load(ctx, a, ports.KeyPosts, []entities.Post{}); !reflect.DeepEqual(got, posts) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, posts)
	}
}

func TestSentPostRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(kv.NewMemoryStore())

	when := time.Date(2025, time.March, 17, 14, 30, 0, 0, time.UTC)
	at := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	reason := "FB: channel disconnected"
	posts := []entities.Post{
		{
			ID: "p1", Content: "Launch day", Media: []string{"/assets/launch.mp4"}, ChannelIDs: []string{"c1", "c2"},
			ScheduledFor: &when, Status: entities.PostStatusSent, Author: "me", Tags: []string{},
			PlatformIDs: map[string]string{"c1": "fb-123", "c2": "ig-456"},
			CreatedAt:   at, UpdatedAt: when,
		},
		{
			ID: "p2", Content: "Retry me", Media: []string{}, ChannelIDs: []string{"c1"},
			ScheduledFor: &when, Status: entities.PostStatusFailed, Tags: []string{"promo"},
			FailureReason: &reason, CreatedAt: at, UpdatedAt: when,
		},
	}

	a.Save(ctx, ports.KeyPosts, posts)
	if got := Load(ctx, a, ports.KeyPosts, []entities.Post{}); !reflect.DeepEqual(got, posts) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, posts)
	}
}

func TestChannelRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(kv.NewMemoryStore())

	avatar := "https://cdn.example/avatar.png"
	bio := "https://example.com/me"
	channels := []entities.Channel{
		{
			ID: "c1", Name: "Company Instagram", Platform: entities.PlatformInstagram, Connected: true,
			Avatar: &avatar, BioLink: &bio, Stats: &entities.ChannelStats{Followers: 12000, Engagement: 4.25},
		},
		{ID: "c2", Name: "Old Twitter", Platform: entities.PlatformTwitter},
	}

	a.Save(ctx, ports.KeyChannels, channels)
	if got := Load(ctx, a, ports.KeyChannels, []entities.Channel{}); !reflect.DeepEqual(got, channels) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, channels)
	}
}

func TestBioLinkPageRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(kv.NewMemoryStore())

	description := "Everything we ship"
	color := "#ff5500"
	icon := "shop"
	at := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	pages := []entities.BioLinkPage{{
		ID: "page-1", Title: "Links", Description: &description, Slug: "links",
		Theme: entities.ThemeDark, PrimaryColor: &color, UserID: "user-1",
		Links: []entities.BioLink{
			{ID: "l1", Title: "Shop", URL: "https://shop.example", Enabled: true, Order: 0, Icon: &icon},
			{ID: "l2", Title: "Hidden", URL: "https://old.example", Enabled: false, Order: 1},
		},
		CreatedAt: at, UpdatedAt: at.Add(time.Hour),
	}}

	a.Save(ctx, ports.KeyBioLinks, pages)
	if got := Load(ctx, a, ports.KeyBioLinks, []entities.BioLinkPage{}); !reflect.DeepEqual(got, pages) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, pages)
	}
}

func TestLoadDefaults(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := newAdapter(store)
	def := []entities.Task{{ID: "default"}}

	if got := Load(ctx, a, ports.KeyTasks, def); !reflect.DeepEqual(got, def) {
		t.Fatalf("missing key: got %+v", got)
	}

	_ = store.Set(ctx, ports.KeyTasks, "{not json")
	if got := Load(ctx, a, ports.KeyTasks, def); !reflect.DeepEqual(got, def) {
		t.Fatalf("corrupt value: got %+v", got)
	}
}

func TestFailingBackendIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	a := New(failingKV{}, logger.NewNop(), m)

	a.Save(ctx, ports.KeyTasks, []entities.Task{{ID: "1"}})
	got := Load(ctx, a, ports.KeyTasks, []entities.Task{})
	if len(got) != 0 {
		t.Fatalf("Load() = %+v, want default", got)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var failures float64
	for _, f := range families {
		if f.GetName() != "persistence_failures_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			failures += metric.GetCounter().GetValue()
		}
	}
	if failures != 2 {
		t.Fatalf("counted %v failures, want 2", failures)
	}
}

func TestLoadSnapshotSeedsDefaultPage(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := newAdapter(store)
	now := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

	snap := a.LoadSnapshot(ctx, now)
	if len(snap.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(snap.Pages))
	}
	page := snap.Pages[0]
	if page.Title != DefaultPageTitle || page.Slug != DefaultPageSlug || page.Theme != entities.ThemeLight ||
		page.UserID != DefaultUserID || page.Description == nil || *page.Description != DefaultPageDescription {
		t.Fatalf("unexpected default page %+v", page)
	}
	if len(page.Links) != 0 || page.Links == nil {
		t.Fatalf("default page links = %#v", page.Links)
	}

	if _, ok, _ := store.Get(ctx, ports.KeyBioLinks); !ok {
		t.Fatal("default page was not persisted")
	}
	again := a.LoadSnapshot(ctx, now.Add(time.Hour))
	if len(again.Pages) != 1 || again.Pages[0].ID != page.ID {
		t.Fatalf("second load reseeded: %+v", again.Pages)
	}
}

func TestSanitize(t *testing.T) {
	tasks := SanitizeTasks([]entities.Task{{Status: "archived"}, {Status: entities.TaskStatusDone}})
	if tasks[0].Status != entities.TaskStatusUnassigned || tasks[1].Status != entities.TaskStatusDone {
		t.Fatalf("tasks = %+v", tasks)
	}

	posts := SanitizePosts([]entities.Post{{Status: "bogus"}, {Status: entities.PostStatusScheduled}})
	if posts[0].Status != entities.PostStatusDraft || posts[1].Status != entities.PostStatusDraft {
		t.Fatalf("posts = %+v", posts)
	}

	pages := SanitizePages([]entities.BioLinkPage{{
		Theme: "neon",
		Links: []entities.BioLink{{ID: "b", Order: 7}, {ID: "a", Order: 2}},
	}})
	if pages[0].Theme != entities.ThemeLight {
		t.Fatalf("theme = %q", pages[0].Theme)
	}
	links := pages[0].Links
	if links[0].ID != "a" || links[0].Order != 0 || links[1].ID != "b" || links[1].Order != 1 {
		t.Fatalf("links = %+v", links)
	}
}

func TestOpenFlushesMutations(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := newAdapter(store)

	stores := Open(ctx, a, StoreOptions{})
	created, err := stores.Tasks.Create(ctx, entities.Task{Title: "persist me", Status: entities.TaskStatusTodo})
	if err != nil {
		t.Fatal(err)
	}
	stores.Close()

	reopened := Open(ctx, a, StoreOptions{})
	defer reopened.Close()
	got, err := reopened.Tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("task not reloaded: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Fatalf("reloaded task differs:\n got %+v\nwant %+v", got, created)
	}

	snap, err := reopened.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Pages) != 1 || len(snap.Tasks) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestDemoSnapshotIsConsistent(t *testing.T) {
	snap := DemoSnapshot(time.Now())

	if len(snap.Tasks) != 4 || len(snap.Channels) != 3 || len(snap.Posts) != 2 || len(snap.Pages) != 1 {
		t.Fatalf("unexpected sizes: %d tasks, %d channels, %d posts, %d pages",
			len(snap.Tasks), len(snap.Channels), len(snap.Posts), len(snap.Pages))
	}
	for i := range snap.Tasks {
		if err := snap.Tasks[i].Validate(); err != nil {
			t.Errorf("task %q: %v", snap.Tasks[i].Title, err)
		}
	}
	for i := range snap.Channels {
		if err := snap.Channels[i].Validate(); err != nil {
			t.Errorf("channel %q: %v", snap.Channels[i].Name, err)
		}
	}
	for i := range snap.Posts {
		if err := snap.Posts[i].Validate(); err != nil {
			t.Errorf("post %d: %v", i, err)
		}
	}
	if !reflect.DeepEqual(SanitizePosts(snap.Posts), snap.Posts) {
		t.Error("demo posts changed by sanitizer")
	}
	if snap.Channels[2].Connected {
		t.Error("third demo channel should be disconnected")
	}
}
