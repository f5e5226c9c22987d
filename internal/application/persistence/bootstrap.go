package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/socialdesk/core/internal/adapters/memstore"
	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/ordering"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

// Default page attributes used when no bio-link page exists.
const (
	DefaultPageTitle       = "My Links"
	DefaultPageDescription = "Check out my social media and content"
	DefaultPageSlug        = "my-links"
	DefaultUserID          = "default-user"
)

// DefaultPage builds the page seeded into an empty bio-link collection.
func DefaultPage(now time.Time) entities.BioLinkPage {
	description := DefaultPageDescription
	return entities.BioLinkPage{
		ID:          uuid.New().String(),
		Title:       DefaultPageTitle,
		Description: &description,
		Links:       []entities.BioLink{},
		Slug:        DefaultPageSlug,
		Theme:       entities.ThemeLight,
		UserID:      DefaultUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Tasks    []entities.Task        `json:"tasks" yaml:"tasks"`
	Posts    []entities.Post        `json:"posts" yaml:"posts"`
	Channels []entities.Channel     `json:"channels" yaml:"channels"`
	Pages    []entities.BioLinkPage `json:"pages" yaml:"pages"`
}

// LoadSnapshot reads every collection, repairing fields that would break
// invariants. An empty page collection is seeded with DefaultPage and
// written back.
func (a *Adapter) LoadSnapshot(ctx context.Context, now time.Time) Snapshot {
	snap := Snapshot{
		Tasks:    SanitizeTasks(Load(ctx, a, ports.KeyTasks, []entities.Task{})),
		Posts:    SanitizePosts(Load(ctx, a, ports.KeyPosts, []entities.Post{})),
		Channels: Load(ctx, a, ports.KeyChannels, []entities.Channel{}),
		Pages:    SanitizePages(Load(ctx, a, ports.KeyBioLinks, []entities.BioLinkPage{})),
	}

	if len(snap.Pages) == 0 {
		snap.Pages = []entities.BioLinkPage{DefaultPage(now)}
		a.Save(ctx, ports.KeyBioLinks, snap.Pages)
		a.logger.Infow("Seeded default bio-link page", "slug", DefaultPageSlug)
	}
	return snap
}

// SaveSnapshot writes every collection.
func (a *Adapter) SaveSnapshot(ctx context.Context, snap Snapshot) {
	a.Save(ctx, ports.KeyTasks, snap.Tasks)
	a.Save(ctx, ports.KeyPosts, snap.Posts)
	a.Save(ctx, ports.KeyChannels, snap.Channels)
	a.Save(ctx, ports.KeyBioLinks, snap.Pages)
}

// SanitizeTasks coerces unknown statuses to unassigned.
func SanitizeTasks(tasks []entities.Task) []entities.Task {
	for i := range tasks {
		if !tasks[i].Status.IsValid() {
			tasks[i].Status = entities.TaskStatusUnassigned
		}
	}
	return tasks
}

// SanitizePosts coerces unknown statuses to draft, and demotes scheduled
// posts that lost their time or channels.
func SanitizePosts(posts []entities.Post) []entities.Post {
	for i := range posts {
		p := &posts[i]
		if !p.Status.IsValid() {
			p.Status = entities.PostStatusDraft
		}
		if p.Status == entities.PostStatusScheduled && (p.ScheduledFor == nil || len(p.ChannelIDs) == 0) {
			p.Status = entities.PostStatusDraft
		}
	}
	return posts
}

// SanitizePages restores dense link order and a known theme.
func SanitizePages(pages []entities.BioLinkPage) []entities.BioLinkPage {
	for i := range pages {
		if !pages[i].Theme.IsValid() {
			pages[i].Theme = entities.ThemeLight
		}
		if pages[i].Links == nil || !ordering.IsDense(pages[i].Links) {
			pages[i].Links = ordering.Normalize(pages[i].Links)
		}
	}
	return pages
}

// StoreOptions are shared by every store Open creates.
type StoreOptions struct {
	Latency time.Duration
	Metrics *metrics.Metrics
}

// Stores holds one entity store per collection, each flushing to the
// adapter after every mutation.
type Stores struct {
	Tasks    *memstore.Store[entities.Task, *entities.Task]
	Posts    *memstore.Store[entities.Post, *entities.Post]
	Channels *memstore.Store[entities.Channel, *entities.Channel]
	Pages    *memstore.Store[entities.BioLinkPage, *entities.BioLinkPage]
}

// Open loads persisted state and starts the stores.
func Open(ctx context.Context, a *Adapter, opts StoreOptions) *Stores {
	snap := a.LoadSnapshot(ctx, time.Now().UTC())

	return &Stores{
		Tasks: memstore.New[entities.Task](memstore.Options[entities.Task]{
			Name:     "tasks",
			Latency:  opts.Latency,
			OnChange: SaveOnChange[entities.Task](a, ports.KeyTasks),
			Metrics:  opts.Metrics,
		}, snap.Tasks...),
		Posts: memstore.New[entities.Post](memstore.Options[entities.Post]{
			Name:     "posts",
			Latency:  opts.Latency,
			OnChange: SaveOnChange[entities.Post](a, ports.KeyPosts),
			Metrics:  opts.Metrics,
		}, snap.Posts...),
		Channels: memstore.New[entities.Channel](memstore.Options[entities.Channel]{
			Name:     "channels",
			Latency:  opts.Latency,
			OnChange: SaveOnChange[entities.Channel](a, ports.KeyChannels),
			Metrics:  opts.Metrics,
		}, snap.Channels...),
		Pages: memstore.New[entities.BioLinkPage](memstore.Options[entities.BioLinkPage]{
			Name:     "biolinks",
			Latency:  opts.Latency,
			OnChange: SaveOnChange[entities.BioLinkPage](a, ports.KeyBioLinks),
			Metrics:  opts.Metrics,
		}, snap.Pages...),
	}
}

// Snapshot reads the current state of every store.
func (s *Stores) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Tasks, err = s.Tasks.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Posts, err = s.Posts.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Channels, err = s.Channels.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Pages, err = s.Pages.List(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Close stops every store.
func (s *Stores) Close() {
	s.Tasks.Close()
	s.Posts.Close()
	s.Channels.Close()
	s.Pages.Close()
}
