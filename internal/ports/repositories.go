package ports

import (
	"context"

	"github.com/socialdesk/core/internal/domain/entities"
)

// Repository defines the entity store contract shared by every collection.
// Reads return defensive copies.
type Repository[T any] interface {
	Create(ctx context.Context, record T) (T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, id string, mutate entities.Mutator[T]) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]T, error)
	Filter(ctx context.Context, keep func(*T) bool) ([]T, error)
	Replace(ctx context.Context, records []T) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository = Repository[entities.Task]

// PostRepository defines the interface for post data operations
type PostRepository = Repository[entities.Post]

// ChannelRepository defines the interface for channel data operations
type ChannelRepository = Repository[entities.Channel]

// BioLinkRepository defines the interface for bio-link page data operations
type BioLinkRepository = Repository[entities.BioLinkPage]

// KVStore is the durable flat key -> string store collections are
// persisted to. Get reports a missing key with ok=false and a nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Collection keys in the durable store.
const (
	KeyTasks    = "socialdesk:tasks"
	KeyPosts    = "socialdesk:posts"
	KeyChannels = "socialdesk:channels"
	KeyBioLinks = "socialdesk:biolinks"
)
