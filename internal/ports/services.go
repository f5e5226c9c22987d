package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/scheduling"
)

// TaskService interface for task board operations
type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (entities.Task, error)
	GetTask(ctx context.Context, id string) (entities.Task, error)
	UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (entities.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	ListTasks(ctx context.Context) ([]entities.Task, error)
	GetByStatus(ctx context.Context, status entities.TaskStatus) ([]entities.Task, error)
	Transition(ctx context.Context, id string, status entities.TaskStatus) (entities.Task, error)
	Board(ctx context.Context) (map[entities.TaskStatus][]entities.Task, error)
}

// PostService interface for content scheduling operations
type PostService interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (entities.Post, error)
	GetPost(ctx context.Context, id string) (entities.Post, error)
	UpdatePost(ctx context.Context, id string, patch entities.PostPatch) (entities.Post, error)
	DeletePost(ctx context.Context, id string) (bool, error)
	ListPosts(ctx context.Context) ([]entities.Post, error)
	GetByStatus(ctx context.Context, status entities.PostStatus) ([]entities.Post, error)
	Transition(ctx context.Context, id string, status entities.PostStatus) (entities.Post, error)
	SubmitForApproval(ctx context.Context, id string) (entities.Post, error)
	ReturnToDraft(ctx context.Context, id string) (entities.Post, error)
	SchedulePost(ctx context.Context, id string, when time.Time) (entities.Post, error)
	MarkSent(ctx context.Context, id string, platformIDs map[string]string) (entities.Post, error)
	MarkFailed(ctx context.Context, id string, reason string) (entities.Post, error)
	DuePosts(ctx context.Context, now time.Time) ([]entities.Post, error)
}

// ChannelService interface for connected channel operations
type ChannelService interface {
	Connect(ctx context.Context, req ConnectChannelRequest) (entities.Channel, error)
	Disconnect(ctx context.Context, id string) (entities.Channel, error)
	GetChannel(ctx context.Context, id string) (entities.Channel, error)
	ListChannels(ctx context.Context) ([]entities.Channel, error)
	ListConnected(ctx context.Context) ([]entities.Channel, error)
	UpdateChannel(ctx context.Context, id string, patch entities.ChannelPatch) (entities.Channel, error)
	DeleteChannel(ctx context.Context, id string) (bool, error)
	ChannelLabel(ctx context.Context, id string) string
	RefreshStats(ctx context.Context, id string) (entities.Channel, error)
}

// BioLinkService interface for bio-link page operations
type BioLinkService interface {
	CreatePage(ctx context.Context, req CreatePageRequest) (entities.BioLinkPage, error)
	GetPage(ctx context.Context, id string) (entities.BioLinkPage, error)
	GetPageBySlug(ctx context.Context, slug string) (entities.BioLinkPage, error)
	ListPages(ctx context.Context) ([]entities.BioLinkPage, error)
	UpdatePage(ctx context.Context, id string, patch entities.PagePatch) (entities.BioLinkPage, error)
	DeletePage(ctx context.Context, id string) (bool, error)
	AddLink(ctx context.Context, pageID string, req AddLinkRequest) (entities.BioLink, error)
	UpdateLink(ctx context.Context, pageID, linkID string, patch entities.LinkPatch) (entities.BioLink, error)
	RemoveLink(ctx context.Context, pageID, linkID string) (bool, error)
	ReorderLinks(ctx context.Context, pageID string, from, to int) (entities.BioLinkPage, error)
	VisibleLinks(ctx context.Context, pageID string) ([]entities.BioLink, error)
}

// PlatformClient is the remote social platform collaborator. Calls must be
// safe to retry and return within the context deadline.
type PlatformClient interface {
	SchedulePost(ctx context.Context, req PublishRequest) (string, error)
	ScheduleReel(ctx context.Context, req ReelRequest) (string, error)
	FetchInsights(ctx context.Context, creds ChannelCredentials) (*Insights, error)
	DeletePost(ctx context.Context, creds ChannelCredentials, remoteID string) error
}

// Task related types
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required,max=500"`
	Description string              `json:"description" validate:"max=2000"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty,oneof=unassigned todo in-progress done"`
	Assignee    *string             `json:"assignee" validate:"omitempty,max=200"`
	DueDate     *time.Time          `json:"dueDate"`
	Tags        []string            `json:"tags" validate:"omitempty,dive,max=50"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// Post related types
type CreatePostRequest struct {
	Content    string              `json:"content" validate:"required"`
	Media      []string            `json:"media"`
	ChannelIDs []string            `json:"channelIds"`
	Author     string              `json:"author" validate:"max=200"`
	Tags       []string            `json:"tags" validate:"omitempty,dive,max=50"`
	Status     entities.PostStatus `json:"status" validate:"omitempty,oneof=draft pending-approval"`
}

// ScheduleRequest selects a send time either as an absolute instant (At),
// as a preset, or as separate date and time picker values.
type ScheduleRequest struct {
	At     *time.Time `json:"at"`
	Preset string     `json:"preset" validate:"omitempty,oneof=custom tomorrow nextWeek nextMonth"`
	Date   *time.Time `json:"date"`
	Time   *time.Time `json:"time"`
}

// Resolve turns the request into a concrete send time relative to now.
func (r ScheduleRequest) Resolve(now time.Time) (time.Time, error) {
	if r.At != nil {
		return *r.At, nil
	}
	preset, err := scheduling.ParsePreset(r.Preset)
	if err != nil {
		return time.Time{}, err
	}

	sel := scheduling.NewSelection(now)
	if r.Date != nil {
		sel.SetDate(*r.Date)
	}
	if r.Time != nil {
		sel.SetTime(*r.Time)
	}
	if preset != scheduling.PresetCustom {
		sel.ApplyPreset(now, preset)
	} else if r.Date == nil && r.Time == nil {
		return time.Time{}, entities.NewValidationError("scheduledFor", entities.CodeScheduleRequired)
	}
	return sel.Resolve(), nil
}

type MarkSentRequest struct {
	PlatformIDs map[string]string `json:"platformIds"`
}

type MarkFailedRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Channel related types
type ConnectChannelRequest struct {
	Name     string                 `json:"name" validate:"required,max=200"`
	Platform entities.Platform      `json:"platform" validate:"required,oneof=facebook instagram twitter linkedin pinterest"`
	Avatar   *string                `json:"avatar"`
	BioLink  *string                `json:"bioLink"`
	Stats    *entities.ChannelStats `json:"stats"`
}

type UpdateBioLinkRequest struct {
	URL string `json:"url"`
}

type UpdateStatsRequest struct {
	Followers  int     `json:"followers" validate:"min=0"`
	Engagement float64 `json:"engagement" validate:"min=0,max=100"`
}

// Bio-link related types
type CreatePageRequest struct {
	Title           string         `json:"title" validate:"required,max=200"`
	Description     *string        `json:"description" validate:"omitempty,max=1000"`
	Slug            string         `json:"slug" validate:"required,max=100"`
	Theme           entities.Theme `json:"theme" validate:"omitempty,oneof=light dark custom"`
	PrimaryColor    *string        `json:"primaryColor"`
	BackgroundColor *string        `json:"backgroundColor"`
	UserID          string         `json:"userId"`
}

type AddLinkRequest struct {
	Title   string  `json:"title" validate:"required,max=200"`
	URL     string  `json:"url" validate:"required"`
	Enabled *bool   `json:"enabled"`
	Icon    *string `json:"icon"`
}

type ReorderRequest struct {
	From *int `json:"from" validate:"required"`
	To   *int `json:"to" validate:"required"`
}

// Platform related types
type ChannelCredentials struct {
	ChannelID   string            `json:"channelId"`
	Platform    entities.Platform `json:"platform"`
	AccessToken string            `json:"-"`
}

type MediaUpload struct {
	Filename string
	Content  []byte
}

type PublishRequest struct {
	Channel       ChannelCredentials
	Message       string
	ScheduledTime *time.Time
	Media         *MediaUpload
}

type ReelRequest struct {
	Channel     ChannelCredentials
	Description string
	Video       MediaUpload
}

type Insights struct {
	Followers  int     `json:"followers"`
	Engagement float64 `json:"engagement"`
}

// ErrNoPlatform is returned by operations that need the remote platform
// when no client is configured.
var ErrNoPlatform = errors.New("platform client not configured")

// PlatformError carries the platform-specific failure message of a remote
// call.
type PlatformError struct {
	Platform  entities.Platform
	Op        string
	Message   string
	Retryable bool
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Platform, e.Op, e.Message)
}

// Response types
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
}

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}
