package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/scheduling"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

// PostService handles content drafting, approval and scheduling
type PostService struct {
	postRepo    ports.PostRepository
	channelRepo ports.ChannelRepository
	platform    Platform
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewPostService creates a new post service. channelRepo and platform are
// used to withdraw sent posts from their channels on delete.
func NewPostService(
	postRepo ports.PostRepository,
	channelRepo ports.ChannelRepository,
	platform Platform,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		channelRepo: channelRepo,
		platform:    platform,
		logger:      logger.WithComponent("posts"),
		metrics:     metrics,
	}
}

// CreatePost creates a draft or a post awaiting approval
func (s *PostService) CreatePost(ctx context.Context, req ports.CreatePostRequest) (entities.Post, error) {
	post := entities.Post{
		Content:    req.Content,
		Media:      nonNil(append([]string(nil), req.Media...)),
		ChannelIDs: entities.UniqueIDs(req.ChannelIDs),
		Status:     req.Status,
		Author:     req.Author,
		Tags:       nonNil(entities.NormalizeTags(req.Tags)),
	}
	if post.Status == "" {
		post.Status = entities.PostStatusDraft
	}
	switch post.Status {
	case entities.PostStatusDraft, entities.PostStatusPendingApproval:
	case entities.PostStatusSent, entities.PostStatusScheduled, entities.PostStatusFailed:
		return entities.Post{}, fmt.Errorf("create post as %s: %w", post.Status, entities.ErrInvalidTransition)
	}
	if err := post.Validate(); err != nil {
		return entities.Post{}, err
	}

	created, err := s.postRepo.Create(ctx, post)
	if err != nil {
		return entities.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.LogEntityMutation("posts", "create", created.ID, map[string]interface{}{
		"status":   created.Status,
		"channels": len(created.ChannelIDs),
	})
	return created, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id string) (entities.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// UpdatePost applies a content patch. Sent posts are read-only.
func (s *PostService) UpdatePost(ctx context.Context, id string, patch entities.PostPatch) (entities.Post, error) {
	updated, err := s.postRepo.Update(ctx, id, patch.Apply)
	if err != nil {
		return entities.Post{}, err
	}
	s.logger.LogEntityMutation("posts", "update", id, nil)
	return updated, nil
}

// DeletePost removes a post. It reports false when no post matched. A sent
// post is first withdrawn from every channel it was published to; if any
// withdrawal fails the post is kept.
func (s *PostService) DeletePost(ctx context.Context, id string) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if errors.Is(err, entities.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if post.Status == entities.PostStatusSent && len(post.PlatformIDs) > 0 {
		if err := s.withdraw(ctx, post); err != nil {
			return false, err
		}
	}

	ok, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.LogEntityMutation("posts", "delete", id, nil)
	}
	return ok, nil
}

// withdraw deletes the remote copies of post. Channels that no longer
// exist are skipped.
func (s *PostService) withdraw(ctx context.Context, post entities.Post) error {
	if s.platform.Client == nil {
		return ports.ErrNoPlatform
	}

	channelIDs := make([]string, 0, len(post.PlatformIDs))
	for channelID := range post.PlatformIDs {
		channelIDs = append(channelIDs, channelID)
	}
	sort.Strings(channelIDs)

	var problems *multierror.Error
	for _, channelID := range channelIDs {
		channel, err := s.channelRepo.GetByID(ctx, channelID)
		if err != nil {
			s.logger.Warnw("Skipping withdrawal from missing channel", "post_id", post.ID, "channel_id", channelID)
			continue
		}
		if err := s.platform.Client.DeletePost(ctx, s.platform.credentials(channel), post.PlatformIDs[channelID]); err != nil {
			problems = multierror.Append(problems, fmt.Errorf("%s: %w", channel.Name, err))
		}
	}
	if err := problems.ErrorOrNil(); err != nil {
		problems.ErrorFormat = joinErrors
		return fmt.Errorf("failed to withdraw post %s: %w", post.ID, err)
	}
	return nil
}

// ListPosts returns all posts in insertion order
func (s *PostService) ListPosts(ctx context.Context) ([]entities.Post, error) {
	return s.postRepo.List(ctx)
}

// GetByStatus returns posts with the given status
func (s *PostService) GetByStatus(ctx context.Context, status entities.PostStatus) ([]entities.Post, error) {
	return byStatus(ctx, s.postRepo, status, func(p *entities.Post) entities.PostStatus { return p.Status })
}

// Transition applies a user-initiated status change
func (s *PostService) Transition(ctx context.Context, id string, status entities.PostStatus) (entities.Post, error) {
	if !status.IsValid() {
		return entities.Post{}, entities.NewValidationError("status", entities.CodeStatusInvalid)
	}
	return s.mutate(ctx, id, string(status), func(p *entities.Post) error {
		return p.TransitionTo(status)
	})
}

// SubmitForApproval moves a post to pending-approval
func (s *PostService) SubmitForApproval(ctx context.Context, id string) (entities.Post, error) {
	return s.Transition(ctx, id, entities.PostStatusPendingApproval)
}

// ReturnToDraft moves a post back to draft
func (s *PostService) ReturnToDraft(ctx context.Context, id string) (entities.Post, error) {
	return s.Transition(ctx, id, entities.PostStatusDraft)
}

// SchedulePost validates the post and schedules it for when. Scheduling an
// already scheduled post replaces its time.
func (s *PostService) SchedulePost(ctx context.Context, id string, when time.Time) (entities.Post, error) {
	return s.mutate(ctx, id, string(entities.PostStatusScheduled), func(p *entities.Post) error {
		if err := scheduling.Validate(p.Content, p.ChannelIDs); err != nil {
			return err
		}
		return p.Schedule(when)
	})
}

// MarkSent records that the platform accepted a scheduled post
func (s *PostService) MarkSent(ctx context.Context, id string, platformIDs map[string]string) (entities.Post, error) {
	return s.mutate(ctx, id, string(entities.PostStatusSent), func(p *entities.Post) error {
		return p.MarkSent(platformIDs)
	})
}

// MarkFailed records that sending a scheduled post failed
func (s *PostService) MarkFailed(ctx context.Context, id string, reason string) (entities.Post, error) {
	return s.mutate(ctx, id, string(entities.PostStatusFailed), func(p *entities.Post) error {
		return p.MarkFailed(reason)
	})
}

// DuePosts returns scheduled posts whose time has come
func (s *PostService) DuePosts(ctx context.Context, now time.Time) ([]entities.Post, error) {
	return s.postRepo.Filter(ctx, func(p *entities.Post) bool {
		return p.IsDue(now)
	})
}

func (s *PostService) mutate(ctx context.Context, id, to string, fn entities.Mutator[entities.Post]) (entities.Post, error) {
	updated, err := s.postRepo.Update(ctx, id, fn)
	if err != nil {
		return entities.Post{}, err
	}
	s.metrics.ObserveTransition("post", to)
	s.logger.LogEntityMutation("posts", "transition", id, map[string]interface{}{
		"status": updated.Status,
	})
	return updated, nil
}
