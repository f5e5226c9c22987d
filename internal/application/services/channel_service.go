package services

import (
	"context"
	"fmt"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// UnknownChannelLabel is shown for channel ids that no longer resolve.
const UnknownChannelLabel = "Unknown channel"

// ChannelService handles connected social accounts
type ChannelService struct {
	channelRepo ports.ChannelRepository
	platform    Platform
	logger      *logger.Logger
}

// NewChannelService creates a new channel service. platform is only needed
// by RefreshStats.
func NewChannelService(channelRepo ports.ChannelRepository, platform Platform, logger *logger.Logger) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		platform:    platform,
		logger:      logger.WithComponent("channels"),
	}
}

// Connect adds a connected channel
func (s *ChannelService) Connect(ctx context.Context, req ports.ConnectChannelRequest) (entities.Channel, error) {
	channel := entities.Channel{
		Name:      req.Name,
		Platform:  req.Platform,
		Connected: true,
		Avatar:    req.Avatar,
		Stats:     req.Stats,
	}
	if req.BioLink != nil && *req.BioLink != "" {
		link := entities.NormalizeURL(*req.BioLink)
		channel.BioLink = &link
	}
	if err := channel.Validate(); err != nil {
		return entities.Channel{}, err
	}

	created, err := s.channelRepo.Create(ctx, channel)
	if err != nil {
		return entities.Channel{}, fmt.Errorf("failed to connect channel: %w", err)
	}

	s.logger.LogEntityMutation("channels", "connect", created.ID, map[string]interface{}{
		"platform": created.Platform,
	})
	return created, nil
}

// Disconnect keeps the channel but marks it disconnected
func (s *ChannelService) Disconnect(ctx context.Context, id string) (entities.Channel, error) {
	disconnected := false
	updated, err := s.channelRepo.Update(ctx, id, entities.ChannelPatch{Connected: &disconnected}.Apply)
	if err != nil {
		return entities.Channel{}, err
	}
	s.logger.LogEntityMutation("channels", "disconnect", id, nil)
	return updated, nil
}

// GetChannel retrieves a channel by ID
func (s *ChannelService) GetChannel(ctx context.Context, id string) (entities.Channel, error) {
	return s.channelRepo.GetByID(ctx, id)
}

// ListChannels returns every channel, connected or not
func (s *ChannelService) ListChannels(ctx context.Context) ([]entities.Channel, error) {
	return s.channelRepo.List(ctx)
}

// ListConnected returns connected channels only
func (s *ChannelService) ListConnected(ctx context.Context) ([]entities.Channel, error) {
	return s.channelRepo.Filter(ctx, func(c *entities.Channel) bool { return c.Connected })
}

// UpdateChannel applies a typed patch
func (s *ChannelService) UpdateChannel(ctx context.Context, id string, patch entities.ChannelPatch) (entities.Channel, error) {
	updated, err := s.channelRepo.Update(ctx, id, patch.Apply)
	if err != nil {
		return entities.Channel{}, err
	}
	s.logger.LogEntityMutation("channels", "update", id, nil)
	return updated, nil
}

// DeleteChannel removes a channel. Posts keep referencing its id.
func (s *ChannelService) DeleteChannel(ctx context.Context, id string) (bool, error) {
	ok, err := s.channelRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.LogEntityMutation("channels", "delete", id, nil)
	}
	return ok, nil
}

// RefreshStats pulls follower and engagement figures from the platform and
// stores them on the channel.
func (s *ChannelService) RefreshStats(ctx context.Context, id string) (entities.Channel, error) {
	channel, err := s.channelRepo.GetByID(ctx, id)
	if err != nil {
		return entities.Channel{}, err
	}
	if !channel.Connected {
		return entities.Channel{}, fmt.Errorf("refresh %s: %w", channel.Name, entities.ErrDisconnected)
	}
	if s.platform.Client == nil {
		return entities.Channel{}, ports.ErrNoPlatform
	}

	insights, err := s.platform.Client.FetchInsights(ctx, s.platform.credentials(channel))
	if err != nil {
		return entities.Channel{}, fmt.Errorf("failed to fetch insights: %w", err)
	}

	stats := entities.ChannelStats{Followers: insights.Followers, Engagement: insights.Engagement}
	updated, err := s.channelRepo.Update(ctx, id, entities.ChannelPatch{Stats: &stats}.Apply)
	if err != nil {
		return entities.Channel{}, err
	}
	s.logger.LogEntityMutation("channels", "refresh_stats", id, map[string]interface{}{
		"followers":  stats.Followers,
		"engagement": stats.Engagement,
	})
	return updated, nil
}

// ChannelLabel returns the channel name, or UnknownChannelLabel when id
// does not resolve.
func (s *ChannelService) ChannelLabel(ctx context.Context, id string) string {
	channel, err := s.channelRepo.GetByID(ctx, id)
	if err != nil {
		return UnknownChannelLabel
	}
	return channel.Name
}
