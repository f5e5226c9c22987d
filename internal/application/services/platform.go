package services

import (
	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/ports"
)

// Platform pairs the remote client with the page token sent on every call.
// The zero value has no client.
type Platform struct {
	Client      ports.PlatformClient
	AccessToken string
}

func (p Platform) credentials(c entities.Channel) ports.ChannelCredentials {
	return ports.ChannelCredentials{
		ChannelID:   c.ID,
		Platform:    c.Platform,
		AccessToken: p.AccessToken,
	}
}
