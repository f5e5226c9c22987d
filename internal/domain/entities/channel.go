package entities

import "time"

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
)

func (p Platform) IsValid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformTwitter, PlatformLinkedIn, PlatformPinterest:
		return true
	default:
		return false
	}
}

// ChannelStats holds the audience figures shown on a channel card.
type ChannelStats struct {
	Followers  int     `json:"followers"`
	Engagement float64 `json:"engagement"` // percent, 0-100
}

func (s ChannelStats) Validate() error {
	if s.Followers < 0 {
		return NewValidationError("stats.followers", CodeFollowersRange)
	}
	if s.Engagement < 0 || s.Engagement > 100 {
		return NewValidationError("stats.engagement", CodeEngagementRange)
	}
	return nil
}

// Channel is a connected social account posts are published to.
type Channel struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Platform  Platform      `json:"platform"`
	Connected bool          `json:"connected"`
	Avatar    *string       `json:"avatar,omitempty"`
	BioLink   *string       `json:"bioLink,omitempty"`
	Stats     *ChannelStats `json:"stats,omitempty"`
}

func (c *Channel) GetID() string   { return c.ID }
func (c *Channel) SetID(id string) { c.ID = id }

// Channels carry no timestamps.
func (c *Channel) Stamp(time.Time) {}
func (c *Channel) Touch(time.Time) {}

func (c *Channel) Clone() Channel {
	out := *c
	out.Avatar = cloneString(c.Avatar)
	out.BioLink = cloneString(c.BioLink)
	if c.Stats != nil {
		stats := *c.Stats
		out.Stats = &stats
	}
	return out
}

func (c *Channel) Validate() error {
	if blank(c.Name) {
		return NewValidationError("name", CodeNameRequired)
	}
	if !c.Platform.IsValid() {
		return NewValidationError("platform", CodePlatformInvalid)
	}
	if c.Stats != nil {
		if err := c.Stats.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ChannelPatch is the closed set of updatable channel fields.
type ChannelPatch struct {
	Name      *string       `json:"name,omitempty"`
	Connected *bool         `json:"connected,omitempty"`
	Avatar    *string       `json:"avatar,omitempty"`
	BioLink   *string       `json:"bioLink,omitempty"`
	Stats     *ChannelStats `json:"stats,omitempty"`
}

// Apply merges the patch. An empty BioLink or Avatar clears the field.
func (p ChannelPatch) Apply(c *Channel) error {
	next := c.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Connected != nil {
		next.Connected = *p.Connected
	}
	if p.Avatar != nil {
		next.Avatar = optional(*p.Avatar)
	}
	if p.BioLink != nil {
		next.BioLink = optional(NormalizeURL(*p.BioLink))
	}
	if p.Stats != nil {
		stats := *p.Stats
		next.Stats = &stats
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
