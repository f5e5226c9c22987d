package entities

import (
	"time"
)

type PostStatus string

const (
	PostStatusDraft           PostStatus = "draft"
	PostStatusScheduled       PostStatus = "scheduled"
	PostStatusPendingApproval PostStatus = "pending-approval"
	PostStatusSent            PostStatus = "sent"
	PostStatusFailed          PostStatus = "failed"
)

func (ps PostStatus) IsValid() bool {
	switch ps {
	case PostStatusDraft, PostStatusScheduled, PostStatusPendingApproval, PostStatusSent, PostStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further edits are accepted.
func (ps PostStatus) IsTerminal() bool {
	return ps == PostStatusSent
}

// Post is a piece of content published to one or more channels.
type Post struct {
	ID            string            `json:"id"`
	Content       string            `json:"content"`
	Media         []string          `json:"media"`
	ChannelIDs    []string          `json:"channelIds"`
	ScheduledFor  *time.Time        `json:"scheduledFor,omitempty"`
	Status        PostStatus        `json:"status"`
	Author        string            `json:"author"`
	Tags          []string          `json:"tags"`
	PlatformIDs   map[string]string `json:"platformIds,omitempty"`
	FailureReason *string           `json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (p *Post) GetID() string   { return p.ID }
func (p *Post) SetID(id string) { p.ID = id }

func (p *Post) Stamp(at time.Time) {
	p.CreatedAt = at
	p.UpdatedAt = at
}

func (p *Post) Touch(at time.Time) { p.UpdatedAt = at }

func (p *Post) Clone() Post {
	c := *p
	c.Media = cloneStrings(p.Media)
	c.ChannelIDs = cloneStrings(p.ChannelIDs)
	c.ScheduledFor = cloneTime(p.ScheduledFor)
	c.Tags = cloneStrings(p.Tags)
	c.FailureReason = cloneString(p.FailureReason)
	if p.PlatformIDs != nil {
		c.PlatformIDs = make(map[string]string, len(p.PlatformIDs))
		for k, v := range p.PlatformIDs {
			c.PlatformIDs[k] = v
		}
	}
	return c
}

// HasChannel reports whether the post targets channelID.
func (p *Post) HasChannel(channelID string) bool {
	for _, id := range p.ChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// Validate checks the stored-state invariants of a post.
func (p *Post) Validate() error {
	if blank(p.Content) {
		return NewValidationError("content", CodeContentRequired)
	}
	if !p.Status.IsValid() {
		return NewValidationError("status", CodeStatusInvalid)
	}
	if p.Status == PostStatusScheduled {
		if len(p.ChannelIDs) == 0 {
			return NewValidationError("channelIds", CodeChannelRequired)
		}
		if p.ScheduledFor == nil {
			return NewValidationError("scheduledFor", CodeScheduleRequired)
		}
	}
	return nil
}

// CheckTransition reports whether a user-initiated move to status is
// allowed. Sent is only reachable through MarkSent.
func (p *Post) CheckTransition(status PostStatus) error {
	if !status.IsValid() {
		return NewValidationError("status", CodeStatusInvalid)
	}
	if p.Status.IsTerminal() {
		return ErrTerminalState
	}
	if status == PostStatusSent {
		return ErrInvalidTransition
	}
	if status == PostStatusScheduled {
		if len(p.ChannelIDs) == 0 {
			return NewValidationError("channelIds", CodeChannelRequired)
		}
		if p.ScheduledFor == nil {
			return NewValidationError("scheduledFor", CodeScheduleRequired)
		}
	}
	return nil
}

// TransitionTo applies a user-initiated status change.
func (p *Post) TransitionTo(status PostStatus) error {
	if err := p.CheckTransition(status); err != nil {
		return err
	}
	p.Status = status
	return nil
}

// Schedule sets the send time and moves the post to scheduled. Calling it
// again on a scheduled post replaces the send time.
func (p *Post) Schedule(when time.Time) error {
	next := p.Clone()
	next.ScheduledFor = &when
	if err := next.TransitionTo(PostStatusScheduled); err != nil {
		return err
	}
	next.FailureReason = nil
	*p = next
	return nil
}

// MarkSent records the send-completion signal for a scheduled post.
func (p *Post) MarkSent(platformIDs map[string]string) error {
	if p.Status.IsTerminal() {
		return ErrTerminalState
	}
	if p.Status != PostStatusScheduled {
		return ErrInvalidTransition
	}
	p.Status = PostStatusSent
	p.FailureReason = nil
	if len(platformIDs) > 0 {
		p.PlatformIDs = make(map[string]string, len(platformIDs))
		for k, v := range platformIDs {
			p.PlatformIDs[k] = v
		}
	}
	return nil
}

// MarkFailed records a failed send attempt for a scheduled post.
func (p *Post) MarkFailed(reason string) error {
	if p.Status.IsTerminal() {
		return ErrTerminalState
	}
	if p.Status != PostStatusScheduled {
		return ErrInvalidTransition
	}
	p.Status = PostStatusFailed
	p.FailureReason = &reason
	return nil
}

// IsDue reports whether a scheduled post should be sent at now.
func (p *Post) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled && p.ScheduledFor != nil && !p.ScheduledFor.After(now)
}

// PostPatch is the closed set of fields editable outside the workflow.
// Status and send time are changed only through transitions.
type PostPatch struct {
	Content    *string   `json:"content,omitempty"`
	Media      *[]string `json:"media,omitempty"`
	ChannelIDs *[]string `json:"channelIds,omitempty"`
	Author     *string   `json:"author,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
}

func (pp PostPatch) Apply(p *Post) error {
	if p.Status.IsTerminal() {
		return ErrTerminalState
	}
	next := p.Clone()
	if pp.Content != nil {
		next.Content = *pp.Content
	}
	if pp.Media != nil {
		next.Media = cloneStrings(*pp.Media)
	}
	if pp.ChannelIDs != nil {
		next.ChannelIDs = uniqueStrings(*pp.ChannelIDs)
	}
	if pp.Author != nil {
		next.Author = *pp.Author
	}
	if pp.Tags != nil {
		next.Tags = NormalizeTags(*pp.Tags)
		if next.Tags == nil {
			next.Tags = []string{}
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// UniqueIDs removes empty and repeated ids, keeping first occurrences.
func UniqueIDs(ids []string) []string {
	return uniqueStrings(ids)
}
