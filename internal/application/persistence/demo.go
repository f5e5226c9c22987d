package persistence

import (
	"time"

	"github.com/google/uuid"

	"github.com/socialdesk/core/internal/domain/entities"
)

// DemoSnapshot builds the sample workspace loaded by the seed command: a
// task on every board column, two connected channels and one disconnected,
// a scheduled post and a draft, plus the default bio-link page.
func DemoSnapshot(now time.Time) Snapshot {
	now = now.UTC()
	days := func(n int) *time.Time {
		t := now.AddDate(0, 0, n)
		return &t
	}
	str := func(s string) *string { return &s }

	tasks := []entities.Task{
		{
			ID:          uuid.New().String(),
			Title:       "Create social media strategy",
			Description: "Develop a comprehensive social media strategy for Q2",
			Status:      entities.TaskStatusUnassigned,
			CreatedAt:   now,
			Tags:        []string{"strategy", "planning"},
		},
		{
			ID:          uuid.New().String(),
			Title:       "Design new Instagram post templates",
			Description: "Create 5 new templates for Instagram posts",
			Status:      entities.TaskStatusTodo,
			Assignee:    str("Jane Doe"),
			DueDate:     days(3),
			CreatedAt:   now,
			Tags:        []string{"design", "instagram"},
		},
		{
			ID:          uuid.New().String(),
			Title:       "Write blog content for next week",
			Description: "Prepare 3 blog posts for next week's schedule",
			Status:      entities.TaskStatusInProgress,
			Assignee:    str("John Smith"),
			DueDate:     days(5),
			CreatedAt:   now,
			Tags:        []string{"content", "writing"},
		},
		{
			ID:          uuid.New().String(),
			Title:       "Review analytics from last campaign",
			Description: "Analyze performance metrics from the previous marketing campaign",
			Status:      entities.TaskStatusDone,
			Assignee:    str("Jane Doe"),
			CreatedAt:   *days(-2),
			Tags:        []string{"analytics", "review"},
		},
	}

	channels := []entities.Channel{
		{
			ID:        uuid.New().String(),
			Name:      "Company Facebook Page",
			Platform:  entities.PlatformFacebook,
			Connected: true,
			Avatar:    str("/assets/icons/facebook.svg"),
			Stats:     &entities.ChannelStats{Followers: 5240, Engagement: 3.2},
		},
		{
			ID:        uuid.New().String(),
			Name:      "Company Instagram",
			Platform:  entities.PlatformInstagram,
			Connected: true,
			Avatar:    str("/assets/icons/instagram.svg"),
			Stats:     &entities.ChannelStats{Followers: 8750, Engagement: 4.8},
		},
		{
			ID:        uuid.New().String(),
			Name:      "Company Twitter",
			Platform:  entities.PlatformTwitter,
			Connected: false,
			Avatar:    str("/assets/icons/twitter.svg"),
		},
	}

	posts := []entities.Post{
		{
			ID:           uuid.New().String(),
			Content:      "Excited to announce our new product launch! Stay tuned for more details. #newproduct #launch",
			Media:        []string{"/assets/images/post1.jpg"},
			ChannelIDs:   []string{channels[0].ID, channels[1].ID},
			ScheduledFor: days(2),
			Status:       entities.PostStatusScheduled,
			Author:       "John Smith",
			Tags:         []string{"product launch", "announcement"},
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:         uuid.New().String(),
			Content:    "Check out our latest blog post on content marketing strategies for 2025!",
			Media:      []string{},
			ChannelIDs: []string{channels[0].ID},
			Status:     entities.PostStatusDraft,
			Author:     "Jane Doe",
			Tags:       []string{"blog", "content marketing"},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	return Snapshot{
		Tasks:    tasks,
		Posts:    posts,
		Channels: channels,
		Pages:    []entities.BioLinkPage{DefaultPage(now)},
	}
}
