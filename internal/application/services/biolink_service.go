package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/ordering"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// DefaultUserID owns pages created without an explicit user.
const DefaultUserID = "default-user"

var errLinkMissing = errors.New("link missing")

// BioLinkService handles bio-link pages and their ordered links
type BioLinkService struct {
	pageRepo ports.BioLinkRepository
	logger   *logger.Logger

	// slugMu serializes the uniqueness check with the write that claims
	// the slug.
	slugMu sync.Mutex
}

// NewBioLinkService creates a new bio-link service
func NewBioLinkService(pageRepo ports.BioLinkRepository, logger *logger.Logger) *BioLinkService {
	return &BioLinkService{
		pageRepo: pageRepo,
		logger:   logger.WithComponent("biolinks"),
	}
}

// CreatePage creates a page with a unique slug
func (s *BioLinkService) CreatePage(ctx context.Context, req ports.CreatePageRequest) (entities.BioLinkPage, error) {
	page := entities.BioLinkPage{
		Title:           req.Title,
		Description:     req.Description,
		Links:           []entities.BioLink{},
		Slug:            entities.Slugify(req.Slug),
		Theme:           req.Theme,
		PrimaryColor:    req.PrimaryColor,
		BackgroundColor: req.BackgroundColor,
		UserID:          req.UserID,
	}
	if page.Theme == "" {
		page.Theme = entities.ThemeLight
	}
	if page.UserID == "" {
		page.UserID = DefaultUserID
	}
	if err := page.Validate(); err != nil {
		return entities.BioLinkPage{}, err
	}

	s.slugMu.Lock()
	defer s.slugMu.Unlock()

	if err := s.checkSlug(ctx, page.Slug, ""); err != nil {
		return entities.BioLinkPage{}, err
	}

	created, err := s.pageRepo.Create(ctx, page)
	if err != nil {
		return entities.BioLinkPage{}, fmt.Errorf("failed to create page: %w", err)
	}

	s.logger.LogEntityMutation("biolinks", "create", created.ID, map[string]interface{}{
		"slug": created.Slug,
	})
	return created, nil
}

// GetPage retrieves a page by ID
func (s *BioLinkService) GetPage(ctx context.Context, id string) (entities.BioLinkPage, error) {
	return s.pageRepo.GetByID(ctx, id)
}

// GetPageBySlug retrieves a page by its public slug
func (s *BioLinkService) GetPageBySlug(ctx context.Context, slug string) (entities.BioLinkPage, error) {
	pages, err := s.pageRepo.Filter(ctx, func(p *entities.BioLinkPage) bool { return p.Slug == slug })
	if err != nil {
		return entities.BioLinkPage{}, err
	}
	if len(pages) == 0 {
		return entities.BioLinkPage{}, fmt.Errorf("page with slug %q: %w", slug, entities.ErrNotFound)
	}
	return pages[0], nil
}

// ListPages returns all pages
func (s *BioLinkService) ListPages(ctx context.Context) ([]entities.BioLinkPage, error) {
	return s.pageRepo.List(ctx)
}

// UpdatePage applies a typed patch. A new slug must stay unique.
func (s *BioLinkService) UpdatePage(ctx context.Context, id string, patch entities.PagePatch) (entities.BioLinkPage, error) {
	if patch.Slug != nil {
		s.slugMu.Lock()
		defer s.slugMu.Unlock()

		if err := s.checkSlug(ctx, entities.Slugify(*patch.Slug), id); err != nil {
			return entities.BioLinkPage{}, err
		}
	}

	updated, err := s.pageRepo.Update(ctx, id, patch.Apply)
	if err != nil {
		return entities.BioLinkPage{}, err
	}
	s.logger.LogEntityMutation("biolinks", "update", id, nil)
	return updated, nil
}

// DeletePage removes a page together with its links
func (s *BioLinkService) DeletePage(ctx context.Context, id string) (bool, error) {
	ok, err := s.pageRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.LogEntityMutation("biolinks", "delete", id, nil)
	}
	return ok, nil
}

// AddLink appends a link at the end of the page
func (s *BioLinkService) AddLink(ctx context.Context, pageID string, req ports.AddLinkRequest) (entities.BioLink, error) {
	link := entities.BioLink{
		ID:      uuid.New().String(),
		Title:   req.Title,
		URL:     entities.NormalizeURL(req.URL),
		Enabled: true,
		Icon:    req.Icon,
	}
	if req.Enabled != nil {
		link.Enabled = *req.Enabled
	}
	if err := link.Validate(); err != nil {
		return entities.BioLink{}, err
	}

	var added entities.BioLink
	_, err := s.pageRepo.Update(ctx, pageID, func(p *entities.BioLinkPage) error {
		p.Links = ordering.Append(p.Links, link)
		added = p.Links[len(p.Links)-1].Clone()
		return nil
	})
	if err != nil {
		return entities.BioLink{}, err
	}

	s.logger.LogEntityMutation("biolinks", "add_link", pageID, map[string]interface{}{
		"link_id": added.ID,
		"order":   added.Order,
	})
	return added, nil
}

// UpdateLink applies a typed patch to one link
func (s *BioLinkService) UpdateLink(ctx context.Context, pageID, linkID string, patch entities.LinkPatch) (entities.BioLink, error) {
	var updated entities.BioLink
	_, err := s.pageRepo.Update(ctx, pageID, func(p *entities.BioLinkPage) error {
		i := p.FindLink(linkID)
		if i < 0 {
			return fmt.Errorf("link %q: %w", linkID, entities.ErrNotFound)
		}
		if err := patch.Apply(&p.Links[i]); err != nil {
			return err
		}
		updated = p.Links[i].Clone()
		return nil
	})
	if err != nil {
		return entities.BioLink{}, err
	}
	s.logger.LogEntityMutation("biolinks", "update_link", pageID, map[string]interface{}{
		"link_id": linkID,
	})
	return updated, nil
}

// RemoveLink deletes a link and closes the gap in the order. It reports
// false when the page has no such link.
func (s *BioLinkService) RemoveLink(ctx context.Context, pageID, linkID string) (bool, error) {
	_, err := s.pageRepo.Update(ctx, pageID, func(p *entities.BioLinkPage) error {
		links, ok := ordering.Remove(p.Links, linkID)
		if !ok {
			return errLinkMissing
		}
		p.Links = links
		return nil
	})
	if errors.Is(err, errLinkMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.LogEntityMutation("biolinks", "remove_link", pageID, map[string]interface{}{
		"link_id": linkID,
	})
	return true, nil
}

// ReorderLinks moves the link at from to position to. A move onto the same
// position leaves the page and its updatedAt untouched.
func (s *BioLinkService) ReorderLinks(ctx context.Context, pageID string, from, to int) (entities.BioLinkPage, error) {
	if from == to {
		page, err := s.pageRepo.GetByID(ctx, pageID)
		if err != nil {
			return entities.BioLinkPage{}, err
		}
		if _, err := ordering.Move(page.Links, from, to); err != nil {
			return entities.BioLinkPage{}, err
		}
		return page, nil
	}

	updated, err := s.pageRepo.Update(ctx, pageID, func(p *entities.BioLinkPage) error {
		links, err := ordering.Move(p.Links, from, to)
		if err != nil {
			return err
		}
		p.Links = links
		return nil
	})
	if err != nil {
		return entities.BioLinkPage{}, err
	}
	s.logger.LogEntityMutation("biolinks", "reorder", pageID, map[string]interface{}{
		"from": from,
		"to":   to,
	})
	return updated, nil
}

// VisibleLinks returns the enabled links of a page in display order
func (s *BioLinkService) VisibleLinks(ctx context.Context, pageID string) ([]entities.BioLink, error) {
	page, err := s.pageRepo.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return ordering.Visible(page.Links), nil
}

func (s *BioLinkService) checkSlug(ctx context.Context, slug, ownID string) error {
	taken, err := s.pageRepo.Filter(ctx, func(p *entities.BioLinkPage) bool {
		return p.Slug == slug && p.ID != ownID
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return entities.NewValidationError("slug", entities.CodeSlugTaken)
	}
	return nil
}
