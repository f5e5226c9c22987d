package entities

import (
	"strings"
	"time"
	"unicode"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeCustom Theme = "custom"
)

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeCustom:
		return true
	default:
		return false
	}
}

// BioLink is one entry of a bio-link page. It has no lifecycle outside
// its page.
type BioLink struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Enabled bool    `json:"enabled"`
	Order   int     `json:"order"`
	Icon    *string `json:"icon,omitempty"`
}

func (l BioLink) Clone() BioLink {
	l.Icon = cloneString(l.Icon)
	return l
}

func (l *BioLink) Validate() error {
	if blank(l.Title) {
		return NewValidationError("title", CodeTitleRequired)
	}
	if blank(l.URL) {
		return NewValidationError("url", CodeURLRequired)
	}
	return nil
}

// LinkPatch is the closed set of editable link fields. Order changes only
// through reordering.
type LinkPatch struct {
	Title   *string `json:"title,omitempty"`
	URL     *string `json:"url,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
	Icon    *string `json:"icon,omitempty"`
}

func (p LinkPatch) Apply(l *BioLink) error {
	next := l.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.URL != nil {
		next.URL = NormalizeURL(*p.URL)
	}
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.Icon != nil {
		next.Icon = optional(*p.Icon)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*l = next
	return nil
}

// BioLinkPage is a public landing page listing ordered links.
type BioLinkPage struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	Links           []BioLink `json:"links"`
	Slug            string    `json:"slug"`
	Theme           Theme     `json:"theme"`
	PrimaryColor    *string   `json:"primaryColor,omitempty"`
	BackgroundColor *string   `json:"backgroundColor,omitempty"`
	UserID          string    `json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (p *BioLinkPage) GetID() string   { return p.ID }
func (p *BioLinkPage) SetID(id string) { p.ID = id }

func (p *BioLinkPage) Stamp(at time.Time) {
	p.CreatedAt = at
	p.UpdatedAt = at
}

func (p *BioLinkPage) Touch(at time.Time) { p.UpdatedAt = at }

func (p *BioLinkPage) Clone() BioLinkPage {
	c := *p
	c.Description = cloneString(p.Description)
	c.PrimaryColor = cloneString(p.PrimaryColor)
	c.BackgroundColor = cloneString(p.BackgroundColor)
	if p.Links != nil {
		c.Links = make([]BioLink, len(p.Links))
		for i, l := range p.Links {
			c.Links[i] = l.Clone()
		}
	}
	return c
}

func (p *BioLinkPage) Validate() error {
	if blank(p.Title) {
		return NewValidationError("title", CodeTitleRequired)
	}
	if blank(p.Slug) {
		return NewValidationError("slug", CodeSlugRequired)
	}
	if !p.Theme.IsValid() {
		return NewValidationError("theme", CodeThemeInvalid)
	}
	return nil
}

// FindLink returns the index of the link with id, or -1.
func (p *BioLinkPage) FindLink(id string) int {
	for i := range p.Links {
		if p.Links[i].ID == id {
			return i
		}
	}
	return -1
}

// PagePatch is the closed set of editable page fields. Links are managed
// through the link operations.
type PagePatch struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Slug            *string `json:"slug,omitempty"`
	Theme           *Theme  `json:"theme,omitempty"`
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
}

func (pp PagePatch) Apply(p *BioLinkPage) error {
	next := p.Clone()
	if pp.Title != nil {
		next.Title = *pp.Title
	}
	if pp.Description != nil {
		next.Description = optional(*pp.Description)
	}
	if pp.Slug != nil {
		next.Slug = Slugify(*pp.Slug)
	}
	if pp.Theme != nil {
		next.Theme = *pp.Theme
	}
	if pp.PrimaryColor != nil {
		next.PrimaryColor = optional(*pp.PrimaryColor)
	}
	if pp.BackgroundColor != nil {
		next.BackgroundColor = optional(*pp.BackgroundColor)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// NormalizeURL prefixes https:// when url carries no http(s) scheme.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	return "https://" + url
}

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
