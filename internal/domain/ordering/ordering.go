// Package ordering keeps bio-link lists in a dense total order under
// drag-and-drop style moves, and sorts task board columns.
//
// Every structural change renumbers the list so that order values are
// always 0..n-1 in slice order.
package ordering

import (
	"fmt"
	"sort"

	"github.com/socialdesk/core/internal/domain/entities"
)

// Move removes the element at from and reinserts it at to, then renumbers.
// Moving an element onto its own position returns an unchanged copy.
func Move(links []entities.BioLink, from, to int) ([]entities.BioLink, error) {
	n := len(links)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("move %d -> %d in list of %d: %w", from, to, n, entities.ErrIndexOutOfRange)
	}

	out := clone(links)
	if from == to {
		return out, nil
	}

	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]entities.BioLink{moved}, out[to:]...)...)

	Renumber(out)
	return out, nil
}

// Append adds link at the end of the list with order equal to the current
// length.
func Append(links []entities.BioLink, link entities.BioLink) []entities.BioLink {
	out := clone(links)
	link.Order = len(out)
	return append(out, link)
}

// Remove drops the link with id and renumbers the rest. The second return
// value is false when no link matched.
func Remove(links []entities.BioLink, id string) ([]entities.BioLink, bool) {
	out := make([]entities.BioLink, 0, len(links))
	removed := false
	for _, l := range links {
		if l.ID == id {
			removed = true
			continue
		}
		out = append(out, l.Clone())
	}
	if !removed {
		return clone(links), false
	}
	Renumber(out)
	return out, true
}

// Renumber assigns each link its positional index.
func Renumber(links []entities.BioLink) {
	for i := range links {
		links[i].Order = i
	}
}

// Normalize restores the dense order of a list whose order values may
// have gaps or collisions, for example after loading stored data. Links
// with equal order keep their relative slice position.
func Normalize(links []entities.BioLink) []entities.BioLink {
	out := clone(links)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	Renumber(out)
	return out
}

// IsDense reports whether order values equal slice positions.
func IsDense(links []entities.BioLink) bool {
	for i := range links {
		if links[i].Order != i {
			return false
		}
	}
	return true
}

// Visible returns the enabled links sorted ascending by order, the
// read path used when a page is rendered.
func Visible(links []entities.BioLink) []entities.BioLink {
	out := make([]entities.BioLink, 0, len(links))
	for _, l := range links {
		if l.Enabled {
			out = append(out, l.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

func clone(links []entities.BioLink) []entities.BioLink {
	if links == nil {
		return []entities.BioLink{}
	}
	out := make([]entities.BioLink, len(links))
	for i, l := range links {
		out[i] = l.Clone()
	}
	return out
}
