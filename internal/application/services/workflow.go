package services

import (
	"context"

	"github.com/socialdesk/core/internal/ports"
)

// byStatus returns the records whose status equals status, in insertion
// order.
func byStatus[T any, S comparable](ctx context.Context, repo ports.Repository[T], status S, statusOf func(*T) S) ([]T, error) {
	return repo.Filter(ctx, func(rec *T) bool {
		return statusOf(rec) == status
	})
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
