package entities

import (
	"strings"
	"time"
)

// Record is the constraint the entity store places on the types it holds.
// P is the pointer type of T so that the store can mutate in place.
type Record[T any] interface {
	*T
	GetID() string
	SetID(id string)
	// Stamp sets creation timestamps on a freshly created record.
	Stamp(at time.Time)
	// Touch records a mutation.
	Touch(at time.Time)
	// Clone returns a deep copy.
	Clone() T
}

// Mutator applies a typed patch to a record. Returning an error aborts the
// update and leaves the stored record unchanged.
type Mutator[T any] func(*T) error

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneString(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
