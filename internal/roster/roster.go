// Package roster tracks the left-to-right list of participant names.
package roster

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrIndex is returned by edits that address a position outside the roster.
var ErrIndex = errors.New("roster index out of range")

// Roster is an ordered list of display names; index is left-to-right position.
type Roster []string

// Key is the comma-joined form used to compare rosters.
func (r Roster) Key() string {
	return strings.Join(r, ",")
}

// Filtered returns the non-blank names, in order.
func (r Roster) Filtered() []string {
	out := make([]string, 0, len(r))
	for _, name := range r {
		if strings.TrimSpace(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

// Track merges freshly detected names and the visible head count into
// current. It reports whether the roster changed; when it did not, current
// is returned as is.
//
// Detected names replace the roster, capped from the right to count when
// count is known and smaller. Without names, a smaller count trims the tail.
// Names are never invented or reordered.
func Track(current Roster, names []string, count *int) (Roster, bool) {
	if len(names) > 0 {
		next := Roster(names).Filtered()
		if len(next) == 0 {
			return current, false
		}
		if count != nil && *count > 0 && *count < len(next) {
			next = next[:*count]
		}
		if Roster(next).Key() == current.Key() {
			return current, false
		}
		return next, true
	}

	if count != nil && *count >= 0 && len(current) > *count {
		return slices.Clone(current[:*count]), true
	}
	return current, false
}

// Rename replaces the name at i.
func (r Roster) Rename(i int, name string) (Roster, error) {
	if i < 0 || i >= len(r) {
		return r, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	next := slices.Clone(r)
	next[i] = name
	return next, nil
}

// Remove drops the name at i.
func (r Roster) Remove(i int) (Roster, error) {
	if i < 0 || i >= len(r) {
		return r, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	return slices.Delete(slices.Clone(r), i, i+1), nil
}

// Add appends a placeholder "Person N" where N is the new length.
func (r Roster) Add() Roster {
	return append(slices.Clone(r), fmt.Sprintf("Person %d", len(r)+1))
}
