// Package core provides filtering, sorting, and lookup logic for toast listings.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// LookupByID finds a toast by its full ID.
// Returns nil if not found.
func LookupByID(items []lifecycle.Item, id string) *lifecycle.Item {
	for i := range items {
		if items[i].Notification.ID == id {
			return &items[i]
		}
	}
	return nil
}

// LookupByIndex finds a toast by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(items []lifecycle.Item, index int) *lifecycle.Item {
	idx := index - 1
	if idx < 0 || idx >= len(items) {
		return nil
	}
	return &items[idx]
}

// LookupByPrefix finds the single toast whose ID starts with prefix.
// IDs are matched case-insensitively. Ambiguous prefixes are an error.
func LookupByPrefix(items []lifecycle.Item, prefix string) (*lifecycle.Item, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("empty id prefix")
	}

	var found *lifecycle.Item
	for i := range items {
		if !strings.HasPrefix(strings.ToUpper(items[i].Notification.ID), prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("id prefix %q is ambiguous", prefix)
		}
		found = &items[i]
	}
	if found == nil {
		return nil, fmt.Errorf("no toast matches %q", prefix)
	}
	return found, nil
}

// Resolve turns a user reference into a toast ID.
// A reference is a 1-based index into items, a full ID, or a unique ID prefix.
func Resolve(items []lifecycle.Item, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty toast reference")
	}

	// Short numbers are indexes; ULIDs are 26 characters and never all digits
	if len(ref) < 26 {
		if idx, err := strconv.Atoi(ref); err == nil {
			if it := LookupByIndex(items, idx); it != nil {
				return it.Notification.ID, nil
			}
			return "", fmt.Errorf("index %d out of range (1-%d)", idx, len(items))
		}
	}

	if it := LookupByID(items, ref); it != nil {
		return it.Notification.ID, nil
	}
	it, err := LookupByPrefix(items, ref)
	if err != nil {
		return "", err
	}
	return it.Notification.ID, nil
}

// Search finds toasts matching a search term in title or message.
// Case-insensitive substring match.
func Search(items []lifecycle.Item, term string) []lifecycle.Item {
	if term == "" {
		return items
	}

	term = strings.ToLower(term)
	var result []lifecycle.Item

	for _, it := range items {
		n := it.Notification
		if strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(n.Message), term) {
			result = append(result, it)
		}
	}

	return result
}
