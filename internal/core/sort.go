package core

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByReceived SortField = "received"
	SortByType     SortField = "type"
	SortByTitle    SortField = "title"
	SortByExpiry   SortField = "expiry"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions returns the on-screen order (oldest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByReceived,
		Order: SortAsc,
	}
}

// Sort sorts toasts in place based on the provided options.
// By expiry, persistent toasts sort after every expiring one.
func Sort(items []lifecycle.Item, opts SortOptions) {
	if len(items) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		if opts.Order == SortDesc {
			return less(items[j], items[i], opts.Field)
		}
		return less(items[i], items[j], opts.Field)
	})
}

func less(a, b lifecycle.Item, field SortField) bool {
	switch field {
	case SortByType:
		return typeRank(a.Notification.Type) < typeRank(b.Notification.Type)
	case SortByTitle:
		return strings.ToLower(a.Notification.Title) < strings.ToLower(b.Notification.Title)
	case SortByExpiry:
		return expiryKey(a).Before(expiryKey(b))
	default:
		return a.Notification.ReceivedAt.Before(b.Notification.ReceivedAt)
	}
}

func typeRank(t model.Type) int {
	if i := slices.Index(model.Types, t); i >= 0 {
		return i
	}
	return len(model.Types)
}

var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func expiryKey(it lifecycle.Item) time.Time {
	if it.ExpiresAt.IsZero() {
		return farFuture
	}
	return it.ExpiresAt
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "received", "time", "r":
		return SortByReceived, nil
	case "type", "t":
		return SortByType, nil
	case "title":
		return SortByTitle, nil
	case "expiry", "expires", "e":
		return SortByExpiry, nil
	default:
		return SortByReceived, nil
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc, nil
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return SortAsc, nil
	}
}
