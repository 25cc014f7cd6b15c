package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: type, title, message, location, state, persistent, received
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex    *regexp.Regexp
	state    lifecycle.State
	boolVal  bool
	received time.Time
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering toasts.
type FilterOptions struct {
	Since time.Duration    // Only toasts received within this window (0=all)
	Type  model.Type       // Exact match on type ("" = any)
	State *lifecycle.State // Filter by lifecycle state (nil=any)
	Limit int              // Maximum results (0=unlimited)
	Now   time.Time        // Reference time for Since (zero = time.Now)
}

// Filter filters toasts based on the provided options.
func Filter(items []lifecycle.Item, opts FilterOptions) []lifecycle.Item {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	result := make([]lifecycle.Item, 0, len(items))

	for _, it := range items {
		if opts.Since > 0 && it.Notification.ReceivedAt.Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.Type != "" && it.Notification.Type != opts.Type {
			continue
		}
		if opts.State != nil && it.State != *opts.State {
			continue
		}
		result = append(result, it)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 30s, 5m, 2h, 1d, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// ParseType parses a notification type name.
func ParseType(s string) (model.Type, error) {
	t := model.Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid type: %s (use one of %v)", s, model.Types)
	}
	return t, nil
}

// ParseState parses a lifecycle state name.
func ParseState(s string) (lifecycle.State, error) {
	var state lifecycle.State
	if err := state.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return 0, err
	}
	return state, nil
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: type, title, message, location, state, persistent, received
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "type=police" - police alerts only
//   - "title~bank" - title contains "bank"
//   - "state=visible,persistent=true" - sticky toasts still on screen
//   - "message~=(?i)robbery" - message matches regex
//   - "received<30s" - toasts from the last 30 seconds
func ParseFilter(expr string) (*FilterExpr, error) {
	return parseFilterAt(expr, time.Now())
}

func parseFilterAt(expr string, now time.Time) (*FilterExpr, error) {
	if expr == "" {
		return &FilterExpr{}, nil
	}

	filter := &FilterExpr{
		Conditions: make([]FilterCondition, 0),
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part, now)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "type=ems" or "message~bank".
func parseCondition(s string, now time.Time) (FilterCondition, error) {
	// Longest operators first
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
			}
			if err := cond.init(now); err != nil {
				return FilterCondition{}, err
			}
			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init(now time.Time) error {
	switch c.Field {
	case "type", "kind":
		c.Field = "type"
	case "title", "summary":
		c.Field = "title"
	case "message", "body":
		c.Field = "message"
	case "location", "loc":
		c.Field = "location"
	case "state":
		state, err := ParseState(c.Value)
		if err != nil {
			return err
		}
		c.state = state
	case "persistent", "sticky":
		c.Field = "persistent"
		c.boolVal = parseBool(c.Value)
	case "received", "age", "time":
		c.Field = "received"
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid received value: %w", err)
		}
		c.received = now.Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if a toast matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(it lifecycle.Item) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(it) {
			return false
		}
	}
	return true
}

// Match tests if a toast matches this single condition.
func (c *FilterCondition) Match(it lifecycle.Item) bool {
	n := it.Notification
	switch c.Field {
	case "type":
		return c.matchString(string(n.Type))
	case "title":
		return c.matchString(n.Title)
	case "message":
		return c.matchString(n.Message)
	case "location":
		return c.matchString(n.Location())
	case "state":
		return c.matchState(it.State)
	case "persistent":
		return c.matchBool(n.Persistent())
	case "received":
		return c.matchReceived(n.ReceivedAt)
	default:
		return false
	}
}

func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

func (c *FilterCondition) matchState(s lifecycle.State) bool {
	switch c.Operator {
	case FilterOpEqual:
		return s == c.state
	case FilterOpNotEqual:
		return s != c.state
	default:
		return false
	}
}

func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// matchReceived compares ages: "received<30s" means younger than 30 seconds.
func (c *FilterCondition) matchReceived(at time.Time) bool {
	switch c.Operator {
	case FilterOpLess:
		return at.After(c.received)
	case FilterOpGreater:
		return at.Before(c.received)
	case FilterOpLessEq:
		return !at.Before(c.received)
	case FilterOpGreaterEq:
		return !at.After(c.received)
	default:
		return false
	}
}

// FilterWithExpr filters toasts using a filter expression.
func FilterWithExpr(items []lifecycle.Item, expr *FilterExpr) []lifecycle.Item {
	if expr == nil || len(expr.Conditions) == 0 {
		return items
	}

	result := make([]lifecycle.Item, 0, len(items))
	for _, it := range items {
		if expr.Match(it) {
			result = append(result, it)
		}
	}
	return result
}
