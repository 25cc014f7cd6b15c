package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func item(id string, typ model.Type, title string, age time.Duration) lifecycle.Item {
	return lifecycle.Item{
		Notification: model.Notification{
			ID:         id,
			ReceivedAt: now.Add(-age),
			Request:    model.Request{Type: typ, Title: title, Duration: 5000},
		},
		State:     lifecycle.StateVisible,
		ShownAt:   now.Add(-age),
		ExpiresAt: now.Add(-age + 5*time.Second),
	}
}

func fixture() []lifecycle.Item {
	police := item("01JA0000000000000000000001", model.TypePolice, "10-90 Bank Robbery", 10*time.Second)
	police.Notification.Message = "Silent alarm at Fleeca"
	police.Notification.CustomData = map[string]any{"location": "Legion Square"}

	saved := item("01JA0000000000000000000002", model.TypeSuccess, "Saved", 2*time.Second)
	saved.State = lifecycle.StateExiting

	sticky := item("01JB0000000000000000000003", model.TypeWarning, "Low fuel", time.Minute)
	sticky.Notification.Duration = 0
	sticky.ExpiresAt = time.Time{}

	return []lifecycle.Item{police, saved, sticky}
}

func ids(items []lifecycle.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Notification.ID)
	}
	return out
}

func TestLookupByID(t *testing.T) {
	items := fixture()

	t.Run("found", func(t *testing.T) {
		result := LookupByID(items, "01JA0000000000000000000002")
		require.NotNil(t, result)
		assert.Equal(t, "Saved", result.Notification.Title)
	})

	t.Run("not found", func(t *testing.T) {
		assert.Nil(t, LookupByID(items, "nope"))
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Nil(t, LookupByID(nil, "01JA0000000000000000000002"))
	})
}

func TestLookupByIndex(t *testing.T) {
	items := fixture()

	result := LookupByIndex(items, 3)
	require.NotNil(t, result)
	assert.Equal(t, "Low fuel", result.Notification.Title)

	assert.Nil(t, LookupByIndex(items, 0))
	assert.Nil(t, LookupByIndex(items, 4))
	assert.Nil(t, LookupByIndex(items, -1))
}

func TestLookupByPrefix(t *testing.T) {
	items := fixture()

	it, err := LookupByPrefix(items, "01jb")
	require.NoError(t, err)
	assert.Equal(t, "Low fuel", it.Notification.Title)

	_, err = LookupByPrefix(items, "01JA")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = LookupByPrefix(items, "ZZ")
	assert.ErrorContains(t, err, "no toast")

	_, err = LookupByPrefix(items, " ")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	items := fixture()

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"1", "01JA0000000000000000000001", false},
		{"3", "01JB0000000000000000000003", false},
		{"4", "", true},
		{"01JA0000000000000000000002", "01JA0000000000000000000002", false},
		{"01JB", "01JB0000000000000000000003", false},
		{"01JA", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Resolve(items, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch(t *testing.T) {
	items := fixture()

	assert.Len(t, Search(items, ""), 3)
	assert.Equal(t, []string{"01JA0000000000000000000001"}, ids(Search(items, "FLEECA")))
	assert.Equal(t, []string{"01JB0000000000000000000003"}, ids(Search(items, "fuel")))
	assert.Empty(t, Search(items, "nothing"))
}

func TestFilter(t *testing.T) {
	items := fixture()
	exiting := lifecycle.StateExiting

	assert.Len(t, Filter(nil, FilterOptions{}), 0)
	assert.Len(t, Filter(items, FilterOptions{Now: now}), 3)

	byType := Filter(items, FilterOptions{Type: model.TypePolice, Now: now})
	assert.Equal(t, []string{"01JA0000000000000000000001"}, ids(byType))

	byState := Filter(items, FilterOptions{State: &exiting, Now: now})
	assert.Equal(t, []string{"01JA0000000000000000000002"}, ids(byState))

	recent := Filter(items, FilterOptions{Since: 30 * time.Second, Now: now})
	assert.Len(t, recent, 2)

	limited := Filter(items, FilterOptions{Limit: 1, Now: now})
	assert.Len(t, limited, 1)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"2d", 48 * time.Hour, false},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeAndState(t *testing.T) {
	typ, err := ParseType(" EMS ")
	require.NoError(t, err)
	assert.Equal(t, model.TypeEMS, typ)

	_, err = ParseType("fire")
	assert.Error(t, err)

	state, err := ParseState("Exiting")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateExiting, state)

	_, err = ParseState("gone")
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"", []string{"01JA0000000000000000000001", "01JA0000000000000000000002", "01JB0000000000000000000003"}},
		{"type=police", []string{"01JA0000000000000000000001"}},
		{"type!=police", []string{"01JA0000000000000000000002", "01JB0000000000000000000003"}},
		{"title~bank", []string{"01JA0000000000000000000001"}},
		{"message~=^Silent", []string{"01JA0000000000000000000001"}},
		{"location=Legion Square", []string{"01JA0000000000000000000001"}},
		{"state=exiting", []string{"01JA0000000000000000000002"}},
		{"persistent=true", []string{"01JB0000000000000000000003"}},
		{"received<30s", []string{"01JA0000000000000000000001", "01JA0000000000000000000002"}},
		{"received>30s", []string{"01JB0000000000000000000003"}},
		{"state=visible, persistent=false", []string{"01JA0000000000000000000001"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := parseFilterAt(tt.expr, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(FilterWithExpr(fixture(), expr)))
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	for _, expr := range []string{"type", "color=red", "state=gone", "received<soon", "title~=("} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseFilter(expr)
			assert.Error(t, err)
		})
	}
}

func TestFilterWithExpr_Nil(t *testing.T) {
	items := fixture()
	assert.Len(t, FilterWithExpr(items, nil), 3)
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		opts SortOptions
		want []string
	}{
		{"received asc", DefaultSortOptions(), []string{"01JB0000000000000000000003", "01JA0000000000000000000001", "01JA0000000000000000000002"}},
		{"received desc", SortOptions{Field: SortByReceived, Order: SortDesc}, []string{"01JA0000000000000000000002", "01JA0000000000000000000001", "01JB0000000000000000000003"}},
		{"type", SortOptions{Field: SortByType, Order: SortAsc}, []string{"01JA0000000000000000000002", "01JB0000000000000000000003", "01JA0000000000000000000001"}},
		{"title", SortOptions{Field: SortByTitle, Order: SortAsc}, []string{"01JA0000000000000000000001", "01JB0000000000000000000003", "01JA0000000000000000000002"}},
		{"expiry", SortOptions{Field: SortByExpiry, Order: SortAsc}, []string{"01JA0000000000000000000001", "01JA0000000000000000000002", "01JB0000000000000000000003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := fixture()
			Sort(items, tt.opts)
			assert.Equal(t, tt.want, ids(items))
		})
	}

	Sort(nil, DefaultSortOptions())
}

func TestParseSort(t *testing.T) {
	f, _ := ParseSortField("expires")
	assert.Equal(t, SortByExpiry, f)
	f, _ = ParseSortField("bogus")
	assert.Equal(t, SortByReceived, f)

	o, _ := ParseSortOrder("descending")
	assert.Equal(t, SortDesc, o)
	o, _ = ParseSortOrder("")
	assert.Equal(t, SortAsc, o)
}
