package main

import (
	"errors"
	"testing"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestResolveCategoryID(t *testing.T) {
	a := newTestApp(t)
	a.cats = &fakeCategories{cats: []*entities.TicketCategory{
		{ID: "cat-1", Name: "Billing", Enabled: true},
		{ID: "cat-2", Name: "Tech Support", Enabled: true},
	}}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "exact match",
			input: "Billing",
			want:  "cat-1",
		},
		{
			name:  "case insensitive",
			input: "tech support",
			want:  "cat-2",
		},
		{
			name:  "surrounding whitespace",
			input: "  Billing  ",
			want:  "cat-1",
		},
		{
			name:  "unknown name",
			input: "Gardening",
			want:  "",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, resolveCategoryID(a, "guild-1", tt.input))
		})
	}
}

func TestResolveCategoryID_ListError(t *testing.T) {
	a := newTestApp(t)
	a.cats = &fakeCategories{err: errors.New("connection reset")}

	// A category lookup failure must not block the creation; the ticket
	// falls back to no category.
	require.Empty(t, resolveCategoryID(a, "guild-1", "Billing"))
}
