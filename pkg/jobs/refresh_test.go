package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/stretchr/testify/require"
)

func TestRefresher_ReloadsMappings(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	mappings := newFakeMappings()
	require.NoError(t, mappings.SaveMapping(context.Background(), &entities.ThreadMapping{
		ThreadID:  "thread-1",
		TicketID:  1,
		GuildID:   "guild-1",
		Status:    entities.MappingActive,
		CreatedAt: custom.Now(),
	}))
	require.NoError(t, mappings.SaveMapping(context.Background(), &entities.ThreadMapping{
		ThreadID:  "thread-2",
		TicketID:  2,
		GuildID:   "guild-1",
		Status:    entities.MappingDeleted,
		CreatedAt: custom.Now(),
	}))

	cache := lifecycle.NewMappingCache()
	r := NewRefresher(l, cache, mappings, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context still gets the immediate first refresh.
	r.Run(ctx)

	require.Equal(t, 1, cache.Len(), "Only active mappings should be cached")

	m, ok := cache.Lookup("thread-1")
	require.True(t, ok, "Active mapping should be cached")
	require.Equal(t, 1, m.TicketID)

	_, ok = cache.Lookup("thread-2")
	require.False(t, ok, "Deleted mapping should not be cached")
}

func TestRefresher_ReplacesSnapshotWholesale(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	mappings := newFakeMappings()
	require.NoError(t, mappings.SaveMapping(context.Background(), &entities.ThreadMapping{
		ThreadID: "thread-1",
		TicketID: 1,
		GuildID:  "guild-1",
		Status:   entities.MappingActive,
	}))

	cache := lifecycle.NewMappingCache()
	require.NoError(t, cache.Refresh(context.Background(), mappings))
	require.Equal(t, 1, cache.Len())

	// The thread vanishes between refreshes.
	require.NoError(t, mappings.MarkDeleted(context.Background(), "thread-1"))

	r := NewRefresher(l, cache, mappings, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	_, ok := cache.Lookup("thread-1")
	require.False(t, ok, "Refresh should drop mappings removed from storage")
}
