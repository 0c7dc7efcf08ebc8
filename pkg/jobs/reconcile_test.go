package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T, h *jobHarness, p *fakePlatform) *Reconciler {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	return NewReconciler(l, h.tickets, h.svc, p, time.Minute)
}

func seedTicket(t *testing.T, h *jobHarness, id int, status entities.Status, threadID string) {
	t.Helper()

	require.NoError(t, h.tickets.SaveTicket(context.Background(), &entities.Ticket{
		ID:        id,
		GuildID:   "guild-1",
		Title:     "broken thing",
		Status:    status,
		Priority:  entities.PriorityNormal,
		CreatorID: "user-1",
		ThreadID:  threadID,
		ChannelID: "chan-1",
		CreatedAt: custom.Now(),
		UpdatedAt: custom.Now(),
	}))

	if threadID != "" {
		require.NoError(t, h.mappings.SaveMapping(context.Background(), &entities.ThreadMapping{
			ThreadID: threadID,
			GuildID:  "guild-1",
			TicketID: id,
			Status:   entities.MappingActive,
		}))
	}
}

func TestReconciler_Sweep_OrphansMissingThreads(t *testing.T) {
	h := newJobHarness(t)
	seedTicket(t, h, 1, entities.StatusOpen, "thread-live")
	seedTicket(t, h, 2, entities.StatusInProgress, "thread-gone")

	p := newFakePlatform("thread-live")
	r := newTestReconciler(t, h, p)

	require.NoError(t, r.Sweep(context.Background()))

	got, err := h.tickets.GetTicket(context.Background(), "guild-1", 1)
	require.NoError(t, err, "Failed to get ticket")
	require.Equal(t, entities.StatusOpen, got.Status, "Live thread should leave the ticket untouched")

	got, err = h.tickets.GetTicket(context.Background(), "guild-1", 2)
	require.NoError(t, err, "Failed to get ticket")
	require.Equal(t, entities.StatusOrphaned, got.Status, "Missing thread should orphan the ticket")

	// The orphaned mapping is retired.
	m, err := h.mappings.GetMappingByThread(context.Background(), "thread-gone")
	require.NoError(t, err, "Failed to get mapping")
	require.Equal(t, entities.MappingDeleted, m.Status)

	// And the trail records why.
	entries, err := h.audit.ListEntries(context.Background(), "guild-1", 2)
	require.NoError(t, err, "Failed to list audit entries")
	require.Len(t, entries, 1)
	require.Equal(t, entities.AuditOrphaned, entries[0].Action)
	require.Equal(t, entities.SystemActor, entries[0].Actor)
}

func TestReconciler_Sweep_SkipsTicketsWithoutThreads(t *testing.T) {
	h := newJobHarness(t)
	seedTicket(t, h, 1, entities.StatusOpen, "")

	p := newFakePlatform()
	r := newTestReconciler(t, h, p)

	require.NoError(t, r.Sweep(context.Background()))
	require.Empty(t, p.probes, "A ticket without a thread should not be probed")

	got, err := h.tickets.GetTicket(context.Background(), "guild-1", 1)
	require.NoError(t, err, "Failed to get ticket")
	require.Equal(t, entities.StatusOpen, got.Status)
}

func TestReconciler_Sweep_SkipsTerminalTickets(t *testing.T) {
	h := newJobHarness(t)
	seedTicket(t, h, 1, entities.StatusClosed, "thread-gone")

	p := newFakePlatform()
	r := newTestReconciler(t, h, p)

	require.NoError(t, r.Sweep(context.Background()))
	require.Empty(t, p.probes, "A closed ticket should not be probed")
}

func TestReconciler_Sweep_TransientProbeErrorLeavesTicketAlone(t *testing.T) {
	h := newJobHarness(t)
	seedTicket(t, h, 1, entities.StatusOpen, "thread-flaky")
	seedTicket(t, h, 2, entities.StatusOpen, "thread-gone")

	p := newFakePlatform()
	p.failing["thread-flaky"] = errors.New("gateway timeout")
	r := newTestReconciler(t, h, p)

	require.NoError(t, r.Sweep(context.Background()))

	// Transient trouble is not evidence the thread is gone.
	got, err := h.tickets.GetTicket(context.Background(), "guild-1", 1)
	require.NoError(t, err, "Failed to get ticket")
	require.Equal(t, entities.StatusOpen, got.Status)

	// The sweep still reaches the tickets after the failing one.
	got, err = h.tickets.GetTicket(context.Background(), "guild-1", 2)
	require.NoError(t, err, "Failed to get ticket")
	require.Equal(t, entities.StatusOrphaned, got.Status)
}

func TestReconciler_Sweep_OrphanIsIdempotent(t *testing.T) {
	h := newJobHarness(t)
	seedTicket(t, h, 1, entities.StatusOpen, "thread-gone")

	p := newFakePlatform()
	r := newTestReconciler(t, h, p)

	require.NoError(t, r.Sweep(context.Background()))
	require.NoError(t, r.Sweep(context.Background()))

	entries, err := h.audit.ListEntries(context.Background(), "guild-1", 1)
	require.NoError(t, err, "Failed to list audit entries")
	require.Len(t, entries, 1, "A second sweep should not re-orphan")
}
