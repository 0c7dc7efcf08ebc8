package jobs

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/events"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeTickets struct {
	byKey map[string]*entities.Ticket
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byKey: make(map[string]*entities.Ticket)}
}

func ticketKey(guildID string, id int) string {
	return fmt.Sprintf("%s/%d", guildID, id)
}

func (f *fakeTickets) SaveTicket(_ context.Context, t *entities.Ticket) error {
	copied := *t
	f.byKey[ticketKey(t.GuildID, t.ID)] = &copied
	return nil
}

func (f *fakeTickets) GetTicket(_ context.Context, guildID string, id int) (*entities.Ticket, error) {
	t, ok := f.byKey[ticketKey(guildID, id)]
	if !ok {
		return nil, fmt.Errorf("error getting ticket: %w", mongo.ErrNoDocuments)
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTickets) GetTicketByThread(_ context.Context, threadID string) (*entities.Ticket, error) {
	for _, t := range f.byKey {
		if t.ThreadID == threadID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("error getting ticket by thread: %w", mongo.ErrNoDocuments)
}

func (f *fakeTickets) GetLatestTicket(_ context.Context, guildID string) (*entities.Ticket, error) {
	var latest *entities.Ticket
	for _, t := range f.byKey {
		if t.GuildID != guildID {
			continue
		}
		if latest == nil || t.ID > latest.ID {
			latest = t
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("error getting latest ticket: %w", mongo.ErrNoDocuments)
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeTickets) ListActiveWithThreads(_ context.Context) ([]*entities.Ticket, error) {
	var out []*entities.Ticket
	for _, t := range f.byKey {
		if !t.Status.IsTerminal() && t.Status != entities.StatusOrphaned && t.ThreadID != "" {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTickets) ListOpenTickets(_ context.Context, guildID string) ([]*entities.Ticket, error) {
	var out []*entities.Ticket
	for _, t := range f.byKey {
		if t.GuildID == guildID && t.Status == entities.StatusOpen {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCategories struct{}

func (fakeCategories) GetCategory(_ context.Context, _ string) (*entities.TicketCategory, error) {
	return nil, fmt.Errorf("error getting category: %w", mongo.ErrNoDocuments)
}

func (fakeCategories) ListCategories(_ context.Context, _ string) ([]*entities.TicketCategory, error) {
	return nil, nil
}

type fakeMappings struct {
	byThread map[string]*entities.ThreadMapping
}

func newFakeMappings() *fakeMappings {
	return &fakeMappings{byThread: make(map[string]*entities.ThreadMapping)}
}

func (f *fakeMappings) SaveMapping(_ context.Context, m *entities.ThreadMapping) error {
	copied := *m
	f.byThread[m.ThreadID] = &copied
	return nil
}

func (f *fakeMappings) GetMappingByThread(_ context.Context, threadID string) (*entities.ThreadMapping, error) {
	m, ok := f.byThread[threadID]
	if !ok {
		return nil, fmt.Errorf("error getting mapping: %w", mongo.ErrNoDocuments)
	}
	return m, nil
}

func (f *fakeMappings) ListActiveMappings(_ context.Context) ([]*entities.ThreadMapping, error) {
	var out []*entities.ThreadMapping
	for _, m := range f.byThread {
		if m.Status == entities.MappingActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMappings) MarkDeleted(_ context.Context, threadID string) error {
	if m, ok := f.byThread[threadID]; ok {
		m.Status = entities.MappingDeleted
	}
	return nil
}

type fakeAudit struct {
	entries []*entities.AuditLogEntry
}

func (f *fakeAudit) AppendEntry(_ context.Context, e *entities.AuditLogEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) ListEntries(_ context.Context, guildID string, ticketID int) ([]*entities.AuditLogEntry, error) {
	var out []*entities.AuditLogEntry
	for _, e := range f.entries {
		if e.GuildID == guildID && e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeResolutions struct {
	saved []*entities.Resolution
}

func (f *fakeResolutions) SaveResolution(_ context.Context, r *entities.Resolution) error {
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeResolutions) GetResolution(_ context.Context, guildID string, ticketID int) (*entities.Resolution, error) {
	for _, r := range f.saved {
		if r.GuildID == guildID && r.TicketID == ticketID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("error getting resolution: %w", mongo.ErrNoDocuments)
}

type fakeConfigs struct {
	byGuild map[string]*entities.GuildConfig
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{byGuild: make(map[string]*entities.GuildConfig)}
}

func (f *fakeConfigs) SaveConfig(_ context.Context, cfg *entities.GuildConfig) error {
	f.byGuild[cfg.GuildID] = cfg
	return nil
}

func (f *fakeConfigs) GetConfig(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	if cfg, ok := f.byGuild[guildID]; ok {
		return cfg, nil
	}
	return entities.DefaultGuildConfig(guildID), nil
}

func (f *fakeConfigs) ListAutoCloseEnabled(_ context.Context) ([]*entities.GuildConfig, error) {
	var out []*entities.GuildConfig
	for _, cfg := range f.byGuild {
		if cfg.AutoCloseEnabled {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}

type fakeProv struct {
	archived []string
	reopened []string
	notified map[string][]string

	// failNotify, when set, is returned by NotifyThread.
	failNotify error
}

func newFakeProv() *fakeProv {
	return &fakeProv{notified: make(map[string][]string)}
}

func (f *fakeProv) CreateTicketThread(_ context.Context, t *entities.Ticket, _ *entities.TicketCategory) (*platform.Channel, error) {
	return &platform.Channel{
		ID:      "thread-" + fmt.Sprint(t.ID),
		GuildID: t.GuildID,
		Name:    t.Name(),
		Kind:    platform.KindThread,
	}, nil
}

func (f *fakeProv) ArchiveTicket(_ context.Context, threadID string) error {
	f.archived = append(f.archived, threadID)
	return nil
}

func (f *fakeProv) ReopenTicket(_ context.Context, threadID string) error {
	f.reopened = append(f.reopened, threadID)
	return nil
}

func (f *fakeProv) NotifyThread(_ context.Context, channelID, content string) error {
	if f.failNotify != nil {
		return f.failNotify
	}
	f.notified[channelID] = append(f.notified[channelID], content)
	return nil
}

type fakeBroadcaster struct {
	events []events.Event
}

func (f *fakeBroadcaster) Broadcast(e events.Event) {
	f.events = append(f.events, e)
}

// fakePlatform serves channel probes from a static set of live IDs.
type fakePlatform struct {
	live map[string]bool

	// failing maps channel IDs onto transient probe errors.
	failing map[string]error

	probes []string
}

func newFakePlatform(liveIDs ...string) *fakePlatform {
	live := make(map[string]bool, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = true
	}
	return &fakePlatform{live: live, failing: make(map[string]error)}
}

func (f *fakePlatform) Channel(_ context.Context, channelID string) (*platform.Channel, error) {
	f.probes = append(f.probes, channelID)
	if err, ok := f.failing[channelID]; ok {
		return nil, err
	}
	if !f.live[channelID] {
		return nil, platform.ErrNotFound
	}
	return &platform.Channel{ID: channelID, Kind: platform.KindThread}, nil
}

func (f *fakePlatform) GuildChannels(_ context.Context, _ string) ([]*platform.Channel, error) {
	return nil, nil
}

func (f *fakePlatform) CreateCategory(_ context.Context, _, _ string) (*platform.Channel, error) {
	return nil, platform.ErrMissingAccess
}

func (f *fakePlatform) CreateChannel(_ context.Context, _, _, _ string) (*platform.Channel, error) {
	return nil, platform.ErrMissingAccess
}

func (f *fakePlatform) CreateThread(_ context.Context, _, _ string, _ time.Duration) (*platform.Channel, error) {
	return nil, platform.ErrMissingAccess
}

func (f *fakePlatform) SetThreadState(_ context.Context, _ string, _, _ bool) error {
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, _, _ string) error {
	return nil
}

// jobHarness wires a real lifecycle service over in-memory storage so the
// jobs are exercised against the same transition rules production uses.
type jobHarness struct {
	svc *lifecycle.Service

	tickets     *fakeTickets
	mappings    *fakeMappings
	audit       *fakeAudit
	resolutions *fakeResolutions
	configs     *fakeConfigs
	prov        *fakeProv
	broadcaster *fakeBroadcaster
	cache       *lifecycle.MappingCache
}

func newJobHarness(t *testing.T) *jobHarness {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	h := &jobHarness{
		tickets:     newFakeTickets(),
		mappings:    newFakeMappings(),
		audit:       new(fakeAudit),
		resolutions: new(fakeResolutions),
		configs:     newFakeConfigs(),
		prov:        newFakeProv(),
		broadcaster: new(fakeBroadcaster),
		cache:       lifecycle.NewMappingCache(),
	}

	h.svc = lifecycle.NewService(l, h.tickets, fakeCategories{}, h.mappings, h.audit,
		h.resolutions, h.configs, h.prov, h.broadcaster, h.cache)
	return h
}
