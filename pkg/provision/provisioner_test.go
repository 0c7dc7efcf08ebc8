package provision

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"github.com/stretchr/testify/require"
)

// passthroughDoer runs the call once with no retry, standing in for
// retry.Runner.
type passthroughDoer struct{}

func (passthroughDoer) Do(_ context.Context, _ string, fn func() error) error {
	return fn()
}

type fakePlatform struct {
	nextID int

	// byID holds every channel, category and thread.
	byID map[string]*platform.Channel

	// calls counts invocations per method.
	calls map[string]int

	// sent records messages per channel.
	sent map[string][]string

	// failCreateThread, when set, is returned by CreateThread.
	failCreateThread error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		byID:  make(map[string]*platform.Channel),
		calls: make(map[string]int),
		sent:  make(map[string][]string),
	}
}

func (f *fakePlatform) add(c *platform.Channel) *platform.Channel {
	if c.ID == "" {
		f.nextID++
		c.ID = fmt.Sprintf("chan-%d", f.nextID)
	}
	f.byID[c.ID] = c
	return c
}

func (f *fakePlatform) Channel(_ context.Context, id string) (*platform.Channel, error) {
	f.calls["Channel"]++
	c, ok := f.byID[id]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return c, nil
}

func (f *fakePlatform) GuildChannels(_ context.Context, guildID string) ([]*platform.Channel, error) {
	f.calls["GuildChannels"]++
	var out []*platform.Channel
	for _, c := range f.byID {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakePlatform) CreateCategory(_ context.Context, guildID, name string) (*platform.Channel, error) {
	f.calls["CreateCategory"]++
	return f.add(&platform.Channel{GuildID: guildID, Name: name, Kind: platform.KindCategory}), nil
}

func (f *fakePlatform) CreateChannel(_ context.Context, guildID, name, parentID string) (*platform.Channel, error) {
	f.calls["CreateChannel"]++
	if _, ok := f.byID[parentID]; !ok {
		return nil, platform.ErrNotFound
	}
	return f.add(&platform.Channel{GuildID: guildID, Name: name, ParentID: parentID, Kind: platform.KindText}), nil
}

func (f *fakePlatform) CreateThread(_ context.Context, channelID, name string, _ time.Duration) (*platform.Channel, error) {
	f.calls["CreateThread"]++
	if f.failCreateThread != nil {
		return nil, f.failCreateThread
	}
	parent, ok := f.byID[channelID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return f.add(&platform.Channel{GuildID: parent.GuildID, Name: name, ParentID: channelID, Kind: platform.KindThread}), nil
}

func (f *fakePlatform) SetThreadState(_ context.Context, threadID string, archived, locked bool) error {
	f.calls["SetThreadState"]++
	c, ok := f.byID[threadID]
	if !ok {
		return platform.ErrNotFound
	}
	c.Archived = archived
	c.Locked = locked
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.calls["SendMessage"]++
	if _, ok := f.byID[channelID]; !ok {
		return platform.ErrNotFound
	}
	f.sent[channelID] = append(f.sent[channelID], content)
	return nil
}

type fakeConfigDal struct {
	cfgs map[string]*entities.GuildConfig
}

func (f *fakeConfigDal) SaveConfig(_ context.Context, cfg *entities.GuildConfig) error {
	f.cfgs[cfg.GuildID] = cfg
	return nil
}

func (f *fakeConfigDal) GetConfig(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	if cfg, ok := f.cfgs[guildID]; ok {
		return cfg, nil
	}
	return entities.DefaultGuildConfig(guildID), nil
}

func (f *fakeConfigDal) ListAutoCloseEnabled(_ context.Context) ([]*entities.GuildConfig, error) {
	var out []*entities.GuildConfig
	for _, cfg := range f.cfgs {
		if cfg.AutoCloseEnabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func testProvisioner(t *testing.T) (*Provisioner, *fakePlatform, *fakeConfigDal) {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	fp := newFakePlatform()
	cfgs := &fakeConfigDal{cfgs: make(map[string]*entities.GuildConfig)}
	return New(l, fp, passthroughDoer{}, NewCache(), cfgs), fp, cfgs
}

func TestProvisioner_EnsureActiveCategory(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	// No category exists, so one is created.
	id, err := p.EnsureActiveCategory(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 1, fp.calls["CreateCategory"])
	require.Equal(t, ActiveCategoryName, fp.byID[id].Name)

	// Second call is served from the cache.
	id2, err := p.EnsureActiveCategory(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, id, id2)
	require.Equal(t, 1, fp.calls["CreateCategory"])
	require.Equal(t, 1, fp.calls["GuildChannels"])
}

func TestProvisioner_EnsureActiveCategory_FindsExisting(t *testing.T) {
	p, fp, _ := testProvisioner(t)

	existing := fp.add(&platform.Channel{GuildID: "g1", Name: ActiveCategoryName, Kind: platform.KindCategory})

	id, err := p.EnsureActiveCategory(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, existing.ID, id)
	require.Zero(t, fp.calls["CreateCategory"])
}

func TestProvisioner_EnsureCategoryChannel_Deterministic(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	cat := &entities.TicketCategory{ID: "c1", GuildID: "g1", Name: "Network Issues", Enabled: true}

	id, err := p.EnsureCategoryChannel(ctx, "g1", cat)
	require.NoError(t, err)
	require.Equal(t, "network-issues", fp.byID[id].Name)

	// A fresh provisioner with a cold cache finds the same channel instead
	// of duplicating it.
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)
	p2 := New(l, fp, passthroughDoer{}, NewCache(), &fakeConfigDal{cfgs: make(map[string]*entities.GuildConfig)})

	id2, err := p2.EnsureCategoryChannel(ctx, "g1", cat)
	require.NoError(t, err)
	require.Equal(t, id, id2)
	require.Equal(t, 1, fp.calls["CreateChannel"])
}

func TestProvisioner_CreateTicketThread(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	cat := &entities.TicketCategory{ID: "c1", GuildID: "g1", Name: "network", Enabled: true}
	ticket := &entities.Ticket{ID: 7, GuildID: "g1", Title: "VPN down"}

	thread, err := p.CreateTicketThread(ctx, ticket, cat)
	require.NoError(t, err)
	require.Equal(t, "7-VPN down", thread.Name)
	require.Equal(t, platform.KindThread, fp.byID[thread.ID].Kind)

	// The thread lives under the category channel.
	parent := fp.byID[thread.ParentID]
	require.Equal(t, "network", parent.Name)
}

func TestProvisioner_CreateTicketThread_FallbackChannel(t *testing.T) {
	p, fp, cfgs := testProvisioner(t)
	ctx := context.Background()

	admin := fp.add(&platform.Channel{GuildID: "g1", Name: "staff", Kind: platform.KindText})
	cfgs.cfgs["g1"] = &entities.GuildConfig{GuildID: "g1", AdminChannelID: admin.ID}

	// No category given, so the thread lands in the admin channel.
	ticket := &entities.Ticket{ID: 3, GuildID: "g1", Title: "help"}
	thread, err := p.CreateTicketThread(ctx, ticket, nil)
	require.NoError(t, err)
	require.Equal(t, admin.ID, thread.ParentID)
}

func TestProvisioner_CreateTicketThread_InvalidatesStaleChannel(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	cat := &entities.TicketCategory{ID: "c1", GuildID: "g1", Name: "network", Enabled: true}

	// Prime the cache, then delete the channel behind the provisioner's back.
	id, err := p.EnsureCategoryChannel(ctx, "g1", cat)
	require.NoError(t, err)
	delete(fp.byID, id)

	ticket := &entities.Ticket{ID: 9, GuildID: "g1", Title: "stale"}
	thread, err := p.CreateTicketThread(ctx, ticket, cat)
	require.NoError(t, err)

	// The channel was recreated rather than the creation failing.
	require.NotEqual(t, id, thread.ParentID)
	require.Equal(t, "network", fp.byID[thread.ParentID].Name)
}

func TestProvisioner_ArchiveTicket_Idempotent(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	thread := fp.add(&platform.Channel{GuildID: "g1", Name: "1-x", Kind: platform.KindThread})

	require.NoError(t, p.ArchiveTicket(ctx, thread.ID))
	require.True(t, thread.Archived)
	require.True(t, thread.Locked)
	require.Equal(t, 1, fp.calls["SetThreadState"])

	// Archiving an archived thread does not touch the platform again.
	require.NoError(t, p.ArchiveTicket(ctx, thread.ID))
	require.Equal(t, 1, fp.calls["SetThreadState"])

	require.NoError(t, p.ReopenTicket(ctx, thread.ID))
	require.False(t, thread.Archived)
	require.False(t, thread.Locked)
}

func TestProvisioner_CacheChannelStructure(t *testing.T) {
	p, fp, _ := testProvisioner(t)
	ctx := context.Background()

	active := fp.add(&platform.Channel{GuildID: "g1", Name: ActiveCategoryName, Kind: platform.KindCategory})
	fp.add(&platform.Channel{GuildID: "g1", Name: ArchiveCategoryName, Kind: platform.KindCategory})
	fp.add(&platform.Channel{GuildID: "g1", Name: "network", ParentID: active.ID, Kind: platform.KindText})

	require.NoError(t, p.CacheChannelStructure(ctx, "g1"))

	// Warm caches mean no further listing or creation.
	_, err := p.EnsureActiveCategory(ctx, "g1")
	require.NoError(t, err)
	_, err = p.EnsureArchiveCategory(ctx, "g1")
	require.NoError(t, err)
	_, err = p.EnsureCategoryChannel(ctx, "g1", &entities.TicketCategory{ID: "c1", Name: "network"})
	require.NoError(t, err)

	require.Equal(t, 1, fp.calls["GuildChannels"])
	require.Zero(t, fp.calls["CreateCategory"])
	require.Zero(t, fp.calls["CreateChannel"])
}
