package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/provision"
	"github.com/Jacobbrewer1/warden/pkg/ratelimit"
	"github.com/stretchr/testify/require"
)

// fakeLocks claims in memory with the same contract as the storage-backed
// lock: the first claim of an interaction ID wins, repeats lose.
type fakeLocks struct {
	claimed map[string]bool
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{claimed: make(map[string]bool)}
}

func (f *fakeLocks) TryClaim(_ context.Context, interactionID, _, _ string) bool {
	if f.claimed[interactionID] {
		return false
	}
	f.claimed[interactionID] = true
	return true
}

func (f *fakeLocks) EnsureIndexes(context.Context) error {
	return nil
}

// fakeCategories serves a fixed category list.
type fakeCategories struct {
	cats []*entities.TicketCategory
	err  error
}

func (f *fakeCategories) GetCategory(_ context.Context, id string) (*entities.TicketCategory, error) {
	for _, c := range f.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, f.err
}

func (f *fakeCategories) ListCategories(context.Context, string) ([]*entities.TicketCategory, error) {
	return f.cats, f.err
}

// testApp implements IApp over fakes. Only the accessors the path under
// test touches are populated.
type testApp struct {
	l     *slog.Logger
	locks dataaccess.LockDal
	cats  dataaccess.CategoryDal
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")
	return &testApp{
		l:     l,
		locks: newFakeLocks(),
		cats:  &fakeCategories{},
	}
}

func (a *testApp) Log() *slog.Logger                 { return a.l }
func (a *testApp) Session() *discordgo.Session       { return nil }
func (a *testApp) Lifecycle() *lifecycle.Service     { return nil }
func (a *testApp) Mappings() *lifecycle.MappingCache { return nil }
func (a *testApp) Configs() dataaccess.ConfigDal     { return nil }
func (a *testApp) Locks() dataaccess.LockDal         { return a.locks }
func (a *testApp) Categories() dataaccess.CategoryDal { return a.cats }
func (a *testApp) Provision() *provision.Provisioner { return nil }
func (a *testApp) Limiter() *ratelimit.Limiter       { return nil }

func slashInteraction(id, command string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   id,
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: command},
		User: &discordgo.User{ID: "user-1"},
	}}
}

func componentInteraction(id, customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   id,
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: customID},
		User: &discordgo.User{ID: "user-1"},
	}}
}

func TestInteractionHandler_RedeliveredCommandSuppressed(t *testing.T) {
	a := newTestApp(t)

	processed := 0
	handler := interactionHandler(a,
		map[string]commandController{
			TicketCmdName: func(IApp, *discordgo.InteractionCreate) (commandProcessor, error) {
				return func(IApp, *discordgo.InteractionCreate) error {
					processed++
					return nil
				}, nil
			},
		}, nil, nil)

	i := slashInteraction("interaction-1", TicketCmdName)

	// The redelivery carries the same interaction ID; only the first
	// delivery may act.
	handler(nil, i)
	handler(nil, i)

	require.Equal(t, 1, processed)
}

func TestInteractionHandler_DistinctCommandsBothProcessed(t *testing.T) {
	a := newTestApp(t)

	processed := 0
	handler := interactionHandler(a,
		map[string]commandController{
			TicketCmdName: func(IApp, *discordgo.InteractionCreate) (commandProcessor, error) {
				return func(IApp, *discordgo.InteractionCreate) error {
					processed++
					return nil
				}, nil
			},
		}, nil, nil)

	// Same action, different interactions. The claim is per interaction
	// ID, not per action.
	handler(nil, slashInteraction("interaction-1", TicketCmdName))
	handler(nil, slashInteraction("interaction-2", TicketCmdName))

	require.Equal(t, 2, processed)
}

func TestInteractionHandler_RedeliveredComponentSuppressed(t *testing.T) {
	a := newTestApp(t)

	processed := 0
	handler := interactionHandler(a, nil,
		map[string]commandProcessor{
			ActionClaim: func(IApp, *discordgo.InteractionCreate) error {
				processed++
				return nil
			},
		}, nil)

	i := componentInteraction("interaction-3", CustomID{Action: ActionClaim, TicketID: 4}.String())

	handler(nil, i)
	handler(nil, i)

	require.Equal(t, 1, processed)
}

func TestInteractionHandler_ForeignComponentIgnored(t *testing.T) {
	a := newTestApp(t)
	locks := a.locks.(*fakeLocks)

	processed := 0
	handler := interactionHandler(a, nil,
		map[string]commandProcessor{
			ActionClaim: func(IApp, *discordgo.InteractionCreate) error {
				processed++
				return nil
			},
		}, nil)

	// A component from some other feature on the same message. It is
	// dropped before the deduplication claim, not just before routing.
	handler(nil, componentInteraction("interaction-4", "poll:vote:2"))

	require.Zero(t, processed)
	require.Empty(t, locks.claimed)
}
