package team

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository/inmem"
	"github.com/lalith-99/teamsync/internal/service/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *inmem.Store
	teams    *Service
	channels *channel.Service
	events   *recorder
}

// tick advances one second per call so changed_at ordering is stable.
func tick() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// newFixture registers users A through G.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := inmem.New(inmem.WithClock(tick()))
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		require.NoError(t, store.Users().Create(ctx, &models.User{Username: name, Email: name + "@example.com"}))
	}
	events := &recorder{}
	channels := channel.New(store, events, nil, zap.NewNop())
	return &fixture{
		store:    store,
		teams:    New(store, channels, events, zap.NewNop()),
		channels: channels,
		events:   events,
	}
}

func (f *fixture) channelMembers(t *testing.T, id uuid.UUID) []string {
	t.Helper()
	ch, err := f.store.Channels().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, ch)
	return ch.Members
}

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{
		Name:           "core",
		Administrators: []string{"A", "B"},
		Members:        []string{"C", "D", "E"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, team.Administrators)
	assert.Equal(t, []string{"C", "D", "E"}, team.Members)

	stored, err := f.teams.Get(ctx, team.ID, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, stored.Administrators)
	assert.Equal(t, []string{"C", "D", "E"}, stored.Members)
}

func TestCreateTeamIncludesOperator(t *testing.T) {
	f := newFixture(t)

	team, err := f.teams.Create(context.Background(), "A", Input{
		Name:           "core",
		Administrators: []string{"B", "B"},
		Members:        []string{"C", "C", "D"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, team.Administrators)
	assert.Equal(t, []string{"C", "D"}, team.Members)
}

func TestCreateTeamRejectsUnknownUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.teams.Create(ctx, "A", Input{
		Name:           "core",
		Administrators: []string{"B", "nobody"},
		Members:        []string{"C", "ghost"},
	})
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "unknown users: nobody", e.Fields["administrators"])
	assert.Equal(t, "unknown users: ghost", e.Fields["members"])

	_, err = f.teams.Create(ctx, "stranger", Input{Name: "core"})
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "operator_user")

	_, err = f.teams.Create(ctx, "", Input{Name: "core"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.teams.Create(ctx, "A", Input{Name: ""})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	teams, err := f.teams.List(ctx, "A", ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestUpdateTeamSyncsChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{
		Name:           "core",
		Administrators: []string{"B"},
		Members:        []string{"C", "D", "E"},
	})
	require.NoError(t, err)

	general, err := f.channels.Create(ctx, "A", channel.CreateInput{TeamID: team.ID, Name: "general"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, general.Members)

	withD, err := f.channels.Create(ctx, "A", channel.CreateInput{
		TeamID: team.ID, Name: "cde", MembersScope: models.ScopeLimited, Members: []string{"C", "D", "E"},
	})
	require.NoError(t, err)
	withoutD, err := f.channels.Create(ctx, "A", channel.CreateInput{
		TeamID: team.ID, Name: "ce", MembersScope: models.ScopeLimited, Members: []string{"C", "E"},
	})
	require.NoError(t, err)

	// D leaves.
	updated, err := f.teams.Update(ctx, team.ID, "A", Input{
		Name:           "core",
		Administrators: []string{"A", "B"},
		Members:        []string{"C", "E"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "E"}, updated.Members)
	assert.Equal(t, []string{"A", "B", "C", "E"}, f.channelMembers(t, general.ID))
	assert.Equal(t, []string{"C", "E"}, f.channelMembers(t, withD.ID))
	assert.Equal(t, []string{"C", "E"}, f.channelMembers(t, withoutD.ID))

	// F joins.
	_, err = f.teams.Update(ctx, team.ID, "A", Input{
		Name:           "core",
		Administrators: []string{"A", "B"},
		Members:        []string{"C", "E", "F"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "E", "F"}, f.channelMembers(t, general.ID))
	assert.Equal(t, []string{"C", "E"}, f.channelMembers(t, withD.ID))
	assert.Equal(t, []string{"C", "E"}, f.channelMembers(t, withoutD.ID))
}

func TestUpdateTeamRoleChangeIsNotRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Administrators: []string{"B"}, Members: []string{"C"}})
	require.NoError(t, err)
	limited, err := f.channels.Create(ctx, "A", channel.CreateInput{
		TeamID: team.ID, Name: "b", MembersScope: models.ScopeLimited, Members: []string{"B"},
	})
	require.NoError(t, err)

	// B moves from administrators to members.
	_, err = f.teams.Update(ctx, team.ID, "A", Input{Name: "core", Administrators: []string{"A"}, Members: []string{"B", "C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, f.channelMembers(t, limited.ID))
}

func TestUpdateTeamKeepsOperatorAdministrator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Administrators: []string{"B"}})
	require.NoError(t, err)

	updated, err := f.teams.Update(ctx, team.ID, "B", Input{Name: "core", Administrators: []string{"C"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, updated.Administrators)
	assert.Empty(t, updated.Members)
}

func TestUpdateTeamPermissionDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Members: []string{"C"}})
	require.NoError(t, err)
	before, err := f.teams.Get(ctx, team.ID, "A")
	require.NoError(t, err)

	for _, operator := range []string{"G", "C", "nobody", ""} {
		_, err = f.teams.Update(ctx, team.ID, operator, Input{Name: "hijacked", Administrators: []string{operator}})
		assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "operator %q", operator)
	}

	after, err := f.teams.Get(ctx, team.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, f.events.types())
}

func TestUpdateTeamRollsBackOnUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Members: []string{"C", "D"}})
	require.NoError(t, err)
	general, err := f.channels.Create(ctx, "A", channel.CreateInput{TeamID: team.ID, Name: "general"})
	require.NoError(t, err)

	_, err = f.teams.Update(ctx, team.ID, "A", Input{Name: "renamed", Members: []string{"C", "ghost"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := f.teams.Get(ctx, team.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, "core", got.Name)
	assert.Equal(t, []string{"C", "D"}, got.Members)
	assert.Equal(t, []string{"A", "C", "D"}, f.channelMembers(t, general.ID))
}

func TestUpdateTeamNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.teams.Update(context.Background(), uuid.New(), "A", Input{Name: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateTeamPublishesAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Members: []string{"C"}})
	require.NoError(t, err)
	_, err = f.channels.Create(ctx, "A", channel.CreateInput{TeamID: team.ID, Name: "general"})
	require.NoError(t, err)

	_, err = f.teams.Update(ctx, team.ID, "A", Input{Name: "core", Members: []string{"C", "D"}})
	require.NoError(t, err)

	assert.Equal(t, []models.EventType{
		models.EventChannelCreated,
		models.EventTeamUpdated,
		models.EventChannelMembersSynced,
	}, f.events.types())
}

func TestDeleteTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Members: []string{"C"}})
	require.NoError(t, err)
	ch, err := f.channels.Create(ctx, "C", channel.CreateInput{TeamID: team.ID, Name: "general"})
	require.NoError(t, err)

	err = f.teams.Delete(ctx, team.ID, "C")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))

	require.NoError(t, f.teams.Delete(ctx, team.ID, "A"))

	_, err = f.teams.Get(ctx, team.ID, "A")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	got, err := f.store.Channels().GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = f.teams.Delete(ctx, team.ID, "A")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.Create(ctx, "A", Input{Name: "core", Members: []string{"C"}})
	require.NoError(t, err)

	_, err = f.teams.Get(ctx, team.ID, "C")
	require.NoError(t, err)
	_, err = f.teams.Get(ctx, team.ID, "G")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
	_, err = f.teams.Get(ctx, uuid.New(), "A")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
