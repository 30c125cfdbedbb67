package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/db"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestStore migrates the database named by TEAMSYNC_TEST_DATABASE_URL
// and returns a store on it. Each test uses fresh usernames so runs do not
// collide.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEAMSYNC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEAMSYNC_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	migrator, err := db.NewMigrator(url, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	database, err := db.New(ctx, url, db.PoolOptions{MaxConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(database.Close)
	return NewStore(database.Pool())
}

func seedUsers(t *testing.T, s *Store, n int) []string {
	t.Helper()
	prefix := uuid.NewString()[:8]
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := prefix + "-" + string(rune('a'+i))
		require.NoError(t, s.Users().Create(context.Background(), &models.User{Username: name, Email: name + "@example.com"}))
		names = append(names, name)
	}
	return names
}

func TestJoinRowsAreDeduplicated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUsers(t, s, 3)

	team := &models.Team{Name: "dedup"}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		if err := tx.Teams().ReplaceAdministrators(ctx, team.ID, []string{u[0], u[0]}); err != nil {
			return err
		}
		return tx.Teams().ReplaceMembers(ctx, team.ID, []string{u[1], u[2], u[1]})
	}))

	got, err := s.Teams().GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u[0]}, got.Administrators)
	assert.ElementsMatch(t, []string{u[1], u[2]}, got.Members)
}

func TestUnknownUserIsInvalidReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	team := &models.Team{Name: "fk"}
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		return tx.Teams().ReplaceMembers(ctx, team.ID, []string{"ghost-" + uuid.NewString()})
	})
	assert.True(t, errors.Is(err, repository.ErrInvalidReference), "got %v", err)

	got, err := s.Teams().GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "rolled back")
}

func TestChannelMembersAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUsers(t, s, 3)

	team := &models.Team{Name: "cascade"}
	ch := &models.Channel{Name: "limited", MembersScope: models.ScopeLimited, Creator: &u[0]}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		if err := tx.Teams().ReplaceAdministrators(ctx, team.ID, u[:1]); err != nil {
			return err
		}
		ch.TeamID = team.ID
		if err := tx.Channels().Create(ctx, ch); err != nil {
			return err
		}
		return tx.Channels().ReplaceMembers(ctx, ch.ID, u)
	}))

	require.NoError(t, s.Channels().RemoveMembers(ctx, ch.ID, []string{u[1], "absent"}))
	got, err := s.Channels().GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{u[0], u[2]}, got.Members)
	assert.Equal(t, models.ScopeLimited, got.MembersScope)
	require.NotNil(t, got.Creator)

	list, err := s.Channels().ListByTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Teams().Delete(ctx, team.ID))
	got, err = s.Channels().GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUsers(t, s, 2)

	for _, name := range []string{"Zulu", "alpha"} {
		team := &models.Team{Name: name, Description: "shared"}
		require.NoError(t, s.WithinTx(ctx, func(tx repository.Store) error {
			if err := tx.Teams().Create(ctx, team); err != nil {
				return err
			}
			if err := tx.Teams().ReplaceAdministrators(ctx, team.ID, u[:1]); err != nil {
				return err
			}
			return tx.Teams().ReplaceMembers(ctx, team.ID, u[:1])
		}))
	}

	got, err := s.Teams().List(ctx, models.TeamQuery{Operator: u[0], Sort: models.SortName, Descending: true})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Teams().List(ctx, models.TeamQuery{Operator: u[0], Keyword: "ZUL"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Zulu", got[0].Name)

	got, err = s.Teams().List(ctx, models.TeamQuery{Operator: u[1]})
	require.NoError(t, err)
	assert.Empty(t, got)
}
