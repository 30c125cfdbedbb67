package inmem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
)

type teamRepo struct {
	s *Store
}

func (st *state) team(id uuid.UUID) (*models.Team, bool) {
	t, ok := st.teams[id]
	if !ok {
		return nil, false
	}
	t.Administrators = st.admins[id].Sorted()
	t.Members = st.members[id].Sorted()
	return &t, true
}

// checkUsers mirrors the users foreign key on the join tables.
func (st *state) checkUsers(names userset.Set) error {
	for name := range names {
		if _, ok := st.users[name]; !ok {
			return fmt.Errorf("%w: user %s", repository.ErrInvalidReference, name)
		}
	}
	return nil
}

func (r teamRepo) Create(ctx context.Context, t *models.Team) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.teams[t.ID]; ok {
			return fmt.Errorf("%w: team %s", repository.ErrDuplicate, t.ID)
		}
		now := r.s.db.now()
		t.CreatedAt, t.ChangedAt = now, now
		row := *t
		row.Administrators, row.Members = nil, nil
		st.teams[t.ID] = row
		return nil
	})
}

func (r teamRepo) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var out *models.Team
	err := r.s.view(ctx, func(st *state) error {
		out, _ = st.team(teamID)
		return nil
	})
	return out, err
}

// LockByID needs no extra locking: transactions are already serialized.
func (r teamRepo) LockByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	return r.GetByID(ctx, teamID)
}

func (r teamRepo) Update(ctx context.Context, t *models.Team) error {
	return r.s.view(ctx, func(st *state) error {
		row, ok := st.teams[t.ID]
		if !ok {
			return fmt.Errorf("update team: %s does not exist", t.ID)
		}
		row.Name = t.Name
		row.Description = t.Description
		row.ChangedAt = r.s.db.now()
		st.teams[t.ID] = row
		t.ChangedAt = row.ChangedAt
		return nil
	})
}

func (r teamRepo) Delete(ctx context.Context, teamID uuid.UUID) error {
	return r.s.view(ctx, func(st *state) error {
		delete(st.teams, teamID)
		delete(st.admins, teamID)
		delete(st.members, teamID)
		for id, ch := range st.channels {
			if ch.TeamID == teamID {
				delete(st.channels, id)
				delete(st.channelMembers, id)
			}
		}
		return nil
	})
}

func (r teamRepo) replace(ctx context.Context, rel func(*state) map[uuid.UUID]userset.Set, teamID uuid.UUID, usernames []string) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.teams[teamID]; !ok {
			return fmt.Errorf("%w: team %s", repository.ErrInvalidReference, teamID)
		}
		names := userset.Of(usernames...)
		if err := st.checkUsers(names); err != nil {
			return err
		}
		rel(st)[teamID] = names
		return nil
	})
}

func (r teamRepo) ReplaceAdministrators(ctx context.Context, teamID uuid.UUID, usernames []string) error {
	return r.replace(ctx, func(st *state) map[uuid.UUID]userset.Set { return st.admins }, teamID, usernames)
}

func (r teamRepo) ReplaceMembers(ctx context.Context, teamID uuid.UUID, usernames []string) error {
	return r.replace(ctx, func(st *state) map[uuid.UUID]userset.Set { return st.members }, teamID, usernames)
}

func (r teamRepo) List(ctx context.Context, q models.TeamQuery) ([]models.Team, error) {
	teams := make([]models.Team, 0)
	err := r.s.view(ctx, func(st *state) error {
		keyword := strings.ToLower(q.Keyword)
		for id := range st.teams {
			if !st.admins[id].Has(q.Operator) && !st.members[id].Has(q.Operator) {
				continue
			}
			t, _ := st.team(id)
			if keyword != "" &&
				!strings.Contains(strings.ToLower(t.Name), keyword) &&
				!strings.Contains(strings.ToLower(t.Description), keyword) {
				continue
			}
			teams = append(teams, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if c := compareTeams(a, b, q.Sort); c != 0 {
			if q.Descending {
				return c > 0
			}
			return c < 0
		}
		if c := a.ChangedAt.Compare(b.ChangedAt); c != 0 {
			return c < 0
		}
		return a.ID.String() < b.ID.String()
	})
	return teams, nil
}

func compareTeams(a, b models.Team, key models.TeamSort) int {
	switch key {
	case models.SortName:
		return strings.Compare(a.Name, b.Name)
	case models.SortDescription:
		return strings.Compare(a.Description, b.Description)
	case models.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return a.ChangedAt.Compare(b.ChangedAt)
	}
}
