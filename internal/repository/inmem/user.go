package inmem

import (
	"context"
	"fmt"

	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
)

type userRepo struct {
	s *Store
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.users[u.Username]; ok {
			return fmt.Errorf("%w: username %s", repository.ErrDuplicate, u.Username)
		}
		for _, other := range st.users {
			if other.Email == u.Email {
				return fmt.Errorf("%w: email %s", repository.ErrDuplicate, u.Email)
			}
		}
		u.CreatedAt = r.s.db.now()
		st.users[u.Username] = *u
		return nil
	})
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.s.view(ctx, func(st *state) error {
		if u, ok := st.users[username]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r userRepo) ListByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	out := make([]models.User, 0, len(usernames))
	err := r.s.view(ctx, func(st *state) error {
		for _, name := range userset.Of(usernames...).Sorted() {
			if u, ok := st.users[name]; ok {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}
