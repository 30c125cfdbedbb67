package inmem

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
)

type channelRepo struct {
	s *Store
}

func (st *state) channel(id uuid.UUID) (*models.Channel, bool) {
	ch, ok := st.channels[id]
	if !ok {
		return nil, false
	}
	if ch.Creator != nil {
		// creator behaves like ON DELETE SET NULL
		if _, exists := st.users[*ch.Creator]; !exists {
			ch.Creator = nil
		} else {
			creator := *ch.Creator
			ch.Creator = &creator
		}
	}
	ch.Members = st.channelMembers[id].Sorted()
	return &ch, true
}

func (r channelRepo) Create(ctx context.Context, ch *models.Channel) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.teams[ch.TeamID]; !ok {
			return fmt.Errorf("%w: team %s", repository.ErrInvalidReference, ch.TeamID)
		}
		if ch.Creator != nil {
			if _, ok := st.users[*ch.Creator]; !ok {
				return fmt.Errorf("%w: user %s", repository.ErrInvalidReference, *ch.Creator)
			}
		}
		now := r.s.db.now()
		ch.CreatedAt, ch.ChangedAt = now, now
		row := *ch
		row.Members = nil
		st.channels[ch.ID] = row
		return nil
	})
}

func (r channelRepo) GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error) {
	var out *models.Channel
	err := r.s.view(ctx, func(st *state) error {
		out, _ = st.channel(channelID)
		return nil
	})
	return out, err
}

func (r channelRepo) Update(ctx context.Context, ch *models.Channel) error {
	return r.s.view(ctx, func(st *state) error {
		row, ok := st.channels[ch.ID]
		if !ok {
			return fmt.Errorf("update channel: %s does not exist", ch.ID)
		}
		row.Name = ch.Name
		row.Description = ch.Description
		row.ChangedAt = r.s.db.now()
		st.channels[ch.ID] = row
		ch.ChangedAt = row.ChangedAt
		return nil
	})
}

func (r channelRepo) Delete(ctx context.Context, channelID uuid.UUID) error {
	return r.s.view(ctx, func(st *state) error {
		delete(st.channels, channelID)
		delete(st.channelMembers, channelID)
		return nil
	})
}

func (r channelRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Channel, error) {
	channels := make([]models.Channel, 0)
	err := r.s.view(ctx, func(st *state) error {
		for id, row := range st.channels {
			if row.TeamID != teamID {
				continue
			}
			ch, _ := st.channel(id)
			channels = append(channels, *ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(channels, func(i, j int) bool {
		if c := channels[i].CreatedAt.Compare(channels[j].CreatedAt); c != 0 {
			return c < 0
		}
		return channels[i].ID.String() < channels[j].ID.String()
	})
	return channels, nil
}

func (r channelRepo) ReplaceMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.channels[channelID]; !ok {
			return fmt.Errorf("%w: channel %s", repository.ErrInvalidReference, channelID)
		}
		names := userset.Of(usernames...)
		if err := st.checkUsers(names); err != nil {
			return err
		}
		st.channelMembers[channelID] = names
		return nil
	})
}

func (r channelRepo) RemoveMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error {
	return r.s.view(ctx, func(st *state) error {
		current, ok := st.channelMembers[channelID]
		if !ok {
			return nil
		}
		st.channelMembers[channelID] = current.Minus(userset.Of(usernames...))
		return nil
	})
}
