package channel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
	"go.uber.org/zap"
)

// OnTeamMembershipChanged propagates a team update into the team's
// channels. It must run on the transaction that changed the team.
//
//   - LIMITED: rows for users in removed are deleted; nobody is added.
//   - DEFAULT: all rows are deleted and current is inserted, so the channel
//     equals administrators ∪ members again, growth included.
//
// It returns the channels whose membership actually changed.
func (s *Service) OnTeamMembershipChanged(ctx context.Context, tx repository.Store, teamID uuid.UUID, removed, current userset.Set) ([]models.Channel, error) {
	channels, err := tx.Channels().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	changed := make([]models.Channel, 0)
	for _, ch := range channels {
		before := userset.Of(ch.Members...)

		switch ch.MembersScope {
		case models.ScopeLimited:
			gone := before.Intersect(removed)
			if gone.Len() == 0 {
				continue
			}
			if err := tx.Channels().RemoveMembers(ctx, ch.ID, gone.Sorted()); err != nil {
				return nil, fmt.Errorf("sync limited channel %s: %w", ch.ID, err)
			}
			ch.Members = before.Minus(gone).Sorted()
			s.metrics.ChannelSynced(ch.MembersScope, gone.Len())

		case models.ScopeDefault:
			if err := tx.Channels().ReplaceMembers(ctx, ch.ID, current.Sorted()); err != nil {
				return nil, fmt.Errorf("sync default channel %s: %w", ch.ID, err)
			}
			if before.Equal(current) {
				continue
			}
			ch.Members = current.Sorted()
			s.metrics.ChannelSynced(ch.MembersScope, before.Minus(current).Len())

		default:
			continue
		}

		s.logger.Debug("channel membership synced",
			zap.String("channel_id", ch.ID.String()),
			zap.String("scope", ch.MembersScope.String()),
			zap.Int("members", len(ch.Members)),
		)
		changed = append(changed, ch)
	}
	return changed, nil
}
