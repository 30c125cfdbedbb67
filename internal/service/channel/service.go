package channel

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/authz"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/observ"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/service/user"
	"github.com/lalith-99/teamsync/internal/userset"
	"go.uber.org/zap"
)

const (
	maxNameLen        = 64
	maxDescriptionLen = 200
)

// Publisher receives events after the transaction that produced them has
// committed.
type Publisher interface {
	Publish(ev models.Event)
}

// Service owns channel membership: it applies the DEFAULT/LIMITED policy
// on create and keeps channels in step with their team on every team
// membership change.
type Service struct {
	store   repository.Store
	events  Publisher
	metrics *observ.Metrics
	logger  *zap.Logger
}

func New(store repository.Store, events Publisher, metrics *observ.Metrics, logger *zap.Logger) *Service {
	return &Service{store: store, events: events, metrics: metrics, logger: logger}
}

// CreateInput carries a new channel. Members nil means "not supplied",
// which only LIMITED channels reject.
type CreateInput struct {
	TeamID       uuid.UUID
	Name         string
	Description  string
	MembersScope models.MembersScope
	Members      []string
}

// UpdateInput always carries the full member list for the channel.
type UpdateInput struct {
	Name        string
	Description string
	Members     []string
}

func validateText(name, description string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(name) == "" {
		fields["name"] = "required"
	} else if utf8.RuneCountInString(name) > maxNameLen {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	if len(fields) > 0 {
		return apperr.InvalidFields("invalid channel", fields)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, operator string, in CreateInput) (*models.Channel, error) {
	if err := validateText(in.Name, in.Description); err != nil {
		return nil, err
	}
	if !in.MembersScope.Valid() {
		return nil, apperr.InvalidFields("invalid channel", map[string]string{"members_scope": "must be 0 (default) or 1 (limited)"})
	}
	if in.MembersScope == models.ScopeLimited && in.Members == nil {
		return nil, apperr.InvalidFields("members is required for a limited channel", map[string]string{"members": "required when members_scope is limited"})
	}

	var ch *models.Channel
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// Locked so a concurrent team update cannot sync channels without
		// seeing this one.
		team, err := tx.Teams().LockByID(ctx, in.TeamID)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}
		if team == nil {
			msg := fmt.Sprintf("team: id %s does not exist", in.TeamID)
			return apperr.InvalidFields(msg, map[string]string{"team_id": msg})
		}
		if err := authz.Team(operator, team, authz.CreateChannel); err != nil {
			return err
		}

		var members userset.Set
		switch in.MembersScope {
		case models.ScopeDefault:
			// A supplied list is ignored; the scope decides.
			members = userset.Of(team.Administrators...).Union(userset.Of(team.Members...))
		case models.ScopeLimited:
			sets, err := user.Resolve(ctx, tx.Users(), map[string][]string{"members": in.Members})
			if err != nil {
				return err
			}
			members = sets["members"]
		}

		creator := operator
		ch = &models.Channel{
			TeamID:       team.ID,
			Name:         in.Name,
			Description:  in.Description,
			Creator:      &creator,
			MembersScope: in.MembersScope,
		}
		if err := tx.Channels().Create(ctx, ch); err != nil {
			return err
		}
		if err := tx.Channels().ReplaceMembers(ctx, ch.ID, members.Sorted()); err != nil {
			return err
		}
		ch.Members = members.Sorted()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("channel created",
		zap.String("channel_id", ch.ID.String()),
		zap.String("team_id", ch.TeamID.String()),
		zap.String("scope", ch.MembersScope.String()),
		zap.Int("members", len(ch.Members)),
		zap.String("operator", operator),
	)
	s.publish(models.EventChannelCreated, ch, nil, operator)
	return ch, nil
}

// Update replaces name, description and the whole member list. The list
// is taken as given for both scopes; a DEFAULT channel is re-derived again
// on the next team membership change.
func (s *Service) Update(ctx context.Context, channelID uuid.UUID, operator string, in UpdateInput) (*models.Channel, error) {
	if err := validateText(in.Name, in.Description); err != nil {
		return nil, err
	}
	if in.Members == nil {
		return nil, apperr.InvalidFields("members is required", map[string]string{"members": "required"})
	}

	var (
		ch       *models.Channel
		previous []string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ch, err = tx.Channels().GetByID(ctx, channelID)
		if err != nil {
			return fmt.Errorf("load channel: %w", err)
		}
		if ch == nil {
			return apperr.NotFound("channel: id %s does not exist", channelID)
		}
		team, err := tx.Teams().LockByID(ctx, ch.TeamID)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}
		if err := authz.Channel(operator, ch, team, authz.Write); err != nil {
			return err
		}

		sets, err := user.Resolve(ctx, tx.Users(), map[string][]string{"members": in.Members})
		if err != nil {
			return err
		}
		members := sets["members"]

		previous = ch.Members
		ch.Name = in.Name
		ch.Description = in.Description
		if err := tx.Channels().Update(ctx, ch); err != nil {
			return err
		}
		if err := tx.Channels().ReplaceMembers(ctx, ch.ID, members.Sorted()); err != nil {
			return err
		}
		ch.Members = members.Sorted()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("channel updated",
		zap.String("channel_id", ch.ID.String()),
		zap.Int("members", len(ch.Members)),
		zap.String("operator", operator),
	)
	s.publish(models.EventChannelUpdated, ch, previous, operator)
	return ch, nil
}

func (s *Service) Delete(ctx context.Context, channelID uuid.UUID, operator string) error {
	var ch *models.Channel
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ch, err = tx.Channels().GetByID(ctx, channelID)
		if err != nil {
			return fmt.Errorf("load channel: %w", err)
		}
		if ch == nil {
			return apperr.NotFound("channel: id %s does not exist", channelID)
		}
		team, err := tx.Teams().LockByID(ctx, ch.TeamID)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}
		if err := authz.Channel(operator, ch, team, authz.Delete); err != nil {
			return err
		}
		return tx.Channels().Delete(ctx, ch.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("channel deleted",
		zap.String("channel_id", ch.ID.String()),
		zap.String("operator", operator),
	)
	previous := ch.Members
	ch.Members = nil
	s.publish(models.EventChannelDeleted, ch, previous, operator)
	return nil
}

func (s *Service) Get(ctx context.Context, channelID uuid.UUID, operator string) (*models.Channel, error) {
	ch, err := s.store.Channels().GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if ch == nil {
		return nil, apperr.NotFound("channel: id %s does not exist", channelID)
	}
	if err := authz.Channel(operator, ch, nil, authz.Read); err != nil {
		return nil, err
	}
	return ch, nil
}

// ListByTeam returns the channels of a team that operator belongs to.
func (s *Service) ListByTeam(ctx context.Context, teamID uuid.UUID, operator string) ([]models.Channel, error) {
	team, err := s.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return nil, apperr.NotFound("team: id %s does not exist", teamID)
	}
	if err := authz.Team(operator, team, authz.Read); err != nil {
		return nil, err
	}

	all, err := s.store.Channels().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	visible := make([]models.Channel, 0, len(all))
	for _, ch := range all {
		if authz.Channel(operator, &ch, team, authz.Read) == nil {
			visible = append(visible, ch)
		}
	}
	return visible, nil
}

// publish announces a channel change. Only users in ch.Members or previous
// receive it.
func (s *Service) publish(typ models.EventType, ch *models.Channel, previous []string, operator string) {
	if s.events == nil {
		return
	}
	id := ch.ID
	s.events.Publish(models.Event{
		Type:      typ,
		TeamID:    ch.TeamID,
		ChannelID: &id,
		Operator:  operator,
		Members:   ch.Members,
		At:        time.Now().UTC(),
		Previous:  previous,
	})
}

// PublishSynced announces channels changed by OnTeamMembershipChanged.
// Callers invoke it once their transaction has committed.
func (s *Service) PublishSynced(channels []models.Channel, operator string) {
	for i := range channels {
		s.publish(models.EventChannelMembersSynced, &channels[i], nil, operator)
	}
}
