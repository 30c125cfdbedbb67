package team

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
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/service/user"
	"github.com/lalith-99/teamsync/internal/userset"
	"go.uber.org/zap"
)

const (
	maxNameLen        = 64
	maxDescriptionLen = 200
)

// ChannelSyncer is the part of the channel service a team update needs.
type ChannelSyncer interface {
	OnTeamMembershipChanged(ctx context.Context, tx repository.Store, teamID uuid.UUID, removed, current userset.Set) ([]models.Channel, error)
	PublishSynced(channels []models.Channel, operator string)
}

type Publisher interface {
	Publish(ev models.Event)
}

type Service struct {
	store    repository.Store
	channels ChannelSyncer
	events   Publisher
	logger   *zap.Logger
}

func New(store repository.Store, channels ChannelSyncer, events Publisher, logger *zap.Logger) *Service {
	return &Service{store: store, channels: channels, events: events, logger: logger}
}

// Input is the full desired state of a team. Update treats both lists as
// complete replacements.
type Input struct {
	Name           string
	Description    string
	Administrators []string
	Members        []string
}

func (in Input) validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "required"
	} else if utf8.RuneCountInString(in.Name) > maxNameLen {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	if len(fields) > 0 {
		return apperr.InvalidFields("invalid team", fields)
	}
	return nil
}

// resolve checks every username on the input plus the operator, and returns
// the administrator set with the operator forced in.
func resolve(ctx context.Context, tx repository.Store, operator string, in Input) (admins, members userset.Set, err error) {
	if strings.TrimSpace(operator) == "" {
		return nil, nil, apperr.InvalidFields("operator_user is required", map[string]string{"operator_user": "required"})
	}
	sets, err := user.Resolve(ctx, tx.Users(), map[string][]string{
		"operator_user":  {operator},
		"administrators": in.Administrators,
		"members":        in.Members,
	})
	if err != nil {
		return nil, nil, err
	}
	admins = sets["administrators"]
	admins.Add(operator)
	return admins, sets["members"], nil
}

func (s *Service) Create(ctx context.Context, operator string, in Input) (*models.Team, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	team := &models.Team{Name: in.Name, Description: in.Description}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		admins, members, err := resolve(ctx, tx, operator, in)
		if err != nil {
			return err
		}
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		if err := tx.Teams().ReplaceAdministrators(ctx, team.ID, admins.Sorted()); err != nil {
			return err
		}
		if err := tx.Teams().ReplaceMembers(ctx, team.ID, members.Sorted()); err != nil {
			return err
		}
		team.Administrators = admins.Sorted()
		team.Members = members.Sorted()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.Int("administrators", len(team.Administrators)),
		zap.Int("members", len(team.Members)),
		zap.String("operator", operator),
	)
	return team, nil
}

// Update replaces the team and propagates removals into its channels in
// the same transaction.
func (s *Service) Update(ctx context.Context, teamID uuid.UUID, operator string, in Input) (*models.Team, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		team   *models.Team
		synced []models.Channel
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		team, err = tx.Teams().LockByID(ctx, teamID)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}
		if team == nil {
			return apperr.NotFound("team: id %s does not exist", teamID)
		}
		if err := authz.Team(operator, team, authz.Write); err != nil {
			return err
		}

		admins, members, err := resolve(ctx, tx, operator, in)
		if err != nil {
			return err
		}

		deletedAdmins := userset.Of(team.Administrators...).Minus(admins)
		deletedMembers := userset.Of(team.Members...).Minus(members)
		current := admins.Union(members)
		// removed is deletedAdmins ∪ deletedMembers narrowed to users who are
		// in neither set now. Moving between administrators and members is
		// not leaving the team.
		removed := deletedAdmins.Union(deletedMembers).Minus(current)

		if err := tx.Teams().ReplaceAdministrators(ctx, team.ID, admins.Sorted()); err != nil {
			return err
		}
		if err := tx.Teams().ReplaceMembers(ctx, team.ID, members.Sorted()); err != nil {
			return err
		}
		team.Name = in.Name
		team.Description = in.Description
		if err := tx.Teams().Update(ctx, team); err != nil {
			return err
		}
		team.Administrators = admins.Sorted()
		team.Members = members.Sorted()

		synced, err = s.channels.OnTeamMembershipChanged(ctx, tx, team.ID, removed, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team updated",
		zap.String("team_id", team.ID.String()),
		zap.Int("administrators", len(team.Administrators)),
		zap.Int("members", len(team.Members)),
		zap.Int("channels_synced", len(synced)),
		zap.String("operator", operator),
	)
	s.publish(models.EventTeamUpdated, team, operator)
	s.channels.PublishSynced(synced, operator)
	return team, nil
}

func (s *Service) Delete(ctx context.Context, teamID uuid.UUID, operator string) error {
	var team *models.Team
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		team, err = tx.Teams().LockByID(ctx, teamID)
		if err != nil {
			return fmt.Errorf("lock team: %w", err)
		}
		if team == nil {
			return apperr.NotFound("team: id %s does not exist", teamID)
		}
		if err := authz.Team(operator, team, authz.Delete); err != nil {
			return err
		}
		return tx.Teams().Delete(ctx, team.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("team deleted",
		zap.String("team_id", team.ID.String()),
		zap.String("operator", operator),
	)
	s.publish(models.EventTeamDeleted, &models.Team{ID: team.ID}, operator)
	return nil
}

func (s *Service) Get(ctx context.Context, teamID uuid.UUID, operator string) (*models.Team, error) {
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
	return team, nil
}

func (s *Service) publish(typ models.EventType, team *models.Team, operator string) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.Event{
		Type:     typ,
		TeamID:   team.ID,
		Operator: operator,
		Members:  userset.Of(team.Administrators...).Union(userset.Of(team.Members...)).Sorted(),
		At:       time.Now().UTC(),
	})
}
