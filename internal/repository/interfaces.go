package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
)

// Every method takes ctx first so a cancelled request cancels its queries.
//
// Lookups return (nil, nil) when the row does not exist. Callers decide
// whether absence is a NotFound or a validation failure.

// Store is the entity store. Repositories obtained from a Store handed to a
// WithinTx callback run inside that transaction.
type Store interface {
	Users() UserRepository
	Teams() TeamRepository
	Channels() ChannelRepository

	// WithinTx runs fn in one transaction, committing when fn returns nil
	// and rolling back otherwise. Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// UserRepository handles user rows. Users are never mutated after creation.
type UserRepository interface {
	// Create inserts a user. Returns ErrDuplicate when the username or
	// email is already taken.
	Create(ctx context.Context, user *models.User) error

	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// ListByUsernames returns the users that exist among usernames.
	ListByUsernames(ctx context.Context, usernames []string) ([]models.User, error)
}

// TeamRepository handles teams and their administrator/member join rows.
type TeamRepository interface {
	// Create inserts the team row and sets CreatedAt/ChangedAt. Join rows
	// are written separately with ReplaceAdministrators/ReplaceMembers.
	Create(ctx context.Context, team *models.Team) error

	// GetByID returns the team with Administrators and Members populated.
	GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)

	// LockByID is GetByID holding a row lock until the transaction ends.
	LockByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)

	// Update writes Name and Description and bumps ChangedAt.
	Update(ctx context.Context, team *models.Team) error

	// Delete removes the team. Join rows and channels go with it.
	Delete(ctx context.Context, teamID uuid.UUID) error

	// ReplaceAdministrators deletes every administrator row of the team and
	// inserts one row per distinct username.
	ReplaceAdministrators(ctx context.Context, teamID uuid.UUID, usernames []string) error

	// ReplaceMembers is ReplaceAdministrators for the member relation.
	ReplaceMembers(ctx context.Context, teamID uuid.UUID, usernames []string) error

	// List returns the teams visible to q.Operator, each once, ordered by
	// q.Sort then changed_at then id.
	List(ctx context.Context, q models.TeamQuery) ([]models.Team, error)
}

// ChannelRepository handles channels and their member join rows.
type ChannelRepository interface {
	Create(ctx context.Context, ch *models.Channel) error

	// GetByID returns the channel with Members populated.
	GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error)

	// Update writes Name and Description and bumps ChangedAt.
	Update(ctx context.Context, ch *models.Channel) error

	Delete(ctx context.Context, channelID uuid.UUID) error

	// ListByTeam returns all channels of a team, oldest first.
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Channel, error)

	// ReplaceMembers deletes every member row of the channel and inserts
	// one row per distinct username.
	ReplaceMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error

	// RemoveMembers deletes the rows for usernames only. Other members are
	// untouched; absent usernames are a no-op.
	RemoveMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error
}
