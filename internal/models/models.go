package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a person known to the system. Username is the primary key and the
// value stored in every join table; there is no surrogate id.
type User struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Age         *int      `json:"age,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Team groups users into administrators and members. The two sets may
// overlap; Administrators is never empty once a team has been written.
type Team struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Administrators []string  `json:"administrators"`
	Members        []string  `json:"members"`
	CreatedAt      time.Time `json:"created_at"`
	ChangedAt      time.Time `json:"changed_at"`
}

// MembersScope selects how a channel's membership is maintained.
type MembersScope int

const (
	// ScopeDefault channels mirror team administrators ∪ members.
	ScopeDefault MembersScope = 0
	// ScopeLimited channels keep a curated list that only shrinks when
	// users leave the team.
	ScopeLimited MembersScope = 1
)

func (s MembersScope) Valid() bool {
	return s == ScopeDefault || s == ScopeLimited
}

func (s MembersScope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeLimited:
		return "limited"
	default:
		return fmt.Sprintf("MembersScope(%d)", int(s))
	}
}

// UnmarshalJSON accepts the integer value or the scope name.
func (s *MembersScope) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = MembersScope(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("members_scope must be an integer or a name")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "default":
		*s = ScopeDefault
	case "limited":
		*s = ScopeLimited
	default:
		return fmt.Errorf("unknown members_scope %q", name)
	}
	return nil
}

// Channel belongs to exactly one team and is deleted with it. Creator is
// nil once the creating user no longer exists.
type Channel struct {
	ID           uuid.UUID    `json:"id"`
	TeamID       uuid.UUID    `json:"team_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Creator      *string      `json:"creator"`
	MembersScope MembersScope `json:"members_scope"`
	Members      []string     `json:"members"`
	CreatedAt    time.Time    `json:"created_at"`
	ChangedAt    time.Time    `json:"changed_at"`
}

// TeamSort is a whitelisted sort column for team listings.
type TeamSort string

const (
	SortChangedAt   TeamSort = "changed_at"
	SortCreatedAt   TeamSort = "created_at"
	SortName        TeamSort = "name"
	SortDescription TeamSort = "description"
)

func (s TeamSort) Valid() bool {
	switch s {
	case SortChangedAt, SortCreatedAt, SortName, SortDescription:
		return true
	}
	return false
}

// TeamQuery narrows a team listing to what Operator can see.
type TeamQuery struct {
	Operator   string
	Keyword    string
	Sort       TeamSort
	Descending bool
}

// EventType names a membership change pushed to team subscribers.
type EventType string

const (
	EventTeamUpdated          EventType = "team.updated"
	EventTeamDeleted          EventType = "team.deleted"
	EventChannelCreated       EventType = "channel.created"
	EventChannelUpdated       EventType = "channel.updated"
	EventChannelDeleted       EventType = "channel.deleted"
	EventChannelMembersSynced EventType = "channel.members_synced"
)

// Event is published after the transaction that caused it commits.
type Event struct {
	Type      EventType  `json:"type"`
	TeamID    uuid.UUID  `json:"team_id"`
	ChannelID *uuid.UUID `json:"channel_id,omitempty"`
	Operator  string     `json:"operator"`
	Members   []string   `json:"members,omitempty"`
	At        time.Time  `json:"at"`

	// Previous holds a channel's members before the change. It is not sent;
	// the hub uses it to reach users an update or delete removed.
	Previous []string `json:"-"`
}
