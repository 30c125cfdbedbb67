// Package authz decides whether an operator may act on a team or channel.
// Checks are pure: they read the sets already loaded on the resource and
// never touch the store. An operator that does not exist is simply absent
// from every set.
package authz

import (
	"slices"

	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/models"
)

type Action int

const (
	Read Action = iota
	Write
	Delete
	CreateChannel
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "update"
	case Delete:
		return "delete"
	case CreateChannel:
		return "create channels in"
	default:
		return "access"
	}
}

func contains(set []string, operator string) bool {
	return operator != "" && slices.Contains(set, operator)
}

// IsTeamAdministrator reports operator ∈ team.Administrators.
func IsTeamAdministrator(operator string, team *models.Team) bool {
	return contains(team.Administrators, operator)
}

// IsTeamParticipant reports operator ∈ team.Administrators ∪ team.Members.
func IsTeamParticipant(operator string, team *models.Team) bool {
	return contains(team.Administrators, operator) || contains(team.Members, operator)
}

// Team authorizes action on team.
func Team(operator string, team *models.Team, action Action) error {
	var ok bool
	switch action {
	case Read, CreateChannel:
		ok = IsTeamParticipant(operator, team)
	case Write, Delete:
		ok = IsTeamAdministrator(operator, team)
	}
	if !ok {
		return apperr.PermissionDenied("operator: %s has no permission to %s team: %s", operator, action, team.ID)
	}
	return nil
}

// Channel authorizes action on ch. Write and Delete are decided by the
// parent team's administrators, Read by the channel's own members.
func Channel(operator string, ch *models.Channel, parent *models.Team, action Action) error {
	var ok bool
	switch action {
	case Read:
		ok = contains(ch.Members, operator)
	case Write, Delete:
		ok = parent != nil && IsTeamAdministrator(operator, parent)
	}
	if !ok {
		return apperr.PermissionDenied("operator: %s has no permission to %s channel: %s", operator, action, ch.ID)
	}
	return nil
}
