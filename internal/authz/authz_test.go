package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTeam(t *testing.T) {
	team := &models.Team{
		ID:             uuid.New(),
		Administrators: []string{"alice", "bob"},
		Members:        []string{"carol"},
	}

	tts := []struct {
		operator string
		action   Action
		allowed  bool
	}{
		{"alice", Read, true},
		{"carol", Read, true},
		{"dave", Read, false},
		{"alice", Write, true},
		{"carol", Write, false},
		{"bob", Delete, true},
		{"carol", Delete, false},
		{"carol", CreateChannel, true},
		{"dave", CreateChannel, false},
		{"", Read, false},
	}

	for _, tt := range tts {
		err := Team(tt.operator, team, tt.action)
		if tt.allowed {
			assert.NoError(t, err, "%s %s", tt.operator, tt.action)
			continue
		}
		if assert.Error(t, err, "%s %s", tt.operator, tt.action) {
			assert.True(t, apperr.Is(err, apperr.KindPermissionDenied))
			assert.Contains(t, err.Error(), team.ID.String())
		}
	}
}

func TestChannel(t *testing.T) {
	parent := &models.Team{
		ID:             uuid.New(),
		Administrators: []string{"alice"},
		Members:        []string{"carol", "dave"},
	}
	ch := &models.Channel{ID: uuid.New(), TeamID: parent.ID, Members: []string{"carol"}}

	assert.NoError(t, Channel("carol", ch, parent, Read))
	assert.Error(t, Channel("dave", ch, parent, Read), "team member outside the channel")
	assert.Error(t, Channel("alice", ch, parent, Read), "administrators read only channels they belong to")

	assert.NoError(t, Channel("alice", ch, parent, Delete))
	assert.NoError(t, Channel("alice", ch, parent, Write))

	err := Channel("carol", ch, parent, Delete)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "carol")
		assert.Contains(t, err.Error(), ch.ID.String())
	}
	assert.Error(t, Channel("alice", ch, nil, Delete))
}
