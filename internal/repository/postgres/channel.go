package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/teamsync/internal/models"
)

type ChannelStore struct {
	q querier
}

const channelSelect = `
	SELECT c.id, c.team_id, c.name, c.description, c.creator, c.members_scope, c.created_at, c.changed_at,
		ARRAY(SELECT cm.username FROM channel_members cm WHERE cm.channel_id = c.id ORDER BY cm.username)
	FROM channels c`

func scanChannel(row pgx.Row, ch *models.Channel) error {
	var scope int16
	err := row.Scan(
		&ch.ID,
		&ch.TeamID,
		&ch.Name,
		&ch.Description,
		&ch.Creator,
		&scope,
		&ch.CreatedAt,
		&ch.ChangedAt,
		&ch.Members,
	)
	ch.MembersScope = models.MembersScope(scope)
	return err
}

func (s *ChannelStore) Create(ctx context.Context, ch *models.Channel) error {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	query := `
		INSERT INTO channels (id, team_id, name, description, creator, members_scope, created_at, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, changed_at`

	err := s.q.QueryRow(ctx, query,
		ch.ID,
		ch.TeamID,
		ch.Name,
		ch.Description,
		ch.Creator,
		int16(ch.MembersScope),
	).Scan(&ch.CreatedAt, &ch.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert channel: %w", translate(err))
	}
	return nil
}

func (s *ChannelStore) GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	if err := scanChannel(s.q.QueryRow(ctx, channelSelect+` WHERE c.id = $1`, channelID), &ch); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ch, nil
}

func (s *ChannelStore) Update(ctx context.Context, ch *models.Channel) error {
	query := `
		UPDATE channels SET name = $2, description = $3, changed_at = now()
		WHERE id = $1
		RETURNING changed_at`

	if err := s.q.QueryRow(ctx, query, ch.ID, ch.Name, ch.Description).Scan(&ch.ChangedAt); err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	return nil
}

func (s *ChannelStore) Delete(ctx context.Context, channelID uuid.UUID) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM channels WHERE id = $1`, channelID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (s *ChannelStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Channel, error) {
	query := channelSelect + `
		WHERE c.team_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := s.q.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		var ch models.Channel
		if err := scanChannel(rows, &ch); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return channels, nil
}

func (s *ChannelStore) ReplaceMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error {
	return channelMembers.replace(ctx, s.q, channelID, usernames)
}

func (s *ChannelStore) RemoveMembers(ctx context.Context, channelID uuid.UUID, usernames []string) error {
	return channelMembers.remove(ctx, s.q, channelID, usernames)
}
