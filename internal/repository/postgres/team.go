package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/teamsync/internal/models"
)

type TeamStore struct {
	q querier
}

// teamSelect loads a team with both membership relations folded into
// sorted arrays, so one row carries the whole aggregate.
const teamSelect = `
	SELECT t.id, t.name, t.description, t.created_at, t.changed_at,
		ARRAY(SELECT a.username FROM team_administrators a WHERE a.team_id = t.id ORDER BY a.username),
		ARRAY(SELECT m.username FROM team_members m WHERE m.team_id = t.id ORDER BY m.username)
	FROM teams t`

// teamSortColumns is the whitelist that keeps ORDER BY free of user input.
var teamSortColumns = map[models.TeamSort]string{
	models.SortChangedAt:   "t.changed_at",
	models.SortCreatedAt:   "t.created_at",
	models.SortName:        "t.name",
	models.SortDescription: "t.description",
}

func scanTeam(row pgx.Row, t *models.Team) error {
	return row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.CreatedAt,
		&t.ChangedAt,
		&t.Administrators,
		&t.Members,
	)
}

func (s *TeamStore) Create(ctx context.Context, t *models.Team) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO teams (id, name, description, created_at, changed_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, changed_at`

	if err := s.q.QueryRow(ctx, query, t.ID, t.Name, t.Description).Scan(&t.CreatedAt, &t.ChangedAt); err != nil {
		return fmt.Errorf("insert team: %w", translate(err))
	}
	return nil
}

func (s *TeamStore) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := scanTeam(s.q.QueryRow(ctx, teamSelect+` WHERE t.id = $1`, teamID), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &t, nil
}

func (s *TeamStore) LockByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var id uuid.UUID
	err := s.q.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock team: %w", err)
	}
	return s.GetByID(ctx, teamID)
}

func (s *TeamStore) Update(ctx context.Context, t *models.Team) error {
	query := `
		UPDATE teams SET name = $2, description = $3, changed_at = now()
		WHERE id = $1
		RETURNING changed_at`

	if err := s.q.QueryRow(ctx, query, t.ID, t.Name, t.Description).Scan(&t.ChangedAt); err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for join rows, channels and channel
// members.
func (s *TeamStore) Delete(ctx context.Context, teamID uuid.UUID) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

func (s *TeamStore) ReplaceAdministrators(ctx context.Context, teamID uuid.UUID, usernames []string) error {
	return teamAdministrators.replace(ctx, s.q, teamID, usernames)
}

func (s *TeamStore) ReplaceMembers(ctx context.Context, teamID uuid.UUID, usernames []string) error {
	return teamMembers.replace(ctx, s.q, teamID, usernames)
}

func (s *TeamStore) List(ctx context.Context, q models.TeamQuery) ([]models.Team, error) {
	sortCol, ok := teamSortColumns[q.Sort]
	if !ok {
		sortCol = teamSortColumns[models.SortChangedAt]
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	order := sortCol + " " + dir
	if sortCol != teamSortColumns[models.SortChangedAt] {
		order += ", t.changed_at ASC"
	}
	order += ", t.id ASC"

	// EXISTS instead of a join: a user who is both administrator and
	// member must not produce the team twice.
	query := teamSelect + `
		WHERE (
			EXISTS (SELECT 1 FROM team_administrators a WHERE a.team_id = t.id AND a.username = $1)
			OR EXISTS (SELECT 1 FROM team_members m WHERE m.team_id = t.id AND m.username = $1)
		)
		AND (
			$2::text = ''
			OR strpos(lower(t.name), lower($2::text)) > 0
			OR strpos(lower(t.description), lower($2::text)) > 0
		)
		ORDER BY ` + order

	rows, err := s.q.Query(ctx, query, q.Operator, q.Keyword)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}
