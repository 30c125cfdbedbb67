package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/userset"
)

type UserStore struct {
	q querier
}

const userColumns = `username, email, COALESCE(first_name, ''), COALESCE(last_name, ''), age, COALESCE(description, ''), created_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Age,
		&u.Description,
		&u.CreatedAt,
	)
}

// Create inserts a new user row. Postgres fills created_at.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, age, description, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), now())
		RETURNING created_at`

	err := s.q.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.FirstName,
		u.LastName,
		u.Age,
		u.Description,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var u models.User
	if err := scanUser(s.q.QueryRow(ctx, query, username), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) ListByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	users := make([]models.User, 0, len(usernames))
	names := userset.Of(usernames...).Sorted()
	if len(names) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = ANY($1::text[]) ORDER BY username`

	rows, err := s.q.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
