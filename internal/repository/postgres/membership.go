package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/userset"
)

// joinTable describes a (parent id, username) many-to-many table.
type joinTable struct {
	name      string
	parentCol string
}

var (
	teamAdministrators = joinTable{name: "team_administrators", parentCol: "team_id"}
	teamMembers        = joinTable{name: "team_members", parentCol: "team_id"}
	channelMembers     = joinTable{name: "channel_members", parentCol: "channel_id"}
)

// replace deletes every row of parentID and bulk-inserts one row per
// distinct username. Callers run it inside a transaction so the delete and
// the insert land together.
func (j joinTable) replace(ctx context.Context, q querier, parentID uuid.UUID, usernames []string) error {
	del := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, j.name, j.parentCol)
	if _, err := q.Exec(ctx, del, parentID); err != nil {
		return fmt.Errorf("clear %s: %w", j.name, err)
	}
	return j.insert(ctx, q, parentID, usernames)
}

func (j joinTable) insert(ctx context.Context, q querier, parentID uuid.UUID, usernames []string) error {
	names := userset.Of(usernames...).Sorted()
	if len(names) == 0 {
		return nil
	}

	// unnest turns the array into rows; ON CONFLICT keeps the insert
	// idempotent against rows that already exist.
	ins := fmt.Sprintf(`
		INSERT INTO %s (%s, username)
		SELECT $1, u FROM unnest($2::text[]) AS u
		ON CONFLICT DO NOTHING`, j.name, j.parentCol)
	if _, err := q.Exec(ctx, ins, parentID, names); err != nil {
		return fmt.Errorf("insert %s: %w", j.name, translate(err))
	}
	return nil
}

// remove deletes only the rows for usernames.
func (j joinTable) remove(ctx context.Context, q querier, parentID uuid.UUID, usernames []string) error {
	names := userset.Of(usernames...).Sorted()
	if len(names) == 0 {
		return nil
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND username = ANY($2::text[])`, j.name, j.parentCol)
	if _, err := q.Exec(ctx, del, parentID, names); err != nil {
		return fmt.Errorf("remove %s: %w", j.name, err)
	}
	return nil
}
