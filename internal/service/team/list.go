package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/models"
)

// ListQuery is the raw listing request. Empty Sort means changed_at; any
// Order other than "desc" (case-insensitive) sorts ascending. Keyword is
// matched as given, surrounding spaces included.
type ListQuery struct {
	Sort    string
	Order   string
	Keyword string
}

// List returns the teams operator administers or belongs to.
func (s *Service) List(ctx context.Context, operator string, q ListQuery) ([]models.Team, error) {
	sort := models.SortChangedAt
	if q.Sort != "" {
		sort = models.TeamSort(strings.ToLower(strings.TrimSpace(q.Sort)))
		if !sort.Valid() {
			return nil, apperr.InvalidFields("invalid sort", map[string]string{
				"sort": fmt.Sprintf("unknown sort key %q", q.Sort),
			})
		}
	}

	teams, err := s.store.Teams().List(ctx, models.TeamQuery{
		Operator:   operator,
		Keyword:    q.Keyword,
		Sort:       sort,
		Descending: strings.EqualFold(strings.TrimSpace(q.Order), "desc"),
	})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}
