package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lalith-99/teamsync/internal/apperr"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
	"go.uber.org/zap"
)

// Service registers and looks up users. Credentials live with the
// identity provider, not here.
type Service struct {
	store  repository.Store
	logger *zap.Logger
}

func New(store repository.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type RegisterInput struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Age         *int
	Description string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.InvalidFields("username is required", map[string]string{"username": "required"})
	}

	u := &models.User{
		Username:    username,
		Email:       strings.TrimSpace(in.Email),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Age:         in.Age,
		Description: in.Description,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			msg := fmt.Sprintf("username: %s was already used", username)
			return apperr.InvalidFields(msg, map[string]string{"username": msg})
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				msg := fmt.Sprintf("email: %s was already used", u.Email)
				return apperr.InvalidFields(msg, map[string]string{"email": msg})
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", u.Username))
	return u, nil
}

func (s *Service) Get(ctx context.Context, username string) (*models.User, error) {
	u, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("username: %s does not exist", username)
	}
	return u, nil
}

// Resolve checks that every username in every field names an existing
// user. It returns one set per field, or a validation error listing the
// unknown names per field. Nothing is written either way.
func Resolve(ctx context.Context, users repository.UserRepository, fields map[string][]string) (map[string]userset.Set, error) {
	all := userset.Of()
	sets := make(map[string]userset.Set, len(fields))
	for field, names := range fields {
		sets[field] = userset.Of(names...)
		all = all.Union(sets[field])
	}

	found, err := users.ListByUsernames(ctx, all.Sorted())
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	known := userset.Of()
	for _, u := range found {
		known.Add(u.Username)
	}

	bad := make(map[string]string)
	for field, set := range sets {
		if missing := set.Minus(known); missing.Len() > 0 {
			bad[field] = "unknown users: " + strings.Join(missing.Sorted(), ", ")
		}
	}
	if len(bad) > 0 {
		keys := make([]string, 0, len(bad))
		for k := range bad {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, apperr.InvalidFields("unknown users in "+strings.Join(keys, ", "), bad)
	}
	return sets, nil
}
