// Package inmem is an in-memory repository.Store. Transactions work on a
// copy of the data that replaces the live copy only on commit, so a failed
// WithinTx leaves nothing behind. Used by tests and local runs without
// Postgres.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/teamsync/internal/models"
	"github.com/lalith-99/teamsync/internal/repository"
	"github.com/lalith-99/teamsync/internal/userset"
)

type state struct {
	users          map[string]models.User
	teams          map[uuid.UUID]models.Team
	admins         map[uuid.UUID]userset.Set
	members        map[uuid.UUID]userset.Set
	channels       map[uuid.UUID]models.Channel
	channelMembers map[uuid.UUID]userset.Set
}

func newState() *state {
	return &state{
		users:          make(map[string]models.User),
		teams:          make(map[uuid.UUID]models.Team),
		admins:         make(map[uuid.UUID]userset.Set),
		members:        make(map[uuid.UUID]userset.Set),
		channels:       make(map[uuid.UUID]models.Channel),
		channelMembers: make(map[uuid.UUID]userset.Set),
	}
}

func cloneSets(in map[uuid.UUID]userset.Set) map[uuid.UUID]userset.Set {
	out := make(map[uuid.UUID]userset.Set, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.teams {
		out.teams[k] = v
	}
	for k, v := range st.channels {
		out.channels[k] = v
	}
	out.admins = cloneSets(st.admins)
	out.members = cloneSets(st.members)
	out.channelMembers = cloneSets(st.channelMembers)
	return out
}

type db struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// Store implements repository.Store in memory.
type Store struct {
	db *db
	tx *state
}

var _ repository.Store = (*Store)(nil)

type Option func(*db)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *db) { d.now = now }
}

func New(opts ...Option) *Store {
	d := &db{
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return &Store{db: d}
}

func (s *Store) Users() repository.UserRepository       { return userRepo{s} }
func (s *Store) Teams() repository.TeamRepository       { return teamRepo{s} }
func (s *Store) Channels() repository.ChannelRepository { return channelRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	work := s.db.state.clone()
	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.state = work
	return nil
}

// view runs fn against the transaction copy, or against the live data
// under the lock when called outside a transaction.
func (s *Store) view(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}
