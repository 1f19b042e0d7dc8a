// Package memory is the synchronous in-process store. Writes are visible to
// the next List immediately, and iteration order is insertion order so the
// relationship resolver sees connections in the order they were created.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// Store keeps members and connections in slices guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	members     []family.Member
	connections []family.Connection
}

// New returns a store pre-loaded with snap.
func New(snap family.Snapshot) *Store {
	c := snap.Clone()
	return &Store{members: c.Members, connections: c.Connections}
}

// NewEmpty returns an empty store.
func NewEmpty() *Store {
	return &Store{}
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members), nil
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberIndex(m.ID) >= 0 {
		return errors.New(errors.ErrCodeConflict, "member %s already exists", m.ID)
	}
	s.members = append(s.members, m)
	return nil
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.memberIndex(m.ID)
	if i < 0 {
		return errors.New(errors.ErrCodeMemberNotFound, "member %s", m.ID)
	}
	s.members[i] = m
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.memberIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeMemberNotFound, "member %s", id)
	}
	s.members = slices.Delete(s.members, i, i+1)
	return nil
}

// ClearSelfExcept resets IsSelf on every member but keepID under one lock.
func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.members {
		if s.members[i].ID != keepID {
			s.members[i].IsSelf = false
		}
	}
	return nil
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.connections), nil
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectionIndex(c.ID) >= 0 {
		return errors.New(errors.ErrCodeConflict, "connection %s already exists", c.ID)
	}
	s.connections = append(s.connections, c)
	return nil
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.connectionIndex(c.ID)
	if i < 0 {
		return errors.New(errors.ErrCodeConnectionNotFound, "connection %s", c.ID)
	}
	s.connections[i] = c
	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.connectionIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeConnectionNotFound, "connection %s", id)
	}
	s.connections = slices.Delete(s.connections, i, i+1)
	return nil
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() family.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return family.Snapshot{Members: slices.Clone(s.members), Connections: slices.Clone(s.connections)}
}

// Close does nothing for the memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) memberIndex(id string) int {
	return slices.IndexFunc(s.members, func(m family.Member) bool { return m.ID == id })
}

func (s *Store) connectionIndex(id string) int {
	return slices.IndexFunc(s.connections, func(c family.Connection) bool { return c.ID == id })
}

var (
	_ family.Store       = (*Store)(nil)
	_ family.SelfClearer = (*Store)(nil)
)
