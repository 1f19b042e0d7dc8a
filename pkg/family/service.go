package family

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kinboard/pkg/errors"
)

// Service applies the cross-entity rules on top of a Store. It holds no state
// of its own and is safe for concurrent use if the Store is.
type Service struct {
	Store  Store
	Logger *log.Logger
}

// NewService wraps store. A nil logger falls back to log.Default().
func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{Store: store, Logger: logger}
}

// Load lists members and connections concurrently.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.Store.ListMembers(gctx)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		snap.Members = members
		return nil
	})
	g.Go(func() error {
		conns, err := s.Store.ListConnections(gctx)
		if err != nil {
			return fmt.Errorf("list connections: %w", err)
		}
		snap.Connections = conns
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveMember creates m (exists=false) or updates it (exists=true).
//
// When m.IsSelf is set, every other member flagged IsSelf is cleared first so
// that at most one self remains. Stores implementing SelfClearer do this in
// one step; otherwise the flags are cleared with one UpdateMember each, using
// the member list from a fresh ListMembers.
func (s *Service) SaveMember(ctx context.Context, m Member, exists bool) error {
	if m.IsSelf {
		if err := s.clearOtherSelves(ctx, m.ID); err != nil {
			return err
		}
	}

	if exists {
		if err := s.Store.UpdateMember(ctx, m); err != nil {
			return fmt.Errorf("update member %s: %w", m.ID, err)
		}
		s.Logger.Debug("updated member", "id", m.ID, "self", m.IsSelf)
		return nil
	}

	if err := s.Store.CreateMember(ctx, m); err != nil {
		return fmt.Errorf("create member %s: %w", m.ID, err)
	}
	s.Logger.Debug("created member", "id", m.ID, "self", m.IsSelf)
	return nil
}

func (s *Service) clearOtherSelves(ctx context.Context, keepID string) error {
	if sc, ok := s.Store.(SelfClearer); ok {
		if err := sc.ClearSelfExcept(ctx, keepID); err != nil {
			return fmt.Errorf("clear self flags: %w", err)
		}
		return nil
	}

	members, err := s.Store.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	for _, other := range members {
		if !other.IsSelf || other.ID == keepID {
			continue
		}
		other.IsSelf = false
		if err := s.Store.UpdateMember(ctx, other); err != nil {
			return fmt.Errorf("clear self flag on %s: %w", other.ID, err)
		}
		s.Logger.Debug("cleared self flag", "id", other.ID)
	}
	return nil
}

// DeleteMember removes every connection touching id, then the member itself.
// Connections already gone are ignored so a retried delete converges.
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	conns, err := s.Store.ListConnections(ctx)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}

	removed := 0
	for _, c := range conns {
		if !c.Touches(id) {
			continue
		}
		if err := s.Store.DeleteConnection(ctx, c.ID); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete connection %s: %w", c.ID, err)
		}
		removed++
	}

	if err := s.Store.DeleteMember(ctx, id); err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	s.Logger.Debug("deleted member", "id", id, "connections", removed)
	return nil
}

// SaveConnection creates c (exists=false) or updates it (exists=true).
func (s *Service) SaveConnection(ctx context.Context, c Connection, exists bool) error {
	if exists {
		if err := s.Store.UpdateConnection(ctx, c); err != nil {
			return fmt.Errorf("update connection %s: %w", c.ID, err)
		}
		return nil
	}
	if err := s.Store.CreateConnection(ctx, c); err != nil {
		return fmt.Errorf("create connection %s: %w", c.ID, err)
	}
	s.Logger.Debug("created connection", "id", c.ID, "source", c.SourceID, "target", c.TargetID)
	return nil
}

// DeleteConnection removes a single connection.
func (s *Service) DeleteConnection(ctx context.Context, id string) error {
	if err := s.Store.DeleteConnection(ctx, id); err != nil {
		return fmt.Errorf("delete connection %s: %w", id, err)
	}
	return nil
}

// Replace wipes the store and writes snap into it. Used by init and import.
func (s *Service) Replace(ctx context.Context, snap Snapshot) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, c := range current.Connections {
		if err := s.Store.DeleteConnection(ctx, c.ID); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete connection %s: %w", c.ID, err)
		}
	}
	for _, m := range current.Members {
		if err := s.Store.DeleteMember(ctx, m.ID); err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("delete member %s: %w", m.ID, err)
		}
	}

	selfSeen := false
	for _, m := range snap.Members {
		if m.IsSelf {
			if selfSeen {
				m.IsSelf = false
			}
			selfSeen = true
		}
		if err := s.Store.CreateMember(ctx, m); err != nil {
			return fmt.Errorf("create member %s: %w", m.ID, err)
		}
	}
	for _, c := range snap.Connections {
		if err := s.Store.CreateConnection(ctx, c); err != nil {
			return fmt.Errorf("create connection %s: %w", c.ID, err)
		}
	}
	s.Logger.Info("replaced tree", "members", len(snap.Members), "connections", len(snap.Connections))
	return nil
}
