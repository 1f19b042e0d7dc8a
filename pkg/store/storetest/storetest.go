// Package storetest is the behavioural contract every family.Store backend
// must satisfy. Backend tests call Run with a constructor for an empty store.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// Factory returns an empty store. Cleanup belongs in t.Cleanup.
type Factory func(t *testing.T) family.Store

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Empty", func(t *testing.T) { testEmpty(t, newStore(t)) })
	t.Run("MemberCRUD", func(t *testing.T) { testMemberCRUD(t, newStore(t)) })
	t.Run("ConnectionCRUD", func(t *testing.T) { testConnectionCRUD(t, newStore(t)) })
	t.Run("InsertionOrder", func(t *testing.T) { testInsertionOrder(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Conflict", func(t *testing.T) { testConflict(t, newStore(t)) })
	t.Run("ServiceRules", func(t *testing.T) { testServiceRules(t, newStore(t)) })
	t.Run("ClearSelf", func(t *testing.T) {
		s := newStore(t)
		if _, ok := s.(family.SelfClearer); !ok {
			t.Skip("store does not implement SelfClearer")
		}
		testClearSelf(t, s)
	})
}

func seed(t *testing.T, s family.Store) family.Snapshot {
	t.Helper()
	ctx := context.Background()
	snap := family.Seed()
	for _, m := range snap.Members {
		require.NoError(t, s.CreateMember(ctx, m))
	}
	for _, c := range snap.Connections {
		require.NoError(t, s.CreateConnection(ctx, c))
	}
	return snap
}

func testEmpty(t *testing.T, s family.Store) {
	ctx := context.Background()
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
	conns, err := s.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func testMemberCRUD(t *testing.T, s family.Store) {
	ctx := context.Background()
	want := seed(t, s)

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Members, members)

	m := want.Members[0]
	m.Name = "Arthur J. Robinson"
	m.X, m.Y = 12.5, -40
	require.NoError(t, s.UpdateMember(ctx, m))

	members, err = s.ListMembers(ctx)
	require.NoError(t, err)
	got, ok := family.FindMember(members, m.ID)
	require.True(t, ok)
	assert.Equal(t, m, got)

	require.NoError(t, s.DeleteMember(ctx, m.ID))
	members, err = s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func testConnectionCRUD(t *testing.T, s family.Store) {
	ctx := context.Background()
	want := seed(t, s)

	conns, err := s.ListConnections(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Connections, conns)

	c := want.Connections[0]
	c.Label, c.Color, c.LineStyle = "Eldest son", "#ff8800", "dotted"
	require.NoError(t, s.UpdateConnection(ctx, c))
	conns, err = s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, c, conns[0])

	require.NoError(t, s.DeleteConnection(ctx, c.ID))
	conns, err = s.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func testInsertionOrder(t *testing.T, s family.Store) {
	ctx := context.Background()
	ids := []string{"zeta", "alpha", "mid", "0"}
	for _, id := range ids {
		require.NoError(t, s.CreateMember(ctx, family.Member{ID: id, Name: id, Gender: family.Female}))
	}
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	var got []string
	for _, m := range members {
		got = append(got, m.ID)
	}
	assert.Equal(t, ids, got)
}

func testNotFound(t *testing.T, s family.Store) {
	ctx := context.Background()
	assert.True(t, errors.IsNotFound(s.UpdateMember(ctx, family.Member{ID: "ghost"})))
	assert.True(t, errors.IsNotFound(s.DeleteMember(ctx, "ghost")))
	assert.True(t, errors.IsNotFound(s.UpdateConnection(ctx, family.Connection{ID: "ghost"})))
	assert.True(t, errors.IsNotFound(s.DeleteConnection(ctx, "ghost")))
}

func testConflict(t *testing.T, s family.Store) {
	ctx := context.Background()
	seed(t, s)
	err := s.CreateMember(ctx, family.Member{ID: "1", Name: "Again"})
	assert.True(t, errors.Is(err, errors.ErrCodeConflict), "err = %v", err)
}

func testClearSelf(t *testing.T, s family.Store) {
	ctx := context.Background()
	seed(t, s)
	require.NoError(t, s.(family.SelfClearer).ClearSelfExcept(ctx, "1"))
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	for _, m := range members {
		assert.False(t, m.IsSelf, "member %s still self", m.ID)
	}
}

func testServiceRules(t *testing.T, s family.Store) {
	ctx := context.Background()
	seed(t, s)
	svc := family.NewService(s, nil)

	m, _ := family.Seed().Member("1")
	m.IsSelf = true
	require.NoError(t, svc.SaveMember(ctx, m, true))
	require.NoError(t, svc.DeleteMember(ctx, "2"))

	snap, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Members, 1)
	assert.True(t, snap.Members[0].IsSelf)
	assert.Empty(t, snap.Connections)
}
