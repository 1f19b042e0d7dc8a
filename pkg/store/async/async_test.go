package async_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/async"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

var quiet = log.New(discard{})

// gated blocks every write until release is closed.
type gated struct {
	*memory.Store
	release chan struct{}
}

func (g gated) UpdateMember(ctx context.Context, m family.Member) error {
	<-g.release
	return g.Store.UpdateMember(ctx, m)
}

func TestWritesReturnBeforeCommit(t *testing.T) {
	inner := gated{memory.New(family.Seed()), make(chan struct{})}
	s := async.New(inner, async.Options{Logger: quiet})
	ctx := context.Background()

	m, _ := family.Seed().Member("1")
	m.X = 999
	require.NoError(t, s.UpdateMember(ctx, m))

	direct, err := inner.Store.ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, direct[0].X, "write applied before the worker ran")

	close(inner.release)
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 999.0, members[0].X, "list did not wait for queued write")
	require.NoError(t, s.Close())
}

func TestErrorsGoToCallback(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	s := async.New(memory.New(family.Seed()), async.Options{
		Logger: quiet,
		OnError: func(op string, err error) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, op)
		},
	})
	ctx := context.Background()

	require.NoError(t, s.DeleteMember(ctx, "404"), "caller must not see the failure")
	require.NoError(t, s.CreateMember(ctx, family.Member{ID: "1", Name: "dup"}))
	require.NoError(t, s.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"delete_member", "create_member"}, seen)
}

func TestWritesKeepOrder(t *testing.T) {
	s := async.New(memory.NewEmpty(), async.Options{Logger: quiet})
	ctx := context.Background()

	m := family.Member{ID: "x", Name: "X", Gender: family.Male}
	require.NoError(t, s.CreateMember(ctx, m))
	for i := range 50 {
		m.X = float64(i)
		require.NoError(t, s.UpdateMember(ctx, m))
	}
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 49.0, members[0].X)
}

func TestServiceOverAsync(t *testing.T) {
	s := async.New(memory.New(family.Seed()), async.Options{Logger: quiet})
	svc := family.NewService(s, quiet)
	ctx := context.Background()

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

func TestClosedStoreRejectsWrites(t *testing.T) {
	s := async.New(memory.NewEmpty(), async.Options{Logger: quiet})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close")

	err := s.CreateMember(context.Background(), family.Member{ID: "a"})
	require.Error(t, err)
	_, err = s.ListMembers(context.Background())
	assert.NoError(t, err, "reads still reach the inner store")
}

func TestCanceledContext(t *testing.T) {
	s := async.New(memory.NewEmpty(), async.Options{Logger: quiet})
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(s.CreateMember(ctx, family.Member{ID: "a"}), context.Canceled))
}
