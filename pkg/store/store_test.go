package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/config"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/observability"
	"github.com/matzehuels/kinboard/pkg/store/async"
	"github.com/matzehuels/kinboard/pkg/store/file"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

type opRecord struct {
	backend, op string
	failed      bool
}

type recordingHooks struct {
	mu  sync.Mutex
	ops []opRecord
}

func (h *recordingHooks) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, opRecord{backend, op, err != nil})
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	_, ok := Unwrap(s).(*memory.Store)
	assert.True(t, ok, "memory backend")
	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2, "memory backend starts from the seed tree")

	s, err = Open(ctx, config.StoreConfig{Backend: config.BackendFile, Path: filepath.Join(t.TempDir(), "t.json")}, nil)
	require.NoError(t, err)
	_, ok = Unwrap(s).(*file.Store)
	assert.True(t, ok, "file backend")

	s, err = Open(ctx, config.StoreConfig{Backend: config.BackendMemory, Async: true}, nil)
	require.NoError(t, err)
	_, ok = s.(*async.Store)
	assert.True(t, ok, "async wrapper")
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreConfig{Backend: "sqlite"}, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestInstrumentReportsOps(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	s := Instrument(memory.New(family.Seed()), "memory")

	_, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Error(t, s.DeleteMember(ctx, "ghost"))
	require.NoError(t, s.(family.SelfClearer).ClearSelfExcept(ctx, "1"))

	assert.Equal(t, []opRecord{
		{"memory", "list_members", false},
		{"memory", "delete_member", true},
		{"memory", "clear_self", false},
	}, hooks.ops)
}

type bareStore struct{ family.Store }

func TestInstrumentKeepsCapabilities(t *testing.T) {
	_, ok := Instrument(memory.NewEmpty(), "memory").(family.SelfClearer)
	assert.True(t, ok)

	_, ok = Instrument(bareStore{memory.NewEmpty()}, "bare").(family.SelfClearer)
	assert.False(t, ok)
}
