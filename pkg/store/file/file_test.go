package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/storetest"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

var quiet = log.New(discard{})

func TestOpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "sub", "tree.json"), quiet)
	require.NoError(t, err)
	members, err := s.ListMembers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestWritesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tree.json")
	ctx := context.Background()

	s, err := Open(path, quiet)
	require.NoError(t, err)
	seed := family.Seed()
	for _, m := range seed.Members {
		require.NoError(t, s.CreateMember(ctx, m))
	}
	for _, c := range seed.Connections {
		require.NoError(t, s.CreateConnection(ctx, c))
	}
	require.NoError(t, s.ClearSelfExcept(ctx, "1"))
	require.NoError(t, s.DeleteConnection(ctx, "c1"))

	reopened, err := Open(path, quiet)
	require.NoError(t, err)
	members, err := reopened.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "1", members[0].ID, "insertion order kept")
	assert.False(t, members[1].IsSelf)
	conns, err := reopened.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, documentVersion, doc.Version)
	assert.NotNil(t, doc.Connections)
}

func TestFailedWriteLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	ctx := context.Background()
	s, err := Open(path, quiet)
	require.NoError(t, err)

	err = s.UpdateMember(ctx, family.Member{ID: "ghost"})
	assert.True(t, errors.IsNotFound(err))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed write created the file")
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Open(path, quiet)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "err = %v", err)
}

func TestWatchSeesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := Open(path, quiet)
	require.NoError(t, err)
	writer, err := Open(path, quiet)
	require.NoError(t, err)

	changes := make(chan family.Snapshot, 4)
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx, func(s family.Snapshot) { changes <- s }) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	m, _ := family.Seed().Member("1")
	require.NoError(t, writer.CreateMember(context.Background(), m))

	select {
	case snap := <-changes:
		require.Len(t, snap.Members, 1)
		assert.Equal(t, "1", snap.Members[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	members, err := watcher.ListMembers(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 1, "watcher's tree not refreshed")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) family.Store {
		s, err := Open(filepath.Join(t.TempDir(), "tree.json"), quiet)
		require.NoError(t, err)
		return s
	})
}
