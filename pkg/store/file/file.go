// Package file stores the whole tree as one JSON document on disk.
//
// Every write rewrites the document through a temporary file and a rename,
// so readers never see a half-written tree. Watch reports changes made to
// the document by other processes, which is how several kinboard front-ends
// pointed at the same file stay in step.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

// DebounceWindow is how long Watch waits for more events before reloading.
const DebounceWindow = 100 * time.Millisecond

// document is the on-disk layout.
type document struct {
	Version     int                 `json:"version"`
	Members     []family.Member     `json:"members"`
	Connections []family.Connection `json:"connections"`
}

const documentVersion = 1

// Store keeps the tree in memory and mirrors every write to path.
type Store struct {
	path   string
	logger *log.Logger

	mu  sync.RWMutex
	mem *memory.Store
}

// Open loads the document at path. A missing file is an empty tree; the file
// and its directory are created on the first write.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	snap, err := read(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, logger: logger, mem: memory.New(snap)}, nil
}

// Path returns the document path.
func (s *Store) Path() string { return s.path }

func read(path string) (family.Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return family.Snapshot{}, nil
	}
	if err != nil {
		return family.Snapshot{}, errors.Wrap(errors.ErrCodeStore, err, "read %s", path)
	}
	if len(data) == 0 {
		return family.Snapshot{}, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return family.Snapshot{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	return family.Snapshot{Members: doc.Members, Connections: doc.Connections}, nil
}

// persist writes the current tree. Callers hold mu.
func (s *Store) persist() error {
	snap := s.mem.Snapshot()
	doc := document{Version: documentVersion, Members: snap.Members, Connections: snap.Connections}
	if doc.Members == nil {
		doc.Members = []family.Member{}
	}
	if doc.Connections == nil {
		doc.Connections = []family.Connection{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".kinboard-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write %s", s.path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write %s", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStore, err, "write %s", s.path)
	}
	return nil
}

// write applies fn to the in-memory tree and persists it when fn succeeds.
func (s *Store) write(fn func(m *memory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.mem); err != nil {
		return err
	}
	return s.persist()
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.ListMembers(ctx)
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.ListConnections(ctx)
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	return s.write(func(mem *memory.Store) error { return mem.CreateMember(ctx, m) })
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	return s.write(func(mem *memory.Store) error { return mem.UpdateMember(ctx, m) })
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.write(func(mem *memory.Store) error { return mem.DeleteMember(ctx, id) })
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	return s.write(func(mem *memory.Store) error { return mem.CreateConnection(ctx, c) })
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	return s.write(func(mem *memory.Store) error { return mem.UpdateConnection(ctx, c) })
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return s.write(func(mem *memory.Store) error { return mem.DeleteConnection(ctx, id) })
}

func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	return s.write(func(mem *memory.Store) error { return mem.ClearSelfExcept(ctx, keepID) })
}

// Close does nothing; every write is already on disk.
func (s *Store) Close() error {
	return nil
}

// Watch calls onChange with the new tree whenever the document is changed by
// someone other than this Store. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(family.Snapshot)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "watch %s", s.path)
	}
	defer w.Close()

	// Watch the directory: writes replace the file by rename, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create %s", dir)
	}
	if err := w.Add(dir); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "watch %s", dir)
	}
	target := filepath.Clean(s.path)

	timer := time.NewTimer(DebounceWindow)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				timer.Reset(DebounceWindow)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", "path", s.path, "err", err)
		case <-timer.C:
			snap, changed, err := s.reload()
			if err != nil {
				s.logger.Warn("reload after change failed", "path", s.path, "err", err)
				continue
			}
			if changed {
				s.logger.Debug("tree changed on disk", "path", s.path, "members", len(snap.Members))
				onChange(snap)
			}
		}
	}
}

// reload re-reads the document and reports whether it differs from the
// in-memory tree.
func (s *Store) reload() (family.Snapshot, bool, error) {
	snap, err := read(s.path)
	if err != nil {
		return family.Snapshot{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.mem.Snapshot()
	if slices.Equal(cur.Members, snap.Members) && slices.Equal(cur.Connections, snap.Connections) {
		return snap, false, nil
	}
	s.mem = memory.New(snap)
	return snap, true, nil
}
