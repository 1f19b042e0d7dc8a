// Package badger stores the tree in an embedded BadgerDB key-value store.
//
// Members live under "m/<id>" and connections under "c/<id>", each as a JSON
// record carrying a creation sequence number. Lists are returned in creation
// order, matching the other backends.
package badger

import (
	"cmp"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

const (
	memberPrefix     = "m/"
	connectionPrefix = "c/"
	sequenceKey      = "!seq"
	sequenceBand     = 100
)

// Config configures the database.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives BadgerDB's own log output. Nil silences it.
	Logger *log.Logger
}

// badgerLogger adapts a charm logger to badger.Logger.
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// record is the stored value of a member or connection.
type record[T any] struct {
	Seq  uint64 `json:"seq"`
	Data T      `json:"data"`
}

// Store is a family.Store over BadgerDB.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "badger: path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "create database directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "open badger database")
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBand)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open sequence")
	}
	return &Store{db: db, seq: seq}, nil
}

func list[T any](db *badger.DB, prefix string) ([]T, error) {
	var recs []record[T]
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var r record[T]
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			recs = append(recs, r)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", prefix)
	}
	slices.SortFunc(recs, func(a, b record[T]) int { return cmp.Compare(a.Seq, b.Seq) })
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.Data
	}
	return out, nil
}

// put writes v under key. create fails when the key exists; otherwise the key
// must exist and its sequence number is kept.
func put[T any](s *Store, key string, v T, create bool, notFound errors.Code) error {
	var seq uint64
	if create {
		n, err := s.seq.Next()
		if err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "next sequence")
		}
		seq = n
	}
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case err == nil && create:
			return errors.New(errors.ErrCodeConflict, "%s already exists", key)
		case stderrors.Is(err, badger.ErrKeyNotFound) && !create:
			return errors.New(notFound, "%s", key)
		case err != nil && !stderrors.Is(err, badger.ErrKeyNotFound):
			return errors.Wrap(errors.ErrCodeStore, err, "get %s", key)
		}

		r := record[T]{Seq: seq}
		if !create {
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
				return errors.Wrap(errors.ErrCodeStore, err, "decode %s", key)
			}
		}
		r.Data = v

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) remove(key string, notFound errors.Code) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.New(notFound, "%s", key)
			}
			return errors.Wrap(errors.ErrCodeStore, err, "get %s", key)
		}
		return txn.Delete([]byte(key))
	})
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	return list[family.Member](s.db, memberPrefix)
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	return list[family.Connection](s.db, connectionPrefix)
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	return put(s, memberPrefix+m.ID, m, true, errors.ErrCodeMemberNotFound)
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	return put(s, memberPrefix+m.ID, m, false, errors.ErrCodeMemberNotFound)
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.remove(memberPrefix+id, errors.ErrCodeMemberNotFound)
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	return put(s, connectionPrefix+c.ID, c, true, errors.ErrCodeConnectionNotFound)
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	return put(s, connectionPrefix+c.ID, c, false, errors.ErrCodeConnectionNotFound)
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return s.remove(connectionPrefix+id, errors.ErrCodeConnectionNotFound)
}

// ClearSelfExcept resets every other self flag in one transaction.
func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(memberPrefix)
		type pending struct {
			key  []byte
			data []byte
		}
		var writes []pending
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var r record[family.Member]
			item := it.Item()
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
				return err
			}
			if !r.Data.IsSelf || r.Data.ID == keepID {
				continue
			}
			r.Data.IsSelf = false
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			writes = append(writes, pending{key: item.KeyCopy(nil), data: data})
		}
		for _, w := range writes {
			if err := txn.Set(w.key, w.data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
