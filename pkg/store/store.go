// Package store opens the configured family.Store backend.
//
// The backend is chosen at composition time from [config.StoreConfig]:
//
//	memory  in-process, seeded with the starter tree, lost on exit
//	file    one JSON document on disk (the default)
//	badger  embedded key-value database
//	redis   shared Redis server
//	mongo   shared MongoDB server
//
// Every backend is wrapped by [Instrument], which reports each call to the
// observability store hooks. With store.async set the instrumented backend is
// further wrapped by the async adapter, so writes return immediately and
// failures are logged.
package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinboard/pkg/config"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/observability"
	"github.com/matzehuels/kinboard/pkg/retry"
	"github.com/matzehuels/kinboard/pkg/store/async"
	"github.com/matzehuels/kinboard/pkg/store/badger"
	"github.com/matzehuels/kinboard/pkg/store/file"
	"github.com/matzehuels/kinboard/pkg/store/memory"
	"github.com/matzehuels/kinboard/pkg/store/mongo"
	"github.com/matzehuels/kinboard/pkg/store/redis"
)

// Open opens the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (family.Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	var (
		s   family.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = memory.New(family.Seed())
	case config.BackendFile, "":
		s, err = file.Open(cfg.Path, logger)
	case config.BackendBadger:
		s, err = badger.Open(badger.Config{Path: cfg.Path, SyncWrites: true, Logger: logger.WithPrefix("badger")})
	case config.BackendRedis:
		err = dial(ctx, logger, func() (e error) {
			s, e = redis.Open(ctx, redis.Config{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				Prefix:   cfg.Redis.Prefix,
			})
			return e
		})
	case config.BackendMongo:
		err = dial(ctx, logger, func() (e error) {
			s, e = mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			return e
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendFile
	}
	logger.Debug("opened store", "backend", backend, "async", cfg.Async)

	s = Instrument(s, backend)
	if cfg.Async {
		s = async.New(s, async.Options{Logger: logger})
	}
	return s, nil
}

// Remote backends get a few attempts so that a store server started
// alongside kinboard has time to come up.
const (
	dialAttempts = 3
	dialDelay    = 500 * time.Millisecond
)

func dial(ctx context.Context, logger *log.Logger, open func() error) error {
	attempt := 0
	return retry.Do(ctx, dialAttempts, dialDelay, func(err error) bool {
		return errors.Is(err, errors.ErrCodeUnavailable)
	}, func() error {
		attempt++
		err := open()
		if err != nil && attempt < dialAttempts {
			logger.Debug("store unavailable, retrying", "attempt", attempt, "err", err)
		}
		return err
	})
}

// Instrument wraps s so every call is reported to observability.Store().
// The wrapper keeps the SelfClearer capability when s has it.
func Instrument(s family.Store, backend string) family.Store {
	in := &instrumented{inner: s, backend: backend}
	if sc, ok := s.(family.SelfClearer); ok {
		return &instrumentedClearer{instrumented: in, clearer: sc}
	}
	return in
}

// Unwrap returns the store Instrument wrapped, or s itself.
func Unwrap(s family.Store) family.Store {
	switch w := s.(type) {
	case *instrumented:
		return w.inner
	case *instrumentedClearer:
		return w.inner
	}
	return s
}

type instrumented struct {
	inner   family.Store
	backend string
}

// track starts timing op; the returned func reports it with the final error.
func (s *instrumented) track(ctx context.Context, op string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), *errp)
	}
}

func (s *instrumented) ListMembers(ctx context.Context) (out []family.Member, err error) {
	defer s.track(ctx, "list_members")(&err)
	return s.inner.ListMembers(ctx)
}

func (s *instrumented) ListConnections(ctx context.Context) (out []family.Connection, err error) {
	defer s.track(ctx, "list_connections")(&err)
	return s.inner.ListConnections(ctx)
}

func (s *instrumented) CreateMember(ctx context.Context, m family.Member) (err error) {
	defer s.track(ctx, "create_member")(&err)
	return s.inner.CreateMember(ctx, m)
}

func (s *instrumented) UpdateMember(ctx context.Context, m family.Member) (err error) {
	defer s.track(ctx, "update_member")(&err)
	return s.inner.UpdateMember(ctx, m)
}

func (s *instrumented) DeleteMember(ctx context.Context, id string) (err error) {
	defer s.track(ctx, "delete_member")(&err)
	return s.inner.DeleteMember(ctx, id)
}

func (s *instrumented) CreateConnection(ctx context.Context, c family.Connection) (err error) {
	defer s.track(ctx, "create_connection")(&err)
	return s.inner.CreateConnection(ctx, c)
}

func (s *instrumented) UpdateConnection(ctx context.Context, c family.Connection) (err error) {
	defer s.track(ctx, "update_connection")(&err)
	return s.inner.UpdateConnection(ctx, c)
}

func (s *instrumented) DeleteConnection(ctx context.Context, id string) (err error) {
	defer s.track(ctx, "delete_connection")(&err)
	return s.inner.DeleteConnection(ctx, id)
}

func (s *instrumented) Close() error {
	return s.inner.Close()
}

type instrumentedClearer struct {
	*instrumented
	clearer family.SelfClearer
}

func (s *instrumentedClearer) ClearSelfExcept(ctx context.Context, keepID string) (err error) {
	defer s.track(ctx, "clear_self")(&err)
	return s.clearer.ClearSelfExcept(ctx, keepID)
}
