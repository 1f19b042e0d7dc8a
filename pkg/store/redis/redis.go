// Package redis stores the tree in Redis so several kinboard front-ends can
// share it.
//
// Layout, for a key prefix P:
//
//	P:members          hash   id -> member JSON
//	P:members:order    zset   id scored by creation sequence
//	P:connections      hash   id -> connection JSON
//	P:connections:order zset  id scored by creation sequence
//	P:seq              string creation sequence counter
package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// Config configures the connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// updateIfExists replaces a hash field only when it is already present.
var updateIfExists = goredis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// Store is a family.Store over Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "kinboard"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "redis %s", cfg.Addr)
	}
	return &Store{client: client, prefix: cfg.Prefix}, nil
}

// kind names one entity collection.
type kind struct {
	hash, order string
	notFound    errors.Code
}

func (s *Store) members() kind {
	return kind{s.prefix + ":members", s.prefix + ":members:order", errors.ErrCodeMemberNotFound}
}

func (s *Store) connections() kind {
	return kind{s.prefix + ":connections", s.prefix + ":connections:order", errors.ErrCodeConnectionNotFound}
}

func list[T any](ctx context.Context, c *goredis.Client, k kind) ([]T, error) {
	ids, err := c.ZRange(ctx, k.order, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", k.hash)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := c.HMGet(ctx, k.hash, ids...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", k.hash)
	}
	out := make([]T, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// order entry without data: a delete raced the read
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s %s", k.hash, ids[i])
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) create(ctx context.Context, k kind, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ok, err := s.client.HSetNX(ctx, k.hash, id, data).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create %s", id)
	}
	if !ok {
		return errors.New(errors.ErrCodeConflict, "%s already exists", id)
	}
	seq, err := s.client.Incr(ctx, s.prefix+":seq").Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create %s", id)
	}
	if err := s.client.ZAdd(ctx, k.order, goredis.Z{Score: float64(seq), Member: id}).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "create %s", id)
	}
	return nil
}

func (s *Store) update(ctx context.Context, k kind, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	n, err := updateIfExists.Run(ctx, s.client, []string{k.hash}, id, data).Int()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "update %s", id)
	}
	if n == 0 {
		return errors.New(k.notFound, "%s", id)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, k kind, id string) error {
	var del *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.HDel(ctx, k.hash, id)
		p.ZRem(ctx, k.order, id)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete %s", id)
	}
	if del.Val() == 0 {
		return errors.New(k.notFound, "%s", id)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	return list[family.Member](ctx, s.client, s.members())
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	return list[family.Connection](ctx, s.client, s.connections())
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	return s.create(ctx, s.members(), m.ID, m)
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	return s.update(ctx, s.members(), m.ID, m)
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.remove(ctx, s.members(), id)
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	return s.create(ctx, s.connections(), c.ID, c)
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	return s.update(ctx, s.connections(), c.ID, c)
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return s.remove(ctx, s.connections(), id)
}

// ClearSelfExcept rewrites every other self member in one pipeline.
func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return err
	}
	k := s.members()
	_, err = s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, m := range members {
			if !m.IsSelf || m.ID == keepID {
				continue
			}
			m.IsSelf = false
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			p.HSet(ctx, k.hash, m.ID, data)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "clear self flags")
	}
	return nil
}

// Reset deletes every key of this store. Used by tests.
func (s *Store) Reset(ctx context.Context) error {
	m, c := s.members(), s.connections()
	return s.client.Del(ctx, m.hash, m.order, c.hash, c.order, s.prefix+":seq").Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
