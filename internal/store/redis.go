package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/abhisek/smartroom/internal/gamestate"
)

const (
	defaultRedisPrefix = "smartroom"
	fieldMeta          = "meta"
	fieldPayload       = "payload"
)

// RedisRepo implements SaveRepo on Redis. Each save is a hash; a sorted set
// scored by creation time indexes them.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepo creates a repo storing keys under prefix. An empty prefix
// uses "smartroom".
func NewRedisRepo(client redis.UniversalClient, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepo{client: client, prefix: prefix}
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr string, db int) (*RedisRepo, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrapf(err, "connect redis %s", addr)
	}
	return NewRedisRepo(client, ""), nil
}

// Close closes the client.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func (r *RedisRepo) indexKey() string { return r.prefix + ":saves" }
func (r *RedisRepo) saveKey(id string) string { return r.prefix + ":save:" + id }

func (r *RedisRepo) Save(ctx context.Context, gs gamestate.GameState, label string) (Metadata, error) {
	meta, payload, err := newSave(gs, label)
	if err != nil {
		return Metadata{}, err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Metadata{}, eris.Wrap(err, "marshal save metadata")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.saveKey(meta.ID), fieldMeta, metaJSON, fieldPayload, payload)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score(meta.CreatedAt), Member: meta.ID})
		return nil
	})
	if err != nil {
		return Metadata{}, eris.Wrap(err, "write save")
	}
	return meta, nil
}

func (r *RedisRepo) Load(ctx context.Context, id string) (gamestate.GameState, Metadata, error) {
	vals, err := r.client.HMGet(ctx, r.saveKey(id), fieldMeta, fieldPayload).Result()
	if err != nil {
		return gamestate.GameState{}, Metadata{}, eris.Wrap(err, "read save")
	}
	metaStr, ok1 := vals[0].(string)
	payload, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return gamestate.GameState{}, Metadata{}, eris.Wrapf(ErrNotFound, "load %s", id)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
		return gamestate.GameState{}, Metadata{}, &ErrInvalidSave{Err: err}
	}
	gs, err := decodeSave([]byte(payload))
	if err != nil {
		return gamestate.GameState{}, meta, err
	}
	return gs, meta, nil
}

func (r *RedisRepo) List(ctx context.Context) ([]Metadata, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, eris.Wrap(err, "read save index")
	}
	out := make([]Metadata, 0, len(ids))
	for _, id := range ids {
		raw, err := r.client.HGet(ctx, r.saveKey(id), fieldMeta).Result()
		if errors.Is(err, redis.Nil) {
			continue // indexed but gone
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read save %s", id)
		}
		var meta Metadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, &ErrInvalidSave{Err: err}
		}
		out = append(out, meta)
	}
	return out, nil
}

func (r *RedisRepo) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.saveKey(id))
		pipe.ZRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "delete save")
	}
	if del.Val() == 0 {
		return eris.Wrapf(ErrNotFound, "delete %s", id)
	}
	return nil
}

func (r *RedisRepo) Prune(ctx context.Context, keep int) (int, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), int64(max(keep, 0)), -1).Result()
	if err != nil {
		return 0, eris.Wrap(err, "read save index")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = r.saveKey(id)
		members[i] = id
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, eris.Wrap(err, "prune saves")
	}
	return len(ids), nil
}

// score orders saves by creation time at microsecond precision, which a
// float64 holds exactly.
func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}
