package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "github.com/ray-SDJ/comparison/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "user:list"
	keyByID = "user:id:"
	keyGen  = "user:gen"
)

// UserCache caches the user list and single-user lookups in Redis.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUserCache returns a new UserCache.
func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

// GetList returns cached list or nil if miss.
func (c *UserCache) GetList(ctx context.Context) ([]dom.User, error) {
	var list []dom.User
	ok, err := c.get(ctx, keyList, &list)
	if err != nil || !ok {
		return nil, err
	}
	return list, nil
}

// Generation returns the current invalidation counter. Read it before
// loading from storage and pass it to SetList/SetUser.
func (c *UserCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetList stores the list unless an invalidation happened after gen was read.
func (c *UserCache) SetList(ctx context.Context, gen int64, list []dom.User) error {
	return c.set(ctx, gen, keyList, list)
}

// GetUser returns the cached user and whether it was a hit.
func (c *UserCache) GetUser(ctx context.Context, id int64) (dom.User, bool, error) {
	var u dom.User
	ok, err := c.get(ctx, userKey(id), &u)
	if err != nil || !ok {
		return dom.User{}, false, err
	}
	return u, true, nil
}

// SetUser stores a single user unless an invalidation happened after gen was read.
func (c *UserCache) SetUser(ctx context.Context, gen int64, u dom.User) error {
	return c.set(ctx, gen, userKey(u.ID), u)
}

// Invalidate bumps the generation and drops the list and the given users.
func (c *UserCache) Invalidate(ctx context.Context, ids ...int64) error {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, keyList)
	for _, id := range ids {
		keys = append(keys, userKey(id))
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyGen)
		p.Del(ctx, keys...)
		return nil
	})
	return err
}

func (c *UserCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// set writes key only while the generation still equals gen. A concurrent
// Invalidate aborts the transaction and the write is skipped.
func (c *UserCache) set(ctx context.Context, gen int64, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, keyGen).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, keyGen)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func userKey(id int64) string {
	return keyByID + strconv.FormatInt(id, 10)
}
