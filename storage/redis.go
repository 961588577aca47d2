// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store backed by Redis, so PAR entries and
// registry rows survive restarts and are shared across instances.
// Expiry is delegated to Redis's own key TTL rather than tracked
// application-side. Redis keeps one TTL per key: an entry written with a
// SlidingTTL gets that window as its TTL (an AbsoluteTTL beside it is not
// applied), and Touch does not extend it.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. prefix namespaces every
// key this store touches, so one Redis instance can back multiple
// unrelated Store callers safely.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, opts SetOptions) error {
	ttl := opts.AbsoluteTTL
	if opts.SlidingTTL > 0 {
		ttl = opts.SlidingTTL
	}
	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("storage: redis set failed: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: redis get failed: %w", err)
	}
	return val, nil
}

// GetDelete implements Store via GETDEL, so a consumed entry can never
// be consumed twice even across instances.
func (s *RedisStore) GetDelete(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.GetDel(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: redis getdel failed: %w", err)
	}
	return val, nil
}

// Touch implements Store by re-applying the key's remaining TTL. It does
// not extend the entry's lifetime: absolute and sliding entries alike keep
// ticking toward the deadline their Set gave them. A missing key, or a key
// with no TTL, yields ErrNotFound.
func (s *RedisStore) Touch(ctx context.Context, key string) error {
	ttl, err := s.rdb.TTL(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("storage: redis ttl failed: %w", err)
	}
	if ttl < 0 {
		return ErrNotFound
	}
	if err := s.rdb.Expire(ctx, s.key(key), ttl).Err(); err != nil {
		return fmt.Errorf("storage: redis expire failed: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("storage: redis delete failed: %w", err)
	}
	return nil
}

// NewRedisClient is a thin constructor wrapping redis.NewClient, mirroring
// the connection-options-struct convention store/postgres.Config uses.
func NewRedisClient(addr, password string, db int, dialTimeout time.Duration) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})
}
