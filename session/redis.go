package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "pos:session:"
	staffKeyPrefix   = "pos:staff_sessions:"
	callsKey         = "pos:waiter_calls"
)

// RedisStore shares sessions and waiter calls across instances. Idle expiry is
// the key TTL, refreshed on every Get.
type RedisStore struct {
	rdb  *redis.Client
	idle time.Duration
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, idle time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, idle: idle}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func staffKey(staffID uint) string {
	return staffKeyPrefix + strconv.FormatUint(uint64(staffID), 10)
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	s.LastSeen = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(s.ID), data, r.idle)
		p.SAdd(ctx, staffKey(s.StaffID), s.ID)
		p.Expire(ctx, staffKey(s.StaffID), 24*time.Hour)
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.LastSeen = time.Now()
	if data, err = json.Marshal(&s); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(id), data, r.idle).Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

func (r *RedisStore) DeleteForStaff(ctx context.Context, staffID uint) error {
	ids, err := r.rdb.SMembers(ctx, staffKey(staffID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, staffKey(staffID))
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *RedisStore) AddCall(ctx context.Context, call WaiterCall) (bool, error) {
	data, err := json.Marshal(call)
	if err != nil {
		return false, fmt.Errorf("encode waiter call: %w", err)
	}
	added, err := r.rdb.HSet(ctx, callsKey, strconv.FormatUint(uint64(call.TableID), 10), data).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (r *RedisStore) Calls(ctx context.Context) ([]WaiterCall, error) {
	raw, err := r.rdb.HGetAll(ctx, callsKey).Result()
	if err != nil {
		return nil, err
	}
	calls := make([]WaiterCall, 0, len(raw))
	for field, v := range raw {
		var c WaiterCall
		if err := json.Unmarshal([]byte(v), &c); err != nil {
			return nil, fmt.Errorf("decode waiter call %s: %w", field, err)
		}
		calls = append(calls, c)
	}
	sortCalls(calls)
	return calls, nil
}

func (r *RedisStore) ClearCall(ctx context.Context, tableID uint) error {
	return r.rdb.HDel(ctx, callsKey, strconv.FormatUint(uint64(tableID), 10)).Err()
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
