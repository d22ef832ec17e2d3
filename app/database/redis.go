package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "motd:"

// RedisStore keeps one string key per record. Reads always hit the primary,
// so the consistent flag makes no difference.
type RedisStore struct {
	client   *redis.Client
	pageSize int
}

func NewRedisStore(ctx context.Context, addr, password string, db, pageSize int) (*RedisStore, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Debug("Connected to Redis", "addr", addr, "db", db)

	return &RedisStore{client: client, pageSize: pageSize}, nil
}

func redisKey(key int64) string {
	return redisKeyPrefix + strconv.FormatInt(key, 10)
}

func parseRedisKey(name string) (int64, error) {
	raw, ok := strings.CutPrefix(name, redisKeyPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected key %q", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *RedisStore) Get(ctx context.Context, key int64, _ bool) (*Record, error) {
	val, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get motd %d: %w", key, err)
	}
	return &Record{Key: key, Value: val}, nil
}

func (s *RedisStore) InsertIfAbsent(ctx context.Context, rec Record) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(rec.Key), rec.Value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to insert motd %d: %w", rec.Key, err)
	}
	return ok, nil
}

// Scan uses the Redis SCAN cursor as the continuation token. Pages are not
// ordered and may be empty while the cursor is still open.
func (s *RedisStore) Scan(ctx context.Context, cursor string, _ bool) (Page, error) {
	var from uint64
	if cursor != "" {
		var err error
		from, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
	}

	names, next, err := s.client.Scan(ctx, from, redisKeyPrefix+"*", int64(s.pageSize)).Result()
	if err != nil {
		return Page{}, fmt.Errorf("failed to scan motds: %w", err)
	}

	var page Page
	if next != 0 {
		page.Next = strconv.FormatUint(next, 10)
	}
	if len(names) == 0 {
		return page, nil
	}

	values, err := s.client.MGet(ctx, names...).Result()
	if err != nil {
		return Page{}, fmt.Errorf("failed to read motds: %w", err)
	}

	for i, name := range names {
		val, ok := values[i].(string)
		if !ok {
			continue
		}
		key, err := parseRedisKey(name)
		if err != nil {
			return Page{}, err
		}
		page.Records = append(page.Records, Record{Key: key, Value: val})
	}

	return page, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", int64(s.pageSize)).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to get motd count: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
