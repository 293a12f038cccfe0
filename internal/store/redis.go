package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/web3-frozen/llama-sentinel/internal/monitor"
)

// timestampIndex is a sorted set of signal ids scored by timestamp.
const timestampIndex = Collection + ":by_timestamp"

// Redis keeps each signal as a JSON string under "signals:<id>" with no expiry.
type Redis struct {
	rdb *redis.Client
}

// NewRedis creates a signal store backed by Redis.
func NewRedis(redisURL, password string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb}, nil
}

func docKey(id string) string { return Collection + ":" + id }

// Close shuts down the Redis connection.
func (s *Redis) Close() {
	_ = s.rdb.Close()
}

func (s *Redis) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Redis) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, docKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %w", ErrUnavailable, id, err)
	}
	return n > 0, nil
}

// Put stores the document permanently and indexes it by timestamp.
func (s *Redis) Put(ctx context.Context, sig monitor.Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrUnavailable, sig.ID, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, docKey(sig.ID), body, 0) // 0 = no expiry
		p.ZAdd(ctx, timestampIndex, redis.Z{Score: float64(sig.Timestamp), Member: sig.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrUnavailable, sig.ID, err)
	}
	return nil
}

func (s *Redis) Recent(ctx context.Context, limit int) ([]monitor.Signal, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, timestampIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %w", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: recent: %w", ErrUnavailable, err)
	}

	signals := make([]monitor.Signal, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a document
		}
		var sig monitor.Signal
		if err := json.Unmarshal([]byte(raw), &sig); err != nil {
			return nil, fmt.Errorf("decode signal document: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
