package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

const redisKeyPrefix = "sentinel:alert"

// RedisStore keeps each entry as a JSON string plus a per-(symbol, rule)
// sorted set of dates scored by unix day, so History is a range scan.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisStore connects to addr and pings it. Entries expire after
// retention; zero keeps them forever.
func NewRedisStore(ctx context.Context, addr, password string, db int, retention time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	logger.Info("Redis alert ledger connected", logger.String("addr", addr))
	return &RedisStore{rdb: rdb, retention: retention}, nil
}

func entryKey(k model.HistoryKey) string {
	return redisKeyPrefix + ":" + k.String()
}

func indexKey(symbol string, ruleID model.RuleID) string {
	return redisKeyPrefix + ":idx:" + symbol + ":" + string(ruleID)
}

func dayScore(t time.Time) float64 {
	return float64(dayStart(t).Unix() / 86400)
}

func (s *RedisStore) Get(ctx context.Context, key model.HistoryKey) (model.AlertHistoryEntry, bool, error) {
	raw, err := s.rdb.Get(ctx, entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.AlertHistoryEntry{}, false, nil
	}
	if err != nil {
		return model.AlertHistoryEntry{}, false, err
	}
	var e model.AlertHistoryEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.AlertHistoryEntry{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, e model.AlertHistoryEntry) error {
	e.Date = dayStart(e.Date)
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := e.Key()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey(key), data, s.retention)
		pipe.ZAdd(ctx, indexKey(e.Symbol, e.RuleID), redis.Z{
			Score:  dayScore(e.Date),
			Member: model.DayKey(e.Date),
		})
		return nil
	})
	return err
}

func (s *RedisStore) ExistsForDate(ctx context.Context, key model.HistoryKey) (bool, error) {
	n, err := s.rdb.Exists(ctx, entryKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) History(ctx context.Context, symbol string, ruleID model.RuleID, since time.Time) ([]model.AlertHistoryEntry, error) {
	days, err := s.rdb.ZRangeByScore(ctx, indexKey(symbol, ruleID), &redis.ZRangeBy{
		Min: strconv.FormatFloat(dayScore(since), 'f', 0, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}

	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = redisKeyPrefix + ":" + symbol + ":" + string(ruleID) + ":" + d
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]model.AlertHistoryEntry, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Entry expired but its index member is still around.
			continue
		}
		var e model.AlertHistoryEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
