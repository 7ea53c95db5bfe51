package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 加算して現在値を返すカウンタ。TTLは初回加算時に付ける。
// プロセス内のmapではなく外部ストアに置くことで、
// 多重インスタンスでも再起動でも数え漏れが出ない。
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type RedisCounterStore struct {
	rdb *redis.Client
}

func NewRedisCounterStore(rdb *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		//初回だけ期限を付ける
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// (userID, 日付)ごとの回数制限
type DailyQuota struct {
	store  CounterStore
	limit  int64
	prefix string
}

func NewDailyQuota(store CounterStore, limit int64, prefix string) *DailyQuota {
	return &DailyQuota{store: store, limit: limit, prefix: prefix}
}

// 1回消費して、まだ上限内ならtrue。
func (q *DailyQuota) Allow(ctx context.Context, userID int64, now time.Time) (bool, error) {
	if q.store == nil {
		return false, errors.New("counter store not configured")
	}

	key := fmt.Sprintf("%s:%d:%s", q.prefix, userID, now.Format("2006-01-02"))

	//日付が変わればキーが変わるので、TTLは日替わりまでで十分
	ttl := endOfDay(now).Sub(now)
	if ttl <= 0 {
		ttl = time.Minute
	}

	n, err := q.store.Incr(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	return n <= q.limit, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
