package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// 已读序列号哈希键前缀, 按登录账号分键
	seenKeyPrefix = "bili:im:seen:"

	// 哈希键默认过期时间
	defaultSeenTTL = 30 * 24 * time.Hour // 30天
)

// RedisSeenStore 基于 Redis 哈希的 SeenStore 实现, 多进程或重启后仍可续读.
// 每个登录账号一个哈希键, field 为会话对方 ID, value 为序列号
type RedisSeenStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// RedisStoreOption RedisSeenStore 可选配置
type RedisStoreOption func(*RedisSeenStore)

// WithSeenTTL 指定哈希键的过期时间, 0 表示不过期
func WithSeenTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisSeenStore) {
		s.ttl = ttl
	}
}

// NewRedisSeenStore 创建 Redis 实现. uid 为登录账号 UID, 用于隔离不同账号的记录
func NewRedisSeenStore(redisClient *redis.Client, uid int64, opts ...RedisStoreOption) *RedisSeenStore {
	s := &RedisSeenStore{
		redis: redisClient,
		key:   fmt.Sprintf("%s%d", seenKeyPrefix, uid),
		ttl:   defaultSeenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seen 读取会话已消费到的序列号
func (s *RedisSeenStore) Seen(ctx context.Context, talkerID int64) (int64, error) {
	val, err := s.redis.HGet(ctx, s.key, strconv.FormatInt(talkerID, 10)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read seen seqno: %w", err)
	}

	seqno, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse seen seqno %q: %w", val, err)
	}
	return seqno, nil
}

// SetSeen 写入会话已消费到的序列号, 同时续期哈希键防止僵尸键
func (s *RedisSeenStore) SetSeen(ctx context.Context, talkerID int64, seqno int64) error {
	pipe := s.redis.Pipeline()
	pipe.HSet(ctx, s.key, strconv.FormatInt(talkerID, 10), strconv.FormatInt(seqno, 10))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write seen seqno: %w", err)
	}
	return nil
}

// All 读取全部会话的序列号记录
func (s *RedisSeenStore) All(ctx context.Context) (map[int64]int64, error) {
	entries, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read seen records: %w", err)
	}

	out := make(map[int64]int64, len(entries))
	for field, val := range entries {
		talkerID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		seqno, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		out[talkerID] = seqno
	}
	return out, nil
}
