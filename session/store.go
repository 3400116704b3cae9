package session

import (
	"context"
	"sync"
)

// SeenStore 记录每个会话已消费到的序列号, Watcher 重启后从这里续读,
// 避免把旧消息重新当成新事件发出去
type SeenStore interface {
	// Seen 读取会话已消费到的序列号, 无记录时返回 0
	Seen(ctx context.Context, talkerID int64) (int64, error)
	// SetSeen 写入会话已消费到的序列号
	SetSeen(ctx context.Context, talkerID int64, seqno int64) error
	// All 读取全部会话的序列号记录
	All(ctx context.Context) (map[int64]int64, error)
}

// MemorySeenStore 进程内的 SeenStore 实现, 进程退出后记录丢失
type MemorySeenStore struct {
	mu   sync.RWMutex
	seen map[int64]int64
}

// NewMemorySeenStore 创建内存实现
func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{
		seen: make(map[int64]int64),
	}
}

// Seen 读取会话已消费到的序列号
func (s *MemorySeenStore) Seen(_ context.Context, talkerID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[talkerID], nil
}

// SetSeen 写入会话已消费到的序列号
func (s *MemorySeenStore) SetSeen(_ context.Context, talkerID int64, seqno int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[talkerID] = seqno
	return nil
}

// All 读取全部会话的序列号记录
func (s *MemorySeenStore) All(_ context.Context) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]int64, len(s.seen))
	for k, v := range s.seen {
		out[k] = v
	}
	return out, nil
}
