package session

import (
	"context"
	"sync"
	"time"

	"github.com/waiav123/bilibili-api/event"
	"github.com/waiav123/bilibili-api/pkg/errors"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

const (
	// EventPollFailed 单轮轮询失败时发出, 数据为 error
	EventPollFailed = "POLL_FAILED"

	// 轮询默认间隔
	defaultPollInterval = 6 * time.Second

	// 单会话一次最多补拉的消息条数
	maxCatchupSize = 50
)

// Watcher 轮询私信接口, 把新消息翻成事件发出去.
// 事件名取自消息类型 (TEXT, PICTURE, WITHDRAW, SHARE_VIDEO, NOTICE,
// WELCOME, UNKNOWN), 事件数据为 Message
type Watcher struct {
	svc      *Service
	events   *event.Emitter
	store    SeenStore
	log      logger.Logger
	interval time.Duration
	autoAck  bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// lastTS 上一轮处理到的会话更新时间戳(微秒)
	lastTS int64
}

// WatcherOption Watcher 可选配置
type WatcherOption func(*Watcher)

// WithPollInterval 指定轮询间隔
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithSeenStore 指定序列号存储, 默认用进程内存
func WithSeenStore(store SeenStore) WatcherOption {
	return func(w *Watcher) {
		if store != nil {
			w.store = store
		}
	}
}

// WithAutoAck 控制是否自动上报已读, 默认开启.
// 关闭后平台侧的未读数不会被消掉, 同一批消息可能被反复拉到
func WithAutoAck(enabled bool) WatcherOption {
	return func(w *Watcher) {
		w.autoAck = enabled
	}
}

// WithWatcherLogger 指定日志器
func WithWatcherLogger(log logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWatcher 创建 Watcher. events 传 nil 时内部自建一个, 通过 Events() 取用
func NewWatcher(svc *Service, events *event.Emitter, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		svc:      svc,
		events:   events,
		store:    NewMemorySeenStore(),
		log:      logger.Nop(),
		interval: defaultPollInterval,
		autoAck:  true,
	}
	if w.events == nil {
		w.events = event.NewEmitter()
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events 返回 Watcher 使用的事件分发器
func (w *Watcher) Events() *event.Emitter {
	return w.events
}

// Start 启动轮询. 立即执行第一轮, 之后按间隔重复, 直到 Close 或 ctx 取消.
// Watcher 是一次性的, Close 之后不能再次 Start
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errors.New(errors.ErrCodeInvalidState, "Watcher already started", 0)
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)

	w.log.Info("session watcher started",
		logger.Duration("interval", w.interval),
		logger.Bool("auto_ack", w.autoAck),
	)
	return nil
}

// Close 停止轮询并等待当前一轮结束. 重复调用无害
func (w *Watcher) Close() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll 拉一轮有更新的会话, 逐个补齐新消息
func (w *Watcher) poll(ctx context.Context) {
	var begin time.Time
	if w.lastTS > 0 {
		begin = time.UnixMicro(w.lastTS)
	}

	sessions, err := w.svc.NewSessions(ctx, begin)
	if err != nil {
		w.fail(ctx, err)
		return
	}

	for _, info := range sessions {
		if ctx.Err() != nil {
			return
		}
		if info.SessionTS > w.lastTS {
			w.lastTS = info.SessionTS
		}
		if info.UnreadCount <= 0 {
			continue
		}
		if err := w.pollSession(ctx, info); err != nil {
			w.fail(ctx, err)
		}
	}
}

// pollSession 补齐单个会话自上次消费以来的消息并发事件
func (w *Watcher) pollSession(ctx context.Context, info Info) error {
	baseline, err := w.store.Seen(ctx, info.TalkerID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStore, "Reading seen seqno failed", 0)
	}
	if baseline == 0 {
		// 首次见到这个会话, 以平台侧已读位置为基线, 不回放历史
		baseline = info.AckSeqno
	}

	msgs, maxSeqno, err := w.svc.Messages(ctx, info.TalkerID, info.SessionType, maxCatchupSize, baseline)
	if err != nil {
		return err
	}

	ownUID, _ := w.svc.client.Credential().UserID()
	emitted := 0
	for _, msg := range msgs {
		if msg.MsgSeqno <= baseline {
			continue
		}
		if ownUID != 0 && msg.SenderUID == ownUID {
			continue
		}
		w.events.Emit(msg.MsgType.EventName(), msg)
		emitted++
	}

	if maxSeqno > baseline {
		if err := w.store.SetSeen(ctx, info.TalkerID, maxSeqno); err != nil {
			return errors.Wrap(err, errors.ErrCodeStore, "Writing seen seqno failed", 0)
		}
		if w.autoAck {
			if err := w.svc.MarkRead(ctx, info.TalkerID, info.SessionType, maxSeqno); err != nil {
				return err
			}
		}
	}

	w.log.Debug("session polled",
		logger.Int64("talker_id", info.TalkerID),
		logger.Int("emitted", emitted),
		logger.Int64("seqno", maxSeqno),
	)
	return nil
}

// fail 记录并广播一次轮询失败. ctx 已取消时丢弃, 避免关闭路径上的噪音
func (w *Watcher) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	w.log.Warn("session poll failed", logger.Error(err))
	w.events.Emit(EventPollFailed, err)
}
