package notify

import (
	"context"
	"strconv"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/catalog"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

const defaultSysPageSize = 20

// Service 通知盒子操作
type Service struct {
	client *bilibili.Client
	log    logger.Logger
}

// Option Service 可选配置
type Option func(*Service)

// WithLogger 指定日志器
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService 创建通知服务
func NewService(client *bilibili.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Like 拉取收到的点赞. cursor 传零值拉首页, 下一页游标在返回值里
func (s *Service) Like(ctx context.Context, cursor Cursor) (LikeFeed, error) {
	params := feedParams()
	params["platform"] = "web"
	if !cursor.zero() {
		params["id"] = strconv.FormatInt(cursor.ID, 10)
		params["like_time"] = strconv.FormatInt(cursor.Time, 10)
	}

	var wire likeWire
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "feed.like"), params, &wire); err != nil {
		return LikeFeed{}, err
	}
	return LikeFeed{
		Latest: wire.Latest.Items,
		Total:  wire.Total.Items,
		Cursor: wire.Total.Cursor,
	}, nil
}

// Reply 拉取收到的回复. cursor 传零值拉首页
func (s *Service) Reply(ctx context.Context, cursor Cursor) (ReplyFeed, error) {
	params := feedParams()
	params["platform"] = "web"
	if !cursor.zero() {
		params["id"] = strconv.FormatInt(cursor.ID, 10)
		params["reply_time"] = strconv.FormatInt(cursor.Time, 10)
	}

	var feed ReplyFeed
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "feed.reply"), params, &feed); err != nil {
		return ReplyFeed{}, err
	}
	return feed, nil
}

// At 拉取收到的 @. cursor 传零值拉首页
func (s *Service) At(ctx context.Context, cursor Cursor) (AtFeed, error) {
	params := feedParams()
	if !cursor.zero() {
		params["id"] = strconv.FormatInt(cursor.ID, 10)
		params["at_time"] = strconv.FormatInt(cursor.Time, 10)
	}

	var feed AtFeed
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "feed.at"), params, &feed); err != nil {
		return AtFeed{}, err
	}
	return feed, nil
}

// Unread 拉取通知盒子各栏目的未读数
func (s *Service) Unread(ctx context.Context) (UnreadFeed, error) {
	var unread UnreadFeed
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "feed.unread"), feedParams(), &unread); err != nil {
		return UnreadFeed{}, err
	}
	return unread, nil
}

// SystemNotify 拉取系统通知. cursor 为 0 拉首页; 返回空切片表示没有更多.
// 个人推送接口首页为空时退回全站公告接口, 两者响应结构一致
func (s *Service) SystemNotify(ctx context.Context, cursor int64, pageSize int) ([]SysNotifyItem, error) {
	if pageSize <= 0 {
		pageSize = defaultSysPageSize
	}

	params := feedParams()
	params["cursor"] = strconv.FormatInt(cursor, 10)
	params["page_size"] = strconv.Itoa(pageSize)
	params["data_type"] = "1"

	var wire sysNotifyWire
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "sys.user_notify"), params, &wire); err != nil {
		return nil, err
	}
	if len(wire.List) > 0 || cursor > 0 {
		return wire.List, nil
	}

	// 没有个人推送时查全站公告
	s.log.Debug("no user notify, falling back to unified notify")
	delete(params, "data_type")

	var unified sysNotifyWire
	if err := s.client.CallInto(ctx, catalog.MustGet("notify", "sys.unified_notify"), params, &unified); err != nil {
		return nil, err
	}
	return unified.List, nil
}

// feedParams 通知接口公共的固定参数
func feedParams() bilibili.Params {
	return bilibili.Params{
		"build":    "0",
		"mobi_app": "web",
	}
}
