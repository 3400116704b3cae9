package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/catalog"
	"github.com/waiav123/bilibili-api/pkg/errors"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

const defaultPageSize = 20

// Service 私信会话操作
type Service struct {
	client *bilibili.Client
	log    logger.Logger
	devID  string
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

// WithDeviceID 固定设备标识, 不指定时每个 Service 随机生成一个
func WithDeviceID(devID string) Option {
	return func(s *Service) {
		if devID != "" {
			s.devID = strings.ToUpper(devID)
		}
	}
}

// NewService 创建私信服务. 发送消息用的 dev_id 在 Service 生命周期内保持不变
func NewService(client *bilibili.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		log:    logger.Nop(),
		devID:  strings.ToUpper(uuid.NewString()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessions 拉取 begin 之后有更新的会话. begin 为零值时拉取全部
func (s *Service) NewSessions(ctx context.Context, begin time.Time) ([]Info, error) {
	params := webParams()
	if !begin.IsZero() {
		params["begin_ts"] = strconv.FormatInt(begin.UnixMicro(), 10)
	} else {
		params["begin_ts"] = "0"
	}

	var list List
	if err := s.client.CallInto(ctx, catalog.MustGet("session", "new_sessions"), params, &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

// Sessions 按游标分页拉取会话列表
func (s *Service) Sessions(ctx context.Context, opts ListOptions) (List, error) {
	st := opts.Type
	if st == 0 {
		st = SessionTypeAll
	}
	size := opts.Size
	if size <= 0 {
		size = defaultPageSize
	}

	params := webParams()
	params["session_type"] = strconv.Itoa(int(st))
	params["group_fold"] = boolFlag(opts.FoldGroup)
	params["unfollow_fold"] = boolFlag(opts.FoldUnfollow)
	params["sort_rule"] = "2"
	params["size"] = strconv.Itoa(size)
	if opts.EndTS > 0 {
		params["end_ts"] = strconv.FormatInt(opts.EndTS, 10)
	}

	var list List
	if err := s.client.CallInto(ctx, catalog.MustGet("session", "get_sessions"), params, &list); err != nil {
		return List{}, err
	}
	return list, nil
}

// Messages 拉取会话内序列号大于 beginSeqno 的消息, 按序列号升序返回,
// 第二个返回值是本次响应携带的最大序列号, 可作为下次拉取的游标
func (s *Service) Messages(ctx context.Context, talkerID int64, st SessionType, size int, beginSeqno int64) ([]Message, int64, error) {
	if st == 0 {
		st = SessionTypeUser
	}
	if size <= 0 {
		size = defaultPageSize
	}

	params := webParams()
	params["talker_id"] = strconv.FormatInt(talkerID, 10)
	params["session_type"] = strconv.Itoa(int(st))
	params["size"] = strconv.Itoa(size)
	if beginSeqno > 0 {
		params["begin_seqno"] = strconv.FormatInt(beginSeqno, 10)
	}

	var res fetchResult
	if err := s.client.CallInto(ctx, catalog.MustGet("session", "fetch_session_msgs"), params, &res); err != nil {
		return nil, 0, err
	}

	// 平台按序列号降序返回, 这里翻成升序方便调用方顺序消费
	msgs := res.Messages
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, res.MaxSeqno, nil
}

// SendText 向 receiverID 发送文本私信
func (s *Service) SendText(ctx context.Context, receiverID int64, text string) (SendReceipt, error) {
	if strings.TrimSpace(text) == "" {
		return SendReceipt{}, errors.New(errors.ErrCodeValidationFailed, "Message text is empty", 0)
	}

	content, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return SendReceipt{}, errors.Wrap(err, errors.ErrCodeValidationFailed, "Encoding message content failed", 0)
	}
	return s.send(ctx, receiverID, SessionTypeUser, MsgTypeText, string(content))
}

// Recall 撤回自己发出的消息. msgKey 来自发送回执或消息记录
func (s *Service) Recall(ctx context.Context, receiverID, msgKey int64) (SendReceipt, error) {
	if msgKey <= 0 {
		return SendReceipt{}, errors.New(errors.ErrCodeValidationFailed, "msg_key is required to recall a message", 0)
	}
	return s.send(ctx, receiverID, SessionTypeUser, MsgTypeRecall, strconv.FormatInt(msgKey, 10))
}

// send 发送接口的公共参数装配
func (s *Service) send(ctx context.Context, receiverID int64, st SessionType, mt MsgType, content string) (SendReceipt, error) {
	uid, ok := s.client.Credential().UserID()
	if !ok {
		return SendReceipt{}, errors.New(errors.ErrCodeCredentialMissing, "DedeUserID cookie is required to send messages", 0)
	}

	params := bilibili.Params{
		"msg[sender_uid]":       strconv.FormatInt(uid, 10),
		"msg[receiver_id]":      strconv.FormatInt(receiverID, 10),
		"msg[receiver_type]":    strconv.Itoa(int(st)),
		"msg[msg_type]":         strconv.Itoa(int(mt)),
		"msg[msg_status]":       "0",
		"msg[dev_id]":           s.devID,
		"msg[timestamp]":        strconv.FormatInt(time.Now().Unix(), 10),
		"msg[new_face_version]": "0",
		"msg[content]":          content,
	}

	var receipt SendReceipt
	if err := s.client.CallInto(ctx, catalog.MustGet("session", "send_msg"), params, &receipt); err != nil {
		return SendReceipt{}, err
	}

	s.log.Debug("message sent",
		logger.Int64("receiver_id", receiverID),
		logger.Int("msg_type", int(mt)),
		logger.Int64("msg_key", receipt.MsgKey),
	)
	return receipt, nil
}

// MarkRead 上报会话已读到 ackSeqno
func (s *Service) MarkRead(ctx context.Context, talkerID int64, st SessionType, ackSeqno int64) error {
	if st == 0 {
		st = SessionTypeUser
	}
	params := webParams()
	params["talker_id"] = strconv.FormatInt(talkerID, 10)
	params["session_type"] = strconv.Itoa(int(st))
	params["ack_seqno"] = strconv.FormatInt(ackSeqno, 10)

	_, err := s.client.Call(ctx, catalog.MustGet("session", "update_ack"), params)
	return err
}

// SingleUnread 查询私信未读数
func (s *Service) SingleUnread(ctx context.Context) (UnreadCounts, error) {
	params := webParams()
	params["unread_type"] = "0"

	var counts UnreadCounts
	if err := s.client.CallInto(ctx, catalog.MustGet("session", "single_unread"), params, &counts); err != nil {
		return UnreadCounts{}, err
	}
	return counts, nil
}

// webParams 会话接口公共的固定参数
func webParams() bilibili.Params {
	return bilibili.Params{
		"build":    "0",
		"mobi_app": "web",
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
