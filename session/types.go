// Package session 封装私信会话相关接口: 会话列表、消息记录、发送与撤回、
// 已读回执与未读数, 以及基于轮询的新消息事件 Watcher
package session

import (
	"encoding/json"
	"strconv"
	"time"
)

// ===== 会话 =====

// SessionType 会话类型
type SessionType int

const (
	// SessionTypeUser 私聊会话
	SessionTypeUser SessionType = 1
	// SessionTypeGroup 应援团会话
	SessionTypeGroup SessionType = 2
	// SessionTypeAll 全部会话, 仅用于列表查询
	SessionTypeAll SessionType = 4
)

// Info 会话概要
type Info struct {
	// TalkerID 对方 UID 或应援团 ID
	TalkerID int64 `json:"talker_id"`
	// SessionType 会话类型
	SessionType SessionType `json:"session_type"`
	// TopTS 置顶时间戳, 0 表示未置顶
	TopTS int64 `json:"top_ts"`
	// IsFollow 是否已关注对方
	IsFollow int `json:"is_follow"`
	// IsDnd 是否免打扰
	IsDnd int `json:"is_dnd"`
	// AckSeqno 已读确认到的序列号
	AckSeqno int64 `json:"ack_seqno"`
	// MaxSeqno 会话内最大序列号
	MaxSeqno int64 `json:"max_seqno"`
	// SessionTS 会话最后更新时间戳(微秒)
	SessionTS int64 `json:"session_ts"`
	// UnreadCount 未读条数
	UnreadCount int `json:"unread_count"`
	// LastMsg 最后一条消息原文
	LastMsg json.RawMessage `json:"last_msg"`
}

// Time 会话最后更新时间
func (i Info) Time() time.Time {
	return time.UnixMicro(i.SessionTS)
}

// List 会话列表页
type List struct {
	Sessions []Info `json:"session_list"`
	HasMore  int    `json:"has_more"`
}

// More 是否还有下一页
func (l List) More() bool {
	return l.HasMore != 0
}

// ListOptions 会话列表查询参数
type ListOptions struct {
	// Type 会话类型, 零值按全部处理
	Type SessionType
	// EndTS 分页游标, 取上一页最后一条会话的 SessionTS; 0 为首页
	EndTS int64
	// Size 单页条数, 零值用平台默认 20
	Size int
	// FoldGroup 折叠应援团会话
	FoldGroup bool
	// FoldUnfollow 折叠未关注人会话
	FoldUnfollow bool
}

// ===== 消息 =====

// MsgType 消息类型
type MsgType int

const (
	// MsgTypeText 文本消息
	MsgTypeText MsgType = 1
	// MsgTypeImage 图片消息
	MsgTypeImage MsgType = 2
	// MsgTypeRecall 撤回通知, 内容为被撤回消息的 msg_key
	MsgTypeRecall MsgType = 5
	// MsgTypeShareVideo 视频分享
	MsgTypeShareVideo MsgType = 7
	// MsgTypeNotice 系统提示
	MsgTypeNotice MsgType = 10
	// MsgTypeWelcome 进入会话的欢迎语
	MsgTypeWelcome MsgType = 306
)

// EventName 消息类型对应的事件名, 未知类型归入 UNKNOWN
func (t MsgType) EventName() string {
	switch t {
	case MsgTypeText:
		return "TEXT"
	case MsgTypeImage:
		return "PICTURE"
	case MsgTypeRecall:
		return "WITHDRAW"
	case MsgTypeShareVideo:
		return "SHARE_VIDEO"
	case MsgTypeNotice:
		return "NOTICE"
	case MsgTypeWelcome:
		return "WELCOME"
	default:
		return "UNKNOWN"
	}
}

// Message 单条消息
type Message struct {
	// SenderUID 发送者 UID
	SenderUID int64 `json:"sender_uid"`
	// ReceiverType 接收方类型, 同 SessionType
	ReceiverType int `json:"receiver_type"`
	// ReceiverID 接收方 UID 或应援团 ID
	ReceiverID int64 `json:"receiver_id"`
	// MsgType 消息类型
	MsgType MsgType `json:"msg_type"`
	// Content 消息体 JSON 原文
	Content string `json:"content"`
	// MsgSeqno 会话内序列号
	MsgSeqno int64 `json:"msg_seqno"`
	// Timestamp 发送时间戳(秒)
	Timestamp int64 `json:"timestamp"`
	// MsgKey 消息全局标识
	MsgKey int64 `json:"msg_key"`
	// MsgStatus 消息状态, 非 0 表示已撤回等异常态
	MsgStatus int `json:"msg_status"`
}

// Time 发送时间
func (m Message) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

// Text 解出文本消息正文. 仅对 MsgTypeText 有意义
func (m Message) Text() (string, bool) {
	if m.MsgType != MsgTypeText {
		return "", false
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(m.Content), &body); err != nil {
		return "", false
	}
	return body.Content, true
}

// ImageURL 解出图片消息的图片地址. 仅对 MsgTypeImage 有意义
func (m Message) ImageURL() (string, bool) {
	if m.MsgType != MsgTypeImage {
		return "", false
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(m.Content), &body); err != nil || body.URL == "" {
		return "", false
	}
	return body.URL, true
}

// RecalledKey 解出撤回通知指向的消息 msg_key. 仅对 MsgTypeRecall 有意义
func (m Message) RecalledKey() (int64, bool) {
	if m.MsgType != MsgTypeRecall {
		return 0, false
	}
	key, err := strconv.ParseInt(m.Content, 10, 64)
	if err != nil {
		return 0, false
	}
	return key, true
}

// ===== 回执与未读 =====

// SendReceipt 发送接口的回执
type SendReceipt struct {
	// MsgKey 新消息的全局标识, 撤回时需要用到
	MsgKey int64 `json:"msg_key"`
	// MsgContent 平台回写的消息体, 可能为空
	MsgContent string `json:"msg_content"`
}

// UnreadCounts 私信未读数
type UnreadCounts struct {
	// FollowUnread 已关注人的未读数
	FollowUnread int `json:"follow_unread"`
	// UnfollowUnread 未关注人的未读数
	UnfollowUnread int `json:"unfollow_unread"`
	// DustbinUnread 被折叠会话的未读数
	DustbinUnread int `json:"dustbin_unread"`
	// CustomUnread 自定义分组未读数
	CustomUnread int `json:"custom_unread"`
	// BizMsgFollowUnread 已关注商业号未读数
	BizMsgFollowUnread int `json:"biz_msg_follow_unread"`
	// BizMsgUnfollowUnread 未关注商业号未读数
	BizMsgUnfollowUnread int `json:"biz_msg_unfollow_unread"`
}

// Total 全部未读数之和
func (u UnreadCounts) Total() int {
	return u.FollowUnread + u.UnfollowUnread + u.DustbinUnread +
		u.CustomUnread + u.BizMsgFollowUnread + u.BizMsgUnfollowUnread
}

// fetchResult fetch_session_msgs 的响应体
type fetchResult struct {
	Messages []Message `json:"messages"`
	HasMore  int       `json:"has_more"`
	MinSeqno int64     `json:"min_seqno"`
	MaxSeqno int64     `json:"max_seqno"`
}
