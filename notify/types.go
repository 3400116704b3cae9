// Package notify 封装通知盒子相关接口: 收到的点赞、回复、@ 以及系统通知
package notify

import "time"

// Cursor 通知流分页游标. 零值表示首页, IsEnd 为真时没有更多数据
type Cursor struct {
	ID    int64 `json:"id"`
	Time  int64 `json:"time"`
	IsEnd bool  `json:"is_end"`
}

// zero 是否为首页游标
func (c Cursor) zero() bool {
	return c.ID == 0 && c.Time == 0
}

// User 通知里出现的用户
type User struct {
	Mid      int64  `json:"mid"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// ItemSummary 通知指向的目标摘要
type ItemSummary struct {
	// Type 目标类型, 如 reply / video / danmu
	Type string `json:"type"`
	// Business 业务名, 平台返回中文, 如 评论 / 视频
	Business string `json:"business"`
	// BusinessID 业务编号
	BusinessID int64 `json:"business_id"`
	// Title 目标标题或正文摘录
	Title string `json:"title"`
	// Desc 补充描述
	Desc string `json:"desc,omitempty"`
	// URI 跳转地址
	URI string `json:"uri"`
	// SourceContent 回复/@ 的原文
	SourceContent string `json:"source_content,omitempty"`
}

// LikeItem 一条点赞聚合
type LikeItem struct {
	ID int64 `json:"id"`
	// Users 点赞的用户, 同一目标的多个赞聚合在一条里
	Users []User `json:"users"`
	// Item 被赞的目标
	Item ItemSummary `json:"item"`
	// Counts 点赞人数
	Counts int `json:"counts"`
	// LikeTime 最近一次点赞时间戳(秒)
	LikeTime int64 `json:"like_time"`
}

// Time 最近一次点赞时间
func (i LikeItem) Time() time.Time {
	return time.Unix(i.LikeTime, 0)
}

// LikeFeed 点赞通知页
type LikeFeed struct {
	// Latest 上次查看之后新收到的
	Latest []LikeItem
	// Total 历史累计
	Total  []LikeItem
	Cursor Cursor
}

// ReplyItem 一条回复通知
type ReplyItem struct {
	ID   int64 `json:"id"`
	User User  `json:"user"`
	// Item 被回复的目标, SourceContent 为回复正文
	Item ItemSummary `json:"item"`
	// ReplyTime 回复时间戳(秒)
	ReplyTime int64 `json:"reply_time"`
}

// Time 回复时间
func (i ReplyItem) Time() time.Time {
	return time.Unix(i.ReplyTime, 0)
}

// ReplyFeed 回复通知页
type ReplyFeed struct {
	Items  []ReplyItem `json:"items"`
	Cursor Cursor      `json:"cursor"`
}

// AtItem 一条 @ 通知
type AtItem struct {
	ID   int64 `json:"id"`
	User User  `json:"user"`
	// Item 被 @ 的上下文, SourceContent 为原文
	Item ItemSummary `json:"item"`
	// AtTime @ 时间戳(秒)
	AtTime int64 `json:"at_time"`
}

// Time @ 时间
func (i AtItem) Time() time.Time {
	return time.Unix(i.AtTime, 0)
}

// AtFeed @ 通知页
type AtFeed struct {
	Items  []AtItem `json:"items"`
	Cursor Cursor   `json:"cursor"`
}

// UnreadFeed 通知盒子各栏目的未读数
type UnreadFeed struct {
	At     int `json:"at"`
	Chat   int `json:"chat"`
	Like   int `json:"like"`
	Reply  int `json:"reply"`
	SysMsg int `json:"sys_msg"`
	Up     int `json:"up"`
}

// Total 全部未读数之和. Chat 与私信未读重叠, 不计入
func (u UnreadFeed) Total() int {
	return u.At + u.Like + u.Reply + u.SysMsg + u.Up
}

// SysNotifyItem 一条系统通知
type SysNotifyItem struct {
	ID int64 `json:"id"`
	// Title 通知标题
	Title string `json:"title"`
	// Content 通知正文
	Content string `json:"content"`
	// CardType 卡片样式
	CardType int `json:"card_type"`
	// NotifyType 通知类型
	NotifyType int `json:"notify_type"`
	// Cursor 本条的游标值, 取末条作为下一页游标
	Cursor int64 `json:"cursor"`
	// TimeAt 平台下发的格式化时间
	TimeAt string `json:"time_at"`
}

// likeWire 点赞接口响应体
type likeWire struct {
	Latest struct {
		Items      []LikeItem `json:"items"`
		LastViewAt int64      `json:"last_view_at"`
	} `json:"latest"`
	Total struct {
		Items  []LikeItem `json:"items"`
		Cursor Cursor     `json:"cursor"`
	} `json:"total"`
}

// sysNotifyWire 系统通知响应体
type sysNotifyWire struct {
	List []SysNotifyItem `json:"system_notify_list"`
}
