package bilibili

import (
	"net/http"
	"strconv"

	"github.com/waiav123/bilibili-api/pkg/errors"
)

// Credential 登录凭据, 即平台 Web 端的身份 Cookie 集合
type Credential struct {
	// Sessdata 登录会话 Cookie (SESSDATA)
	Sessdata string
	// BiliJct csrf 口令 Cookie (bili_jct)
	BiliJct string
	// Buvid3 设备标识 Cookie
	Buvid3 string
	// DedeUserID 用户 UID Cookie, 平台下发时即为字符串
	DedeUserID string
	// ACTimeValue 刷新口令 Cookie (ac_time_value), 仅透传
	ACTimeValue string
}

// CredentialOption 凭据可选字段
type CredentialOption func(*Credential)

// WithBuvid3 设置设备标识
func WithBuvid3(buvid3 string) CredentialOption {
	return func(c *Credential) { c.Buvid3 = buvid3 }
}

// WithDedeUserID 设置用户 UID
func WithDedeUserID(dedeUserID string) CredentialOption {
	return func(c *Credential) { c.DedeUserID = dedeUserID }
}

// WithACTimeValue 设置刷新口令
func WithACTimeValue(acTimeValue string) CredentialOption {
	return func(c *Credential) { c.ACTimeValue = acTimeValue }
}

// NewCredential 创建凭据. sessdata 与 biliJct 之外的 Cookie 按需通过选项补充
func NewCredential(sessdata, biliJct string, opts ...CredentialOption) *Credential {
	c := &Credential{
		Sessdata: sessdata,
		BiliJct:  biliJct,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cookies 返回非空字段对应的 Cookie. nil 凭据视为未登录, 返回 nil
func (c *Credential) Cookies() []*http.Cookie {
	if c == nil {
		return nil
	}

	var cookies []*http.Cookie
	add := func(name, value string) {
		if value != "" {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value})
		}
	}
	add("SESSDATA", c.Sessdata)
	add("bili_jct", c.BiliJct)
	add("buvid3", c.Buvid3)
	add("DedeUserID", c.DedeUserID)
	add("ac_time_value", c.ACTimeValue)
	return cookies
}

// RequireSessdata 校验登录态
func (c *Credential) RequireSessdata() error {
	if c == nil || c.Sessdata == "" {
		return errors.New(errors.ErrCodeCredentialMissing, "SESSDATA cookie is not set", 0)
	}
	return nil
}

// RequireBiliJct 校验 csrf 口令
func (c *Credential) RequireBiliJct() error {
	if c == nil || c.BiliJct == "" {
		return errors.New(errors.ErrCodeCredentialMissing, "bili_jct cookie is not set", 0)
	}
	return nil
}

// RequireBuvid3 校验设备标识
func (c *Credential) RequireBuvid3() error {
	if c == nil || c.Buvid3 == "" {
		return errors.New(errors.ErrCodeCredentialMissing, "buvid3 cookie is not set", 0)
	}
	return nil
}

// UserID 解析 DedeUserID. 未设置或非数字时 ok 为 false
func (c *Credential) UserID() (int64, bool) {
	if c == nil || c.DedeUserID == "" {
		return 0, false
	}
	uid, err := strconv.ParseInt(c.DedeUserID, 10, 64)
	if err != nil {
		return 0, false
	}
	return uid, true
}
