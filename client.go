package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/waiav123/bilibili-api/catalog"
	"github.com/waiav123/bilibili-api/pkg/errors"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultReferer   = "https://www.bilibili.com"
)

// Params 请求参数, 值一律为已格式化的字符串
type Params map[string]string

// Client 平台私有 Web API 的 HTTP 客户端. 只负责按描述符组装请求、
// 解包响应 envelope, 不做重试与退避
type Client struct {
	httpClient *http.Client
	cred       *Credential
	userAgent  string
	referer    string
	limiter    *rate.Limiter
	wbi        *wbiSigner
	logger     logger.Logger
}

// Option 客户端配置项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCredential 设置登录凭据
func WithCredential(cred *Credential) Option {
	return func(c *Client) { c.cred = cred }
}

// WithTimeout 调整请求超时, 不替换底层 Transport
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent 替换 User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithReferer 替换 Referer
func WithReferer(referer string) Option {
	return func(c *Client) {
		if referer != "" {
			c.referer = referer
		}
	}
}

// WithRateLimit 启用客户端侧限速, 每次请求前阻塞等待令牌
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger 设置日志器, 默认丢弃全部日志
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// New 创建客户端
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: defaultUserAgent,
		referer:   defaultReferer,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wbi = newWbiSigner(func(ctx context.Context) (string, string, error) {
		nav, err := c.Nav(ctx)
		if err != nil {
			return "", "", err
		}
		if nav.WbiImg.ImgURL == "" || nav.WbiImg.SubURL == "" {
			return "", "", fmt.Errorf("nav response missing wbi key urls")
		}
		return nav.WbiImg.ImgURL, nav.WbiImg.SubURL, nil
	})
	return c
}

// Credential 返回客户端持有的凭据, 可能为 nil
func (c *Client) Credential() *Credential {
	return c.cred
}

// envelope 平台统一响应壳. 老接口用 msg, 新接口用 message
type envelope struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// Call 按描述符执行一次请求并返回 envelope 中的 data 原文.
// 凭据校验、限速、csrf 注入、wbi 签名均在此完成.
// 平台业务错误 (code != 0) 返回 *APIError, 此时 data 若存在仍一并返回
func (c *Client) Call(ctx context.Context, ep catalog.Endpoint, p Params) (json.RawMessage, error) {
	if err := c.checkCredential(ep); err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	values := make(url.Values, len(p)+2)
	for k, v := range p {
		values.Set(k, v)
	}
	if ep.CSRF {
		// web_im 系接口校验 csrf_token, 其余接口校验 csrf, 两者同源
		values.Set("csrf", c.cred.BiliJct)
		values.Set("csrf_token", c.cred.BiliJct)
	}
	if ep.WBI {
		if err := c.wbi.Sign(ctx, values); err != nil {
			return nil, err
		}
	}

	req, err := c.newRequest(ctx, ep, values)
	if err != nil {
		return nil, err
	}
	return c.execute(req, ep.URL)
}

// CallRaw 同 Call, 但响应不按 envelope 解包, 原文返回.
// 上传凭证等少数老接口不走统一壳
func (c *Client) CallRaw(ctx context.Context, ep catalog.Endpoint, p Params) ([]byte, error) {
	if err := c.checkCredential(ep); err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	values := make(url.Values, len(p)+2)
	for k, v := range p {
		values.Set(k, v)
	}
	if ep.CSRF {
		values.Set("csrf", c.cred.BiliJct)
		values.Set("csrf_token", c.cred.BiliJct)
	}
	if ep.WBI {
		if err := c.wbi.Sign(ctx, values); err != nil {
			return nil, err
		}
	}

	req, err := c.newRequest(ctx, ep, values)
	if err != nil {
		return nil, err
	}
	return c.executeRaw(req, ep.URL)
}

// CallInto 执行请求并将 data 解码到 out
func (c *Client) CallInto(ctx context.Context, ep catalog.Endpoint, p Params, out interface{}) error {
	data, err := c.Call(ctx, ep, p)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeDecode, "Decoding response data failed", 0)
	}
	return nil
}

// CallMultipart 以 multipart 表单执行请求, 用于封面等二进制上传
func (c *Client) CallMultipart(ctx context.Context, ep catalog.Endpoint, fields Params, fileField, filename string, file io.Reader) (json.RawMessage, error) {
	if err := c.checkCredential(ep); err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	all := make(Params, len(fields)+2)
	for k, v := range fields {
		all[k] = v
	}
	if ep.CSRF {
		all["csrf"] = c.cred.BiliJct
		all["csrf_token"] = c.cred.BiliJct
	}

	req, err := c.newMultipartRequest(ctx, ep, all, fileField, filename, file)
	if err != nil {
		return nil, err
	}
	return c.execute(req, ep.URL)
}

// Do 直接执行一个已构造的请求, 仅附加限速与 UA, 不携带凭据 Cookie.
// 分片上传等发往存储节点、不走 envelope 的流量使用该入口
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	c.applyBareHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Request failed", 0)
	}
	return resp, nil
}

// checkCredential 按描述符要求校验凭据
func (c *Client) checkCredential(ep catalog.Endpoint) error {
	if ep.Verify {
		if err := c.cred.RequireSessdata(); err != nil {
			return err
		}
	}
	if ep.CSRF {
		if err := c.cred.RequireBiliJct(); err != nil {
			return err
		}
	}
	return nil
}

// wait 限速等待, 未配置限速时直通
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "Rate limiter wait canceled", 0)
	}
	return nil
}

// executeRaw 发出请求, 返回响应原文
func (c *Client) executeRaw(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Request failed", 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Reading response failed", 0)
	}

	c.logger.Debug("api request",
		logger.String("method", req.Method),
		logger.String("endpoint", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.ErrCodeHTTPStatus,
			fmt.Sprintf("Unexpected HTTP status %d", resp.StatusCode), resp.StatusCode)
	}
	return body, nil
}

// execute 发出请求并解包 envelope
func (c *Client) execute(req *http.Request, endpoint string) (json.RawMessage, error) {
	body, err := c.executeRaw(req, endpoint)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecode, "Decoding response envelope failed", 0)
	}

	if env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = env.Msg
		}
		return env.Data, &APIError{Code: env.Code, Message: msg, Endpoint: endpoint}
	}
	return env.Data, nil
}

// NavInfo 导航栏用户信息中本 SDK 关心的字段
type NavInfo struct {
	IsLogin bool   `json:"isLogin"`
	Mid     int64  `json:"mid"`
	Uname   string `json:"uname"`
	WbiImg  struct {
		ImgURL string `json:"img_url"`
		SubURL string `json:"sub_url"`
	} `json:"wbi_img"`
}

// Nav 获取导航栏用户信息. 未登录时平台返回 -101, 但 wbi 密钥仍随 data
// 下发, 因此该业务错误不视为失败
func (c *Client) Nav(ctx context.Context) (NavInfo, error) {
	var info NavInfo

	data, err := c.Call(ctx, catalog.MustGet("common", "info.nav"), nil)
	if err != nil && !IsAPICode(err, CodeNotLogin) {
		return info, err
	}
	if len(data) == 0 {
		if err != nil {
			return info, err
		}
		return info, errors.New(errors.ErrCodeDecode, "Nav response carried no data", 0)
	}
	if uerr := json.Unmarshal(data, &info); uerr != nil {
		return info, errors.Wrap(uerr, errors.ErrCodeDecode, "Decoding nav data failed", 0)
	}
	return info, nil
}

// Buvid 向指纹接口申请 buvid3 / buvid4 设备标识
func (c *Client) Buvid(ctx context.Context) (b3, b4 string, err error) {
	var out struct {
		B3 string `json:"b_3"`
		B4 string `json:"b_4"`
	}
	if err := c.CallInto(ctx, catalog.MustGet("common", "info.spi"), nil, &out); err != nil {
		return "", "", err
	}
	return out.B3, out.B4, nil
}
