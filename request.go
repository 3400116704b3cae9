package bilibili

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/waiav123/bilibili-api/catalog"
	"github.com/waiav123/bilibili-api/pkg/errors"
)

// newRequest 组装常规请求: GET 参数入 query, 其余方法参数编码为表单体
func (c *Client) newRequest(ctx context.Context, ep catalog.Endpoint, values url.Values) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)

	if ep.Method == http.MethodGet {
		target := ep.URL
		if len(values) > 0 {
			target += "?" + values.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, ep.Method, ep.URL, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Creating request failed", 0)
	}

	c.applyHeaders(req)
	return req, nil
}

// newMultipartRequest 组装 multipart 表单请求
func (c *Client) newMultipartRequest(ctx context.Context, ep catalog.Endpoint, fields Params, fileField, filename string, file io.Reader) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Building multipart form failed", 0)
		}
	}
	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Building multipart form failed", 0)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Reading multipart payload failed", 0)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Building multipart form failed", 0)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL, &buf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "Creating request failed", 0)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.applyHeaders(req)
	return req, nil
}

// applyHeaders 附加 UA / Referer 与凭据 Cookie. 已有同名头不覆盖
func (c *Client) applyHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", c.referer)
	}
	for _, cookie := range c.cred.Cookies() {
		req.AddCookie(cookie)
	}
}

// applyBareHeaders 只附加 UA, 不带凭据 Cookie. 分片上传走第三方存储节点,
// 不能把登录 Cookie 发出平台域
func (c *Client) applyBareHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
