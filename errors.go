package bilibili

import (
	"errors"
	"fmt"
)

// APIError 平台返回的业务错误, 即响应 envelope 中 code != 0 的情况
type APIError struct {
	// Code 平台业务错误码, 如 -101 账号未登录, -111 csrf 校验失败, -352 风控
	Code int64
	// Message 平台返回的错误描述
	Message string
	// Endpoint 出错的接口地址
	Endpoint string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error code=%d (%s)", e.Code, e.Endpoint)
	}
	return fmt.Sprintf("api error code=%d: %s (%s)", e.Code, e.Message, e.Endpoint)
}

// IsAPIError 提取错误链中的 APIError
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAPICode 判断错误链中是否存在指定业务错误码
func IsAPICode(err error, code int64) bool {
	apiErr, ok := IsAPIError(err)
	return ok && apiErr.Code == code
}

// 常见业务错误码
const (
	// CodeNotLogin 账号未登录
	CodeNotLogin int64 = -101
	// CodeCSRFFailed csrf 校验失败
	CodeCSRFFailed int64 = -111
	// CodeAccessDenied 访问权限不足
	CodeAccessDenied int64 = -403
	// CodeNotFound 啥都木有
	CodeNotFound int64 = -404
	// CodeRiskControl 请求被风控拦截
	CodeRiskControl int64 = -352
	// CodeRateLimited 请求过于频繁
	CodeRateLimited int64 = -412
)
