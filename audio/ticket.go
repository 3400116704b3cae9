package audio

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/waiav123/bilibili-api/pkg/errors"
)

// UploadTicket 上传凭证, 预上传接口签发, 指明存储节点、对象地址、
// 鉴权串与分片大小. 该接口不走统一 envelope, 原文即凭证
type UploadTicket struct {
	// OK 为 1 表示签发成功
	OK int `json:"OK"`
	// Auth 分片请求的 X-Upos-Auth 头
	Auth string `json:"auth"`
	// BizID 业务编号, 提交稿件时回传
	BizID int64 `json:"biz_id"`
	// ChunkSize 单个分片的字节数
	ChunkSize int64 `json:"chunk_size"`
	// Endpoint 存储节点, 形如 //upos-cs-xxx.example.com
	Endpoint string `json:"endpoint"`
	// UposURI 对象地址, 形如 upos://uga/n123456.flac
	UposURI string `json:"upos_uri"`
	// PutQuery 上传请求附带的查询串
	PutQuery string `json:"put_query"`
	// Timeout 凭证有效期(秒)
	Timeout int `json:"timeout"`
}

// parseTicket 解析预上传响应并校验凭证可用
func parseTicket(raw []byte) (*UploadTicket, error) {
	var t UploadTicket
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecode, "Decoding upload ticket failed", 0)
	}
	if t.OK != 1 {
		return nil, errors.New(errors.ErrCodeUploadRejected,
			fmt.Sprintf("Upload ticket rejected (OK=%d)", t.OK), 0)
	}
	if t.Endpoint == "" || t.UposURI == "" {
		return nil, errors.New(errors.ErrCodeUploadRejected, "Upload ticket missing endpoint or upos uri", 0)
	}
	if t.ChunkSize <= 0 {
		return nil, errors.New(errors.ErrCodeUploadRejected, "Upload ticket carries no chunk size", 0)
	}
	return &t, nil
}

// BucketURL 拼出对象的 https 地址, 分片与合并请求都发到这里
func (t *UploadTicket) BucketURL() string {
	host := strings.TrimPrefix(t.Endpoint, "https:")
	host = strings.TrimPrefix(host, "http:")
	host = strings.TrimPrefix(host, "//")
	return "https://" + host + "/" + t.objectPath()
}

// Key 对象名去掉扩展名, 提交稿件用的 song_file_name
func (t *UploadTicket) Key() string {
	base := path.Base(t.objectPath())
	return strings.TrimSuffix(base, path.Ext(base))
}

// objectPath upos_uri 去掉协议前缀后的 bucket/object 路径
func (t *UploadTicket) objectPath() string {
	return strings.TrimPrefix(t.UposURI, "upos://")
}
