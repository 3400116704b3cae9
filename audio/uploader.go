package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/catalog"
	"github.com/waiav123/bilibili-api/event"
	"github.com/waiav123/bilibili-api/pkg/errors"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

// Uploader 音频稿件上传器. 一次 Upload 按固定顺序走完:
// 凭证 → 分片 → 合并 → 封面(可选) → 提交 → 歌词(可选),
// 各阶段前后通过事件广播进度, 任一阶段出错即终止.
// 同一个 Uploader 同时只能跑一个 Upload
type Uploader struct {
	client *bilibili.Client
	meta   *SongMeta
	events *event.Emitter
	log    logger.Logger

	coverPath   string
	coverReader io.Reader
	coverName   string
	chunkRetry  int

	running atomic.Bool
	aborted atomic.Bool
}

// UploaderOption Uploader 可选配置
type UploaderOption func(*Uploader)

// WithCoverFile 指定封面图片文件
func WithCoverFile(path string) UploaderOption {
	return func(u *Uploader) {
		u.coverPath = path
	}
}

// WithCover 指定封面图片数据流与文件名
func WithCover(r io.Reader, filename string) UploaderOption {
	return func(u *Uploader) {
		u.coverReader = r
		u.coverName = filename
	}
}

// WithEvents 指定事件分发器, 不指定时内部自建
func WithEvents(events *event.Emitter) UploaderOption {
	return func(u *Uploader) {
		if events != nil {
			u.events = events
		}
	}
}

// WithChunkRetry 单个分片失败后的重发次数, 默认 0 即失败立即终止
func WithChunkRetry(n int) UploaderOption {
	return func(u *Uploader) {
		if n >= 0 {
			u.chunkRetry = n
		}
	}
}

// WithLogger 指定日志器
func WithLogger(log logger.Logger) UploaderOption {
	return func(u *Uploader) {
		if log != nil {
			u.log = log
		}
	}
}

// NewUploader 创建上传器
func NewUploader(client *bilibili.Client, meta *SongMeta, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		client: client,
		meta:   meta,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.events == nil {
		u.events = event.NewEmitter()
	}
	return u
}

// Events 返回上传器使用的事件分发器
func (u *Uploader) Events() *event.Emitter {
	return u.events
}

// Abort 请求中止当前 Upload. 分片循环与各阶段边界会观察到请求,
// 发出 ABORTED 事件并返回 UPLOAD_ABORTED 错误, 不再发送后续分片.
// 流程结束后再调用没有效果
func (u *Uploader) Abort() {
	u.aborted.Store(true)
}

// Upload 上传本地音频文件并提交稿件, 返回歌曲 ID
func (u *Uploader) Upload(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat audio file: %w", err)
	}
	return u.UploadReader(ctx, f, st.Size(), filepath.Base(path))
}

// UploadReader 上传一段音频数据并提交稿件, 返回歌曲 ID.
// 歌词阶段在提交之后, 它失败时稿件已经存在, 此时歌曲 ID 与错误一并返回
func (u *Uploader) UploadReader(ctx context.Context, r io.ReaderAt, size int64, filename string) (int64, error) {
	if !u.running.CompareAndSwap(false, true) {
		return 0, errors.ErrUploadBusy
	}
	defer u.running.Store(false)
	u.aborted.Store(false)

	if size <= 0 {
		return 0, errors.New(errors.ErrCodeValidationFailed, "Audio size must be positive", 0)
	}
	if err := u.meta.Validate(); err != nil {
		return 0, err
	}
	uid, ok := u.client.Credential().UserID()
	if !ok {
		return 0, errors.New(errors.ErrCodeCredentialMissing, "DedeUserID cookie is required to submit songs", 0)
	}

	// 阶段一: 申领凭证并初始化分片会话
	ticket, uploadID, err := u.preupload(ctx, filename, size)
	if err != nil {
		u.emit(EventPreuploadFailed, err)
		return 0, u.failPipeline(StagePreupload, err)
	}
	u.emit(EventPreupload, ticket)
	u.log.Info("upload ticket issued",
		logger.String("upos_uri", ticket.UposURI),
		logger.Int64("biz_id", ticket.BizID),
		logger.Int64("chunk_size", ticket.ChunkSize),
	)

	// 阶段二: 顺序发送分片
	total := int((size + ticket.ChunkSize - 1) / ticket.ChunkSize)
	parts := make([]part, 0, total)
	for i := 0; i < total; i++ {
		if err := u.checkAbort(); err != nil {
			return 0, err
		}

		start := int64(i) * ticket.ChunkSize
		end := start + ticket.ChunkSize
		if end > size {
			end = size
		}
		info := ChunkInfo{Index: i, Total: total, Start: start, End: end, Size: end - start}

		u.emit(EventPreChunk, info)
		if err := u.putChunkRetry(ctx, ticket, uploadID, info, size, r); err != nil {
			u.emit(EventChunkFailed, info)
			return 0, u.failPipeline(StageChunks, err)
		}
		u.emit(EventAfterChunk, info)
		parts = append(parts, part{PartNumber: i + 1, ETag: "etag"})
	}

	// 阶段三: 合并分片
	if err := u.checkAbort(); err != nil {
		return 0, err
	}
	u.emit(EventPreComplete, total)
	if err := u.completeUpload(ctx, ticket, uploadID, filename, parts); err != nil {
		u.emit(EventCompleteFailed, err)
		return 0, u.failPipeline(StageComplete, err)
	}
	u.emit(EventAfterComplete, nil)

	// 阶段四: 封面, 配置了才上传
	if u.coverPath != "" || u.coverReader != nil {
		if err := u.checkAbort(); err != nil {
			return 0, err
		}
		u.emit(EventPreCover, nil)
		coverURL, err := u.uploadCover(ctx)
		if err != nil {
			u.emit(EventCoverFailed, err)
			return 0, u.failPipeline(StageCover, err)
		}
		u.meta.CoverURL = coverURL
		u.emit(EventAfterCover, coverURL)
	}

	// 阶段五: 提交稿件
	if err := u.checkAbort(); err != nil {
		return 0, err
	}
	u.emit(EventPreSubmit, nil)
	songID, err := u.submit(ctx, uid, ticket.Key(), ticket.BizID)
	if err != nil {
		u.emit(EventSubmitFailed, err)
		return 0, u.failPipeline(StageSubmit, err)
	}
	u.emit(EventAfterSubmit, songID)

	// 阶段六: 歌词, 稿件已存在, 失败不回滚提交
	if u.meta.Lyric != "" {
		if err := u.checkAbort(); err != nil {
			return songID, err
		}
		u.emit(EventPreLyric, nil)
		if err := u.uploadLyric(ctx, songID); err != nil {
			u.emit(EventLyricFailed, err)
			return songID, u.failPipeline(StageLyric, err)
		}
		u.emit(EventAfterLyric, songID)
	}

	u.emit(EventCompleted, songID)
	u.log.Info("upload completed", logger.Int64("song_id", songID))
	return songID, nil
}

// preupload 申领上传凭证, 再向存储节点初始化分片会话拿 upload_id
func (u *Uploader) preupload(ctx context.Context, filename string, size int64) (*UploadTicket, string, error) {
	params := bilibili.Params{
		"name":    filename,
		"size":    strconv.FormatInt(size, 10),
		"r":       "upos",
		"profile": "uga/bup",
	}
	raw, err := u.client.CallRaw(ctx, catalog.MustGet("audio", "upload.preupload"), params)
	if err != nil {
		return nil, "", err
	}
	ticket, err := parseTicket(raw)
	if err != nil {
		return nil, "", err
	}

	uploadID, err := u.initSession(ctx, ticket)
	if err != nil {
		return nil, "", err
	}
	return ticket, uploadID, nil
}

// initSession 向存储节点发起 ?uploads 请求, 开启一次分片上传
func (u *Uploader) initSession(ctx context.Context, ticket *UploadTicket) (string, error) {
	req, err := http.NewRequest(http.MethodPost, ticket.BucketURL()+"?uploads&output=json", nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNetwork, "Building init request failed", 0)
	}
	req.Header.Set("X-Upos-Auth", ticket.Auth)

	resp, err := u.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := uposStatus(resp); err != nil {
		return "", err
	}

	var out struct {
		OK       int    `json:"OK"`
		UploadID string `json:"upload_id"`
		Key      string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDecode, "Decoding init response failed", 0)
	}
	if out.UploadID == "" {
		return "", errors.New(errors.ErrCodeUploadRejected, "Storage node issued no upload id", 0)
	}
	return out.UploadID, nil
}

// putChunkRetry 发送单个分片, 失败后按配置重发
func (u *Uploader) putChunkRetry(ctx context.Context, ticket *UploadTicket, uploadID string, info ChunkInfo, fileSize int64, r io.ReaderAt) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = u.putChunk(ctx, ticket, uploadID, info, fileSize, r)
		if err == nil {
			return nil
		}
		if attempt >= u.chunkRetry {
			break
		}
		u.log.Warn("chunk send failed, retrying",
			logger.Int("chunk", info.Index),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	return err
}

// putChunk 把文件的一段 PUT 到存储节点
func (u *Uploader) putChunk(ctx context.Context, ticket *UploadTicket, uploadID string, info ChunkInfo, fileSize int64, r io.ReaderAt) error {
	q := url.Values{}
	q.Set("partNumber", strconv.Itoa(info.Index+1))
	q.Set("uploadId", uploadID)
	q.Set("chunk", strconv.Itoa(info.Index))
	q.Set("chunks", strconv.Itoa(info.Total))
	q.Set("size", strconv.FormatInt(info.Size, 10))
	q.Set("start", strconv.FormatInt(info.Start, 10))
	q.Set("end", strconv.FormatInt(info.End, 10))
	q.Set("total", strconv.FormatInt(fileSize, 10))

	body := io.NewSectionReader(r, info.Start, info.Size)
	req, err := http.NewRequest(http.MethodPut, ticket.BucketURL()+"?"+q.Encode(), body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "Building chunk request failed", 0)
	}
	req.ContentLength = info.Size
	req.Header.Set("X-Upos-Auth", ticket.Auth)

	resp, err := u.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return uposStatus(resp)
}

// completeUpload 通知存储节点合并全部分片
func (u *Uploader) completeUpload(ctx context.Context, ticket *UploadTicket, uploadID, filename string, parts []part) error {
	q := url.Values{}
	q.Set("output", "json")
	q.Set("name", filename)
	q.Set("uploadId", uploadID)
	q.Set("biz_id", strconv.FormatInt(ticket.BizID, 10))

	payload, err := json.Marshal(struct {
		Parts []part `json:"parts"`
	}{parts})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDecode, "Encoding parts failed", 0)
	}

	req, err := http.NewRequest(http.MethodPost, ticket.BucketURL()+"?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeNetwork, "Building complete request failed", 0)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upos-Auth", ticket.Auth)

	resp, err := u.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := uposStatus(resp); err != nil {
		return err
	}

	var out struct {
		OK int `json:"OK"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, errors.ErrCodeDecode, "Decoding complete response failed", 0)
	}
	if out.OK != 1 {
		return errors.New(errors.ErrCodeUploadRejected,
			fmt.Sprintf("Storage node refused to merge chunks (OK=%d)", out.OK), 0)
	}
	return nil
}

// uploadCover 上传封面, 返回图片 URL
func (u *Uploader) uploadCover(ctx context.Context) (string, error) {
	reader := u.coverReader
	name := u.coverName
	if u.coverPath != "" {
		f, err := os.Open(u.coverPath)
		if err != nil {
			return "", fmt.Errorf("failed to open cover file: %w", err)
		}
		defer f.Close()
		reader = f
		name = filepath.Base(u.coverPath)
	}

	fields := bilibili.Params{
		"bucket": "am",
		"dir":    "cover",
	}
	data, err := u.client.CallMultipart(ctx, catalog.MustGet("audio", "upload.image"), fields, "file", name, reader)
	if err != nil {
		return "", err
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDecode, "Decoding cover response failed", 0)
	}
	if out.URL == "" {
		return "", errors.New(errors.ErrCodeDecode, "Cover response carried no url", 0)
	}
	return out.URL, nil
}

// submit 提交稿件, 返回歌曲 ID
func (u *Uploader) submit(ctx context.Context, mid int64, songFileKey string, bizID int64) (int64, error) {
	form, err := u.meta.form(mid, songFileKey, bizID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeValidationFailed, "Encoding submit form failed", 0)
	}

	var songID int64
	if err := u.client.CallInto(ctx, catalog.MustGet("audio", "upload.submit"), form, &songID); err != nil {
		return 0, err
	}
	if songID <= 0 {
		return 0, errors.New(errors.ErrCodeDecode, "Submit response carried no song id", 0)
	}
	return songID, nil
}

// uploadLyric 为已提交的稿件附加歌词
func (u *Uploader) uploadLyric(ctx context.Context, songID int64) error {
	params := bilibili.Params{
		"song_id": strconv.FormatInt(songID, 10),
		"lrc":     u.meta.Lyric,
	}
	_, err := u.client.Call(ctx, catalog.MustGet("audio", "upload.lyric"), params)
	return err
}

// part 合并请求中的单个分片标记
type part struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// checkAbort 观察中止请求, 命中时发出 ABORTED 并返回哨兵错误
func (u *Uploader) checkAbort() error {
	if !u.aborted.Load() {
		return nil
	}
	u.emit(EventAborted, nil)
	u.log.Info("upload aborted")
	return errors.ErrUploadAborted
}

// failPipeline 广播 FAILED 并包上失败阶段
func (u *Uploader) failPipeline(stage string, err error) error {
	serr := StageError{Stage: stage, Err: err}
	u.emit(EventFailed, serr)
	u.log.Warn("upload failed",
		logger.String("stage", stage),
		logger.Error(err),
	)
	return serr
}

func (u *Uploader) emit(name string, data interface{}) {
	u.events.Emit(name, data)
}

// uposStatus 存储节点只以 HTTP 状态表达成败
func uposStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	return errors.New(errors.ErrCodeHTTPStatus,
		fmt.Sprintf("Storage node returned HTTP %d", resp.StatusCode), resp.StatusCode)
}
