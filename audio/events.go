package audio

import "fmt"

// 上传生命周期事件名. 阶段事件围绕各自阶段成对出现,
// COMPLETED / FAILED / ABORTED 三者互斥, 标记整个流程的结局
const (
	// EventPreupload 凭证签发成功, 数据为 *UploadTicket
	EventPreupload = "PREUPLOAD"
	// EventPreuploadFailed 凭证阶段失败, 数据为 error
	EventPreuploadFailed = "PREUPLOAD_FAILED"

	// EventPreChunk 单个分片发送前, 数据为 ChunkInfo
	EventPreChunk = "PRE_CHUNK"
	// EventAfterChunk 单个分片发送成功, 数据为 ChunkInfo
	EventAfterChunk = "AFTER_CHUNK"
	// EventChunkFailed 单个分片发送失败, 数据为 ChunkInfo
	EventChunkFailed = "CHUNK_FAILED"

	// EventPreComplete 分片合并请求前, 数据为分片总数
	EventPreComplete = "PRE_COMPLETE"
	// EventAfterComplete 分片合并成功
	EventAfterComplete = "AFTER_COMPLETE"
	// EventCompleteFailed 分片合并失败, 数据为 error
	EventCompleteFailed = "COMPLETE_FAILED"

	// EventPreCover 封面上传前
	EventPreCover = "PRE_COVER"
	// EventAfterCover 封面上传成功, 数据为封面 URL
	EventAfterCover = "AFTER_COVER"
	// EventCoverFailed 封面上传失败, 数据为 error
	EventCoverFailed = "COVER_FAILED"

	// EventPreSubmit 稿件提交前
	EventPreSubmit = "PRE_SUBMIT"
	// EventAfterSubmit 稿件提交成功, 数据为歌曲 ID
	EventAfterSubmit = "AFTER_SUBMIT"
	// EventSubmitFailed 稿件提交失败, 数据为 error
	EventSubmitFailed = "SUBMIT_FAILED"

	// EventPreLyric 歌词上传前
	EventPreLyric = "PRE_LYRIC"
	// EventAfterLyric 歌词上传成功
	EventAfterLyric = "AFTER_LYRIC"
	// EventLyricFailed 歌词上传失败, 数据为 error
	EventLyricFailed = "LYRIC_FAILED"

	// EventCompleted 整个流程成功, 数据为歌曲 ID
	EventCompleted = "COMPLETED"
	// EventFailed 流程失败, 数据为 StageError
	EventFailed = "FAILED"
	// EventAborted 调用方中止
	EventAborted = "ABORTED"
)

// 阶段名, StageError.Stage 的取值
const (
	StagePreupload = "preupload"
	StageChunks    = "chunks"
	StageComplete  = "complete"
	StageCover     = "cover"
	StageSubmit    = "submit"
	StageLyric     = "lyric"
)

// ChunkInfo 分片事件数据
type ChunkInfo struct {
	// Index 分片号, 0 起始
	Index int
	// Total 分片总数
	Total int
	// Start 分片在文件内的起始偏移
	Start int64
	// End 结束偏移(不含)
	End int64
	// Size 分片字节数
	Size int64
}

// StageError 标记失败的阶段. Upload 返回它, FAILED 事件也携带它
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return fmt.Sprintf("upload stage %s failed: %v", e.Stage, e.Err)
}

// Unwrap 保留底层错误链, errors.Is / errors.As 可继续匹配
func (e StageError) Unwrap() error {
	return e.Err
}
