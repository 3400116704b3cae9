package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/event"
	"github.com/waiav123/bilibili-api/pkg/errors"
)

const (
	preuploadPath = "/preupload"
	uposPath      = "/uga/nTEST123.flac"
	imagePath     = "/audio/music-service/web/image/upload"
	submitPath    = "/audio/music-service/web/song/submit"
	lyricPath     = "/audio/music-service/web/song/lrc"
)

// ticketJSON 预上传响应原文, 不带 envelope
const ticketJSON = `{
	"OK": 1,
	"auth": "upos-auth-token",
	"biz_id": 4242,
	"chunk_size": 4,
	"endpoint": "//upos-test.bilivideo.com",
	"upos_uri": "upos://uga/nTEST123.flac",
	"put_query": "os=upos&profile=uga%2Fbup",
	"timeout": 86400
}`

// rewriteTransport 把所有出站请求改写到测试服务器, 保留原始路径
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// newTestClient 创建指向测试服务器的客户端
func newTestClient(t *testing.T, handler http.Handler) *bilibili.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return bilibili.New(
		bilibili.WithCredential(bilibili.NewCredential("test-sessdata", "test-csrf",
			bilibili.WithDedeUserID("10086"))),
		bilibili.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
	)
}

func ok(t *testing.T, w http.ResponseWriter, data string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(`{"code":0,"message":"0","ttl":1,"data":` + data + `}`))
	assert.NoError(t, err)
}

// servePreupload 挂上预上传与分片会话初始化两个接口
func servePreupload(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	mux.HandleFunc(preuploadPath, func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(ticketJSON))
		assert.NoError(t, err)
	})
}

func testMeta() *SongMeta {
	return &SongMeta{
		Title:    "测试歌曲",
		Intro:    "单元测试用稿件",
		Tags:     []string{"测试", "翻唱"},
		SongType: SongVocal,
		Singers:  []AuthorInfo{{Name: "某歌手", MID: 233}},
	}
}

func TestUploader_FullPipeline(t *testing.T) {
	payload := []byte("abcdefghij")

	var (
		chunkOrder   []string
		chunkBodies  []string
		completeSeen bool
	)

	mux := http.NewServeMux()
	mux.HandleFunc(preuploadPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "song.flac", q.Get("name"))
		assert.Equal(t, "10", q.Get("size"))
		assert.Equal(t, "upos", q.Get("r"))
		assert.Equal(t, "uga/bup", q.Get("profile"))

		cookie, err := r.Cookie("SESSDATA")
		require.NoError(t, err)
		assert.Equal(t, "test-sessdata", cookie.Value)

		_, err = w.Write([]byte(ticketJSON))
		assert.NoError(t, err)
	})
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "upos-auth-token", r.Header.Get("X-Upos-Auth"))
		assert.Empty(t, r.Header.Get("Cookie"))

		q := r.URL.Query()
		switch {
		case r.Method == http.MethodPost && q.Has("uploads"):
			assert.Equal(t, "json", q.Get("output"))
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UPLOAD42","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)

		case r.Method == http.MethodPut:
			assert.Equal(t, "UPLOAD42", q.Get("uploadId"))
			assert.Equal(t, "3", q.Get("chunks"))
			assert.Equal(t, "10", q.Get("total"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(len(body)), q.Get("size"))
			chunkOrder = append(chunkOrder, fmt.Sprintf("%s/%s:%s-%s",
				q.Get("partNumber"), q.Get("chunk"), q.Get("start"), q.Get("end")))
			chunkBodies = append(chunkBodies, string(body))

		case r.Method == http.MethodPost:
			assert.Equal(t, "json", q.Get("output"))
			assert.Equal(t, "song.flac", q.Get("name"))
			assert.Equal(t, "UPLOAD42", q.Get("uploadId"))
			assert.Equal(t, "4242", q.Get("biz_id"))

			var body struct {
				Parts []part `json:"parts"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Parts, 3)
			assert.Equal(t, 1, body.Parts[0].PartNumber)
			assert.Equal(t, "etag", body.Parts[0].ETag)
			assert.Equal(t, 3, body.Parts[2].PartNumber)

			completeSeen = true
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
	})
	mux.HandleFunc(imagePath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "am", r.FormValue("bucket"))
		assert.Equal(t, "cover", r.FormValue("dir"))
		assert.Equal(t, "test-csrf", r.FormValue("csrf"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cover.png", header.Filename)

		img, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "PNGDATA", string(img))

		ok(t, w, `{"url":"https://i0.hdslb.com/bfs/am/cover1.jpg"}`)
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f := r.PostForm
		assert.Equal(t, "测试歌曲", f.Get("title"))
		assert.Equal(t, "nTEST123", f.Get("song_file_name"))
		assert.Equal(t, "4242", f.Get("biz_id"))
		assert.Equal(t, "10086", f.Get("mid"))
		assert.Equal(t, "https://i0.hdslb.com/bfs/am/cover1.jpg", f.Get("cover_url"))
		assert.Equal(t, "test-csrf", f.Get("csrf"))
		assert.Equal(t, strconv.Itoa(int(SongVocal)), f.Get("song_type"))
		assert.JSONEq(t, `["测试","翻唱"]`, f.Get("song_tags"))
		assert.JSONEq(t, `[{"type":1,"members":[{"name":"某歌手","mid":233}]}]`, f.Get("member_with_type"))

		ok(t, w, `12345`)
	})
	mux.HandleFunc(lyricPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "12345", r.PostForm.Get("song_id"))
		assert.Contains(t, r.PostForm.Get("lrc"), "[00:01.00]")
		assert.Equal(t, "test-csrf", r.PostForm.Get("csrf"))

		ok(t, w, `"https://i0.hdslb.com/bfs/lrc/12345.lrc"`)
	})

	meta := testMeta()
	meta.Lyric = "[00:01.00]第一句\n[00:05.00]第二句\n"
	up := NewUploader(newTestClient(t, mux), meta,
		WithCover(strings.NewReader("PNGDATA"), "cover.png"))

	var names []string
	up.Events().OnAll(func(ev event.Event) {
		names = append(names, ev.Name)
	})

	songID, err := up.UploadReader(context.Background(), bytes.NewReader(payload), int64(len(payload)), "song.flac")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), songID)

	assert.True(t, completeSeen)
	assert.Equal(t, []string{"1/0:0-4", "2/1:4-8", "3/2:8-10"}, chunkOrder)
	assert.Equal(t, string(payload), strings.Join(chunkBodies, ""))
	assert.Equal(t, "https://i0.hdslb.com/bfs/am/cover1.jpg", meta.CoverURL)

	assert.Equal(t, []string{
		EventPreupload,
		EventPreChunk, EventAfterChunk,
		EventPreChunk, EventAfterChunk,
		EventPreChunk, EventAfterChunk,
		EventPreComplete, EventAfterComplete,
		EventPreCover, EventAfterCover,
		EventPreSubmit, EventAfterSubmit,
		EventPreLyric, EventAfterLyric,
		EventCompleted,
	}, names)
}

func TestUploader_NoCoverNoLyric(t *testing.T) {
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Query().Has("uploads") {
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
			return
		}
		if r.Method == http.MethodPost {
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)
		}
	})
	mux.HandleFunc(imagePath, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no cover upload expected")
	})
	mux.HandleFunc(lyricPath, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no lyric upload expected")
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Empty(t, r.PostForm.Get("cover_url"))
		ok(t, w, `777`)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())
	songID, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(777), songID)
}

func TestUploader_UploadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.flac")
	require.NoError(t, os.WriteFile(path, []byte("FLACDATA"), 0o644))

	var uploaded bytes.Buffer
	mux := http.NewServeMux()
	mux.HandleFunc(preuploadPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo.flac", r.URL.Query().Get("name"))
		assert.Equal(t, "8", r.URL.Query().Get("size"))
		_, err := w.Write([]byte(ticketJSON))
		assert.NoError(t, err)
	})
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
			_, err := io.Copy(&uploaded, r.Body)
			assert.NoError(t, err)
		case r.Method == http.MethodPost:
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)
		}
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		ok(t, w, `888`)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())
	songID, err := up.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(888), songID)
	assert.Equal(t, "FLACDATA", uploaded.String())
}

func TestUploader_AbortStopsChunks(t *testing.T) {
	var puts int
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
			puts++
		case r.Method == http.MethodPost:
			t.Error("no complete expected after abort")
		}
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no submit expected after abort")
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	var names []string
	up.Events().OnAll(func(ev event.Event) {
		names = append(names, ev.Name)
	})
	// 第一个分片发完后请求中止, 下一轮循环观察到
	up.Events().On(EventAfterChunk, func(ev event.Event) {
		up.Abort()
	})

	_, err := up.UploadReader(context.Background(), strings.NewReader("abcdefghij"), 10, "song.flac")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUploadAborted)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUploadAborted))

	assert.Equal(t, 1, puts)
	assert.Contains(t, names, EventAborted)
	assert.NotContains(t, names, EventPreComplete)
	assert.NotContains(t, names, EventFailed)
}

func TestUploader_Busy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc(preuploadPath, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		// 放行后直接给一张被拒的凭证结束流程
		_, err := w.Write([]byte(`{"OK":0}`))
		assert.NoError(t, err)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	done := make(chan error, 1)
	go func() {
		_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
		done <- err
	}()

	<-entered
	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	assert.ErrorIs(t, err, errors.ErrUploadBusy)

	close(release)
	require.Error(t, <-done)
}

func TestUploader_TicketRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(preuploadPath, func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(`{"OK":0,"message":"upload forbidden"}`))
		assert.NoError(t, err)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	var names []string
	var failed StageError
	up.Events().OnAll(func(ev event.Event) {
		names = append(names, ev.Name)
		if ev.Name == EventFailed {
			failed = ev.Data.(StageError)
		}
	})

	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)

	var serr StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StagePreupload, serr.Stage)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUploadRejected))

	assert.Equal(t, []string{EventPreuploadFailed, EventFailed}, names)
	assert.Equal(t, StagePreupload, failed.Stage)
}

func TestUploader_CompleteRejected(t *testing.T) {
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
		case r.Method == http.MethodPost:
			_, err := w.Write([]byte(`{"OK":0}`))
			assert.NoError(t, err)
		}
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	var names []string
	up.Events().OnAll(func(ev event.Event) {
		names = append(names, ev.Name)
	})

	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)

	var serr StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageComplete, serr.Stage)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUploadRejected))
	assert.Contains(t, names, EventCompleteFailed)
}

func TestUploader_ChunkFailedNoRetry(t *testing.T) {
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Query().Has("uploads") {
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
			return
		}
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	var chunkFailed []ChunkInfo
	up.Events().On(EventChunkFailed, func(ev event.Event) {
		chunkFailed = append(chunkFailed, ev.Data.(ChunkInfo))
	})

	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)

	var serr StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageChunks, serr.Stage)
	assert.True(t, errors.IsCode(err, errors.ErrCodeHTTPStatus))

	require.Len(t, chunkFailed, 1)
	assert.Equal(t, 0, chunkFailed[0].Index)
}

func TestUploader_ChunkRetryRecovers(t *testing.T) {
	var puts int
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
			puts++
			if puts == 1 {
				w.WriteHeader(http.StatusInternalServerError)
			}
		case r.Method == http.MethodPost:
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)
		}
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		ok(t, w, `999`)
	})

	up := NewUploader(newTestClient(t, mux), testMeta(), WithChunkRetry(1))
	songID, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(999), songID)
	assert.Equal(t, 2, puts)
}

func TestUploader_ValidationShortCircuits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL)
	})

	up := NewUploader(newTestClient(t, mux), &SongMeta{})

	var fired bool
	up.Events().OnAll(func(ev event.Event) {
		fired = true
	})

	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	assert.False(t, fired)
}

func TestUploader_MissingUserID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client := bilibili.New(
		bilibili.WithCredential(bilibili.NewCredential("test-sessdata", "test-csrf")),
		bilibili.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
	)

	up := NewUploader(client, testMeta())
	_, err = up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCredentialMissing))
}

func TestUploader_SubmitAPIError(t *testing.T) {
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
		case r.Method == http.MethodPost:
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)
		}
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"code":72010002,"msg":"参数错误","data":null}`))
		assert.NoError(t, err)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())

	_, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)

	var serr StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageSubmit, serr.Stage)

	var apiErr *bilibili.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(72010002), apiErr.Code)
}

func TestUploader_LyricFailureKeepsSongID(t *testing.T) {
	mux := http.NewServeMux()
	servePreupload(t, mux)
	mux.HandleFunc(uposPath, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Has("uploads"):
			_, err := w.Write([]byte(`{"OK":1,"upload_id":"UP1","key":"/uga/nTEST123.flac"}`))
			assert.NoError(t, err)
		case r.Method == http.MethodPut:
		case r.Method == http.MethodPost:
			_, err := w.Write([]byte(`{"OK":1}`))
			assert.NoError(t, err)
		}
	})
	mux.HandleFunc(submitPath, func(w http.ResponseWriter, r *http.Request) {
		ok(t, w, `555`)
	})
	mux.HandleFunc(lyricPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	meta := testMeta()
	meta.Lyric = "[00:01.00]第一句\n"
	up := NewUploader(newTestClient(t, mux), meta)

	songID, err := up.UploadReader(context.Background(), strings.NewReader("abc"), 3, "a.mp3")
	require.Error(t, err)

	var serr StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageLyric, serr.Stage)
	// 稿件已提交成功, 歌曲 ID 随错误一并返回
	assert.Equal(t, int64(555), songID)
}

func TestUploader_ZeroSize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL)
	})

	up := NewUploader(newTestClient(t, mux), testMeta())
	_, err := up.UploadReader(context.Background(), strings.NewReader(""), 0, "a.mp3")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestParseTicket(t *testing.T) {
	ticket, err := parseTicket([]byte(ticketJSON))
	require.NoError(t, err)

	assert.Equal(t, int64(4242), ticket.BizID)
	assert.Equal(t, int64(4), ticket.ChunkSize)
	assert.Equal(t, "https://upos-test.bilivideo.com/uga/nTEST123.flac", ticket.BucketURL())
	assert.Equal(t, "nTEST123", ticket.Key())
}

func TestParseTicket_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code string
	}{
		{"NotJSON", `<html>502</html>`, errors.ErrCodeDecode},
		{"Rejected", `{"OK":0}`, errors.ErrCodeUploadRejected},
		{"NoEndpoint", `{"OK":1,"upos_uri":"upos://uga/n1.flac","chunk_size":4}`, errors.ErrCodeUploadRejected},
		{"NoChunkSize", `{"OK":1,"endpoint":"//upos.test","upos_uri":"upos://uga/n1.flac"}`, errors.ErrCodeUploadRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseTicket([]byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code))
		})
	}
}
