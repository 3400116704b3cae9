package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/pkg/errors"
)

// rewriteTransport 把所有出站请求改写到测试服务器, 保留原始路径
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// newTestService 创建指向测试服务器的 Service
func newTestService(t *testing.T, handler http.Handler, opts ...Option) (*Service, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client := bilibili.New(
		bilibili.WithCredential(bilibili.NewCredential("test-sessdata", "test-csrf",
			bilibili.WithDedeUserID("10086"))),
		bilibili.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
	)
	return NewService(client, opts...), srv
}

func ok(t *testing.T, w http.ResponseWriter, data string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(`{"code":0,"message":"0","ttl":1,"data":` + data + `}`))
	assert.NoError(t, err)
}

func TestService_NewSessions(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session_svr/v1/session_svr/new_sessions", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("begin_ts"))
		assert.Equal(t, "web", r.URL.Query().Get("mobi_app"))

		cookie, err := r.Cookie("SESSDATA")
		require.NoError(t, err)
		assert.Equal(t, "test-sessdata", cookie.Value)

		ok(t, w, `{"session_list":[
			{"talker_id":777,"session_type":1,"ack_seqno":3,"max_seqno":5,"session_ts":1700000000000000,"unread_count":2},
			{"talker_id":888,"session_type":2,"unread_count":0}
		],"has_more":0}`)
	}))

	sessions, err := svc.NewSessions(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, int64(777), sessions[0].TalkerID)
	assert.Equal(t, SessionTypeUser, sessions[0].SessionType)
	assert.Equal(t, int64(3), sessions[0].AckSeqno)
	assert.Equal(t, 2, sessions[0].UnreadCount)
	assert.Equal(t, time.UnixMicro(1700000000000000), sessions[0].Time())
	assert.Equal(t, SessionTypeGroup, sessions[1].SessionType)
}

func TestService_NewSessions_BeginTS(t *testing.T) {
	begin := time.UnixMicro(1700000000123456)
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1700000000123456", r.URL.Query().Get("begin_ts"))
		ok(t, w, `{"session_list":[],"has_more":0}`)
	}))

	sessions, err := svc.NewSessions(context.Background(), begin)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestService_Sessions_Defaults(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/session_svr/v1/session_svr/get_sessions", r.URL.Path)
		assert.Equal(t, "4", q.Get("session_type"))
		assert.Equal(t, "20", q.Get("size"))
		assert.Equal(t, "2", q.Get("sort_rule"))
		assert.Equal(t, "0", q.Get("group_fold"))
		assert.Equal(t, "0", q.Get("unfollow_fold"))
		assert.False(t, q.Has("end_ts"))

		ok(t, w, `{"session_list":[{"talker_id":1}],"has_more":1}`)
	}))

	list, err := svc.Sessions(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.True(t, list.More())
	require.Len(t, list.Sessions, 1)
}

func TestService_Sessions_Cursor(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("session_type"))
		assert.Equal(t, "5", q.Get("size"))
		assert.Equal(t, "1700000000000001", q.Get("end_ts"))
		assert.Equal(t, "1", q.Get("group_fold"))

		ok(t, w, `{"session_list":[],"has_more":0}`)
	}))

	_, err := svc.Sessions(context.Background(), ListOptions{
		Type:      SessionTypeUser,
		EndTS:     1700000000000001,
		Size:      5,
		FoldGroup: true,
	})
	require.NoError(t, err)
}

func TestService_Messages_AscendingOrder(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/svr_sync/v1/svr_sync/fetch_session_msgs", r.URL.Path)
		assert.Equal(t, "777", q.Get("talker_id"))
		assert.Equal(t, "1", q.Get("session_type"))
		assert.Equal(t, "10", q.Get("size"))
		assert.Equal(t, "2", q.Get("begin_seqno"))

		// 平台按序列号降序返回
		ok(t, w, `{"messages":[
			{"sender_uid":777,"msg_type":1,"content":"{\"content\":\"second\"}","msg_seqno":4,"timestamp":1700000002,"msg_key":42},
			{"sender_uid":777,"msg_type":1,"content":"{\"content\":\"first\"}","msg_seqno":3,"timestamp":1700000001,"msg_key":41}
		],"has_more":0,"min_seqno":3,"max_seqno":4}`)
	}))

	msgs, maxSeqno, err := svc.Messages(context.Background(), 777, SessionTypeUser, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), maxSeqno)
	require.Len(t, msgs, 2)

	// 返回时翻成升序
	assert.Equal(t, int64(3), msgs[0].MsgSeqno)
	assert.Equal(t, int64(4), msgs[1].MsgSeqno)

	text, isText := msgs[0].Text()
	assert.True(t, isText)
	assert.Equal(t, "first", text)
	assert.Equal(t, time.Unix(1700000001, 0), msgs[0].Time())
}

func TestService_SendText(t *testing.T) {
	devIDPattern := regexp.MustCompile(`^[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`)

	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/web_im/v1/web_im/send_msg", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "10086", r.PostForm.Get("msg[sender_uid]"))
		assert.Equal(t, "999", r.PostForm.Get("msg[receiver_id]"))
		assert.Equal(t, "1", r.PostForm.Get("msg[receiver_type]"))
		assert.Equal(t, "1", r.PostForm.Get("msg[msg_type]"))
		assert.Equal(t, `{"content":"hello"}`, r.PostForm.Get("msg[content]"))
		assert.Regexp(t, devIDPattern, r.PostForm.Get("msg[dev_id]"))
		assert.NotEmpty(t, r.PostForm.Get("msg[timestamp]"))

		// web_im 同时校验两种 csrf 字段
		assert.Equal(t, "test-csrf", r.PostForm.Get("csrf"))
		assert.Equal(t, "test-csrf", r.PostForm.Get("csrf_token"))

		ok(t, w, `{"msg_key":667788,"msg_content":"{\"content\":\"hello\"}"}`)
	}))

	receipt, err := svc.SendText(context.Background(), 999, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(667788), receipt.MsgKey)
}

func TestService_SendText_EmptyText(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := svc.SendText(context.Background(), 999, "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestService_SendText_MissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	// 凭据缺 DedeUserID, 无法填 sender_uid
	client := bilibili.New(
		bilibili.WithCredential(bilibili.NewCredential("sess", "csrf")),
		bilibili.WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
	)
	svc := NewService(client)

	_, err = svc.SendText(context.Background(), 999, "hello")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCredentialMissing))
}

func TestService_Recall(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5", r.PostForm.Get("msg[msg_type]"))
		assert.Equal(t, "667788", r.PostForm.Get("msg[content]"))

		ok(t, w, `{"msg_key":667788}`)
	}))

	receipt, err := svc.Recall(context.Background(), 999, 667788)
	require.NoError(t, err)
	assert.Equal(t, int64(667788), receipt.MsgKey)
}

func TestService_Recall_InvalidKey(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := svc.Recall(context.Background(), 999, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestService_MarkRead(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/session_svr/v1/session_svr/update_ack", r.URL.Path)
		assert.Equal(t, "777", q.Get("talker_id"))
		assert.Equal(t, "1", q.Get("session_type"))
		assert.Equal(t, "5", q.Get("ack_seqno"))
		// GET 接口的 csrf 走查询串
		assert.Equal(t, "test-csrf", q.Get("csrf"))

		ok(t, w, `null`)
	}))

	err := svc.MarkRead(context.Background(), 777, SessionTypeUser, 5)
	require.NoError(t, err)
}

func TestService_SingleUnread(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session_svr/v1/session_svr/single_unread", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("unread_type"))

		ok(t, w, `{"follow_unread":2,"unfollow_unread":1,"dustbin_unread":0,"custom_unread":0,"biz_msg_follow_unread":3,"biz_msg_unfollow_unread":0}`)
	}))

	counts, err := svc.SingleUnread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.FollowUnread)
	assert.Equal(t, 6, counts.Total())
}

func TestService_APIErrorPassthrough(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":-412,"message":"请求被拦截","ttl":1}`))
	}))

	_, err := svc.SingleUnread(context.Background())
	require.Error(t, err)

	var apiErr *bilibili.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, bilibili.CodeRateLimited, apiErr.Code)
}

func TestService_WithDeviceID(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "AAAABBBB-CCCC-DDDD-EEEE-FFFF00001111", r.PostForm.Get("msg[dev_id]"))
		ok(t, w, `{"msg_key":1}`)
	}), WithDeviceID("aaaabbbb-cccc-dddd-eeee-ffff00001111"))

	_, err := svc.SendText(context.Background(), 1, "hi")
	require.NoError(t, err)
}

func TestMessage_Accessors(t *testing.T) {
	text := Message{MsgType: MsgTypeText, Content: `{"content":"你好"}`}
	got, isText := text.Text()
	assert.True(t, isText)
	assert.Equal(t, "你好", got)

	img := Message{MsgType: MsgTypeImage, Content: `{"url":"https://example.com/a.png","width":100,"height":80}`}
	u, isImg := img.ImageURL()
	assert.True(t, isImg)
	assert.Equal(t, "https://example.com/a.png", u)

	recall := Message{MsgType: MsgTypeRecall, Content: "667788"}
	key, isRecall := recall.RecalledKey()
	assert.True(t, isRecall)
	assert.Equal(t, int64(667788), key)

	// 类型不匹配时全部落空
	_, isText = img.Text()
	assert.False(t, isText)
	_, isImg = text.ImageURL()
	assert.False(t, isImg)
	_, isRecall = text.RecalledKey()
	assert.False(t, isRecall)

	// 消息体损坏时落空
	broken := Message{MsgType: MsgTypeText, Content: "not-json"}
	_, isText = broken.Text()
	assert.False(t, isText)
}

func TestMsgType_EventName(t *testing.T) {
	cases := []struct {
		mt   MsgType
		want string
	}{
		{MsgTypeText, "TEXT"},
		{MsgTypeImage, "PICTURE"},
		{MsgTypeRecall, "WITHDRAW"},
		{MsgTypeShareVideo, "SHARE_VIDEO"},
		{MsgTypeNotice, "NOTICE"},
		{MsgTypeWelcome, "WELCOME"},
		{MsgType(999), "UNKNOWN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.mt.EventName())
	}
}

func TestInfo_LastMsgRaw(t *testing.T) {
	var info Info
	err := json.Unmarshal([]byte(`{"talker_id":1,"last_msg":{"msg_type":1,"content":"{\"content\":\"hi\"}"}}`), &info)
	require.NoError(t, err)

	var last Message
	require.NoError(t, json.Unmarshal(info.LastMsg, &last))
	assert.Equal(t, MsgTypeText, last.MsgType)
}
