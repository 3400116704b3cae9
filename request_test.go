package bilibili

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waiav123/bilibili-api/catalog"
)

func TestClient_CallMultipart(t *testing.T) {
	var (
		gotContentType string
		gotFields      map[string]string
		gotFilename    string
		gotFile        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotFields = make(map[string]string)
		for k, vs := range r.MultipartForm.Value {
			gotFields[k] = vs[0]
		}

		fh := r.MultipartForm.File["file"][0]
		gotFilename = fh.Filename
		f, err := fh.Open()
		require.NoError(t, err)
		defer f.Close()
		gotFile, err = io.ReadAll(f)
		require.NoError(t, err)

		w.Write([]byte(`{"code":0,"data":{"url":"https://example.com/cover.jpg"}}`))
	}))
	defer srv.Close()

	c := New(WithCredential(testCredential()))
	ep := catalog.Endpoint{URL: srv.URL + "/image/upload", Method: "POST", Verify: true, CSRF: true}

	data, err := c.CallMultipart(context.Background(), ep,
		Params{"bucket": "am", "dir": "cover"},
		"file", "cover.jpg", strings.NewReader("fake-image-bytes"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://example.com/cover.jpg"}`, string(data))

	assert.True(t, strings.HasPrefix(gotContentType, "multipart/form-data"))
	assert.Equal(t, "am", gotFields["bucket"])
	assert.Equal(t, "cover", gotFields["dir"])
	assert.Equal(t, "jct-value", gotFields["csrf"])
	assert.Equal(t, "jct-value", gotFields["csrf_token"])
	assert.Equal(t, "cover.jpg", gotFilename)
	assert.Equal(t, "fake-image-bytes", string(gotFile))
}

func TestClient_Call_GetWithoutParams(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), catalog.Endpoint{URL: srv.URL, Method: "GET"}, nil)
	require.NoError(t, err)
	assert.Empty(t, gotRawQuery)
}

func TestClient_Call_PreservesCustomHTTPMethod(t *testing.T) {
	var gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := New()
	_, err := c.Call(context.Background(), catalog.Endpoint{URL: srv.URL, Method: "PUT"}, Params{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "k=v", string(gotBody))
}
