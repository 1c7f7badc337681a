package mirror

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/pkg/config"
	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func testConfig(baseURL string) config.MirrorConfig {
	return config.MirrorConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		SearchFilter: "tweets",
	}
}

func TestFetchPageBuildsListingRequest(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewTestLogger())
	body, err := client.FetchPage(context.Background(), "someone", 2)
	require.NoError(t, err)

	assert.Equal(t, "<html></html>", string(body))
	assert.Equal(t, "/someone/search", gotPath)
	assert.Equal(t, "f=tweets&p=2", gotQuery)
	assert.Equal(t, config.DefaultUserAgent, gotAgent)
}

func TestFetchPageStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   errs.ErrorType
	}{
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusForbidden, errs.ErrorTypeAuth},
		{http.StatusServiceUnavailable, errs.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			log := logger.NewTestLogger()
			client := NewClient(testConfig("https://mirror.test"), log)
			client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{
				handler: func(req *http.Request) (*http.Response, error) {
					return newResponse(tt.status, ""), nil
				},
			}})

			_, err := client.FetchPage(context.Background(), "someone", 1)
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.TypeOf(err))
			assert.True(t, log.HasMessage("mirror returned an error status"))
		})
	}
}

func TestFetchPageNetworkError(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(testConfig("https://mirror.test"), log)
	client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			return nil, stderrors.New("connection refused")
		},
	}})

	_, err := client.FetchPage(context.Background(), "someone", 1)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.True(t, log.HasError())
}

func TestFetchPageHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testConfig(server.URL), logger.NewTestLogger())
	_, err := client.FetchPage(ctx, "someone", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pic/typed.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		case "/pic/untyped.png":
			w.Header()["Content-Type"] = nil
			w.Write([]byte("\x89PNG\r\n\x1a\n0000"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewTestLogger())

	data, contentType, err := client.FetchMedia(context.Background(), server.URL+"/pic/typed.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	_, contentType, err = client.FetchMedia(context.Background(), server.URL+"/pic/untyped.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	_, _, err = client.FetchMedia(context.Background(), server.URL+"/pic/missing.jpg")
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))
}

func TestCustomHeaders(t *testing.T) {
	var gotAgent, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.UserAgent = "crossposter-test"
	client := NewClient(cfg, logger.NewTestLogger())
	client.SetHeader("X-Test", "yes")

	_, err := client.FetchPage(context.Background(), "someone", 1)
	require.NoError(t, err)
	assert.Equal(t, "crossposter-test", gotAgent)
	assert.Equal(t, "yes", gotCustom)
}
