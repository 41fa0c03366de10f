package llamaparse

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	polls      atomic.Int32
	readyAfter int32
	finalState string
	pages      []Page
	gzip       bool
	uploaded   []byte
	filename   string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		f.filename = header.Filename
		f.uploaded, err = io.ReadAll(file)
		require.NoError(t, err)

		writeJSON(t, w, Job{ID: "job-1", Status: "PENDING"}, false)
	})

	mux.HandleFunc("/api/v1/parsing/job/job-1", func(w http.ResponseWriter, r *http.Request) {
		status := "PENDING"
		if f.polls.Add(1) >= f.readyAfter {
			status = f.finalState
		}
		writeJSON(t, w, Job{ID: "job-1", Status: status, ErrorMessage: "unsupported layout"}, false)
	})

	mux.HandleFunc("/api/v1/parsing/job/job-1/result/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, result{Pages: f.pages}, f.gzip)
	})

	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any, compress bool) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if !compress {
		require.NoError(t, json.NewEncoder(w).Encode(v))
		return
	}
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	require.NoError(t, json.NewEncoder(gz).Encode(v))
	require.NoError(t, gz.Close())
}

func newTestClient(serverURL string) *Client {
	client := New(zap.NewNop(), "token")
	client.APIURL = serverURL
	client.PollInterval = time.Millisecond
	return client
}

func TestParseReturnsPageSections(t *testing.T) {
	api := &fakeAPI{
		readyAfter: 2,
		finalState: "SUCCESS",
		gzip:       true,
		pages: []Page{
			{Page: 1, Markdown: "# Jane Doe"},
			{Page: 2, Markdown: "  ", Text: "plain second page"},
			{Page: 3},
		},
	}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	sections, err := newTestClient(server.URL).Parse(context.Background(), "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, []string{"# Jane Doe", "plain second page"}, sections)
	assert.Equal(t, "cv.pdf", api.filename)
	assert.Equal(t, []byte("%PDF-1.4"), api.uploaded)
	assert.Equal(t, int32(2), api.polls.Load())
}

func TestParseEmptyResult(t *testing.T) {
	api := &fakeAPI{readyAfter: 1, finalState: "SUCCESS"}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	sections, err := newTestClient(server.URL).Parse(context.Background(), "cv.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestParseFailedJob(t *testing.T) {
	api := &fakeAPI{readyAfter: 1, finalState: "ERROR"}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	_, err := newTestClient(server.URL).Parse(context.Background(), "cv.docx", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported layout")
}

func TestParseTimesOut(t *testing.T) {
	api := &fakeAPI{readyAfter: 1 << 30, finalState: "SUCCESS"}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	client := newTestClient(server.URL)
	client.Timeout = 20 * time.Millisecond

	_, err := client.Parse(context.Background(), "cv.pdf", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Parse(context.Background(), "cv.pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
