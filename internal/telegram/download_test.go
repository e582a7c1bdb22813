package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoDownloader_Download_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("test image data"))
	}))
	defer ts.Close()

	data, err := NewPhotoDownloader().Download(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("test image data"), data)
}

func TestPhotoDownloader_Download_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewPhotoDownloader().Download(context.Background(), ts.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestPhotoDownloader_Download_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewPhotoDownloader().Download(ctx, ts.URL)
	assert.Error(t, err)
}

func TestPhotoDownloader_Download_SizeLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		// Streamed without Content-Length
		w.(http.Flusher).Flush()
		w.Write([]byte(strings.Repeat("x", 200)))
	}))
	defer ts.Close()

	_, err := NewPhotoDownloader().WithMaxSize(100).Download(context.Background(), ts.URL)
	assert.ErrorContains(t, err, "too large")
}

func TestPhotoDownloader_Download_ContentLengthExceedsLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "200")
		w.Write([]byte(strings.Repeat("x", 200)))
	}))
	defer ts.Close()

	_, err := NewPhotoDownloader().WithMaxSize(100).Download(context.Background(), ts.URL)
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestPhotoDownloader_Download_InvalidContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	_, err := NewPhotoDownloader().Download(context.Background(), ts.URL)
	assert.ErrorContains(t, err, "invalid content type")
}
