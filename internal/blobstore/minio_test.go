package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Request struct {
	Method      string
	Path        string
	ContentType string
}

// fakeS3 answers just enough of the S3 API for bucket checks and single
// part uploads.
type fakeS3 struct {
	mu       sync.Mutex
	requests []s3Request
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, s3Request{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")})
	f.mu.Unlock()

	if r.Method == http.MethodPut {
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) puts() []s3Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var puts []s3Request
	for _, r := range f.requests {
		if r.Method == http.MethodPut {
			puts = append(puts, r)
		}
	}
	return puts
}

func newTestMinIOStore(t *testing.T) (*MinIOStore, *fakeS3) {
	t.Helper()
	s3 := &fakeS3{}
	srv := httptest.NewServer(s3)
	t.Cleanup(srv.Close)

	store, err := NewMinIOStore(context.Background(), MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "photos",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store, s3
}

func TestMinIOStore_Put(t *testing.T) {
	store, s3 := newTestMinIOStore(t)

	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	p, err := store.Put(context.Background(), PhotoKey("d1", 0), jpeg)
	require.NoError(t, err)
	assert.Equal(t, "photos/ad_d1/photo_0.jpg", p)

	puts := s3.puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "/photos/ad_d1/photo_0.jpg", puts[0].Path)
	assert.Equal(t, "image/jpeg", puts[0].ContentType)
}

func TestMinIOStore_PutRejectsInvalidKeys(t *testing.T) {
	store, s3 := newTestMinIOStore(t)

	for _, key := range []string{"", "/abs/photo.jpg", "../escape.jpg", "ad_1/../../x.jpg", "ad_1//photo.jpg"} {
		_, err := store.Put(context.Background(), key, []byte("jpeg"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
	assert.Empty(t, s3.puts())
}
