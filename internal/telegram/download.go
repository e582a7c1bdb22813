package telegram

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultDownloadTimeout is the default timeout for photo downloads
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxPhotoSize is the default maximum photo size (10MB)
	DefaultMaxPhotoSize = 10 * 1024 * 1024
)

// PhotoDownloader fetches photo bytes over HTTP, enforcing a size limit and
// an image content type.
type PhotoDownloader struct {
	client  *resty.Client
	maxSize int64
}

// NewPhotoDownloader creates a PhotoDownloader with default settings.
func NewPhotoDownloader() *PhotoDownloader {
	return &PhotoDownloader{
		client:  resty.New().SetDebug(false).SetTimeout(DefaultDownloadTimeout),
		maxSize: DefaultMaxPhotoSize,
	}
}

// WithTimeout sets a custom timeout for downloads.
func (d *PhotoDownloader) WithTimeout(timeout time.Duration) *PhotoDownloader {
	d.client.SetTimeout(timeout)
	return d
}

// WithMaxSize sets a custom maximum file size.
func (d *PhotoDownloader) WithMaxSize(maxSize int64) *PhotoDownloader {
	d.maxSize = maxSize
	return d
}

// Download fetches url. It respects context cancellation and reads at most
// maxSize bytes.
func (d *PhotoDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	res, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") &&
		contentType != "application/octet-stream" {
		return nil, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	if res.RawResponse.ContentLength > d.maxSize {
		return nil, fmt.Errorf("photo too large: %d bytes exceeds limit of %d bytes", res.RawResponse.ContentLength, d.maxSize)
	}

	// LimitReader enforces the limit even if Content-Length is missing or wrong
	data, err := io.ReadAll(io.LimitReader(body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo data: %w", err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("photo too large: exceeds limit of %d bytes", d.maxSize)
	}

	return data, nil
}
