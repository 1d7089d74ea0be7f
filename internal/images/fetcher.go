package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrDownload marks every failure to retrieve the image bytes: network
// errors, timeouts, non-2xx statuses and oversized bodies.
var ErrDownload = errors.New("failed to download image")

// ContentTypeError is returned when the URL answered with something that
// does not declare itself as an image.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("URL did not point to a valid image. Content-Type: %s", e.ContentType)
}

// Payload is the raw image as fetched, alive for one request only
type Payload struct {
	URL         string
	Data        []byte
	ContentType string
}

// Fetcher retrieves plant photos from arbitrary URLs
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		MaxBytes:  maxBytes,
	}
}

// Fetch downloads url and checks that it declares an image content type.
// The body is not read when the content type is wrong.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownload, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &ContentTypeError{ContentType: contentType}
	}

	reader := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.MaxBytes+1)
	}

	imageData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", ErrDownload, err)
	}

	if f.MaxBytes > 0 && int64(len(imageData)) > f.MaxBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrDownload, f.MaxBytes)
	}

	slog.Debug("Fetched image", "url", url, "content_type", contentType, "bytes", len(imageData))

	return &Payload{
		URL:         url,
		Data:        imageData,
		ContentType: contentType,
	}, nil
}
