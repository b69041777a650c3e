package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"eventsPipeline/internal/config"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrAssetTooLarge = errors.New("asset exceeds size limit")
	ErrNotImage      = errors.New("asset is not an image")
)

// Asset is a downloaded media file.
type Asset struct {
	Data        []byte
	ContentType string
	Extension   string
}

// HTTPFetcher downloads media assets with a per-request timeout and byte ceiling.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

func NewHTTPFetcher(cfg config.MigrationConfig) *HTTPFetcher {
	return &HTTPFetcher{
		client:    newHTTPClient(cfg.DownloadTimeout),
		maxBytes:  cfg.MaxAssetBytes,
		userAgent: cfg.UserAgent,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Fetch downloads rawURL and checks that it is an image within the size limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("download: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return Asset{}, fmt.Errorf("%w: content-length %d > %d", ErrAssetTooLarge, resp.ContentLength, f.maxBytes)
	}

	declared := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(declared); err == nil && !isImageType(mt) && mt != "application/octet-stream" {
		return Asset{}, fmt.Errorf("%w: declared content type %s", ErrNotImage, mt)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Asset{}, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return Asset{}, fmt.Errorf("%w: more than %d bytes", ErrAssetTooLarge, f.maxBytes)
	}

	sniffed := mimetype.Detect(data)
	if !isImageType(sniffed.String()) {
		return Asset{}, fmt.Errorf("%w: content looks like %s", ErrNotImage, sniffed.String())
	}

	return Asset{
		Data:        data,
		ContentType: sniffed.String(),
		Extension:   sniffed.Extension(),
	}, nil
}

// isImageType accepts raster image types only; SVG can carry script.
func isImageType(mt string) bool {
	mt = strings.ToLower(mt)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return strings.HasPrefix(mt, "image/") && !strings.HasPrefix(mt, "image/svg")
}
