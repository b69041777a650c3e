package migration

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventsPipeline/internal/config"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

func testFetcher(maxBytes int64, timeout time.Duration) *HTTPFetcher {
	return NewHTTPFetcher(config.MigrationConfig{
		DownloadTimeout: timeout,
		MaxAssetBytes:   maxBytes,
		UserAgent:       "test-agent",
	})
}

func TestHTTPFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	})
	mux.HandleFunc("/octet.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngBytes)
	})
	mux.HandleFunc("/page.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>not an image</body></html>"))
	})
	mux.HandleFunc("/liar.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("<html><body>still not an image</body></html>"))
	})
	mux.HandleFunc("/huge.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(append(pngBytes, bytes.Repeat([]byte{1}, 4096)...))
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := testFetcher(1024, 300*time.Millisecond)

	cases := []struct {
		path    string
		wantErr error
		errText string
	}{
		{path: "/ok.png"},
		{path: "/octet.png"},
		{path: "/page.jpg", wantErr: ErrNotImage},
		{path: "/liar.jpg", wantErr: ErrNotImage},
		{path: "/huge.png", wantErr: ErrAssetTooLarge},
		{path: "/missing.jpg", errText: "HTTP 404"},
		{path: "/slow.png", errText: "download"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			asset, err := f.Fetch(context.Background(), srv.URL+tc.path)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
			case tc.errText != "":
				if err == nil || !strings.Contains(err.Error(), tc.errText) {
					t.Fatalf("err = %v, want mention of %q", err, tc.errText)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if asset.ContentType != "image/png" || asset.Extension != ".png" || len(asset.Data) != len(pngBytes) {
					t.Fatalf("unexpected asset %s %s %d", asset.ContentType, asset.Extension, len(asset.Data))
				}
			}
		})
	}
}

func TestIsImageType(t *testing.T) {
	for mt, want := range map[string]bool{
		"image/png":                true,
		"image/jpeg; charset=x":    true,
		"IMAGE/WEBP":               true,
		"image/svg+xml":            false,
		"text/html":                false,
		"application/octet-stream": false,
	} {
		if got := isImageType(mt); got != want {
			t.Errorf("isImageType(%q) = %v, want %v", mt, got, want)
		}
	}
}
