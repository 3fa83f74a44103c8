package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"linkvault/internal/store"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	progressChunkSize  = 64 * 1024
)

// Status is the terminal outcome of one media transfer.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Request describes one media asset to download.
type Request struct {
	PostID    int64
	SortOrder int
	Type      store.MediaType
	SourceURL string
}

// Result reports what happened to one transfer. ByteSize is measured from
// bytes written, not from remote headers. Err is set only for failed
// transfers; a skip is a deliberate non-transfer, not an error.
type Result struct {
	Status    Status
	LocalPath string
	ByteSize  int64
	Err       error
}

// ProgressFunc receives fractional completion in [0, 1] as bytes arrive. It
// is only invoked when the remote reports a total size.
type ProgressFunc func(fraction float64)

// Config captures runtime settings for the engine.
type Config struct {
	MediaDir       string
	VideoSizeLimit int64
	TimeoutSeconds int
}

// Engine downloads remote media to deterministic local paths, enforcing the
// video size ceiling.
type Engine struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the engine.
type Option func(*Engine)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// NewEngine constructs a transfer engine from configuration.
func NewEngine(cfg Config, opts ...Option) *Engine {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	engine := &Engine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// LocalPath returns the deterministic destination for a media asset, derived
// from its post, position, and type.
func (e *Engine) LocalPath(req Request) string {
	return filepath.Join(e.cfg.MediaDir,
		fmt.Sprintf("%d", req.PostID),
		fmt.Sprintf("%d%s", req.SortOrder, extensionFor(req)))
}

// Transfer downloads one media asset. Oversized videos are skipped before
// any bytes move; every other failure path yields a failed result with the
// error attached. The caller decides what a failure means for the post.
func (e *Engine) Transfer(ctx context.Context, req Request, onProgress ProgressFunc) Result {
	if strings.TrimSpace(req.SourceURL) == "" {
		return Result{Status: StatusFailed, Err: errors.New("media source url is empty")}
	}

	if req.Type == store.MediaVideo && e.cfg.VideoSizeLimit > 0 {
		if size, known := e.probeSize(ctx, req.SourceURL); known && size > e.cfg.VideoSizeLimit {
			return Result{Status: StatusSkipped}
		}
	}

	localPath := e.LocalPath(req)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("create media directory: %w", err)}
	}

	written, err := e.download(ctx, req.SourceURL, localPath, onProgress)
	if err != nil {
		_ = os.Remove(localPath)
		return Result{Status: StatusFailed, Err: err}
	}

	// A video whose true size only became known while streaming still must
	// not land above the ceiling.
	if req.Type == store.MediaVideo && e.cfg.VideoSizeLimit > 0 && written > e.cfg.VideoSizeLimit {
		_ = os.Remove(localPath)
		return Result{Status: StatusSkipped}
	}

	return Result{Status: StatusCompleted, LocalPath: localPath, ByteSize: written}
}

// probeSize issues a best-effort HEAD request for the remote size. Unknown
// sizes never block a transfer.
func (e *Engine) probeSize(ctx context.Context, url string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

func (e *Engine) download(ctx context.Context, url, localPath string, onProgress ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("fetch media: http %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("create media file: %w", err)
	}
	defer out.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, progressChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return written, fmt.Errorf("write media file: %w", writeErr)
			}
			written += int64(n)
			if onProgress != nil && total > 0 {
				fraction := float64(written) / float64(total)
				if fraction > 1 {
					fraction = 1
				}
				onProgress(fraction)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, fmt.Errorf("read media stream: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close media file: %w", err)
	}
	return written, nil
}

func extensionFor(req Request) string {
	if ext := strings.ToLower(filepath.Ext(strippedPath(req.SourceURL))); ext != "" && len(ext) <= 5 {
		return ext
	}
	if req.Type == store.MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}

func strippedPath(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
