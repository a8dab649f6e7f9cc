package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"weblog-stats/utils"
)

// Options configures a Loader.
type Options struct {
	// Timeout bounds each HTTP request; zero means no timeout.
	Timeout     time.Duration
	MaxAttempts int
	S3          S3Config
}

// Option customises a Loader beyond its Options.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.http = c
		}
	}
}

// WithS3Client sets a pre-configured S3 client, e.g. a fake in tests.
func WithS3Client(c S3Client) Option {
	return func(l *Loader) { l.s3 = c }
}

// Loader reads a whole access log from a local path, file://, http(s)://
// or s3:// URI. The underlying handle is released before Load returns.
type Loader struct {
	logger *utils.Logger
	retry  *utils.RetryConfig
	http   *http.Client
	s3     S3Client
	s3cfg  S3Config
}

// NewLoader creates a ready-to-use Loader.
func NewLoader(opts Options, logger *utils.Logger, extra ...Option) *Loader {
	l := &Loader{
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   time.Second,
			Logger:      logger,
			Retryable:   retryable,
		},
		http:  &http.Client{Timeout: opts.Timeout},
		s3cfg: opts.S3,
	}
	for _, opt := range extra {
		opt(l)
	}
	return l
}

// Load fetches src and decodes it as UTF-8 text.
func (l *Loader) Load(ctx context.Context, src string) (string, error) {
	b, err := l.Fetch(ctx, src)
	if err != nil {
		return "", err
	}
	return Decode(b), nil
}

// Fetch returns the raw bytes behind src.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	s := strings.TrimSpace(src)
	if s == "" {
		return nil, ErrEmptySource
	}

	var data []byte
	err := l.retry.Do("fetch "+s, func() error {
		var err error
		data, err = l.fetchOnce(ctx, s)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("[source] Loaded %s bytes from %s", utils.FormatCount(len(data)), s)
	return data, nil
}

func (l *Loader) fetchOnce(ctx context.Context, s string) ([]byte, error) {
	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "http://"), strings.HasPrefix(low, "https://"):
		return l.fetchHTTP(ctx, s)
	case strings.HasPrefix(low, "file://"):
		path, err := filePath(s)
		if err != nil {
			return nil, err
		}
		return readFile(path)
	case strings.HasPrefix(low, "s3://"):
		if l.s3 == nil {
			client, err := newS3Client(ctx, l.s3cfg)
			if err != nil {
				return nil, err
			}
			l.s3 = client
		}
		return fetchS3(ctx, l.s3, s)
	case strings.Contains(s, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, s)
	default:
		return readFile(s)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request for %s: %w", rawURL, err)
	}

	l.logger.Debug("[source] GET %s", rawURL)
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, rawURL, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s (%s)", ErrAccessDenied, rawURL, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s (%s)", ErrHTTPStatus, rawURL, resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", rawURL, err)
	}
	return b, nil
}

// filePath extracts the local path from a file:// URI.
func filePath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("source: parse %q: %w", raw, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote file host %q", ErrUnsupportedScheme, u.Host)
	}
	if u.Path == "" {
		return "", fmt.Errorf("source: %q has no path", raw)
	}
	return u.Path, nil
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, path)
	default:
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
}
