// Package gist stores the dashboard document as one file of a GitHub Gist.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/store"
)

// Defaults for the GitHub API.
const (
	DefaultAPIURL   = "https://api.github.com"
	DefaultFilename = "filieres_data.json"
	DefaultTimeout  = 15 * time.Second
)

// ErrFileNotFound is returned when the gist has no file with the configured
// name.
var ErrFileNotFound = errors.New("gist: file not found")

// Config holds the gist coordinates and credentials.
type Config struct {
	ID       string
	Filename string
	Token    string
	APIURL   string
	Timeout  time.Duration
}

// Blob reads and writes one gist file through the REST API.
type Blob struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a gist blob. Empty Filename, APIURL and Timeout take their
// defaults. A nil logger is replaced by a no-op one.
func New(cfg Config, logger *zap.Logger) (*Blob, error) {
	if cfg.ID == "" {
		return nil, errors.New("gist: missing gist id")
	}
	if cfg.Filename == "" {
		cfg.Filename = DefaultFilename
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Blob{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

func (b *Blob) Name() string { return "gist" }

type gistFile struct {
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	RawURL    string `json:"raw_url"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

type gistResponse struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Files       map[string]gistFile `json:"files"`
}

func (b *Blob) gistURL() string {
	return b.cfg.APIURL + "/gists/" + b.cfg.ID
}

func (b *Blob) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if b.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+b.cfg.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and returns the body of a 2xx answer. Other statuses become
// a *store.StatusError.
func (b *Blob) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gist: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gist: %s: %w", op, err)
	}

	b.logger.Debug("gist request",
		zap.String("method", req.Method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &store.StatusError{
			Op:         op,
			Backend:    b.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return body, nil
}

func (b *Blob) fetchGist(ctx context.Context) (*gistResponse, error) {
	req, err := b.newRequest(ctx, http.MethodGet, b.gistURL(), nil)
	if err != nil {
		return nil, err
	}
	body, err := b.do(req, "read")
	if err != nil {
		return nil, err
	}

	var g gistResponse
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, &store.DecodeError{Backend: b.Name(), Err: err}
	}
	return &g, nil
}

// Read returns the content of the configured file. Truncated files are
// fetched in full from their raw URL.
func (b *Blob) Read(ctx context.Context) ([]byte, error) {
	g, err := b.fetchGist(ctx)
	if err != nil {
		return nil, err
	}

	f, ok := g.Files[b.cfg.Filename]
	if !ok {
		return nil, &store.StatusError{
			Op:         "read",
			Backend:    b.Name(),
			StatusCode: http.StatusNotFound,
			Body:       b.cfg.Filename,
			Err:        ErrFileNotFound,
		}
	}
	if !f.Truncated {
		return []byte(f.Content), nil
	}

	b.logger.Debug("gist file truncated, fetching raw content", zap.Int("size", f.Size))
	req, err := b.newRequest(ctx, http.MethodGet, f.RawURL, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req, "read")
}

// Write replaces the content of the configured file.
func (b *Blob) Write(ctx context.Context, data []byte) error {
	payload := map[string]any{
		"files": map[string]any{
			b.cfg.Filename: map[string]string{"content": string(data)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := b.newRequest(ctx, http.MethodPatch, b.gistURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	_, err = b.do(req, "write")
	return err
}

// Info summarises a gist for the access check.
type Info struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	UpdatedAt   time.Time `json:"updated_at"`
	Files       []string  `json:"files"`
	HasDocument bool      `json:"has_document"`
}

// Check fetches the gist metadata and reports whether the document file is
// present.
func (b *Blob) Check(ctx context.Context) (*Info, error) {
	g, err := b.fetchGist(ctx)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ID:          g.ID,
		Description: g.Description,
		Public:      g.Public,
		UpdatedAt:   g.UpdatedAt,
	}
	for name := range g.Files {
		info.Files = append(info.Files, name)
	}
	sort.Strings(info.Files)
	_, info.HasDocument = g.Files[b.cfg.Filename]
	return info, nil
}
