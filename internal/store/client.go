package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/n0roo/filiere-kit/internal/cache"
	"github.com/n0roo/filiere-kit/internal/document"
)

// fetchKey is the single singleflight key: there is only one document.
const fetchKey = "document"

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger
}

// WithCacheTTL sets how long a fetched document is served from memory.
// A TTL <= 0 disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *clientOptions) { o.ttl = ttl }
}

// WithClock sets the clock used for cache expiry.
func WithClock(fn func() time.Time) Option {
	return func(o *clientOptions) { o.clock = fn }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Client fetches and saves the whole document through a Blob. Reads are
// cached for a short TTL; writes replace the blob unconditionally.
type Client struct {
	blob   Blob
	cache  *cache.Blob
	group  singleflight.Group
	logger *zap.Logger
}

// NewClient creates a client over blob.
func NewClient(blob Blob, opts ...Option) *Client {
	o := clientOptions{
		ttl:    cache.DefaultTTL,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		blob:   blob,
		cache:  cache.New(o.ttl, cache.WithClock(o.clock)),
		logger: o.logger.With(zap.String("backend", blob.Name())),
	}
}

// Backend returns the name of the underlying blob.
func (c *Client) Backend() string {
	return c.blob.Name()
}

// FetchDocument returns the stored document, unmigrated. Every call returns
// an independent value, cached or not.
func (c *Client) FetchDocument(ctx context.Context) (*document.Raw, error) {
	if data, ok := c.cache.Get(); ok {
		c.logger.Debug("cache hit")
		return document.DecodeRaw(data)
	}

	gen := c.cache.Generation()
	ch := c.group.DoChan(fetchKey, func() (any, error) {
		c.logger.Debug("cache miss, reading backend")
		data, err := c.blob.Read(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if _, err := document.DecodeRaw(data); err != nil {
			return nil, &DecodeError{Backend: c.blob.Name(), Err: err}
		}
		if !c.cache.SetIfGeneration(gen, data) {
			c.logger.Debug("document changed during read, not cached")
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var se *StatusError
			if errors.As(res.Err, &se) {
				c.logger.Warn("backend read failed", zap.Int("status", se.StatusCode))
			} else {
				c.logger.Warn("backend read failed", zap.Error(res.Err))
			}
			return nil, res.Err
		}
		return document.DecodeRaw(res.Val.([]byte))
	}
}

// SaveDocument encodes doc and overwrites the stored document. On failure
// the cache is left as it was; on success it is dropped so the next fetch
// reads the backend.
func (c *Client) SaveDocument(ctx context.Context, doc *document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}

	if err := c.blob.Write(ctx, data); err != nil {
		c.logger.Warn("backend write failed", zap.Error(err))
		return err
	}

	c.Invalidate()
	c.logger.Info("document saved",
		zap.Int("filieres", len(doc.Filieres)),
		zap.Int("bytes", len(data)))
	return nil
}

// Invalidate drops the cached document.
func (c *Client) Invalidate() {
	c.cache.Invalidate()
	c.group.Forget(fetchKey)
}
