package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryClient keeps objects in process memory. It backs local development
// and tests; presigned URLs point at BaseURL and are not signed.
type MemoryClient struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryClient(baseURL string) *MemoryClient {
	return &MemoryClient{
		BaseURL: baseURL,
		objects: make(map[string][]byte),
	}
}

// Put stores data directly, bypassing the io.Reader interface.
func (c *MemoryClient) Put(bucket, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[objectID(bucket, key)] = bytes.Clone(data)
}

// Get returns a copy of a stored object.
func (c *MemoryClient) Get(bucket, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.objects[objectID(bucket, key)]
	return bytes.Clone(data), ok
}

func (c *MemoryClient) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}
	c.Put(bucket, key, data)
	return nil
}

func (c *MemoryClient) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := c.Get(bucket, key)
	if !ok {
		return nil, fmt.Errorf("memory://%s/%s: %w", bucket, key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *MemoryClient) GetPresignedURL(ctx context.Context, bucket, key string, expiration time.Duration) (string, error) {
	if _, ok := c.Get(bucket, key); !ok {
		return "", fmt.Errorf("memory://%s/%s: %w", bucket, key, ErrNotFound)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}
	u = u.JoinPath(bucket, key)
	q := u.Query()
	q.Set("expires", time.Now().Add(expiration).UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}
