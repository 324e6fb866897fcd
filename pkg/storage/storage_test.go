package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientRoundTrip(t *testing.T) {
	c := NewMemoryClient("http://localhost:8080/files")
	ctx := context.Background()

	require.NoError(t, c.Upload(ctx, "bucket", "stamped/order-1.pdf", strings.NewReader("%PDF-1.4")))

	rc, err := c.Download(ctx, "bucket", "stamped/order-1.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestMemoryClientNotFound(t *testing.T) {
	c := NewMemoryClient("http://localhost:8080/files")

	_, err := c.Download(context.Background(), "bucket", "missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetPresignedURL(context.Background(), "bucket", "missing.pdf", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClientPresignedURL(t *testing.T) {
	c := NewMemoryClient("http://localhost:8080/files")
	c.Put("bucket", "stamped/order-7.pdf", []byte("x"))

	raw, err := c.GetPresignedURL(context.Background(), "bucket", "stamped/order-7.pdf", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/files/bucket/stamped/order-7.pdf", u.Path)

	expires, err := time.Parse(time.RFC3339, u.Query().Get("expires"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)
}

func TestMemoryClientIsolatesStoredBytes(t *testing.T) {
	c := NewMemoryClient("")
	data := []byte("abc")
	c.Put("b", "k", data)
	data[0] = 'z'

	got, ok := c.Get("b", "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"typed no such key", &types.NoSuchKey{}, ErrNotFound},
		{"generic not found", &smithy.GenericAPIError{Code: "NotFound"}, ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, nil},
		{"plain error", errors.New("connection reset"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want == nil {
				assert.False(t, errors.Is(got, ErrNotFound) || errors.Is(got, ErrAccessDenied))
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("stamped/order-1.pdf"))
	assert.Equal(t, "", contentType("stamped/order-1"))
}
