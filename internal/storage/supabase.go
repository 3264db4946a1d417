// Package storage uploads staged media to a Supabase-style object store over
// its REST API and resolves durable public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrUpload marks a rejected or failed upload. The "object already exists"
// case never surfaces: uploads are sent as put-or-replace.
var ErrUpload = errors.New("storage: upload failed")

// Client talks to one bucket of a Supabase storage endpoint.
type Client struct {
	baseURL string
	apiKey  string
	bucket  string
	http    *http.Client
}

func NewClient(baseURL, apiKey, bucket string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload pushes the local file to the bucket under remoteName and returns the
// public URL. Overwrite semantics come from the store's atomic put-or-replace
// (the x-upsert header), not from catching an "already exists" error.
func (c *Client) Upload(ctx context.Context, localPath, remoteName, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUpload, localPath, err)
	}
	defer f.Close()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, remoteName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, f)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpload, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-upsert", "true")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send %s: %v", ErrUpload, remoteName, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("%w: %s: status %d: %s", ErrUpload, remoteName, res.StatusCode, body)
	}

	return c.PublicURL(remoteName), nil
}

// PublicURL returns the durable, non-expiring URL for an uploaded object.
func (c *Client) PublicURL(remoteName string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, remoteName)
}
