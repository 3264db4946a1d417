package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrTransfer marks a failed download to local staging.
var ErrTransfer = errors.New("media: transfer failed")

// StagedFile is a temporary local copy of a remote resource, owned by exactly
// one request. Callers must defer Remove so the file is gone on every exit
// path before the handler returns.
type StagedFile struct {
	Path string
}

// Remove deletes the staged file. Safe to call more than once.
func (f *StagedFile) Remove() {
	if f == nil || f.Path == "" {
		return
	}
	_ = os.Remove(f.Path)
	f.Path = ""
}

// Stager downloads remote media into scoped temporary files.
type Stager struct {
	client *http.Client
	dir    string
}

// NewStager creates a Stager. dir may be empty to use the system temp
// directory.
func NewStager(dir string) *Stager {
	return &Stager{
		client: &http.Client{Timeout: 60 * time.Second},
		dir:    dir,
	}
}

// Download streams the resource at url into a new temporary file with the
// given name pattern (e.g. "photo-*.jpg"). On any failure the partial file is
// removed before returning.
func (s *Stager) Download(ctx context.Context, url, pattern string) (*StagedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransfer, err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrTransfer, url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrTransfer, url, res.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrTransfer, err)
	}

	if _, err := io.Copy(tmp, res.Body); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: write %s: %v", ErrTransfer, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: close %s: %v", ErrTransfer, tmp.Name(), err)
	}

	return &StagedFile{Path: tmp.Name()}, nil
}
