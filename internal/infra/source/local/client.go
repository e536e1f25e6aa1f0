// Package local implements the source adapter for local (or mounted)
// folders.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/source"
)

// Client lists directories on the local filesystem. Paths are resolved
// under a configured root so a misconfigured source cannot wander the whole
// host.
type Client struct {
	root string
}

// NewClient creates a client rooted at dir.
func NewClient(root string) *Client {
	return &Client{root: root}
}

// SourceType returns the local-folder source type.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceLocalFolder
}

// ListDirectory enumerates the children of path relative to the root.
func (c *Client) ListDirectory(ctx context.Context, path string) (*source.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(c.root, filepath.Clean("/"+path))
	start := time.Now()
	entries, err := os.ReadDir(full)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	listing := &source.Listing{
		ResponseTime: elapsed,
		ServerType:   "local",
	}
	for _, e := range entries {
		entry := source.Entry{
			Name:  e.Name(),
			Path:  filepath.Join(path, e.Name()),
			IsDir: e.IsDir(),
		}
		if info, err := e.Info(); err == nil {
			entry.Size = info.Size()
			entry.Modified = info.ModTime()
		}
		// Directory symlinks still count as directories for traversal;
		// the loop detector is what keeps cycles from running away.
		if e.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(full, e.Name())); err == nil && info.IsDir() {
				entry.IsDir = true
			}
		}
		listing.Entries = append(listing.Entries, entry)
	}
	return listing, nil
}
