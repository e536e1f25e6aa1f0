// Package source defines the adapter interface the sync engine uses to list
// remote directory hierarchies, with one implementation per scannable
// source type.
package source

import (
	"context"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
)

// Entry is one item in a directory listing.
type Entry struct {
	Name     string
	Path     string
	IsDir    bool
	Size     int64
	ETag     string
	Modified time.Time
}

// Listing is the result of one directory enumeration, with the response
// metadata classification feeds on.
type Listing struct {
	Entries      []Entry
	ResponseTime time.Duration
	ResponseSize int64
	ServerType   string
}

// Client lists directories on one source. Implementations must honor
// context cancellation; all other reliability concerns (loop detection,
// failure tracking, retry) live above this interface.
type Client interface {
	// SourceType identifies the source this client talks to.
	SourceType() domain.SourceType

	// ListDirectory enumerates the immediate children of path.
	ListDirectory(ctx context.Context, path string) (*Listing, error)
}
