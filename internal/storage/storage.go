package storage

import (
	"context"
	"fmt"

	"github.com/iiviie/liveblog-watch/internal/models"
)

// PostStore is the durable record of posts that have already been notified
type PostStore interface {
	// NewPosts returns the candidates whose id is not yet known, in input order
	NewPosts(candidates []*models.Post) []*models.Post

	// StorePosts persists newly notified posts ahead of the known ones
	StorePosts(posts []*models.Post) error

	// Posts returns every known post, newest first
	Posts() []*models.Post
}

// Journal records the outcome of each run
type Journal interface {
	// RecordRun saves a finished run
	RecordRun(ctx context.Context, run *models.Run) error

	// RecentRuns returns up to limit runs, newest first
	RecentRuns(ctx context.Context, limit int) ([]*models.Run, error)

	// Close closes the journal
	Close() error
}

// CorruptStoreError means an existing store file could not be trusted.
// Loading never partially recovers from it.
type CorruptStoreError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptStoreError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt post store %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("corrupt post store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}
