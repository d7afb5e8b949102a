package models

import (
	"strings"
	"time"
)

// PostIDPrefix is the prefix every live blog post id carries
const PostIDPrefix = "post-"

// Post represents a single entry on the live blog
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ShortID returns the numeric suffix of the post id
func (p *Post) ShortID() string {
	return strings.TrimPrefix(p.ID, PostIDPrefix)
}

// Run outcomes recorded in the journal
const (
	OutcomeNoNewPosts = "no_new_posts"
	OutcomeNotified   = "notified"
	OutcomeDegraded   = "degraded"
	OutcomeFailed     = "failed"
)

// Run summarises one check of the live blog
type Run struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Found       int       `json:"found"`
	New         int       `json:"new"`
	Notified    int       `json:"notified"`
	Failed      int       `json:"failed"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	NotifiedIDs []string  `json:"notified_ids,omitempty"`
}
