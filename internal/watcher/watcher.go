// Package watcher runs one check of the live blog: fetch the page, extract
// its posts, notify the ones not seen before and remember them.
//
// A run keeps no state between invocations. Continuous monitoring comes from
// invoking it repeatedly from an external scheduler, and at most one run may
// use a given store at a time.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iiviie/liveblog-watch/internal/logger"
	"github.com/iiviie/liveblog-watch/internal/models"
	"github.com/iiviie/liveblog-watch/internal/notifier"
	"github.com/iiviie/liveblog-watch/internal/scraper"
	"github.com/iiviie/liveblog-watch/internal/storage"
)

// ErrPartialDelivery is returned when at least one notification failed.
// Posts that were delivered have still been persisted.
var ErrPartialDelivery = errors.New("some notifications failed")

// Fetcher retrieves the page markup.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Options wires a Runner. Journal may be nil.
type Options struct {
	Fetcher   Fetcher
	LoadStore func() (storage.PostStore, error)
	Notifier  notifier.Notifier
	Journal   storage.Journal
	Logger    logger.Logger
	PageURL   string
	URLTitle  string
}

// Runner performs a single check.
type Runner struct {
	fetcher   Fetcher
	loadStore func() (storage.PostStore, error)
	notifier  notifier.Notifier
	journal   storage.Journal
	logger    logger.Logger
	pageURL   string
	urlTitle  string
	now       func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		fetcher:   opts.Fetcher,
		loadStore: opts.LoadStore,
		notifier:  opts.Notifier,
		journal:   opts.Journal,
		logger:    log.With(logger.String("page_url", opts.PageURL)),
		pageURL:   opts.PageURL,
		urlTitle:  opts.URLTitle,
		now:       time.Now,
	}
}

// Result counts what a run did.
type Result struct {
	Found       int
	New         int
	Notified    int
	Failed      int
	NotifiedIDs []string
	FailedIDs   []string
}

// Message renders the notification text for a post.
func Message(p *models.Post) string {
	return fmt.Sprintf("(%s) - %s", p.ShortID(), p.Title)
}

// Run performs one fetch, extract, diff, notify and persist pass.
//
// Fetch, parse and store-load failures abort the run before anything is
// sent. A failed send only excludes that post from the persisted batch, so
// it is detected again next run; the run then returns ErrPartialDelivery.
// A crash between a send and the persist re-notifies that post next run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	res, err := r.run(ctx)
	r.record(ctx, started, res, err)
	return res, err
}

func (r *Runner) run(ctx context.Context) (*Result, error) {
	res := &Result{}

	markup, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return res, err
	}

	posts, err := scraper.Extract(markup)
	if err != nil {
		return res, err
	}
	res.Found = len(posts)

	store, err := r.loadStore()
	if err != nil {
		return res, fmt.Errorf("load post store: %w", err)
	}
	r.logger.Debug("Loaded post store", logger.Int("known", len(store.Posts())))

	fresh := store.NewPosts(posts)
	res.New = len(fresh)
	if len(fresh) == 0 {
		r.logger.Info("No new posts to notify about", logger.Int("found", res.Found))
		return res, nil
	}
	r.logger.Info("Posts to notify", logger.Int("found", res.Found), logger.Int("new", res.New))

	notified := make([]*models.Post, 0, len(fresh))
	for _, p := range fresh {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Skipping post, run cancelled", logger.String("post_id", p.ID), logger.Error(err))
			res.FailedIDs = append(res.FailedIDs, p.ID)
			continue
		}

		r.logger.Info("Sending post", logger.String("post_id", p.ID), logger.String("title", p.Title))
		if err := r.notifier.SendMessage(ctx, Message(p), r.pageURL, r.urlTitle); err != nil {
			r.logger.Error("Failed to send post", logger.String("post_id", p.ID), logger.Error(err))
			res.FailedIDs = append(res.FailedIDs, p.ID)
			continue
		}
		notified = append(notified, p)
		res.NotifiedIDs = append(res.NotifiedIDs, p.ID)
	}
	res.Notified = len(res.NotifiedIDs)
	res.Failed = len(res.FailedIDs)

	if len(notified) > 0 {
		if err := store.StorePosts(notified); err != nil {
			return res, fmt.Errorf("persist notified posts: %w", err)
		}
		r.logger.Info("Stored newly-notified posts", logger.Strings("post_ids", res.NotifiedIDs))
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("%w: %d of %d failed (%v)", ErrPartialDelivery, res.Failed, res.New, res.FailedIDs)
	}
	return res, nil
}

// Outcome classifies a finished run for the journal.
func Outcome(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrPartialDelivery):
		return models.OutcomeDegraded
	case err != nil:
		return models.OutcomeFailed
	case res == nil || res.New == 0:
		return models.OutcomeNoNewPosts
	default:
		return models.OutcomeNotified
	}
}

func (r *Runner) record(ctx context.Context, started time.Time, res *Result, runErr error) {
	if r.journal == nil {
		return
	}

	run := &models.Run{
		StartedAt:   started,
		FinishedAt:  r.now(),
		Found:       res.Found,
		New:         res.New,
		Notified:    res.Notified,
		Failed:      res.Failed,
		Outcome:     Outcome(res, runErr),
		NotifiedIDs: res.NotifiedIDs,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	// The journal entry is still wanted when the run was cancelled.
	if err := r.journal.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("Failed to record run in journal", logger.Error(err))
	}
}
