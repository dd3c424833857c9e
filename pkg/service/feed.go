package service

import (
	"context"
	"fmt"

	"github.com/snapgram/cli/pkg/feed"
	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/live"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/output"
	"github.com/snapgram/cli/pkg/prompter"
)

// FeedService provides feed-related operations
type FeedService struct {
	feed   *feed.Synchronizer
	out    *output.Printer
	fmt    *formatter.Formatter
	prompt *prompter.Prompter
}

func NewFeedService(f *feed.Synchronizer, fm *formatter.Formatter, p *prompter.Prompter) *FeedService {
	return &FeedService{feed: f, out: fm.Out, fmt: fm, prompt: p}
}

// Browse loads the first page and renders it. With interactive set it
// keeps offering the next page while the server has more.
func (fs *FeedService) Browse(ctx context.Context, interactive bool) error {
	logger.Debug("Browsing feed", "interactive", interactive)

	if _, err := fs.feed.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	posts := fs.feed.Posts()
	if len(posts) == 0 {
		fs.out.Info("Your feed is empty. Posts from people you follow show up here.")
		return nil
	}
	if err := fs.fmt.Posts(posts, ""); err != nil {
		return err
	}

	for interactive && fs.feed.HasMore() {
		more, err := fs.prompt.Confirm("Load more?")
		if err != nil || !more {
			return err
		}

		added, err := fs.feed.LoadNextPage(ctx)
		if err != nil {
			// the feed keeps what it has; the user may retry
			fs.out.Error("Failed to load more posts: %v", err)
			continue
		}
		if added == 0 {
			fs.out.Info("No new posts on this page.")
			continue
		}
		all := fs.feed.Posts()
		if err := fs.fmt.Posts(all[len(all)-added:], ""); err != nil {
			return err
		}
	}

	if !fs.feed.HasMore() {
		fs.out.Info("You're all caught up.")
	}
	return nil
}

// Watch renders the feed and re-renders it whenever a live event changes
// it, until ctx is cancelled.
func (fs *FeedService) Watch(ctx context.Context, ws live.Config) error {
	if _, err := fs.feed.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	if err := fs.fmt.Posts(fs.feed.Posts(), "Your feed is empty."); err != nil {
		return err
	}

	unsubscribe := fs.feed.Subscribe(func(snap feed.Snapshot) {
		fs.out.Line("")
		fs.out.Info("Feed updated (%d posts)", len(snap.Posts))
		if err := fs.fmt.Posts(snap.Posts, "Your feed is empty."); err != nil {
			logger.Warn("Failed to render feed", "error", err)
		}
	})
	defer unsubscribe()

	client := live.NewClient(ws)
	unbind := live.Bind(client, fs.feed)
	defer unbind()

	fs.out.Info("Watching for changes. Press Ctrl+C to stop.")
	err := client.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
