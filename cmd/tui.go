// ABOUTME: Launches the interactive UI with the expiry watchdog and session follower
// ABOUTME: All three run under one errgroup and stop together

package cmd

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/chat"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui"
)

// runTUI restores the stored session and runs the UI until the user quits
func runTUI(ctx context.Context, startInChat bool) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.session.Restore(ctx); !session.IsBenign(err) {
		rt.logger.Warn("starting without a session", "error", err)
	}

	history := chat.NewHistory(rt.cfg.ConfigDir)
	if _, err := history.Load(); err != nil {
		rt.logger.Warn("could not load chat history", "error", err)
	}

	deps := tui.Deps{
		Session:       rt.session,
		Auth:          rt.auth,
		API:           rt.api,
		History:       history,
		CallbackAddr:  rt.cfg.CallbackAddr,
		MarkdownStyle: rt.cfg.MarkdownStyle,
		Logger:        rt.logger,
		StartInChat:   startInChat,
	}
	return runWithWatchers(ctx, rt.session, rt.store, rt.logger, func(ctx context.Context) error {
		return tui.Run(ctx, deps)
	})
}

// runWithWatchers runs ui next to the watchdog and the file follower. When ui
// returns, the others are stopped. A follower failure only disables syncing.
func runWithWatchers(ctx context.Context, mgr *session.Manager, store *session.FileStore, logger *slog.Logger, ui func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return ui(gctx)
	})

	g.Go(func() error {
		if err := mgr.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := mgr.Follow(gctx, store); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("session sync disabled", "error", err)
		}
		return nil
	})

	return g.Wait()
}
