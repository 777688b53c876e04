package main

import (
	"context"
	"log/slog"

	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
	"github.com/tartampluch/go-valentine/internal/scheduler"
	"github.com/tartampluch/go-valentine/internal/server"
)

// headlessDeps groups what the web-only mode needs.
type headlessDeps struct {
	server       *server.CountdownServer
	countdown    *engine.Countdown
	fetcher      engine.CardFetcher
	scheduler    *scheduler.Scheduler
	loadSettings func() (*config.Settings, error)
	settingsPath string
}

// runHeadless serves the page, API and feed without a desktop session.
// It blocks until ctx is cancelled or the server fails.
func runHeadless(ctx context.Context, d headlessDeps) error {
	signals := make(chan string, config.ChannelBufferSize)
	requestSync := func() {
		select {
		case signals <- config.SignalRefresh:
		default:
		}
	}

	if err := d.scheduler.AddDailyRefresh(requestSync); err != nil {
		return err
	}
	go d.scheduler.Start(ctx)
	go watchSettings(ctx, d.settingsPath, signals)
	go headlessWorker(ctx, d, signals)

	return d.server.Start(ctx)
}

// headlessWorker syncs once at startup and again on every signal.
func headlessWorker(ctx context.Context, d headlessDeps, signals <-chan string) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	syncOnce(ctx, d)
	log.Info(config.MsgWorkerStart)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return
		case sig := <-signals:
			if sig == config.SignalSettings {
				log.Info(config.MsgSettingsReload)
			}
			syncOnce(ctx, d)
		}
	}
}

// syncOnce regenerates the feed and recipient. Failures, including an
// unreadable settings file, keep the previous data.
func syncOnce(ctx context.Context, d headlessDeps) {
	settings, err := d.loadSettings()
	if err != nil {
		slog.Error(config.ErrSettingsRead,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err)
		return
	}

	gen := &engine.Generator{Countdown: d.countdown, Fetcher: d.fetcher}
	res, err := gen.RunSync(ctx, engine.LoadSyncConfig(settings))
	if err != nil {
		slog.Error(config.ErrSyncFailed,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err)
		return
	}

	d.server.SetRecipient(res.Recipient)
	d.server.Update(res.Feed)
	slog.Info(config.MsgSyncDone,
		config.LogKeyComponent, config.CompWorker,
		config.LogKeyState, res.Decision.State.String())
}
