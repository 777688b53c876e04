package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
	"github.com/tartampluch/go-valentine/internal/server"
)

//go:embed Icon.png
var appIconData []byte

// ValentineApp encapsulates the window, the tray and the background refresh.
type ValentineApp struct {
	App        fyne.App
	Window     fyne.Window
	I18nBundle *i18n.Bundle
	Localizer  *i18n.Localizer
	Ctx        context.Context

	Server    *server.CountdownServer
	Countdown *engine.Countdown
	Fetcher   engine.CardFetcher

	// LoadSettings is called on every sync so that edits to the settings
	// file apply without a restart. When it fails the sync is skipped and the
	// served data is left untouched.
	LoadSettings func() (*config.Settings, error)

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayUpcomingItem *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem

	countdownLabel *widget.Label
	card           *widget.Card

	configChan chan string

	stateMut       sync.RWMutex
	recipient      engine.Recipient
	lastState      engine.State
	hasState       bool
	upcomingWindow fyne.Window
}

// NewValentineApp constructs the application and wires dependencies.
func NewValentineApp(a fyne.App, ctx context.Context, srv *server.CountdownServer, countdown *engine.Countdown, fetcher engine.CardFetcher, loadSettings func() (*config.Settings, error)) *ValentineApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	return &ValentineApp{
		App:          a,
		Ctx:          ctx,
		Server:       srv,
		Countdown:    countdown,
		Fetcher:      fetcher,
		LoadSettings: loadSettings,
		configChan:   make(chan string, config.ChannelBufferSize),
	}
}

// Signals returns the channel on which reload requests are accepted.
// It is handed to config.WatchSettings.
func (app *ValentineApp) Signals() chan<- string {
	return app.configChan
}

// RequestSync queues a resync without blocking. A pending request absorbs
// further ones.
func (app *ValentineApp) RequestSync() {
	select {
	case app.configChan <- config.SignalRefresh:
	default:
	}
}

// Run launches the application services and the main UI loop.
func (app *ValentineApp) Run() {
	app.SetupI18n()
	app.buildWindow()

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyPort, app.Server.Port,
			config.LogKeyComponent, config.CompUI)

		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
		// With a tray the app keeps running when the window is closed.
		app.Window.SetCloseIntercept(app.Window.Hide)
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	go app.backgroundWorker()
	app.Window.Show()
	app.App.Run()
}

// buildWindow creates the main window with its two mutually exclusive regions.
func (app *ValentineApp) buildWindow() {
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))

	app.countdownLabel = widget.NewLabel("")
	app.countdownLabel.Alignment = fyne.TextAlignCenter
	app.countdownLabel.Wrapping = fyne.TextWrapWord

	app.card = widget.NewCard(app.GetMsg(config.TKeyCard), app.GetMsg(config.TKeyCardSubtitle), nil)
	app.card.Hide()

	w.SetContent(container.NewCenter(container.NewStack(app.countdownLabel, app.card)))
	w.Resize(fyne.NewSize(config.MainWinWidth, config.MainWinHeight))
	app.Window = w
}

// ShowMainWindow brings the countdown window to the front.
func (app *ValentineApp) ShowMainWindow() {
	if app.Window == nil {
		app.buildWindow()
	}
	app.Window.Show()
	app.Window.RequestFocus()
}

// setupTrayMenu constructs the system tray menu.
func (app *ValentineApp) setupTrayMenu() {
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, app.ShowMainWindow)

	app.TrayUpcomingItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuUpcoming), func() {
		app.ShowUpcomingWindow()
	})

	app.TrayRefreshItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuRefresh), func() {
		go app.syncAndApply(true)
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItem(app.GetMsg(config.TKeyMenuOpen), app.ShowMainWindow),
		fyne.NewMenuItemSeparator(),
		app.TrayUpcomingItem,
		app.TrayRefreshItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// backgroundWorker re-renders every second and resyncs on request.
func (app *ValentineApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	app.syncAndApply(false)

	ticker := time.NewTicker(config.RenderInterval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, config.RenderInterval)

	for {
		select {
		case <-app.Ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case sig := <-app.configChan:
			if sig == config.SignalSettings {
				log.Info(config.MsgSettingsReload)
			}
			app.syncAndApply(false)

		case <-ticker.C:
			fyne.Do(app.refresh)
		}
	}
}

// refresh evaluates the countdown at the current instant and renders it.
func (app *ValentineApp) refresh() {
	d, err := app.Countdown.Current()
	if err != nil {
		slog.Error(config.ErrRenderPage,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
		return
	}
	app.applyDecision(d)
}

// syncAndApply runs performSync and pushes the outcome to the widgets.
func (app *ValentineApp) syncAndApply(manual bool) {
	res, err := app.performSync(manual)
	if err != nil {
		fyne.Do(func() { app.setTrayLabel(config.FallbackTrayError) })
		return
	}
	fyne.Do(func() { app.applyDecision(res.Decision) })
}

// performSync reloads settings, then regenerates the feed and the recipient
// card. On failure the previously served data is kept.
func (app *ValentineApp) performSync(manual bool) (engine.SyncResult, error) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifStart)))
	}

	settings, err := app.currentSettings()
	if err != nil {
		slog.Error(config.ErrSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompUI)
		if manual {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.GetMsg(config.TKeyNotifError)))
		}
		return engine.SyncResult{}, err
	}

	gen := &engine.Generator{
		Countdown:     app.Countdown,
		Fetcher:       app.Fetcher,
		FormatSummary: app.buildSummaryFormatter(),
	}

	res, err := gen.RunSync(app.Ctx, engine.LoadSyncConfig(settings))
	if err != nil {
		slog.Error(config.ErrSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompUI)
		if manual {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.GetMsg(config.TKeyNotifError)))
		}
		return engine.SyncResult{}, err
	}

	app.stateMut.Lock()
	app.recipient = res.Recipient
	app.stateMut.Unlock()

	app.Server.SetRecipient(res.Recipient)
	app.Server.Update(res.Feed)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifSuccess)))
	}
	return res, nil
}

// currentSettings reads the settings source. Without a source the defaults
// apply. Zone and port are bound at startup, so changes to them are only
// reported.
func (app *ValentineApp) currentSettings() (*config.Settings, error) {
	if app.LoadSettings == nil {
		return config.DefaultSettings(), nil
	}
	s, err := app.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSettingsRead, err)
	}

	if app.Countdown != nil && app.Countdown.Location != nil && s.Timezone != app.Countdown.Location.String() {
		slog.Warn(config.MsgRestartRequired,
			config.LogKeyComponent, config.CompUI,
			config.LogKeySetting, "timezone",
			config.LogKeyValue, s.Timezone)
	}
	if app.Server != nil && s.Port != app.Server.Port {
		slog.Warn(config.MsgRestartRequired,
			config.LogKeyComponent, config.CompUI,
			config.LogKeySetting, "port",
			config.LogKeyValue, s.Port)
	}
	return s, nil
}

// applyDecision shows exactly one of the countdown label and the card.
func (app *ValentineApp) applyDecision(d engine.RenderDecision) {
	if app.countdownLabel != nil && app.card != nil {
		if d.CardVisible() {
			app.countdownLabel.Hide()
			app.card.SetTitle(app.cardTitle())
			app.card.Show()
		} else {
			app.card.Hide()
			app.countdownLabel.SetText(app.countdownText(d))
			app.countdownLabel.Show()
		}
	}

	app.noteTransition(d.State)
	app.updateTrayStatus(d)
}

// noteTransition notifies once when the countdown unlocks while running.
func (app *ValentineApp) noteTransition(state engine.State) {
	app.stateMut.Lock()
	unlocked := app.hasState && app.lastState == engine.Locked && state == engine.Unlocked
	app.lastState = state
	app.hasState = true
	app.stateMut.Unlock()

	if unlocked {
		slog.Info(config.MsgUnlocked, config.LogKeyComponent, config.CompUI)
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifUnlocked)))
	}
}

func (app *ValentineApp) countdownText(d engine.RenderDecision) string {
	msg, err := app.localize(config.TKeyCountdown, map[string]interface{}{
		"Days":    d.Remaining.Days,
		"Hours":   d.Remaining.Hours,
		"Minutes": d.Remaining.Minutes,
		"Seconds": d.Remaining.Seconds,
	}, nil)
	if err != nil {
		return d.Text()
	}
	return msg
}

func (app *ValentineApp) cardTitle() string {
	r := app.currentRecipient()
	var msg string
	var err error
	if r.Name == "" {
		msg, err = app.localize(config.TKeyCard, nil, nil)
	} else {
		msg, err = app.localize(config.TKeyCardNamed, map[string]interface{}{"Name": r.Name}, nil)
	}
	if err != nil {
		return r.CardText()
	}
	return msg
}

func (app *ValentineApp) currentRecipient() engine.Recipient {
	app.stateMut.RLock()
	defer app.stateMut.RUnlock()
	return app.recipient
}

// updateTrayStatus shows the days left, or the greeting once unlocked.
func (app *ValentineApp) updateTrayStatus(d engine.RenderDecision) {
	var label string
	if d.CardVisible() {
		label = app.GetMsg(config.TKeyTrayUnlocked)
		if label == config.TKeyTrayUnlocked {
			label = config.FallbackTrayUnlocked
		}
	} else {
		days := d.Remaining.Days
		msg, err := app.localize(config.TKeyTrayLocked, map[string]interface{}{"Count": days}, &days)
		if err != nil {
			msg = fmt.Sprintf(config.FallbackTrayLocked, days)
		}
		label = msg
	}
	app.setTrayLabel(label)
}

// setTrayLabel refreshes the menu only when the label actually changes.
func (app *ValentineApp) setTrayLabel(label string) {
	if app.Menu == nil || app.TrayStatusItem == nil || app.TrayStatusItem.Label == label {
		return
	}
	app.TrayStatusItem.Label = label
	app.Menu.Refresh()
}

// buildSummaryFormatter returns a closure that localizes the event summary.
func (app *ValentineApp) buildSummaryFormatter() func(r engine.Recipient) string {
	return func(r engine.Recipient) string {
		var msg string
		var err error
		if r.Name == "" {
			msg, err = app.localize(config.TKeyEvtSummary, nil, nil)
		} else {
			msg, err = app.localize(config.TKeyEvtSummaryNamed, map[string]interface{}{"Name": r.Name}, nil)
		}
		if err != nil || msg == "" {
			if r.Name == "" {
				return config.FallbackSummary
			}
			return fmt.Sprintf(config.FallbackSummaryNamed, r.Name)
		}
		return msg
	}
}
