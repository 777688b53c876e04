package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
	"github.com/tartampluch/go-valentine/internal/server"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockFetcher simulates the engine.CardFetcher interface using testify/mock.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error) {
	args := m.Called(ctx, url, user, pass)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

var (
	beforeUnlock = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	onTheDay     = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
)

// setupTestApp initializes a headless Fyne app frozen at now.
func setupTestApp(t *testing.T, now time.Time, settings *config.Settings) (*ValentineApp, *MockFetcher, *MockTray) {
	a := test.NewApp()
	t.Cleanup(a.Quit)

	countdown := engine.NewCountdown(engine.FixedClock(now), time.UTC)
	srv := server.NewCountdownServer("0", countdown)
	fetcher := new(MockFetcher)
	mockTray := &MockTray{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if settings == nil {
		settings = config.DefaultSettings()
	}
	settings.Timezone = time.UTC.String()
	settings.Port = "0"

	app := NewValentineApp(a, ctx, srv, countdown, fetcher, func() (*config.Settings, error) {
		copied := *settings
		return &copied, nil
	})
	app.Tray = mockTray

	// Run() is skipped in tests.
	app.SetupI18n()
	app.buildWindow()
	app.setupTrayMenu()

	return app, fetcher, mockTray
}

func feedStatus(t *testing.T, srv *server.CountdownServer) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, config.RouteFeed, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

// -----------------------------------------------------------------------------
// Rendering Tests
// -----------------------------------------------------------------------------

func TestApplyDecision_ExactlyOneRegion(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		wantCountdown bool
	}{
		{"Locked", beforeUnlock, true},
		{"Unlocked", onTheDay, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := setupTestApp(t, tt.now, nil)

			app.refresh()

			assert.Equal(t, tt.wantCountdown, app.countdownLabel.Visible())
			assert.Equal(t, !tt.wantCountdown, app.card.Visible())
		})
	}
}

func TestApplyDecision_CountdownText(t *testing.T) {
	now := time.Date(2025, 2, 12, 21, 29, 30, 0, time.UTC)
	app, _, _ := setupTestApp(t, now, nil)

	app.refresh()

	assert.Equal(t, "Valentine's Day unlocks in: ❤️ 1d 2h 30m 30s", app.countdownLabel.Text)
}

func TestApplyDecision_CardTitle(t *testing.T) {
	app, _, _ := setupTestApp(t, onTheDay, nil)

	app.refresh()
	assert.Equal(t, "Will you be my Valentine? 💖", app.card.Title)

	app.recipient = engine.Recipient{Name: "Juliet"}
	app.refresh()
	assert.Equal(t, "Will you be my Valentine, Juliet? 💖", app.card.Title)
}

func TestApplyDecision_Transition(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)

	locked, err := engine.Evaluate(beforeUnlock, time.UTC)
	require.NoError(t, err)
	unlocked, err := engine.Evaluate(onTheDay, time.UTC)
	require.NoError(t, err)

	app.applyDecision(locked)
	assert.True(t, app.countdownLabel.Visible())
	assert.Equal(t, engine.Locked, app.lastState)

	app.applyDecision(unlocked)
	assert.False(t, app.countdownLabel.Visible())
	assert.True(t, app.card.Visible())
	assert.Equal(t, engine.Unlocked, app.lastState)
}

func TestFallbacks_WithoutLocalizer(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)
	app.Localizer = nil

	d, err := engine.Evaluate(beforeUnlock, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, d.Text(), app.countdownText(d))
	assert.Equal(t, config.FallbackCard, app.cardTitle())
	assert.Equal(t, config.TKeyMenuRefresh, app.GetMsg(config.TKeyMenuRefresh))
}

// -----------------------------------------------------------------------------
// Tray Tests
// -----------------------------------------------------------------------------

func TestUpdateTrayStatus(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"Several days", beforeUnlock, "4 days until Valentine's Day"},
		{"One day", time.Date(2025, 2, 12, 12, 0, 0, 0, time.UTC), "1 day until Valentine's Day"},
		{"Unlocked", onTheDay, "Happy Valentine's Day! 💖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, mockTray := setupTestApp(t, tt.now, nil)
			require.NotNil(t, mockTray.Menu)

			app.refresh()

			assert.Equal(t, tt.want, app.TrayStatusItem.Label)
			assert.Equal(t, tt.want, mockTray.Menu.Items[0].Label)
		})
	}
}

func TestTrayMenu_Labels(t *testing.T) {
	app, _, mockTray := setupTestApp(t, beforeUnlock, nil)

	assert.Equal(t, "Refresh", app.TrayRefreshItem.Label)
	assert.Equal(t, "Upcoming...", app.TrayUpcomingItem.Label)
	assert.Len(t, mockTray.Menu.Items, 5)
}

// -----------------------------------------------------------------------------
// Synchronization Tests
// -----------------------------------------------------------------------------

func TestPerformSync_LocalRecipient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "juliet.vcf")
	require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Juliet\r\nEND:VCARD\r\n"), 0600))

	settings := config.DefaultSettings()
	settings.Recipient = config.RecipientSettings{Mode: config.RecipientModeLocal, Path: path}

	app, _, _ := setupTestApp(t, onTheDay, settings)

	res, err := app.performSync(false)
	require.NoError(t, err)
	assert.Equal(t, "Juliet", res.Recipient.Name)
	assert.Equal(t, engine.Unlocked, res.Decision.State)
	assert.Equal(t, "Juliet", app.currentRecipient().Name)

	code, body := feedStatus(t, app.Server)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Valentine's Day with Juliet")
}

func TestPerformSync_WebRecipient(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Recipient = config.RecipientSettings{Mode: config.RecipientModeWeb, URL: "https://dav.example.com/romeo.vcf"}

	app, fetcher, _ := setupTestApp(t, beforeUnlock, settings)
	fetcher.On("Fetch", mock.Anything, "https://dav.example.com/romeo.vcf", "", "").
		Return(io.NopCloser(strings.NewReader("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Romeo\r\nEND:VCARD\r\n")), nil)

	res, err := app.performSync(false)
	require.NoError(t, err)
	assert.Equal(t, "Romeo", res.Recipient.Name)
	assert.Equal(t, engine.Locked, res.Decision.State)
	fetcher.AssertExpectations(t)
}

func TestPerformSync_FailureKeepsPreviousFeed(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Recipient = config.RecipientSettings{Mode: config.RecipientModeWeb, URL: "https://dav.example.com/romeo.vcf"}

	app, fetcher, _ := setupTestApp(t, beforeUnlock, settings)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	_, err := app.performSync(false)
	require.Error(t, err)

	code, _ := feedStatus(t, app.Server)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// A successful sync followed by a failure leaves the first feed in place.
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(io.NopCloser(strings.NewReader("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Romeo\r\nEND:VCARD\r\n")), nil).Once()
	_, err = app.performSync(false)
	require.NoError(t, err)

	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout")).Once()
	_, err = app.performSync(true)
	require.Error(t, err)

	code, body := feedStatus(t, app.Server)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Valentine's Day with Romeo")
	assert.Equal(t, "Romeo", app.currentRecipient().Name)
}

func TestPerformSync_SettingsErrorKeepsRecipient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "juliet.vcf")
	require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Juliet\r\nEND:VCARD\r\n"), 0600))

	settings := config.DefaultSettings()
	settings.Recipient = config.RecipientSettings{Mode: config.RecipientModeLocal, Path: path}

	app, _, _ := setupTestApp(t, onTheDay, settings)
	_, err := app.performSync(false)
	require.NoError(t, err)

	// The file is caught mid-edit and no longer parses.
	app.LoadSettings = func() (*config.Settings, error) {
		return nil, errors.New("yaml: line 2: did not find expected key")
	}

	_, err = app.performSync(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSettingsRead)
	assert.Equal(t, "Juliet", app.currentRecipient().Name)

	code, body := feedStatus(t, app.Server)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Valentine's Day with Juliet")

	rec := httptest.NewRecorder()
	app.Server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, config.RouteCountdown, nil))
	assert.Contains(t, rec.Body.String(), "Will you be my Valentine, Juliet?")
}

func TestPerformSync_NoSettingsSourceUsesDefaults(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)
	app.LoadSettings = nil

	res, err := app.performSync(false)
	require.NoError(t, err)
	assert.Equal(t, engine.Recipient{}, res.Recipient)
}

func TestRequestSync_Coalesces(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)

	app.RequestSync()
	app.RequestSync()

	assert.Len(t, app.configChan, 1)
	assert.Equal(t, config.SignalRefresh, <-app.configChan)
}

func TestSummaryFormatter(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)
	formatter := app.buildSummaryFormatter()

	assert.Equal(t, "Valentine's Day", formatter(engine.Recipient{}))
	assert.Equal(t, "Valentine's Day with Juliet", formatter(engine.Recipient{Name: "Juliet"}))

	app.Localizer = nil
	assert.Equal(t, config.FallbackSummary, formatter(engine.Recipient{}))
}

// -----------------------------------------------------------------------------
// Upcoming Window Tests
// -----------------------------------------------------------------------------

func TestUpcomingRows(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)

	rows, err := app.upcomingRows()
	require.NoError(t, err)
	require.Len(t, rows, config.UpcomingCount)

	assert.Equal(t, "Friday, 14 February 2025 (in 4 days)", rows[0])
	assert.Equal(t, "Saturday, 14 February 2026 (in 369 days)", rows[1])
}

func TestUpcomingRows_OnTheDay(t *testing.T) {
	app, _, _ := setupTestApp(t, onTheDay, nil)

	rows, err := app.upcomingRows()
	require.NoError(t, err)
	assert.Equal(t, "Friday, 14 February 2025 (in 0 days)", rows[0])
}

func TestShowUpcomingWindow_Singleton(t *testing.T) {
	app, _, _ := setupTestApp(t, beforeUnlock, nil)

	app.ShowUpcomingWindow()
	first := app.upcomingWindow
	require.NotNil(t, first)

	app.ShowUpcomingWindow()
	assert.Same(t, first, app.upcomingWindow)

	first.Close()
	assert.Nil(t, app.upcomingWindow)
}
