package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Valentine/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Valentine"
	AppID             = "com.github.tartampluch.go-valentine"
	AppURL            = "https://github.com/tartampluch/go-valentine"
	KeyringService    = "com.github.tartampluch.go-valentine"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "config.yaml"
	IconFile          = "Icon.png"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and the settings file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagHeadless     = "headless"
	FlagConfig       = "config"
	FlagSetPassword  = "set-password"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescHeadless = "Run the web server and scheduler without the desktop UI"
	FlagDescConfig   = "Path to the YAML settings file (default: user config dir)"
	FlagDescSetPass  = "Read a password from stdin and store it in the OS keyring for the given user"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
	MsgPasswordSaved = "Password stored in keyring for %q\n"
)

// -----------------------------------------------------------------------------
// Target Event
// -----------------------------------------------------------------------------

const (
	// TargetMonth and TargetDay define the fixed annual date counted down to.
	TargetMonth = time.February
	TargetDay   = 14

	// DefaultTimezone is the reference zone defining calendar-day boundaries.
	DefaultTimezone = "Europe/London"

	// LocalZoneName is rejected as a reference zone: the countdown must not
	// depend on the host's local timezone.
	LocalZoneName = "Local"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	RecipientModeNone  = "none"
	RecipientModeLocal = "local"
	RecipientModeWeb   = "web"

	DefaultPort      = "18081"
	DefaultFeedYears = 3
	MaxFeedYears     = 50
	DefaultReminder  = "-P1D"

	// UpcomingCount is the number of occurrences listed in the "Upcoming" window.
	UpcomingCount = 5

	// RenderInterval is how often the presentation layers re-evaluate the countdown.
	RenderInterval = 1 * time.Second

	// DailyRefreshSpec fires at local midnight in the reference zone, which is
	// also the instant the countdown unlocks.
	DailyRefreshSpec = "0 0 * * *"
	JobDailyRefresh  = "daily_refresh"

	// Settings file changes are coalesced to at most one reload per interval.
	SettingsDebounce = 500 * time.Millisecond
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Valentine//Engine//EN"
	ICalCalName   = "Valentine's Day"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "govalentine"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropTransp      = "TRANSP"

	ICalTransparent = "TRANSPARENT"

	DefaultICalRefresh = 24 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	FormatUIDInput = "%s/%d/%s"
	FormatUID      = "%s@%s"

	// DateFormatDisplay is used in logs and the "Upcoming" list.
	DateFormatDisplay = "2006-01-02"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 1 * 1024 * 1024 // 1MB, a single contact card
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
	AuthRealm           = "go-valentine"

	RouteRoot      = "/"
	RouteCountdown = "/api/countdown"
	RouteFeed      = "/valentine.ics"
	RouteHealth    = "/health"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAccept          = "Accept"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextHTML        = "text/html; charset=utf-8"
	MimeJSON            = "application/json"
	MimeVCardAccept     = "text/vcard, text/x-vcard;q=0.9, */*;q=0.1"
	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"
	CacheControlNoStore = "no-store"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`

	HealthOK = "ok"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrInvalidInput        = "invalid input"
	ErrTimezoneUnavailable = "timezone unavailable"
	ErrZeroInstant         = "instant is not set"
	ErrNilLocation         = "reference location is nil"
	ErrTargetPassed        = "target precedes current instant"
	ErrLocalZone           = "host local zone is not a valid reference zone"
	ErrOccurrenceCount     = "occurrence count must be positive"
	ErrRRule               = "failed to build yearly rule"
	ErrLocalPathEmpty      = "configuration error: local path is empty"
	ErrWebURLEmpty         = "configuration error: web URL is empty"
	ErrFetcherMissing      = "internal error: network fetcher is not initialized"
	ErrModeUnsupport       = "configuration error: unsupported recipient mode"
	ErrCountdownMissing    = "internal error: countdown is not initialized"
	ErrServerStartup       = "server startup failed"
	ErrServerShutdown      = "server shutdown failed"
	ErrPortRequired        = "server port is required"
	ErrInvalidURL          = "invalid URL structure"
	ErrProtocol            = "unsupported protocol scheme (http/https only)"
	ErrVCardParse          = "failed to parse vCard stream"
	ErrFetchNetwork        = "network error during fetch"
	ErrFetchStatus         = "server returned unexpected status"
	ErrCardTooLarge        = "recipient card exceeds size limit"
	ErrICalEncode          = "failed to encode iCalendar data"
	ErrLogFile             = "failed to open log file"
	ErrCacheDir            = "could not determine user cache dir"
	ErrConfigDir           = "could not determine user config dir"
	ErrCreateDir           = "could not create app directory"
	ErrAppFailed           = "application failed unexpectedly"
	ErrWriteResp           = "failed to write response body"
	ErrRenderPage          = "failed to render page"
	ErrLocalesAccess       = "failed to access embedded locales"
	ErrLocaleLoad          = "failed to load locale file"
	ErrTrayNotSupported    = "system tray not supported on this platform/driver"
	ErrSettingsPathEmpty   = "settings path is empty"
	ErrSettingsNil         = "settings are nil"
	ErrSettingsRead        = "failed to read settings"
	ErrSettingsParse       = "failed to parse settings"
	ErrSettingsWrite       = "failed to write settings"
	ErrWatcher             = "failed to watch settings file"
	ErrScheduler           = "failed to register scheduled job"
	ErrSecretRead          = "failed to read password from stdin"
	ErrSecretStore         = "failed to store password in keyring"
	ErrSyncFailed          = "synchronization failed"
	ErrLocNotInit          = "localizer not initialized"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackCountdown    = "Valentine's Day unlocks in: ❤️ %dd %dh %dm %ds"
	FallbackCard         = "Will you be my Valentine? 💖"
	FallbackCardNamed    = "Will you be my Valentine, %s? 💖"
	FallbackSummary      = "Valentine's Day"
	FallbackSummaryNamed = "Valentine's Day with %s"
	FallbackTrayError    = "Go Valentine: Sync Error"
	FallbackTrayLocked   = "Go Valentine (%d days left)"
	FallbackTrayUnlocked = "Go Valentine: Happy Valentine's Day!"
	FallbackTrayLabel    = "Go Valentine"
	FallbackWinTitle     = "Valentine's Day"

	TitleStartupError = "Startup Error"
	TitleSyncError    = "Sync Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgSyncStarted     = "Synchronization started..."
	MsgSyncReq         = "Sync requested"
	MsgSyncDone        = "Synchronization finished"
	MsgWorkerStart     = "Background worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgSettingsReload  = "Settings file changed, reloading"
	MsgSettingsCreated = "Default settings file created"
	MsgSettingsKept    = "Settings reload failed, keeping last good settings"
	MsgRestartRequired = "Setting change requires a restart"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgTZFallback      = "Reference timezone unavailable, falling back to UTC"
	MsgFeedSuccess     = "Calendar feed generated"
	MsgRecipientLoaded = "Recipient card loaded"
	MsgRecipientNone   = "Recipient card has no usable name"
	MsgAppStarting     = "Starting application"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Calendar cache updated"
	MsgSchedulerStart  = "Scheduler started"
	MsgSchedulerStop   = "Scheduler stopped"
	MsgNextRefresh     = "Next daily refresh scheduled"
	MsgJobRun          = "Scheduled job running"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgUnlocked        = "Valentine's Day unlocked"
	MsgWatcherEvent    = "Settings watcher event"
	MsgWatcherError    = "Settings watcher error"
	MsgOpenUpcoming    = "Opening upcoming occurrences window"
	MsgFetchStatus     = "Card server returned error status"
	MsgFetchOK         = "Recipient card downloading"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle         = "win_title"
	TKeyWinUpcoming      = "win_upcoming_title"
	TKeyMenuOpen         = "menu_open"
	TKeyMenuUpcoming     = "menu_upcoming"
	TKeyMenuRefresh      = "menu_refresh"
	TKeyCountdown        = "countdown_text"     // Requires Days, Hours, Minutes, Seconds
	TKeyCard             = "card_title"         // No arguments
	TKeyCardNamed        = "card_title_named"   // Requires Name
	TKeyCardSubtitle     = "card_subtitle"      // No arguments
	TKeyTrayLocked       = "tray_status_locked" // Requires Count (plural)
	TKeyTrayUnlocked     = "tray_status_unlocked"
	TKeyNotifStart       = "notif_sync_start"
	TKeyNotifSuccess     = "notif_sync_success"
	TKeyNotifError       = "notif_err_sync"
	TKeyNotifUnlocked    = "notif_unlocked"
	TKeyEvtSummary       = "event_summary"       // No arguments
	TKeyEvtSummaryNamed  = "event_summary_named" // Requires Name
	TKeyUpcomingRow      = "upcoming_row"        // Requires Date, Count (plural)
	TKeyFormatDateLong   = "format_date_long"    // Go layout string
	TKeyUpcomingSubtitle = "upcoming_subtitle"   // Requires Zone
)

// DefaultLanguage is the single locale shipped with the application.
const DefaultLanguage = "en"

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	MainWinWidth      = 460
	MainWinHeight     = 220
	UpcomingWinWidth  = 420
	UpcomingWinHeight = 260
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyUser      = "user"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDuration  = "duration_ms"
	LogKeyTimezone  = "timezone"
	LogKeyTarget    = "target"
	LogKeyNext      = "next"
	LogKeyState     = "state"
	LogKeyJob       = "job"
	LogKeySpec      = "spec"
	LogKeyEvents    = "events"
	LogKeyOp        = "op"
	LogKeySetting   = "setting"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI        = "ui"
	CompEngine    = "engine"
	CompServer    = "server"
	CompFetcher   = "fetcher"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
	CompScheduler = "scheduler"
	CompSettings  = "settings"
)

// -----------------------------------------------------------------------------
// Reload Signals
// -----------------------------------------------------------------------------

// SignalSettings is sent on the reload channel when the settings file changes.
// SignalRefresh asks for a resync without a settings change (daily job, tray).
const (
	SignalSettings = "settings"
	SignalRefresh  = "refresh"
)
