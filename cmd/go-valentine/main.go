package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	_ "time/tzdata"

	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/tartampluch/go-valentine/internal/engine"
	"github.com/tartampluch/go-valentine/internal/scheduler"
	"github.com/tartampluch/go-valentine/internal/server"
	"github.com/tartampluch/go-valentine/internal/ui"
)

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
// os.Exit() does not run defers, so we must return an integer code first.
func main() {
	os.Exit(runMain())
}

// options holds the parsed command line.
type options struct {
	headless     bool
	settingsPath string
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	headless := flag.Bool(config.FlagHeadless, false, config.FlagDescHeadless)
	settingsPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	passwordUser := flag.String(config.FlagSetPassword, "", config.FlagDescSetPass)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	if *passwordUser != "" {
		if err := storePassword(os.Stdin, *passwordUser); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return config.ExitCodeError
		}
		fmt.Printf(config.MsgPasswordSaved, *passwordUser)
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	opts := options{headless: *headless, settingsPath: *settingsPath}
	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run loads settings, wires dependencies, and starts either the desktop UI
// or the headless services.
func run(ctx context.Context, opts options) error {
	path := opts.settingsPath
	if path == "" {
		p, err := config.DefaultSettingsPath()
		if err != nil {
			return err
		}
		path = p
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		if settings == nil {
			return err
		}
		// First run with an unwritable config dir: keep going on defaults.
		slog.Warn(config.ErrSettingsWrite,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyFile, path,
			config.LogKeyError, err,
		)
	}

	loc, err := engine.LoadReference(settings.Timezone)
	if err != nil {
		slog.Warn(config.MsgTZFallback,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyTimezone, settings.Timezone,
			config.LogKeyError, err,
		)
	}

	// Dependency Injection.
	countdown := engine.NewCountdown(engine.RealClock{}, loc)
	srv := server.NewCountdownServer(settings.Port, countdown)
	configureAuth(srv, settings.BasicAuthUser)
	fetcher := engine.NewHTTPFetcher()
	sched := scheduler.New(loc)

	// A settings file caught mid-edit falls back to the last good settings.
	reload := config.NewSettingsCache(func() (*config.Settings, error) {
		return config.LoadSettings(path)
	}, settings).Load

	if opts.headless {
		return runHeadless(ctx, headlessDeps{
			server:       srv,
			countdown:    countdown,
			fetcher:      fetcher,
			scheduler:    sched,
			loadSettings: reload,
			settingsPath: path,
		})
	}

	a := app.NewWithID(config.AppID)
	gui := ui.NewValentineApp(a, ctx, srv, countdown, fetcher, reload)

	if err := sched.AddDailyRefresh(gui.RequestSync); err != nil {
		return err
	}
	go sched.Start(ctx)
	go watchSettings(ctx, path, gui.Signals())

	// Lifecycle Bridge:
	// Watch for context cancellation to quit the UI gracefully.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Start the Application (blocks until the app quits).
	gui.Run()

	return nil
}

// configureAuth enables HTTP Basic Auth when a user is configured and its
// password is present in the keyring.
func configureAuth(srv *server.CountdownServer, user string) {
	if user == "" {
		return
	}
	pass, err := config.LookupSecret(user)
	if err != nil || pass == "" {
		slog.Warn(config.MsgPassFail,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyUser, user,
			config.LogKeyError, err,
		)
		return
	}
	srv.SetBasicAuth(user, pass)
}

// watchSettings forwards settings file changes until ctx is cancelled.
func watchSettings(ctx context.Context, path string, changed chan<- string) {
	if err := config.WatchSettings(ctx, path, changed); err != nil {
		slog.Error(config.ErrWatcher,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
	}
}

// storePassword reads a single line from r and saves it in the keyring.
func storePassword(r io.Reader, user string) error {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%s: %w", config.ErrSecretRead, err)
		}
		return errors.New(config.ErrSecretRead)
	}
	secret := strings.TrimRight(scanner.Text(), "\r\n")
	if secret == "" {
		return errors.New(config.ErrSecretRead)
	}
	return config.StoreSecret(user, secret)
}

// printVersion outputs the build information to stdout and exits.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts)))

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
