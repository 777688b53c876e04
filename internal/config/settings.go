package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecipientSettings describes where the optional recipient vCard is read from.
type RecipientSettings struct {
	// Mode is one of RecipientModeNone, RecipientModeLocal or RecipientModeWeb.
	Mode string `yaml:"mode"`
	// Path is the local .vcf file used in local mode.
	Path string `yaml:"path"`
	// URL is the CardDAV/WebDAV resource used in web mode.
	URL string `yaml:"url"`
	// User is the HTTP Basic Auth user. The password lives in the OS keyring.
	User string `yaml:"user"`
}

// Settings is the user-editable runtime configuration persisted as YAML.
type Settings struct {
	// Timezone is the IANA reference zone defining calendar-day boundaries.
	Timezone string `yaml:"timezone"`

	// Port is the localhost port of the web page and calendar feed.
	Port string `yaml:"port"`

	// FeedYears is the number of Feb 14 occurrences published in the feed.
	FeedYears int `yaml:"feed_years"`

	// Reminder is an ISO-8601 duration used as the VALARM trigger ("" disables it).
	Reminder string `yaml:"reminder"`

	Recipient RecipientSettings `yaml:"recipient"`

	// BasicAuthUser enables HTTP Basic Auth on the web page when set.
	// The password is read from the OS keyring.
	BasicAuthUser string `yaml:"basic_auth_user"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Timezone:  DefaultTimezone,
		Port:      DefaultPort,
		FeedYears: DefaultFeedYears,
		Reminder:  DefaultReminder,
		Recipient: RecipientSettings{Mode: RecipientModeNone},
	}
}

// Normalize fills in missing or invalid values with defaults so that
// partially-filled files still behave correctly.
func (s *Settings) Normalize() {
	s.Timezone = strings.TrimSpace(s.Timezone)
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}

	if ValidatePort(s.Port) != nil {
		s.Port = DefaultPort
	}

	switch {
	case s.FeedYears <= 0:
		s.FeedYears = DefaultFeedYears
	case s.FeedYears > MaxFeedYears:
		s.FeedYears = MaxFeedYears
	}

	s.Reminder = strings.TrimSpace(s.Reminder)
	if s.Reminder != "" &&
		!strings.HasPrefix(s.Reminder, ISOPeriodPrefix) &&
		!strings.HasPrefix(s.Reminder, ISONegativePrefix) {
		s.Reminder = ""
	}

	switch s.Recipient.Mode {
	case RecipientModeLocal, RecipientModeWeb, RecipientModeNone:
	default:
		s.Recipient.Mode = RecipientModeNone
	}
}

// ValidatePort checks that port is a number within MinPort..MaxPort.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("server port must be a number: %w", err)
	}
	if n < MinPort || n > MaxPort {
		return fmt.Errorf("server port must be between %d and %d", MinPort, MaxPort)
	}
	return nil
}

// DefaultSettingsPath returns <UserConfigDir>/<AppID>/config.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

// LoadSettings reads the YAML settings file at path.
// On first run the file does not exist: the defaults are written with 0600
// permissions and returned. If that write fails the defaults are still
// returned together with the error.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPathEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := DefaultSettings()
			if err := SaveSettings(path, s); err != nil {
				return s, err
			}
			slog.Info(MsgSettingsCreated, LogKeyComponent, CompSettings, LogKeyFile, path)
			return s, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	s.Normalize()
	return s, nil
}

// SaveSettings writes s to path atomically (temp file + rename).
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPathEmpty)
	}
	if s == nil {
		return errors.New(ErrSettingsNil)
	}
	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".go-valentine-settings-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}
