package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-valentine/internal/config"
)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Recipient       RecipientSource
	FeedYears       int    // Number of occurrences published in the feed
	ReminderTrigger string // ISO8601 duration string (e.g., "-P1D")
}

// SyncResult is the output of one synchronization.
type SyncResult struct {
	Feed      []byte
	Recipient Recipient
	Decision  RenderDecision
}

// Generator refreshes everything that does not change every second: the
// recipient card and the calendar feed.
type Generator struct {
	Countdown *Countdown
	Fetcher   CardFetcher

	// FormatSummary lets the UI inject a localized event summary.
	FormatSummary func(recipient Recipient) string
}

// RunSync loads the recipient, evaluates the countdown and encodes the feed.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (SyncResult, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Recipient.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	if g.Countdown == nil {
		return SyncResult{}, errors.New(config.ErrCountdownMissing)
	}

	recipient, err := LoadRecipient(ctx, g.Fetcher, cfg.Recipient)
	if err != nil {
		return SyncResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SyncResult{}, err
	}
	if recipient.Name != "" {
		log.Debug(config.MsgRecipientLoaded, config.LogKeyName, recipient.Name)
	} else if cfg.Recipient.Mode == config.RecipientModeLocal || cfg.Recipient.Mode == config.RecipientModeWeb {
		log.Warn(config.MsgRecipientNone)
	}

	decision, err := g.Countdown.Current()
	if err != nil {
		return SyncResult{}, err
	}

	years := cfg.FeedYears
	if years <= 0 {
		years = config.DefaultFeedYears
	}
	occurrences, err := Occurrences(decision.Occurrence(), years)
	if err != nil {
		return SyncResult{}, err
	}

	feed, err := buildFeed(decision.Now, occurrences, g.summary(recipient), cfg.ReminderTrigger)
	if err != nil {
		return SyncResult{}, err
	}

	log.Info(config.MsgFeedSuccess,
		config.LogKeyEvents, len(occurrences),
		config.LogKeyTarget, decision.Target.Format(config.DateFormatDisplay),
		config.LogKeyState, decision.State.String(),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return SyncResult{Feed: feed, Recipient: recipient, Decision: decision}, nil
}

func (g *Generator) summary(r Recipient) string {
	if g.FormatSummary != nil {
		if s := g.FormatSummary(r); s != "" {
			return s
		}
	}
	if r.Name == "" {
		return config.FallbackSummary
	}
	return fmt.Sprintf(config.FallbackSummaryNamed, r.Name)
}

// LoadSyncConfig maps persisted settings to a SyncConfig, reading the web
// password from the OS keyring.
func LoadSyncConfig(s *config.Settings) SyncConfig {
	cfg := SyncConfig{
		Recipient: RecipientSource{
			Mode:      s.Recipient.Mode,
			LocalPath: s.Recipient.Path,
			WebURL:    s.Recipient.URL,
			WebUser:   s.Recipient.User,
		},
		FeedYears:       s.FeedYears,
		ReminderTrigger: s.Reminder,
	}

	if cfg.Recipient.Mode == config.RecipientModeWeb && cfg.Recipient.WebUser != "" {
		if p, err := config.LookupSecret(cfg.Recipient.WebUser); err == nil {
			cfg.Recipient.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyUser, cfg.Recipient.WebUser,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompEngine)
		}
	}
	return cfg
}
