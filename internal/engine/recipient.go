package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-valentine/internal/config"
)

// Recipient is the person the celebratory card is addressed to.
// The zero value is an anonymous card.
type Recipient struct {
	Name string
}

// CardText is the celebratory line for r.
func (r Recipient) CardText() string {
	if r.Name == "" {
		return config.FallbackCard
	}
	return fmt.Sprintf(config.FallbackCardNamed, r.Name)
}

// RecipientSource locates the recipient vCard.
type RecipientSource struct {
	Mode      string // config.RecipientModeNone, RecipientModeLocal or RecipientModeWeb
	LocalPath string
	WebURL    string
	WebUser   string
	WebPass   string
}

// LoadRecipient reads the recipient from src. Mode none (or empty) yields
// the anonymous Recipient.
func LoadRecipient(ctx context.Context, fetcher CardFetcher, src RecipientSource) (Recipient, error) {
	var (
		rc  io.ReadCloser
		err error
	)

	switch src.Mode {
	case "", config.RecipientModeNone:
		return Recipient{}, nil
	case config.RecipientModeLocal:
		if src.LocalPath == "" {
			return Recipient{}, errors.New(config.ErrLocalPathEmpty)
		}
		rc, err = os.Open(src.LocalPath)
	case config.RecipientModeWeb:
		if src.WebURL == "" {
			return Recipient{}, errors.New(config.ErrWebURLEmpty)
		}
		if fetcher == nil {
			return Recipient{}, errors.New(config.ErrFetcherMissing)
		}
		rc, err = fetcher.Fetch(ctx, src.WebURL, src.WebUser, src.WebPass)
	default:
		return Recipient{}, fmt.Errorf("%s: %q", config.ErrModeUnsupport, src.Mode)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Recipient{}, ctx.Err()
		}
		return Recipient{}, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = rc.Close() }()

	return parseRecipient(rc)
}

// parseRecipient returns the first card carrying a usable name.
// Name strategy: FN (Formatted) > N (Given + Family).
func parseRecipient(r io.Reader) (Recipient, error) {
	dec := vcard.NewDecoder(r)
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return Recipient{}, nil
		}
		if err != nil {
			return Recipient{}, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
		}

		if fn := strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName)); fn != "" {
			return Recipient{Name: fn}, nil
		}
		if n := card.Name(); n != nil {
			if name := strings.TrimSpace(n.GivenName + " " + n.FamilyName); name != "" {
				return Recipient{Name: name}, nil
			}
		}
	}
}
