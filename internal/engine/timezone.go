package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-valentine/internal/config"
)

// LoadReference resolves the IANA zone that defines calendar-day boundaries.
//
// An empty name selects config.DefaultTimezone. When the zone cannot be
// loaded, or names the host's local zone, UTC is returned together with an
// error wrapping ErrTimezoneUnavailable so the caller can log the fallback.
func LoadReference(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = config.DefaultTimezone
	}
	if name == config.LocalZoneName {
		return time.UTC, fmt.Errorf("%w: %s", ErrTimezoneUnavailable, config.ErrLocalZone)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("%w: %q: %v", ErrTimezoneUnavailable, name, err)
	}
	return loc, nil
}
