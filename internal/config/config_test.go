package config_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-valentine/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalVersion", config.ICalVersion},
		{"ICalProdid", config.ICalProdid},
		{"DefaultTimezone", config.DefaultTimezone},
		{"FallbackCountdown", config.FallbackCountdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

func TestTargetDate_IsValentinesDay(t *testing.T) {
	assert.Equal(t, time.February, config.TargetMonth)
	assert.Equal(t, 14, config.TargetDay)
}

func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-Valentine/"), "UserAgent must start with AppName/")
}

func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second)
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second)
	assert.Equal(t, time.Second, config.RenderInterval, "Countdown must tick once per second")

	assert.Greater(t, config.MaxHTTPResponseSize, 0)
	assert.Less(t, int64(config.MaxHTTPResponseSize), int64(64*1024*1024), "A single vCard never needs more than a few MB")
}

func TestRoutes_AreDistinctAbsolutePaths(t *testing.T) {
	routes := []string{config.RouteRoot, config.RouteCountdown, config.RouteFeed, config.RouteHealth}
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		assert.True(t, strings.HasPrefix(r, "/"), "route %q must be absolute", r)
		assert.False(t, seen[r], "route %q declared twice", r)
		seen[r] = true
	}
	assert.True(t, strings.HasSuffix(config.RouteFeed, ".ics"), "calendar clients expect an .ics path")
}

func TestFallbackFormats(t *testing.T) {
	assert.Equal(t, "Valentine's Day unlocks in: ❤️ 1d 2h 3m 4s", fmt.Sprintf(config.FallbackCountdown, 1, 2, 3, 4))
	assert.Equal(t, "Will you be my Valentine, Juliet? 💖", fmt.Sprintf(config.FallbackCardNamed, "Juliet"))
	assert.True(t, strings.HasPrefix(config.DefaultReminder, config.ISONegativePrefix), "default reminder fires before the day")
}
