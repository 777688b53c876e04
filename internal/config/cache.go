package config

import (
	"errors"
	"log/slog"
	"sync"
)

// SettingsCache reloads settings through a loader and keeps the last good
// result, so that a file caught mid-edit does not reset the app to defaults.
type SettingsCache struct {
	load func() (*Settings, error)

	mu   sync.Mutex
	last *Settings
}

// NewSettingsCache wraps load. initial, when non-nil, is served until the
// first successful reload.
func NewSettingsCache(load func() (*Settings, error), initial *Settings) *SettingsCache {
	c := &SettingsCache{load: load}
	if initial != nil {
		cp := *initial
		c.last = &cp
	}
	return c
}

// Load returns freshly loaded settings, or the last good ones when the
// loader fails. The error is returned only when nothing was ever loaded.
func (c *SettingsCache) Load() (*Settings, error) {
	s, err := c.load()
	if err == nil && s == nil {
		err = errors.New(ErrSettingsNil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.last == nil {
			return nil, err
		}
		slog.Warn(MsgSettingsKept,
			LogKeyComponent, CompSettings,
			LogKeyError, err)
		cp := *c.last
		return &cp, nil
	}

	cp := *s
	c.last = &cp
	return s, nil
}
