package engine

import (
	"errors"

	"github.com/tartampluch/go-valentine/internal/config"
)

var (
	// ErrInvalidInput is returned for unset instants, a nil reference zone or
	// a target that precedes "now".
	ErrInvalidInput = errors.New(config.ErrInvalidInput)

	// ErrTimezoneUnavailable is returned when the reference zone cannot be
	// loaded. LoadReference still hands back UTC alongside it.
	ErrTimezoneUnavailable = errors.New(config.ErrTimezoneUnavailable)
)
