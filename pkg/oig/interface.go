package oig

import (
	"context"
)

// Client is the capability set the bridge needs from the OIG Cloud API.
// Implementations may fail any call with an error on transport problems;
// callers treat an explicit false result and an error identically where a
// boolean outcome is returned.
type Client interface {
	// Authenticate logs in and establishes a session. It returns false when
	// the credentials were rejected by the upstream service.
	Authenticate(ctx context.Context) (bool, error)

	// GetStats returns the current snapshot keyed by device (box) id.
	GetStats(ctx context.Context) (map[string]any, error)

	// GetExtendedStats returns historical data for the named report between
	// the given dates (YYYY-MM-DD).
	GetExtendedStats(ctx context.Context, name, startDate, endDate string) (map[string]any, error)

	// GetNotifications returns system alerts, warnings and messages.
	GetNotifications(ctx context.Context) ([]any, error)

	// SetBoxMode sets the operating mode of the control box (e.g. "Home 1").
	SetBoxMode(ctx context.Context, mode string) (bool, error)

	// SetGridDelivery toggles grid delivery (1 enabled, 0 disabled).
	SetGridDelivery(ctx context.Context, mode int) (bool, error)

	// SessionID returns the current upstream session identifier, if any.
	SessionID() string

	// BoxID returns the device id learned from the last stats payload, if any.
	BoxID() string
}

// Dialer constructs an unauthenticated client for the given credentials.
type Dialer func(email, password string) Client
