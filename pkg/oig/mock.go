package oig

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Mock is a fixture-backed client used for offline testing. It never makes
// network calls: authentication always succeeds, GetStats serves a JSON
// fixture shaped like a real snapshot and write actions accept any value.
type Mock struct {
	fixturePath string

	mu    sync.Mutex
	boxID string
}

// NewMock returns a mock client serving the given fixture file.
func NewMock(fixturePath string) *Mock {
	return &Mock{fixturePath: fixturePath}
}

// SessionID returns a fixed placeholder session id.
func (m *Mock) SessionID() string {
	return "mock-session"
}

// BoxID returns the device id learned from the fixture, if any.
func (m *Mock) BoxID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boxID
}

// Authenticate always succeeds.
func (m *Mock) Authenticate(ctx context.Context) (bool, error) {
	return true, nil
}

// GetStats parses and returns the fixture payload. A missing fixture file
// yields an empty snapshot rather than an error.
func (m *Mock) GetStats(ctx context.Context) (map[string]any, error) {
	data, err := os.ReadFile(m.fixturePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var res map[string]any
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.boxID == "" {
		for id := range res {
			m.boxID = id
			break
		}
	}
	m.mu.Unlock()

	return res, nil
}

// GetExtendedStats returns an empty result.
func (m *Mock) GetExtendedStats(ctx context.Context, name, startDate, endDate string) (map[string]any, error) {
	return map[string]any{}, nil
}

// GetNotifications returns no notifications.
func (m *Mock) GetNotifications(ctx context.Context) ([]any, error) {
	return []any{}, nil
}

// SetBoxMode accepts the value and pretends it succeeded.
func (m *Mock) SetBoxMode(ctx context.Context, mode string) (bool, error) {
	return true, nil
}

// SetGridDelivery accepts the flag and pretends it succeeded.
func (m *Mock) SetGridDelivery(ctx context.Context, mode int) (bool, error) {
	return true, nil
}
