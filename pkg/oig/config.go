package oig

import (
	"github.com/levenlabs/go-lflag"
)

// Factory hands out upstream clients based on flags. When mock mode is
// enabled it also exposes a single fixture-backed client that callers can
// use to bypass real authentication entirely.
type Factory struct {
	dial Dialer
	mock Client
}

// Configured sets up the client factory based on flags.
func Configured() *Factory {
	baseURL := lflag.String("oig-base-url", defaultBaseURL, "Base URL of the OIG Cloud API")
	mockMode := lflag.Bool("oig-mock", false, "Serve a fixture-backed mock client instead of contacting OIG Cloud (offline testing only)")
	fixture := lflag.String("oig-mock-fixture", "sample-response.json", "Path to the snapshot fixture served in mock mode")

	f := &Factory{}

	lflag.Do(func() {
		if *mockMode {
			f.mock = NewMock(*fixture)
		}
		base := *baseURL
		f.dial = func(email, password string) Client {
			return NewCloud(base, email, password)
		}
	})

	return f
}

// Dialer returns the production client constructor.
func (f *Factory) Dialer() Dialer {
	return f.dial
}

// Mock returns the offline mock client, or nil when mock mode is disabled.
func (f *Factory) Mock() Client {
	return f.mock
}
