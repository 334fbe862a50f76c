package oig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock(t *testing.T) {
	ctx := context.Background()

	t.Run("ServesFixture", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sample-response.json")
		fixture := `{"2206AAA":{"actual":{"fv_p1":1200,"bat_c":75}}}`
		require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

		m := NewMock(path)

		ok, err := m.Authenticate(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "mock-session", m.SessionID())

		stats, err := m.GetStats(ctx)
		require.NoError(t, err)
		assert.Contains(t, stats, "2206AAA")
		assert.Equal(t, "2206AAA", m.BoxID())
	})

	t.Run("MissingFixtureIsEmpty", func(t *testing.T) {
		m := NewMock(filepath.Join(t.TempDir(), "nope.json"))
		stats, err := m.GetStats(ctx)
		require.NoError(t, err)
		assert.Empty(t, stats)
	})

	t.Run("WritesAlwaysSucceed", func(t *testing.T) {
		m := NewMock("")
		ok, err := m.SetBoxMode(ctx, "Home 2")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = m.SetGridDelivery(ctx, 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
