package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	ts := newTestServer(t, authedClient())

	resp, err := ts.Client().Get(ts.URL + "/mcp.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var m struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"input_schema"`
		} `json:"tools"`
		AuthSchema map[string]any `json:"auth_schema"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))

	names := make([]string, 0, len(m.Tools))
	for _, tool := range m.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "%s needs a description", tool.Name)
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.Equal(t, []string{
		"get_basic_data",
		"get_extended_data",
		"get_notifications",
		"set_box_mode",
		"set_grid_delivery",
	}, names)

	assert.NotEmpty(t, m.AuthSchema)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, authedClient())

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
	assert.Equal(t, "oigbridge", resp.Header.Get("Server"))
}
