package server

import (
	"net/http"
)

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type manifest struct {
	Tools      []toolSpec     `json:"tools"`
	AuthSchema map[string]any `json:"auth_schema"`
}

func emptyObjectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func toolManifest() manifest {
	return manifest{
		Tools: []toolSpec{
			{
				Name:        "get_basic_data",
				Description: "Fetches a real-time snapshot of the PV system (solar production, battery, household load) from the user's OIG Cloud account.",
				InputSchema: emptyObjectSchema(),
			},
			{
				Name:        "get_extended_data",
				Description: "Retrieves historical time-series data for a specified period from OIG Cloud.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"start_date": map[string]any{"type": "string", "description": "Start date (YYYY-MM-DD)"},
						"end_date":   map[string]any{"type": "string", "description": "End date (YYYY-MM-DD)"},
					},
					"required": []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "get_notifications",
				Description: "Fetches system alerts, warnings, and informational messages from OIG Cloud.",
				InputSchema: emptyObjectSchema(),
			},
			{
				Name:        "set_box_mode",
				Description: "Sets the operating mode of the main control box (e.g. 'Home 1', 'Home 2'). Requires the 'X-OIG-Readonly-Access: false' header.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"mode": map[string]any{"type": "string", "description": "Target operating mode"},
					},
					"required": []string{"mode"},
				},
			},
			{
				Name:        "set_grid_delivery",
				Description: "Sets the grid delivery mode (1 for enabled, 0 for disabled). Requires the 'X-OIG-Readonly-Access: false' header.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"mode": map[string]any{"type": "integer", "description": "1 to enable, 0 to disable"},
					},
					"required": []string{"mode"},
				},
			},
		},
		AuthSchema: map[string]any{
			"type": "headers",
			"options": []map[string]any{
				{"header": "Authorization", "format": "Basic <base64 email:password>"},
				{"header": emailHeader, "paired_with": passwordHeader},
			},
		},
	}
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, toolManifest(), http.StatusOK)
}
