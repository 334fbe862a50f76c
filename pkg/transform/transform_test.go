package transform

import (
	"testing"

	"github.com/oigbridge/oigbridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	t.Run("TypicalSnapshot", func(t *testing.T) {
		raw := map[string]any{
			"2205XYZ": map[string]any{
				"actual": map[string]any{
					"fv_p1": 3000.0,
					"fv_p2": 2500.0,
					"bat_c": 89.0,
					"bat_p": -467.0,
					"aco_p": 1234.0,
				},
			},
		}

		out := Stats(raw)

		solar, ok := out["solar_production"].(types.SolarProduction)
		require.True(t, ok)
		assert.Equal(t, 3.0, solar.String1.Value)
		assert.Equal(t, 2.5, solar.String2.Value)
		assert.Equal(t, 5.5, solar.Total.Value)
		assert.Equal(t, "kW", solar.Total.Unit)

		battery, ok := out["battery"].(types.Battery)
		require.True(t, ok)
		assert.Equal(t, 89, battery.StateOfCharge.Value, "state of charge is an integer percent")
		assert.Equal(t, "%", battery.StateOfCharge.Unit)
		assert.Equal(t, -0.467, battery.PowerFlow.Value, "negative power flow means discharging")

		household, ok := out["household"].(types.Household)
		require.True(t, ok)
		assert.Equal(t, 1.234, household.TotalLoad.Value)
	})

	t.Run("NumericStrings", func(t *testing.T) {
		raw := map[string]any{
			"box1": map[string]any{
				"actual": map[string]any{
					"fv_p1": "1500",
					"fv_p2": "0",
					"bat_c": "42",
					"bat_p": "250.5",
					"aco_p": "999",
				},
			},
		}

		out := Stats(raw)
		solar := out["solar_production"].(types.SolarProduction)
		assert.Equal(t, 1.5, solar.String1.Value)
		battery := out["battery"].(types.Battery)
		assert.Equal(t, 42, battery.StateOfCharge.Value)
		assert.Equal(t, 0.251, battery.PowerFlow.Value, "rounded to three decimals")
	})

	t.Run("EmptyInput", func(t *testing.T) {
		assert.Equal(t, map[string]any{}, Stats(nil))
		assert.Equal(t, map[string]any{}, Stats(map[string]any{}))
	})

	t.Run("EmptyDevice", func(t *testing.T) {
		assert.Equal(t, map[string]any{}, Stats(map[string]any{"box1": map[string]any{}}))
		assert.Equal(t, map[string]any{}, Stats(map[string]any{"box1": "not a map"}))
	})

	t.Run("MalformedFieldsDegradeToZero", func(t *testing.T) {
		raw := map[string]any{
			"box1": map[string]any{
				"actual": map[string]any{
					"fv_p1": "garbage",
					"fv_p2": nil,
					"bat_c": []any{1, 2},
					"bat_p": map[string]any{},
					// aco_p absent entirely
				},
			},
		}

		assert.NotPanics(t, func() {
			out := Stats(raw)
			solar := out["solar_production"].(types.SolarProduction)
			assert.Equal(t, 0.0, solar.String1.Value)
			assert.Equal(t, 0.0, solar.Total.Value)
			battery := out["battery"].(types.Battery)
			assert.Equal(t, 0, battery.StateOfCharge.Value)
			assert.Equal(t, 0.0, battery.PowerFlow.Value)
			household := out["household"].(types.Household)
			assert.Equal(t, 0.0, household.TotalLoad.Value)
		})
	})

	t.Run("MissingActualSection", func(t *testing.T) {
		raw := map[string]any{
			"box1": map[string]any{"settings": map[string]any{"mode": 1}},
		}
		out := Stats(raw)
		// sections exist with zero values, the call never fails
		require.Contains(t, out, "solar_production")
		solar := out["solar_production"].(types.SolarProduction)
		assert.Equal(t, 0.0, solar.Total.Value)
	})

	t.Run("FirstDeviceDeterministic", func(t *testing.T) {
		raw := map[string]any{
			"b-second": map[string]any{
				"actual": map[string]any{"fv_p1": 9000.0},
			},
			"a-first": map[string]any{
				"actual": map[string]any{"fv_p1": 1000.0},
			},
		}
		out := Stats(raw)
		solar := out["solar_production"].(types.SolarProduction)
		assert.Equal(t, 1.0, solar.String1.Value, "lowest device id wins")
	})
}
