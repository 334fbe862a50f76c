// Package transform converts the raw JSON returned by the OIG Cloud API
// into a compact, self-describing schema of unit-tagged data points.
package transform

import (
	"math"
	"sort"
	"strconv"

	"github.com/oigbridge/oigbridge/pkg/types"
)

// toFloat coerces a raw JSON value to a float64. Numeric strings count;
// anything else reports false.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt coerces a raw JSON value to an int the way percentages are read:
// floats truncate, strings must be plain integers.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// wattsToKW reads a watt value and converts it to kW, defaulting to 0 when
// the value is missing or not numeric.
func wattsToKW(v any) float64 {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return f / 1000.0
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func kilowattPoint(kw float64, description string) types.DataPoint {
	return types.DataPoint{
		Value:       round3(kw),
		Unit:        "kW",
		Description: description,
	}
}

func percentPoint(v any, description string) types.DataPoint {
	i, ok := toInt(v)
	if !ok {
		i = 0
	}
	return types.DataPoint{
		Value:       i,
		Unit:        "%",
		Description: description,
	}
}

func transformSolar(actual map[string]any) types.SolarProduction {
	p1 := wattsToKW(actual["fv_p1"])
	p2 := wattsToKW(actual["fv_p2"])

	return types.SolarProduction{
		String1: kilowattPoint(p1, "Current power production from solar panel string 1."),
		String2: kilowattPoint(p2, "Current power production from solar panel string 2."),
		Total:   kilowattPoint(p1+p2, "Total current power production from all solar panels."),
	}
}

func transformBattery(actual map[string]any) types.Battery {
	return types.Battery{
		StateOfCharge: percentPoint(actual["bat_c"], "Current charge level of the battery."),
		PowerFlow: kilowattPoint(wattsToKW(actual["bat_p"]),
			"Current battery power flow. Positive values indicate charging, negative values indicate discharging."),
	}
}

func transformHousehold(actual map[string]any) types.Household {
	return types.Household{
		TotalLoad: kilowattPoint(wattsToKW(actual["aco_p"]),
			"Total current electricity consumption of the household."),
	}
}

// Stats transforms a raw get-stats payload into the normalized snapshot
// schema. It never fails: empty or absent input yields an empty mapping
// and malformed numeric fields degrade to zero-valued data points.
func Stats(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	// the payload is keyed by device id; use the first device object
	// (keys are sorted so multi-device payloads transform deterministically)
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	device, _ := raw[ids[0]].(map[string]any)
	if len(device) == 0 {
		return map[string]any{}
	}

	actual, _ := device["actual"].(map[string]any)

	return map[string]any{
		"solar_production": transformSolar(actual),
		"battery":          transformBattery(actual),
		"household":        transformHousehold(actual),
	}
}
