package types

// DataPoint is a single normalized measurement: a value annotated with its
// unit and a human-readable description. Percentage values are integers,
// everything else is a float rounded to 3 decimal places.
type DataPoint struct {
	Value       any    `json:"value"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// SolarProduction holds the per-string and total PV output in kW.
type SolarProduction struct {
	String1 DataPoint `json:"string_1"`
	String2 DataPoint `json:"string_2"`
	Total   DataPoint `json:"total"`
}

// Battery holds the state of charge (%) and the signed power flow in kW.
// Positive power flow means the battery is charging.
type Battery struct {
	StateOfCharge DataPoint `json:"state_of_charge"`
	PowerFlow     DataPoint `json:"power_flow"`
}

// Household holds the total household load in kW.
type Household struct {
	TotalLoad DataPoint `json:"total_load"`
}
