package models

// SimulateRequest represents the request body for running a simulation
// against an on-disk run configuration.
type SimulateRequest struct {
	ConfigPath    string `json:"config_path" binding:"required"`
	IncludeLedger bool   `json:"include_ledger,omitempty"`
	SkipBalanceCheck bool `json:"skip_balance_check,omitempty"`
}

// DiagnoseRequest represents a request to preflight-check a run
// configuration without simulating it.
type DiagnoseRequest struct {
	ConfigPath string `json:"config_path" binding:"required"`
}

// SuggestQminRequest represents a request for an advisory minimum-discharge
// release schedule, independent of any RiverSystem run.
type SuggestQminRequest struct {
	InflowM3s       []float64 `json:"inflow_m3s" binding:"required"`
	PriceEuroPerMWh []float64 `json:"price_eur_per_mwh" binding:"required"`
	MinDischargeM3s []float64 `json:"min_discharge_m3s" binding:"required"`
	StartStorageMm3 float64   `json:"start_storage_mm3" binding:"required"`
	MinStorageMm3   float64   `json:"min_storage_mm3"`
	MaxStorageMm3   float64   `json:"max_storage_mm3" binding:"required"`
	DTSeconds       int       `json:"dt_seconds" binding:"required"`
}
