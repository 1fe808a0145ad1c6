package assign

import "time"

// Config defines engine-related settings.
type Config struct {
	// ResponseWindowHours is how long a proposed partner has to respond
	// before the assignment expires.
	ResponseWindowHours int `json:"response_window_hours"`
	// MaxDistanceKm is the hard ceiling on partner travel distance.
	MaxDistanceKm float64 `json:"max_distance_km"`
	// ScanIntervalSeconds is the cadence of the timeout watcher scan.
	ScanIntervalSeconds int `json:"scan_interval_seconds"`
	// AdjacentSpecialtyCredit is the specialty sub-score granted to
	// compatible but non-exact specialties.
	AdjacentSpecialtyCredit float64 `json:"adjacent_specialty_credit"`
	// IgnoreBudgetCeiling disables the hard budget filter. By default a
	// candidate whose projected cost exceeds the request budget is
	// filtered out rather than penalized in scoring.
	IgnoreBudgetCeiling bool `json:"ignore_budget_ceiling"`
}

// SetDefaults fills unset fields with default policy values.
func (c *Config) SetDefaults() {
	if c.ResponseWindowHours == 0 {
		c.ResponseWindowHours = 24
	}
	if c.MaxDistanceKm == 0 {
		c.MaxDistanceKm = 100
	}
	if c.ScanIntervalSeconds == 0 {
		c.ScanIntervalSeconds = 60
	}
	if c.AdjacentSpecialtyCredit == 0 {
		c.AdjacentSpecialtyCredit = 0.5
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.ResponseWindowHours < 0 {
		return NewConfigError("response_window_hours must not be negative")
	}
	if c.MaxDistanceKm < 0 {
		return NewConfigError("max_distance_km must not be negative")
	}
	if c.ScanIntervalSeconds < 0 {
		return NewConfigError("scan_interval_seconds must not be negative")
	}
	if c.AdjacentSpecialtyCredit < 0 || c.AdjacentSpecialtyCredit > 1 {
		return NewConfigError("adjacent_specialty_credit must be in [0,1]")
	}
	return nil
}

// ResponseWindow returns the response window as a duration.
func (c Config) ResponseWindow() time.Duration {
	return time.Duration(c.ResponseWindowHours) * time.Hour
}

// ScanInterval returns the watcher cadence as a duration.
func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}
