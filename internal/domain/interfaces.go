package domain

// ReferenceResolver converts a raw measurement value and gestational age into
// a continuous percentile (and, when a moment grid exists, a z-score).
type ReferenceResolver interface {
	PercentileFor(measurement MeasurementType, ageWeeks float64, value float64) (*PercentileResult, error)
	ZScoreFor(measurement MeasurementType, ageWeeks float64, value float64) (float64, error)
	Measurements() []MeasurementType
}

// PercentileResult is the outcome of a percentile resolution. Extrapolated is
// set when the value fell outside the tabled threshold range and the
// percentile was linearly extrapolated and clipped; callers should treat
// such results cautiously.
type PercentileResult struct {
	Percentile   float64  `json:"percentile"`
	ZScore       *float64 `json:"zscore,omitempty"`
	Extrapolated bool     `json:"extrapolated"`
}

// ConfigManager defines the interface for configuration management.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	Validate() error
}
