package fitdecode

import "time"

// Sample is one decoded telemetry observation from a record message.
// Metrics a record did not carry (or carried as the invalid sentinel)
// stay nil rather than zero.
type Sample struct {
	Timestamp    time.Time `json:"-"`
	TSUTCISO     string    `json:"ts_utc_iso"`
	ElapsedS     float64   `json:"elapsed_s"`
	HRBPM        *float64  `json:"hr_bpm,omitempty"`
	DepthM       *float64  `json:"depth_m,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	SpeedMPS     *float64  `json:"speed_mps,omitempty"`
}

// Dive summarizes one apnea hold from a length message.
type Dive struct {
	DurationS float64 `json:"duration_s"`
	MaxDepthM float64 `json:"max_depth_m"`
	MinDepthM float64 `json:"min_depth_m"`
}

// MetricStats holds aggregate values for one telemetry channel, computed
// only over samples that actually carried the channel.
type MetricStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// DepthStats omits the minimum: surface readings are filtered out below
// 0.3 m, so a depth minimum carries no information.
type DepthStats struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// Stats is the bounded summary of one decode call.
type Stats struct {
	HeartRateBPM     MetricStats `json:"heart_rate_bpm"`
	TemperatureC     MetricStats `json:"temperature_c"`
	SpeedMPS         MetricStats `json:"speed_mps"`
	DepthM           DepthStats  `json:"depth_m"`
	DiveCount        int         `json:"dive_count"`
	DiveDurationsS   []float64   `json:"dive_durations_s"`
	DiveMaxDepthsM   []float64   `json:"dive_max_depths_m"`
	DiveMinDepthsM   []float64   `json:"dive_min_depths_m"`
	TotalDurationMin float64     `json:"total_duration_min"`
	SampleCount      int         `json:"sample_count"`
}

// Session is an optional projection of the session message (global 18).
// It never influences Points or Stats.
type Session struct {
	StartTime     time.Time `json:"start_time"`
	TotalElapsedS float64   `json:"total_elapsed_s"`
}

// Result is the two-part output contract of Decode. It is always populated:
// total failure yields empty Points and an all-zero Stats, never an error.
type Result struct {
	Points  []Sample `json:"points"`
	Stats   Stats    `json:"stats"`
	Session *Session `json:"session,omitempty"`
}

// Header holds the validated container header and the derived decode window.
type Header struct {
	Size        uint8  `json:"size"`
	DataSize    uint32 `json:"data_size"`
	WindowStart int    `json:"window_start"`
	WindowEnd   int    `json:"window_end"`
}
