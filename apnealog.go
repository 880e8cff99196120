package apnealog

import (
	"fmt"
	"os"
	"time"

	"github.com/meltforce/apnealog/fitdecode"
)

// Config controls optional presentation choices for the session notes.
type Config struct {
	// DiveTableLimit caps the number of dives rendered in the notes
	// table; zero renders all of them.
	DiveTableLimit int
}

// Analysis is the derived session view over one decoded activity.
type Analysis struct {
	FilePath       string    `json:"file_path,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	SampleCount    int       `json:"sample_count"`

	DiveCount            int     `json:"dive_count"`
	LongestDiveSeconds   float64 `json:"longest_dive_seconds"`
	DeepestDiveMeters    float64 `json:"deepest_dive_meters"`
	MeanDiveSeconds      float64 `json:"mean_dive_seconds"`
	EstSurfaceIntervalS  float64 `json:"est_surface_interval_s"`
	TimeUnderwaterSec    float64 `json:"time_underwater_seconds"`
	UnderwaterPercentage float64 `json:"underwater_percentage"`

	AvgHeartRate    float64 `json:"avg_heart_rate_bpm"`
	MaxHeartRate    float64 `json:"max_heart_rate_bpm"`
	MinHeartRate    float64 `json:"min_heart_rate_bpm"`
	AvgDepthMeters  float64 `json:"avg_depth_m"`
	MaxDepthMeters  float64 `json:"max_depth_m"`
	AvgTemperatureC float64 `json:"avg_temperature_c"`
	AvgSpeedMps     float64 `json:"avg_speed_mps"`
	MaxSpeedMps     float64 `json:"max_speed_mps"`

	Dives []fitdecode.Dive `json:"dives,omitempty"`
	Notes string           `json:"notes"`
}

// AnalyzeFile reads and analyzes one activity file.
func AnalyzeFile(path string, cfg Config) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	analysis := AnalyzeBytes(data, cfg)
	analysis.FilePath = path
	return analysis, nil
}

// AnalyzeBytes decodes and analyzes an in-memory activity. It never fails:
// an unreadable buffer produces an empty analysis, mirroring the decoder's
// contract.
func AnalyzeBytes(data []byte, cfg Config) *Analysis {
	res := fitdecode.Decode(data)
	stats := res.Stats

	a := &Analysis{
		SampleCount:  stats.SampleCount,
		DiveCount:    stats.DiveCount,
		AvgHeartRate: stats.HeartRateBPM.Avg,
		MaxHeartRate: stats.HeartRateBPM.Max,
		MinHeartRate: stats.HeartRateBPM.Min,

		AvgDepthMeters:  stats.DepthM.Avg,
		MaxDepthMeters:  stats.DepthM.Max,
		AvgTemperatureC: stats.TemperatureC.Avg,
		AvgSpeedMps:     stats.SpeedMPS.Avg,
		MaxSpeedMps:     stats.SpeedMPS.Max,
	}

	if n := len(res.Points); n > 0 {
		a.StartTime = res.Points[0].Timestamp
		a.EndTime = res.Points[n-1].Timestamp
		a.ElapsedSeconds = res.Points[n-1].ElapsedS
	}
	if res.Session != nil {
		if !res.Session.StartTime.IsZero() {
			a.StartTime = res.Session.StartTime
		}
		if res.Session.TotalElapsedS > a.ElapsedSeconds {
			a.ElapsedSeconds = res.Session.TotalElapsedS
		}
	}

	a.Dives = buildDives(stats)
	for _, d := range a.Dives {
		a.TimeUnderwaterSec += d.DurationS
		if d.DurationS > a.LongestDiveSeconds {
			a.LongestDiveSeconds = d.DurationS
		}
		if d.MaxDepthM > a.DeepestDiveMeters {
			a.DeepestDiveMeters = d.MaxDepthM
		}
	}
	if len(a.Dives) > 0 {
		a.MeanDiveSeconds = a.TimeUnderwaterSec / float64(len(a.Dives))
	}
	if a.ElapsedSeconds > 0 {
		a.UnderwaterPercentage = (a.TimeUnderwaterSec / a.ElapsedSeconds) * 100.0
		if a.UnderwaterPercentage > 100 {
			a.UnderwaterPercentage = 100
		}
	}
	// Dive start times are not recorded, so the surface interval is an
	// estimate: time not underwater spread over the gaps between dives.
	if len(a.Dives) >= 2 && a.ElapsedSeconds > a.TimeUnderwaterSec {
		a.EstSurfaceIntervalS = (a.ElapsedSeconds - a.TimeUnderwaterSec) / float64(len(a.Dives)-1)
	}

	a.Notes = BuildSessionNotes(a, cfg)
	return a
}

func buildDives(stats fitdecode.Stats) []fitdecode.Dive {
	n := len(stats.DiveDurationsS)
	if n == 0 {
		return nil
	}
	dives := make([]fitdecode.Dive, 0, n)
	for i := 0; i < n; i++ {
		dives = append(dives, fitdecode.Dive{
			DurationS: stats.DiveDurationsS[i],
			MaxDepthM: stats.DiveMaxDepthsM[i],
			MinDepthM: stats.DiveMinDepthsM[i],
		})
	}
	return dives
}
