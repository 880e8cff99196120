package apnealog

import (
	"fmt"
	"math"
	"strings"
)

// BuildSessionNotes turns a session analysis into a human-readable summary.
func BuildSessionNotes(a *Analysis, cfg Config) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("Session: freedive\n")
	if !a.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Samples %d | Dives %d\n",
		formatDuration(a.ElapsedSeconds),
		a.SampleCount,
		a.DiveCount,
	)

	if a.MaxDepthMeters > 0 {
		fmt.Fprintf(&b, "Depth %.1f avg / %.1f max m\n", a.AvgDepthMeters, a.MaxDepthMeters)
	}
	if a.MaxHeartRate > 0 {
		fmt.Fprintf(
			&b,
			"HR %.0f avg / %.0f max / %.0f min bpm\n",
			a.AvgHeartRate,
			a.MaxHeartRate,
			a.MinHeartRate,
		)
	}
	if a.AvgTemperatureC != 0 {
		fmt.Fprintf(&b, "Water temp %.0f C avg\n", a.AvgTemperatureC)
	}
	if a.MaxSpeedMps > 0 {
		fmt.Fprintf(&b, "Speed %.2f avg / %.2f max m/s\n", a.AvgSpeedMps, a.MaxSpeedMps)
	}

	if len(a.Dives) > 0 {
		fmt.Fprintf(
			&b,
			"\nDives: longest %s, deepest %.1f m, mean %s",
			formatDuration(a.LongestDiveSeconds),
			a.DeepestDiveMeters,
			formatDuration(a.MeanDiveSeconds),
		)
		if a.EstSurfaceIntervalS > 0 {
			fmt.Fprintf(&b, ", est. surface interval %s", formatDuration(a.EstSurfaceIntervalS))
		}
		b.WriteByte('\n')

		limit := len(a.Dives)
		if cfg.DiveTableLimit > 0 && cfg.DiveTableLimit < limit {
			limit = cfg.DiveTableLimit
		}
		for i := 0; i < limit; i++ {
			d := a.Dives[i]
			fmt.Fprintf(
				&b,
				"- Dive %2d: %s  depth %.2f to %.2f m\n",
				i+1,
				formatDuration(d.DurationS),
				d.MinDepthM,
				d.MaxDepthM,
			)
		}
		if hidden := len(a.Dives) - limit; hidden > 0 {
			fmt.Fprintf(&b, "- (+%d more)\n", hidden)
		}
	}

	b.WriteString("\nSession Notes\n")
	b.WriteString("- ")
	b.WriteString(sessionAssessment(a))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func sessionAssessment(a *Analysis) string {
	if a == nil || a.DiveCount == 0 {
		return "No dives over five seconds were recorded; treat this as a surface or gear-check session."
	}
	if a.UnderwaterPercentage >= 40 {
		return "High underwater ratio for the session; consider longer surface intervals before the next deep set."
	}
	if a.DiveCount >= 5 && a.EstSurfaceIntervalS > 0 && a.EstSurfaceIntervalS < 2*a.MeanDiveSeconds {
		return "Surface intervals ran short of twice the mean dive time; extend recovery on repetitive sets."
	}
	return "Dive-to-recovery balance looks sustainable for this volume."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
