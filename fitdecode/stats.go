package fitdecode

import (
	"math"
	"time"
)

const (
	// minRecordedDepthM filters pressure-sensor noise near the surface.
	minRecordedDepthM = 0.3
	// maxPlausibleSpeedMPS rejects obviously corrupt speed readings.
	maxPlausibleSpeedMPS = 100.0
	// minDiveDurationS drops spurious micro-lengths such as turns.
	minDiveDurationS = 5.0
)

// Telemetry record (global 20) field numbers.
const (
	fieldTimestamp   = 253
	fieldHeartRate   = 3
	fieldHeartRateC2 = 136
	fieldDepth       = 88
	fieldTemperature = 13
	fieldSpeed       = 32
	fieldSpeedRaw    = 127
	fieldSpeedLegacy = 6
)

// Altitude fallback chain for depth when the depth channel is absent.
var altitudeFallback = []uint8{72, 78, 2, 5}

// Length message (global 19) field numbers.
const (
	fieldDiveElapsed  = 7
	fieldDiveMaxDepth = 114
	fieldDiveMinDepth = 113
)

// Session message (global 18) field numbers.
const (
	fieldSessionStart   = 2
	fieldSessionElapsed = 7
)

// metricAgg folds one channel online; min/max start at sentinel values
// that signal "no data" when never updated.
type metricAgg struct {
	sum   float64
	count int
	min   float64
	max   float64
}

func (m *metricAgg) add(v float64) {
	m.sum += v
	m.count++
	if v < m.min {
		m.min = v
	}
	if v > m.max {
		m.max = v
	}
}

// stats reports zeros when the channel never produced a sample, so sentinel
// minimums are never surfaced as real physiological values.
func (m *metricAgg) stats(round func(float64) float64) MetricStats {
	if m.count == 0 {
		return MetricStats{}
	}
	return MetricStats{
		Avg: round(m.sum / float64(m.count)),
		Max: round(m.max),
		Min: round(m.min),
	}
}

type aggregator struct {
	points []Sample

	hr    metricAgg
	temp  metricAgg
	speed metricAgg

	depthSum   float64
	depthCount int
	depthMax   float64

	dives   []Dive
	session *Session
}

func newAggregator() aggregator {
	return aggregator{
		hr:    metricAgg{min: 255, max: 0},
		temp:  metricAgg{min: 100, max: -100},
		speed: metricAgg{min: maxPlausibleSpeedMPS, max: 0},
	}
}

// addRecord interprets one telemetry record. A timestamp is mandatory; the
// sample is appended even when no other channel decoded.
func (a *aggregator) addRecord(fields decodedFields) {
	tsRaw, ok := fields.get(fieldTimestamp)
	if !ok {
		return
	}
	s := Sample{Timestamp: fitTime(tsRaw)}
	s.TSUTCISO = s.Timestamp.Format(time.RFC3339)

	if v, ok := fields.first(fieldHeartRate, fieldHeartRateC2); ok {
		hr := float64(v)
		s.HRBPM = &hr
		a.hr.add(hr)
	}

	if depth, ok := a.extractDepth(fields); ok {
		s.DepthM = &depth
		a.depthSum += depth
		a.depthCount++
		if depth > a.depthMax {
			a.depthMax = depth
		}
	}

	if v, ok := fields.get(fieldTemperature); ok {
		t := float64(v)
		s.TemperatureC = &t
		a.temp.add(t)
	}

	if v, ok := fields.first(fieldSpeed, fieldSpeedRaw, fieldSpeedLegacy); ok {
		speed := float64(v) / 1000
		if speed > 0 && speed < maxPlausibleSpeedMPS {
			speed = round2(speed)
			s.SpeedMPS = &speed
			a.speed.add(speed)
		}
	}

	a.points = append(a.points, s)
}

// extractDepth prefers the dedicated depth channel and falls back to the
// device altitude channels, inverted through the 0.2/-500 scale convention.
func (a *aggregator) extractDepth(fields decodedFields) (float64, bool) {
	var depth float64
	if v, ok := fields.get(fieldDepth); ok {
		depth = float64(v) / 1000
	} else if v, ok := fields.first(altitudeFallback...); ok {
		depth = -((float64(v) * 0.2) - 500)
		if depth < 0 {
			depth = 0
		}
	} else {
		return 0, false
	}
	if depth <= minRecordedDepthM {
		return 0, false
	}
	return round2(depth), true
}

// addLength interprets one length message as a dive summary. Depth sampling
// in the record stream may be sparse, so a dive's max depth may exceed every
// telemetry sample and raises the global depth maximum.
func (a *aggregator) addLength(fields decodedFields) {
	duration := scaledOrZero(fields, fieldDiveElapsed, 1000)
	if duration <= minDiveDurationS {
		return
	}
	maxDepth := scaledOrZero(fields, fieldDiveMaxDepth, 1000)
	minDepth := scaledOrZero(fields, fieldDiveMinDepth, 1000)
	a.dives = append(a.dives, Dive{
		DurationS: duration,
		MaxDepthM: maxDepth,
		MinDepthM: minDepth,
	})
	if maxDepth > a.depthMax {
		a.depthMax = maxDepth
	}
}

// addSession projects the first session message; later ones are ignored.
func (a *aggregator) addSession(fields decodedFields) {
	if a.session != nil {
		return
	}
	start, ok := fields.get(fieldSessionStart)
	if !ok {
		return
	}
	a.session = &Session{
		StartTime:     fitTime(start),
		TotalElapsedS: scaledOrZero(fields, fieldSessionElapsed, 1000),
	}
}

// finalize normalizes elapsed times against the first sample and produces
// the rounded summary. Samples are assumed time-ordered in the source
// stream; no sorting happens here.
func (a *aggregator) finalize() Result {
	points := a.points
	if points == nil {
		points = []Sample{}
	}
	if len(points) > 0 {
		t0 := points[0].Timestamp
		for i := range points {
			points[i].ElapsedS = points[i].Timestamp.Sub(t0).Seconds()
		}
	}

	stats := Stats{
		HeartRateBPM:   a.hr.stats(roundInt),
		TemperatureC:   a.temp.stats(roundInt),
		SpeedMPS:       a.speed.stats(round2),
		DiveCount:      len(a.dives),
		DiveDurationsS: make([]float64, 0, len(a.dives)),
		DiveMaxDepthsM: make([]float64, 0, len(a.dives)),
		DiveMinDepthsM: make([]float64, 0, len(a.dives)),
		SampleCount:    len(points),
	}
	for _, d := range a.dives {
		stats.DiveDurationsS = append(stats.DiveDurationsS, d.DurationS)
		stats.DiveMaxDepthsM = append(stats.DiveMaxDepthsM, d.MaxDepthM)
		stats.DiveMinDepthsM = append(stats.DiveMinDepthsM, d.MinDepthM)
	}
	if a.depthCount > 0 || a.depthMax > 0 {
		avg := 0.0
		if a.depthCount > 0 {
			avg = a.depthSum / float64(a.depthCount)
		}
		stats.DepthM = DepthStats{Avg: round1(avg), Max: round1(a.depthMax)}
	}
	if len(points) > 1 {
		stats.TotalDurationMin = math.Round(points[len(points)-1].ElapsedS / 60)
	}

	return Result{Points: points, Stats: stats, Session: a.session}
}

func degenerateResult() Result {
	return Result{
		Points: []Sample{},
		Stats: Stats{
			DiveDurationsS: []float64{},
			DiveMaxDepthsM: []float64{},
			DiveMinDepthsM: []float64{},
		},
	}
}

func scaledOrZero(fields decodedFields, num uint8, scale float64) float64 {
	v, ok := fields.get(num)
	if !ok {
		return 0
	}
	return float64(v) / scale
}

func roundInt(v float64) float64 { return math.Round(v) }
func round1(v float64) float64   { return math.Round(v*10) / 10 }
func round2(v float64) float64   { return math.Round(v*100) / 100 }
