package apnealog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/apnealog/fitdecode"
)

const testTS = uint32(1100000000)

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func buildActivity(t *testing.T) []byte {
	t.Helper()

	var body []byte
	push := func(parts ...[]byte) {
		for _, p := range parts {
			body = append(body, p...)
		}
	}

	// telemetry definition: timestamp, heart rate, depth
	push([]byte{0x40, 0, 0}, u16(20), []byte{3, 253, 4, 0x86, 3, 1, 2, 88, 2, 0x84})
	push([]byte{0x00}, u32(testTS), []byte{70}, u16(5000))
	push([]byte{0x00}, u32(testTS+300), []byte{80}, u16(15000))

	// dive length definition: duration, max depth, min depth
	push([]byte{0x41, 0, 0}, u16(19), []byte{3, 7, 4, 0x86, 114, 2, 0x84, 113, 2, 0x84})
	push([]byte{0x01}, u32(90000), u16(18500), u16(2000))
	push([]byte{0x01}, u32(60000), u16(12000), u16(1500))

	// session definition: start time, total elapsed
	push([]byte{0x42, 0, 0}, u16(18), []byte{2, 2, 4, 0x86, 7, 4, 0x86})
	push([]byte{0x02}, u32(testTS), u32(600000))

	buf := make([]byte, 14)
	buf[0] = 14
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[8:12], ".FIT")
	buf = append(buf, body...)
	return append(buf, 0, 0)
}

func TestAnalyzeBytesDerivesSessionView(t *testing.T) {
	a := AnalyzeBytes(buildActivity(t), Config{})

	if a.SampleCount != 2 {
		t.Fatalf("sample count: got %d, want 2", a.SampleCount)
	}
	if a.DiveCount != 2 {
		t.Fatalf("dive count: got %d, want 2", a.DiveCount)
	}
	if a.ElapsedSeconds != 600 {
		t.Fatalf("elapsed must prefer the longer session total: got %v", a.ElapsedSeconds)
	}
	if a.LongestDiveSeconds != 90 {
		t.Fatalf("longest dive: got %v", a.LongestDiveSeconds)
	}
	if a.DeepestDiveMeters != 18.5 {
		t.Fatalf("deepest dive: got %v", a.DeepestDiveMeters)
	}
	if a.MeanDiveSeconds != 75 {
		t.Fatalf("mean dive: got %v", a.MeanDiveSeconds)
	}
	if a.EstSurfaceIntervalS != 450 {
		t.Fatalf("surface interval: got %v", a.EstSurfaceIntervalS)
	}
	if a.UnderwaterPercentage != 25 {
		t.Fatalf("underwater percentage: got %v", a.UnderwaterPercentage)
	}
	if a.AvgHeartRate != 75 || a.MaxHeartRate != 80 {
		t.Fatalf("heart rate: got %v/%v", a.AvgHeartRate, a.MaxHeartRate)
	}
	if a.MaxDepthMeters != 18.5 {
		t.Fatalf("max depth must include dive summaries: got %v", a.MaxDepthMeters)
	}
	if !strings.Contains(a.Notes, "Dives 2") {
		t.Fatalf("notes missing dive count:\n%s", a.Notes)
	}
	if !strings.Contains(a.Notes, "Dive  1: 1m30s") {
		t.Fatalf("notes missing dive table row:\n%s", a.Notes)
	}
}

func TestAnalyzeBytesUnreadableBuffer(t *testing.T) {
	a := AnalyzeBytes([]byte("not a fit file"), Config{})

	if a.SampleCount != 0 || a.DiveCount != 0 {
		t.Fatalf("expected empty analysis: %+v", a)
	}
	if !strings.Contains(a.Notes, "surface or gear-check") {
		t.Fatalf("notes: %s", a.Notes)
	}
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dive.fit")
	if err := os.WriteFile(path, buildActivity(t), 0o644); err != nil {
		t.Fatalf("write activity: %v", err)
	}

	a, err := AnalyzeFile(path, Config{})
	if err != nil {
		t.Fatalf("AnalyzeFile error: %v", err)
	}
	if a.FilePath != path {
		t.Fatalf("file path: got %q", a.FilePath)
	}
	if a.DiveCount != 2 {
		t.Fatalf("dive count: got %d", a.DiveCount)
	}

	if _, err := AnalyzeFile(filepath.Join(t.TempDir(), "missing.fit"), Config{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildSessionNotesDiveTableLimit(t *testing.T) {
	a := &Analysis{
		ElapsedSeconds: 900,
		DiveCount:      5,
		Dives: []fitdecode.Dive{
			{DurationS: 30, MaxDepthM: 5},
			{DurationS: 35, MaxDepthM: 6},
			{DurationS: 40, MaxDepthM: 7},
			{DurationS: 45, MaxDepthM: 8},
			{DurationS: 50, MaxDepthM: 9},
		},
		LongestDiveSeconds: 50,
		DeepestDiveMeters:  9,
		MeanDiveSeconds:    40,
	}

	notes := BuildSessionNotes(a, Config{DiveTableLimit: 3})
	if !strings.Contains(notes, "(+2 more)") {
		t.Fatalf("expected truncated dive table:\n%s", notes)
	}
	if strings.Count(notes, "- Dive") != 3 {
		t.Fatalf("expected 3 dive rows:\n%s", notes)
	}
}
