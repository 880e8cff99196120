package export

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/meltforce/apnealog/fitdecode"
)

// ExportFile decodes an activity file and writes the bundle to outputDir.
func ExportFile(inputPath, outputDir string, opts Options) (*Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}

	result, err := WriteBundle(data, outputDir, opts, inputPath)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WriteBundle decodes an in-memory activity and writes the export bundle:
//   - manifest.json
//   - samples.jsonl
//   - dives.json
//   - samples.parquet or samples.csv
//   - source.fit (optional)
//
// sourcePath is recorded in the manifest when known; pass "" for in-memory
// input.
func WriteBundle(data []byte, outputDir string, opts Options, sourcePath string) (*Result, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}

	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	res := fitdecode.Decode(data)
	header, _ := fitdecode.ParseHeader(data)
	headerCRC, fileCRC := fitdecode.VerifyCRC(data)

	if err := ensureOutputDir(outputDir, opts.Overwrite); err != nil {
		return nil, err
	}

	samplesPath := filepath.Join(outputDir, "samples.jsonl")
	if err := writeJSONL(samplesPath, res.Points); err != nil {
		return nil, fmt.Errorf("write samples.jsonl: %w", err)
	}

	divesPath := filepath.Join(outputDir, "dives.json")
	if err := writeJSON(divesPath, divesDocument(res.Stats)); err != nil {
		return nil, fmt.Errorf("write dives.json: %w", err)
	}

	canonicalPath := filepath.Join(outputDir, "samples."+format)
	switch format {
	case "csv":
		if err := writeCanonicalCSV(canonicalPath, res.Points); err != nil {
			return nil, fmt.Errorf("write canonical csv: %w", err)
		}
	case "parquet":
		if err := writeCanonicalParquet(canonicalPath, res.Points); err != nil {
			return nil, fmt.Errorf("write canonical parquet: %w", err)
		}
	}

	manifest := Manifest{
		FormatVersion:    BundleFormatVersion,
		GeneratedAt:      time.Now().UTC(),
		SourceFile:       sourcePath,
		SourceSHA256:     sha,
		SourceSizeBytes:  int64(len(data)),
		Header:           header,
		HeaderCRC:        headerCRC,
		FileCRC:          fileCRC,
		SamplesPath:      filepath.Base(samplesPath),
		DivesPath:        filepath.Base(divesPath),
		CanonicalPath:    filepath.Base(canonicalPath),
		SampleCount:      res.Stats.SampleCount,
		DiveCount:        res.Stats.DiveCount,
		TotalDurationMin: res.Stats.TotalDurationMin,
		FileIDProjection: projectFileID(data),
	}
	if sourcePath != "" {
		manifest.SourceFileName = filepath.Base(sourcePath)
	}

	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	sourceCopyPath := ""
	if opts.CopySource {
		sourceCopyPath = filepath.Join(outputDir, "source.fit")
		if err := os.WriteFile(sourceCopyPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("copy source file: %w", err)
		}
	}

	return &Result{
		OutputDir:      outputDir,
		ManifestPath:   manifestPath,
		SamplesPath:    samplesPath,
		DivesPath:      divesPath,
		CanonicalPath:  canonicalPath,
		SourceCopyPath: sourceCopyPath,
		SampleCount:    res.Stats.SampleCount,
		DiveCount:      res.Stats.DiveCount,
		HeaderCRCValid: headerCRC.Valid,
		FileCRCValid:   fileCRC.Valid,
	}, nil
}

type divesFile struct {
	DiveCount int              `json:"dive_count"`
	Dives     []fitdecode.Dive `json:"dives"`
	Stats     fitdecode.Stats  `json:"stats"`
}

func divesDocument(stats fitdecode.Stats) divesFile {
	dives := make([]fitdecode.Dive, 0, stats.DiveCount)
	for i := range stats.DiveDurationsS {
		dives = append(dives, fitdecode.Dive{
			DurationS: stats.DiveDurationsS[i],
			MaxDepthM: stats.DiveMaxDepthsM[i],
			MinDepthM: stats.DiveMinDepthsM[i],
		})
	}
	return divesFile{
		DiveCount: stats.DiveCount,
		Dives:     dives,
		Stats:     stats,
	}
}

// projectFileID runs the strict third-party decoder over the buffer for the
// file_id fields only. Most dive-computer exports fail its profile checks;
// that is fine, the projection is optional.
func projectFileID(data []byte) *FileIDInfo {
	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	info := &FileIDInfo{
		Type:         fmt.Sprint(id.Type),
		Manufacturer: fmt.Sprint(id.Manufacturer),
		Product:      fmt.Sprint(id.GetProduct()),
		SerialNumber: id.SerialNumber,
	}
	if !id.TimeCreated.IsZero() {
		info.TimeCreated = id.TimeCreated.UTC().Format(time.RFC3339)
	}
	return info
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONL(path string, samples []fitdecode.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return buf.Flush()
}
