package export

import (
	"time"

	"github.com/meltforce/apnealog/fitdecode"
)

// BundleFormatVersion identifies the bundle layout for downstream readers.
const BundleFormatVersion = "apnealog-bundle/1"

// Options controls bundle contents.
type Options struct {
	// Format selects the canonical sample table: "parquet" (default) or "csv".
	Format string
	// Overwrite allows writing into a non-empty output directory.
	Overwrite bool
	// CopySource includes a verbatim copy of the input file as source.fit.
	CopySource bool
}

// Result reports the written artifact paths.
type Result struct {
	OutputDir      string `json:"output_dir"`
	ManifestPath   string `json:"manifest_path"`
	SamplesPath    string `json:"samples_path"`
	DivesPath      string `json:"dives_path"`
	CanonicalPath  string `json:"canonical_path"`
	SourceCopyPath string `json:"source_copy_path,omitempty"`

	SampleCount    int  `json:"sample_count"`
	DiveCount      int  `json:"dive_count"`
	HeaderCRCValid bool `json:"header_crc_valid"`
	FileCRCValid   bool `json:"file_crc_valid"`
}

// Manifest describes the bundle and its provenance.
type Manifest struct {
	FormatVersion   string    `json:"format_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	SourceFile      string    `json:"source_file,omitempty"`
	SourceFileName  string    `json:"source_file_name,omitempty"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceSizeBytes int64     `json:"source_size_bytes"`

	Header    fitdecode.Header   `json:"header"`
	HeaderCRC fitdecode.CRCCheck `json:"header_crc"`
	FileCRC   fitdecode.CRCCheck `json:"file_crc"`

	SamplesPath   string `json:"samples_path"`
	DivesPath     string `json:"dives_path"`
	CanonicalPath string `json:"canonical_path"`

	SampleCount      int     `json:"sample_count"`
	DiveCount        int     `json:"dive_count"`
	TotalDurationMin float64 `json:"total_duration_min"`

	FileIDProjection *FileIDInfo `json:"file_id_projection,omitempty"`
}

// FileIDInfo is a best-effort projection of the file_id message. It is nil
// whenever the strict decoder cannot read the file.
type FileIDInfo struct {
	Type         string `json:"type"`
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	SerialNumber uint32 `json:"serial_number"`
	TimeCreated  string `json:"time_created,omitempty"`
}
