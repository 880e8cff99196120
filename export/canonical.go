package export

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/meltforce/apnealog/fitdecode"
)

type sampleParquetRow struct {
	TSUTCISO     string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	DepthM       float64 `parquet:"name=depth_m, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	ValidHR      bool    `parquet:"name=valid_hr, type=BOOLEAN"`
	ValidDepth   bool    `parquet:"name=valid_depth, type=BOOLEAN"`
	ValidTemp    bool    `parquet:"name=valid_temperature, type=BOOLEAN"`
	ValidSpeed   bool    `parquet:"name=valid_speed, type=BOOLEAN"`
}

func writeCanonicalParquet(path string, samples []fitdecode.Sample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := sampleParquetRow{
			TSUTCISO:     s.TSUTCISO,
			ElapsedS:     s.ElapsedS,
			HRBPM:        valueOrNaN(s.HRBPM),
			DepthM:       valueOrNaN(s.DepthM),
			TemperatureC: valueOrNaN(s.TemperatureC),
			SpeedMPS:     valueOrNaN(s.SpeedMPS),
			ValidHR:      s.HRBPM != nil,
			ValidDepth:   s.DepthM != nil,
			ValidTemp:    s.TemperatureC != nil,
			ValidSpeed:   s.SpeedMPS != nil,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func writeCanonicalCSV(path string, samples []fitdecode.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"ts_utc_iso", "elapsed_s", "hr_bpm", "depth_m", "temperature_c", "speed_mps",
		"valid_hr", "valid_depth", "valid_temperature", "valid_speed",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloatPtr(s.HRBPM),
			formatFloatPtr(s.DepthM),
			formatFloatPtr(s.TemperatureC),
			formatFloatPtr(s.SpeedMPS),
			strconv.FormatBool(s.HRBPM != nil),
			strconv.FormatBool(s.DepthM != nil),
			strconv.FormatBool(s.TemperatureC != nil),
			strconv.FormatBool(s.SpeedMPS != nil),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
