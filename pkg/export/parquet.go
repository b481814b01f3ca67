// Package export writes the race dataset to files for offline model
// work: long-format parquet and wide CSV.
package export

import (
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tunogya/stride/pkg/model"
)

// featureValueRow is one (race, feature) pair. A null value is missing.
type featureValueRow struct {
	RaceID       int64    `parquet:"name=race_id, type=INT64"`
	RaceDate     string   `parquet:"name=race_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	RaceDistance string   `parquet:"name=race_distance, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RaceTimeMin  float64  `parquet:"name=race_time_min, type=DOUBLE"`
	Ordinal      int32    `parquet:"name=ordinal, type=INT32"`
	FeatureName  string   `parquet:"name=feature_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value        *float64 `parquet:"name=value, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// longRows flattens ds into one row per (race, feature) in feature order
func longRows(ds *model.RaceDataset) []featureValueRow {
	if ds.Empty() {
		return nil
	}
	rows := make([]featureValueRow, 0, len(ds.Rows)*len(ds.FeatureNames))
	for _, r := range ds.Rows {
		date := r.Date.UTC().Format(time.RFC3339)
		for ordinal, name := range ds.FeatureNames {
			row := featureValueRow{
				RaceID:       r.RaceID,
				RaceDate:     date,
				RaceDistance: string(r.Distance),
				RaceTimeMin:  r.TimeMin,
				Ordinal:      int32(ordinal),
				FeatureName:  name,
			}
			if v, ok := r.Features.Get(name).Get(); ok {
				row.Value = &v
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func writeParquet(fw source.ParquetFile, rows []featureValueRow) error {
	pw, err := writer.NewParquetWriter(fw, new(featureValueRow), 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	return nil
}

// WriteParquet writes ds in long format to path
func WriteParquet(path string, ds *model.RaceDataset) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeParquet(fw, longRows(ds)); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// MarshalParquet returns ds in long format as parquet bytes
func MarshalParquet(ds *model.RaceDataset) ([]byte, error) {
	fw := buffer.NewBufferFile()
	if err := writeParquet(fw, longRows(ds)); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
