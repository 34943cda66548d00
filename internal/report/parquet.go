package report

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/KaramelBytes/pkplot-cli/internal/chart"
)

// CurvePointRecord is one sampled curve point with its fit, as stored in
// Parquet exports.
type CurvePointRecord struct {
	DatasetID string  `parquet:"dataset_id,snappy"`
	Time      float64 `parquet:"time,snappy"`
	Group     string  `parquet:"group,snappy"`
	Species   string  `parquet:"species,snappy"`
	Sex       *string `parquet:"sex,optional,snappy"`
	XField    string  `parquet:"x_field,snappy"`
	YField    string  `parquet:"y_field,snappy"`
	X         float64 `parquet:"x,snappy"`
	Y         float64 `parquet:"y,snappy"`
	A         float64 `parquet:"a,snappy"`
	B         float64 `parquet:"b,snappy"`
	C         float64 `parquet:"c,snappy"`
	N         int32   `parquet:"n,snappy"`
}

// CurveRecords flattens the curves of a snapshot.
func CurveRecords(s *chart.Snapshot) []CurvePointRecord {
	var out []CurvePointRecord
	for _, f := range s.Curves.Facets {
		for _, c := range f.Curves {
			var sex *string
			if c.Label.Secondary != "" {
				v := c.Label.Secondary
				sex = &v
			}
			for _, p := range c.Points {
				out = append(out, CurvePointRecord{
					DatasetID: s.DatasetID,
					Time:      f.Time,
					Group:     c.Name,
					Species:   c.Label.Primary,
					Sex:       sex,
					XField:    s.View.X,
					YField:    s.View.Y,
					X:         p.X,
					Y:         p.Y,
					A:         c.Fit.A,
					B:         c.Fit.B,
					C:         c.Fit.C,
					N:         int32(c.Fit.N),
				})
			}
		}
	}
	return out
}

// WriteCurvesParquet writes the records to w.
func WriteCurvesParquet(w io.Writer, data []CurvePointRecord) error {
	writer := parquet.NewGenericWriter[CurvePointRecord](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteCurvesParquetFile writes the records to a new file at path.
func WriteCurvesParquetFile(path string, data []CurvePointRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteCurvesParquet(file, data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// ReadCurvesParquet reads records written by WriteCurvesParquet.
func ReadCurvesParquet(path string) ([]CurvePointRecord, error) {
	rows, err := parquet.ReadFile[CurvePointRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
