package feature

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance.
// Columns with zero variance are left centered but unscaled.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler learns per-column mean and population standard deviation
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}

	cols := len(rows[0])
	s := &Scaler{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}

	column := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}

	return s
}

// Transform returns a standardized copy of row
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if j >= len(s.Mean) {
			out[j] = v
			continue
		}
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes every row
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

// Embed standardizes row, clips each z-score to ±clipStd and scales the
// result into [-1, 1] as float32 for vector search
func (s *Scaler) Embed(row []float64, clipStd float64) []float32 {
	if clipStd <= 0 {
		clipStd = 3.0
	}

	z := s.Transform(row)
	out := make([]float32, len(z))
	for i, v := range z {
		if v > clipStd {
			v = clipStd
		}
		if v < -clipStd {
			v = -clipStd
		}
		out[i] = float32(v / clipStd)
	}
	return out
}
