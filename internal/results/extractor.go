// Package results locates and extracts simulator output data: scalar
// convergence/force payloads, windowed force time-series statistics, and
// the derived aerodynamic coefficients.
package results

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"aeroval/internal/store"
	"aeroval/internal/types"
)

// Fixed object names inside a results folder.
const (
	ScalarsObjectName = "export_scalars.json"
	SeriesObjectName  = "export_force_series.csv"
)

// Force-series column names, matched exactly.
const (
	DefaultDragColumn = "Drag Monitor: Drag Monitor (N)"
	DefaultLiftColumn = "Lift Monitor: Lift Monitor (N)"
)

// DefaultSignalLength is the default trailing-window size for time-series
// averaging, in rows.
const DefaultSignalLength = 300

// ResultsReader is the storage surface the extractor needs.
type ResultsReader interface {
	ReadJSON(ctx context.Context, key string, v any) error
	ReadCSV(ctx context.Context, key string) ([]map[string]string, error)
}

// Extractor reads a results folder and produces a ResultData payload.
type Extractor struct {
	reader ResultsReader
	logger *slog.Logger

	// SignalLength is the trailing-window size for series averaging.
	SignalLength int

	// DragColumn and LiftColumn are the exact series column names.
	DragColumn string
	LiftColumn string
}

// NewExtractor creates a results extractor with the default window and
// column names.
func NewExtractor(reader ResultsReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		reader:       reader,
		logger:       logger,
		SignalLength: DefaultSignalLength,
		DragColumn:   DefaultDragColumn,
		LiftColumn:   DefaultLiftColumn,
	}
}

// scalarPayload mirrors the export_scalars.json layout. Optional fields
// are pointers so "missing" and "zero" stay distinguishable.
type scalarPayload struct {
	Results struct {
		ConvergedFlag *float64 `json:"Converged_Flag"`
		LiftN         *float64 `json:"Lift_100[N]"`
		DragN         *float64 `json:"Drag_100[N]"`
	} `json:"results"`
	Parameters struct {
		Density  *float64 `json:"Ref_Density[kg/m^3]"`
		Velocity *float64 `json:"Ref_Velocity[m/s]"`
		Area     *float64 `json:"A[m^2]"`
	} `json:"parameters"`
}

// ExtractFromFolder reads a results folder's scalar payload and optional
// force series and returns the assembled ResultData with the given
// simulator label attached.
//
// An absent or unparsable scalar payload yields a not_found_results
// error ("no results"); an absent series is tolerated silently; storage
// failures propagate as fatal.
func (e *Extractor) ExtractFromFolder(ctx context.Context, folder string, simulator string) (*types.ResultData, error) {
	folder = store.EnsureFolder(folder)
	scalarsKey := folder + ScalarsObjectName

	var payload scalarPayload
	if err := e.reader.ReadJSON(ctx, scalarsKey, &payload); err != nil {
		if types.IsFatal(err) {
			return nil, err
		}
		return nil, &types.AppError{
			Code:    types.ErrCodeNotFoundResults,
			Message: fmt.Sprintf("scalar payload %q", scalarsKey),
			Err:     err,
		}
	}

	ref := referenceParams(payload)

	res := &types.ResultData{
		Simulator: simulator,
		Converged: payload.Results.ConvergedFlag != nil && *payload.Results.ConvergedFlag != 0,
		DragN:     payload.Results.DragN,
		LiftN:     payload.Results.LiftN,
	}
	if res.DragN != nil {
		res.Cd = Coefficient(*res.DragN, ref)
	}
	if res.LiftN != nil {
		res.Cl = Coefficient(*res.LiftN, ref)
	}

	e.extractSeries(ctx, folder, ref, res)

	return res, nil
}

// extractSeries reads the optional force time-series and fills the
// averaged/std fields of res. Series problems never fail the extraction:
// an absent table is expected, an unreadable one is logged and skipped.
func (e *Extractor) extractSeries(ctx context.Context, folder string, ref types.ReferenceParams, res *types.ResultData) {
	seriesKey := folder + SeriesObjectName

	rows, err := e.reader.ReadCSV(ctx, seriesKey)
	if err != nil {
		if types.IsNotFound(err) {
			e.logger.DebugContext(ctx, "no force series", "key", seriesKey)
			return
		}
		e.logger.WarnContext(ctx, "skipping unreadable force series", "key", seriesKey, "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	window := rows
	if e.SignalLength > 0 && len(rows) > e.SignalLength {
		window = rows[len(rows)-e.SignalLength:]
	}

	drag := e.collectColumn(ctx, window, e.DragColumn)
	lift := e.collectColumn(ctx, window, e.LiftColumn)

	if len(drag) > 0 {
		mean := stat.Mean(drag, nil)
		std := stat.PopStdDev(drag, nil)
		res.AvgDragN = &mean
		res.StdDragN = &std
		res.AvgCd = Coefficient(mean, ref)
	}
	if len(lift) > 0 {
		mean := stat.Mean(lift, nil)
		std := stat.PopStdDev(lift, nil)
		res.AvgLiftN = &mean
		res.StdLiftN = &std
		res.AvgCl = Coefficient(mean, ref)
	}

	e.logger.DebugContext(ctx, "averaged force series",
		"key", seriesKey,
		"window", len(window),
		"drag_samples", len(drag),
		"lift_samples", len(lift),
	)
}

// collectColumn pulls the numeric values of one column out of the window.
// Rows where the column is missing, empty, or non-numeric are skipped and
// logged; they are excluded from that quantity's average only.
func (e *Extractor) collectColumn(ctx context.Context, window []map[string]string, column string) []float64 {
	values := make([]float64, 0, len(window))
	for i, row := range window {
		cell, ok := row[column]
		if !ok || strings.TrimSpace(cell) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			e.logger.DebugContext(ctx, "skipping non-numeric series cell",
				"column", column, "row", i, "value", cell)
			continue
		}
		values = append(values, v)
	}
	return values
}

// referenceParams applies the default reference conditions for any
// parameter the payload omits.
func referenceParams(p scalarPayload) types.ReferenceParams {
	ref := types.DefaultReferenceParams()
	if p.Parameters.Density != nil {
		ref.Density = *p.Parameters.Density
	}
	if p.Parameters.Velocity != nil {
		ref.Velocity = *p.Parameters.Velocity
	}
	if p.Parameters.Area != nil {
		ref.Area = *p.Parameters.Area
	}
	return ref
}

// Coefficient computes 2F/(ρv²A) for one force. A zero dynamic-pressure
// denominator means the coefficient is undefined: nil, never a division
// error.
func Coefficient(forceN float64, ref types.ReferenceParams) *float64 {
	denom := ref.Density * ref.Velocity * ref.Velocity * ref.Area
	if denom == 0 {
		return nil
	}
	c := 2.0 * forceN / denom
	return &c
}
