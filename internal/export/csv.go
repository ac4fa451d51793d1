package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"aeroval/internal/types"
)

// csvHeader is the fixed column layout of the per-car validation files.
// Column order is part of the output contract; downstream notebooks index
// by position as well as by name.
var csvHeader = []string{
	"Name",
	"Unique_ID",
	"Car_Name",
	"Car_Group",
	"Simulator",
	"Baseline_ID",
	"Morph_Type",
	"Morph_Value",
	"Converged",
	"Cd",
	"Cl",
	"Drag_N",
	"Lift_N",
	"Avg_Cd",
	"Avg_Cl",
	"Avg_Drag_N",
	"Avg_Lift_N",
	"Std_Cd",
	"Std_Cl",
	"Std_Drag_N",
	"Std_Lift_N",
	"Has_Results",
	"Status",
}

// Exporter renders record collections to CSV and report artifacts and
// hands them to a Sink.
type Exporter struct {
	sink   Sink
	logger *slog.Logger
}

// NewExporter creates an Exporter writing through sink. A nil logger
// falls back to slog.Default().
func NewExporter(sink Sink, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{sink: sink, logger: logger}
}

// ExportCSV writes one "{car}_validation_data.csv" file per car name, in
// sorted car-name order, and returns the destination paths. Records keep
// their discovery order inside each file.
func (e *Exporter) ExportCSV(ctx context.Context, records []*types.SimulationRecord) ([]string, error) {
	grouped := types.GroupByCar(records)

	cars := make([]string, 0, len(grouped))
	for car := range grouped {
		cars = append(cars, car)
	}
	sort.Strings(cars)

	var paths []string
	for _, car := range cars {
		content, err := renderCSV(grouped[car])
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s_validation_data.csv", car)
		path, err := e.sink.Write(ctx, name, content, "text/csv")
		if err != nil {
			return nil, err
		}
		e.logger.InfoContext(ctx, "wrote validation csv",
			"car", car, "records", len(grouped[car]), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// renderCSV serializes records into the fixed column layout.
func renderCSV(records []*types.SimulationRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", &types.AppError{Code: types.ErrCodeInternalUnexpected, Message: "writing csv header", Err: err}
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return "", &types.AppError{Code: types.ErrCodeInternalUnexpected, Message: "writing csv row", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", &types.AppError{Code: types.ErrCodeInternalUnexpected, Message: "flushing csv", Err: err}
	}
	return buf.String(), nil
}

func recordRow(r *types.SimulationRecord) []string {
	return []string{
		r.GeometryName,
		r.UniqueID,
		r.CarName,
		r.CarGroup,
		strOrBlank(r.Simulator),
		r.BaselineID,
		strOrBlank(r.MorphType),
		floatCell(r.MorphValue, -1),
		boolOrBlank(r.Converged),
		floatCell(r.Cd, 6),
		floatCell(r.Cl, 6),
		floatCell(r.DragN, 4),
		floatCell(r.LiftN, 4),
		floatCell(r.AvgCd, 6),
		floatCell(r.AvgCl, 6),
		floatCell(r.AvgDragN, 4),
		floatCell(r.AvgLiftN, 4),
		floatCell(r.StdCd, 6),
		floatCell(r.StdCl, 6),
		floatCell(r.StdDragN, 4),
		floatCell(r.StdLiftN, 4),
		strconv.FormatBool(r.HasResults),
		r.Status(),
	}
}

func strOrBlank(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolOrBlank(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// floatCell formats an optional value with prec decimal places; prec < 0
// uses the shortest exact representation. Absent values render blank so a
// missing quantity never masquerades as zero.
func floatCell(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
