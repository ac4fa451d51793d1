package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroval/internal/types"
)

type capturedWrite struct {
	name        string
	content     string
	contentType string
}

type fakeSink struct {
	writes []capturedWrite
	err    error
}

func (f *fakeSink) Write(ctx context.Context, name, content, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.writes = append(f.writes, capturedWrite{name, content, contentType})
	return "out/" + name, nil
}

func fPtr(v float64) *float64 { return &v }
func sPtr(s string) *string   { return &s }
func bPtr(b bool) *bool       { return &b }

func completeRecord() *types.SimulationRecord {
	return &types.SimulationRecord{
		CarName:      "Car_A",
		CarGroup:     "sedan",
		GeometryName: "Car_A_Morph_1",
		UniqueID:     "Car_A_Symmetric_Morph_1",
		BaselineID:   "Car_A_Symmetric",
		MorphType:    sPtr("ride_height"),
		MorphValue:   fPtr(10.5),
		HasResults:   true,
		Simulator:    sPtr("JakubNet"),
		Converged:    bPtr(true),
		Cd:           fPtr(0.3123456),
		DragN:        fPtr(250.12341),
		AvgCd:        fPtr(0.31),
		StdCd:        fPtr(0.001),
	}
}

func TestExportCSVOneFilePerCarSorted(t *testing.T) {
	sink := &fakeSink{}
	records := []*types.SimulationRecord{
		{CarName: "Zeta", GeometryName: "Zeta", UniqueID: "Zeta"},
		{CarName: "Alpha", GeometryName: "Alpha", UniqueID: "Alpha"},
	}

	paths, err := NewExporter(sink, nil).ExportCSV(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "out/Alpha_validation_data.csv", paths[0])
	assert.Equal(t, "out/Zeta_validation_data.csv", paths[1])
	assert.Equal(t, "text/csv", sink.writes[0].contentType)
}

func TestExportCSVRowFormatting(t *testing.T) {
	sink := &fakeSink{}
	_, err := NewExporter(sink, nil).ExportCSV(context.Background(), []*types.SimulationRecord{completeRecord()})
	require.NoError(t, err)
	require.Len(t, sink.writes, 1)

	rows, err := csv.NewReader(strings.NewReader(sink.writes[0].content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, csvHeader, rows[0])
	require.Len(t, rows[1], len(csvHeader))

	byCol := map[string]string{}
	for i, col := range rows[0] {
		byCol[col] = rows[1][i]
	}

	assert.Equal(t, "Car_A_Morph_1", byCol["Name"])
	assert.Equal(t, "ride_height", byCol["Morph_Type"])
	assert.Equal(t, "10.5", byCol["Morph_Value"])
	assert.Equal(t, "true", byCol["Converged"])
	assert.Equal(t, "0.312346", byCol["Cd"]) // six decimals, rounded
	assert.Equal(t, "250.1234", byCol["Drag_N"])
	assert.Equal(t, "true", byCol["Has_Results"])
	assert.Equal(t, "complete", byCol["Status"])
}

func TestExportCSVBlankCellsForMissingQuantities(t *testing.T) {
	sink := &fakeSink{}
	rec := &types.SimulationRecord{
		CarName:      "Car_A",
		GeometryName: "Car_A",
		UniqueID:     "Car_A",
	}

	_, err := NewExporter(sink, nil).ExportCSV(context.Background(), []*types.SimulationRecord{rec})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(sink.writes[0].content)).ReadAll()
	require.NoError(t, err)
	byCol := map[string]string{}
	for i, col := range rows[0] {
		byCol[col] = rows[1][i]
	}

	assert.Empty(t, byCol["Simulator"])
	assert.Empty(t, byCol["Morph_Type"])
	assert.Empty(t, byCol["Converged"])
	assert.Empty(t, byCol["Cd"])
	assert.Equal(t, "false", byCol["Has_Results"])
	assert.Equal(t, "incomplete", byCol["Status"])
}

func TestExportCSVSinkErrorPropagates(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	_, err := NewExporter(sink, nil).ExportCSV(context.Background(), []*types.SimulationRecord{completeRecord()})
	require.Error(t, err)
}

func TestExportReportContent(t *testing.T) {
	orig := reportClock
	reportClock = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	defer func() { reportClock = orig }()

	notConverged := completeRecord()
	notConverged.Converged = bPtr(false)
	records := []*types.SimulationRecord{
		completeRecord(),
		notConverged,
		{CarName: "Car_B", GeometryName: "Car_B", UniqueID: "Car_B"},
	}

	sink := &fakeSink{}
	path, err := NewExporter(sink, nil).ExportReport(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, "out/"+ReportFileName, path)

	body := sink.writes[0].content
	assert.Contains(t, body, "Generated: 2026-08-25 12:00:00")
	assert.Regexp(t, `Total geometries:\s+3`, body)
	assert.Regexp(t, `With results:\s+2 \( 66\.7%\)`, body)
	assert.Regexp(t, `Without results:\s+1 \( 33\.3%\)`, body)
	assert.Contains(t, body, "Car_A")
	assert.Contains(t, body, "Car_B")
	assert.Contains(t, body, "JakubNet")
	assert.Regexp(t, `converged\s+1`, body)
	assert.Regexp(t, `not_converged\s+1`, body)
}

func TestExportReportNoRecords(t *testing.T) {
	sink := &fakeSink{}
	_, err := NewExporter(sink, nil).ExportReport(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, sink.writes[0].content, "(no matched results)")
}

func TestLocalSinkCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := &LocalSink{Dir: dir}

	path, err := sink.Write(context.Background(), "a.csv", "x,y\n", "text/csv")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(data))
}

type fakeTextWriter struct {
	keys map[string]string
}

func (f *fakeTextWriter) WriteText(ctx context.Context, key, content, contentType string) error {
	if f.keys == nil {
		f.keys = map[string]string{}
	}
	f.keys[key] = content
	return nil
}

func TestStoreSinkPrefixesKey(t *testing.T) {
	tw := &fakeTextWriter{}
	sink := &StoreSink{Store: tw, Prefix: "exports/run-1"}

	key, err := sink.Write(context.Background(), "a.csv", "x\n", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "exports/run-1/a.csv", key)
	assert.Equal(t, "x\n", tw.keys["exports/run-1/a.csv"])
}
