package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"aeroval/internal/types"
)

// ReportFileName is the summary report artifact name.
const ReportFileName = "validation_summary.txt"

const reportRule = "================================================================================"

// reportClock is swapped in tests to pin the generation timestamp.
var reportClock = time.Now

// ExportReport renders the plain-text summary report and writes it
// through the sink, returning the destination path.
func (e *Exporter) ExportReport(ctx context.Context, records []*types.SimulationRecord) (string, error) {
	content := renderReport(records, reportClock())
	path, err := e.sink.Write(ctx, ReportFileName, content, "text/plain")
	if err != nil {
		return "", err
	}
	e.logger.InfoContext(ctx, "wrote summary report", "path", path)
	return path, nil
}

// renderReport builds the report body: overall counts, a per-car table,
// per-simulator counts, and the convergence tally.
func renderReport(records []*types.SimulationRecord, now time.Time) string {
	var b strings.Builder

	total := len(records)
	withResults := types.CountWithResults(records)
	withoutResults := total - withResults

	fmt.Fprintln(&b, reportRule)
	fmt.Fprintln(&b, "AERODYNAMIC VALIDATION DATA SUMMARY")
	fmt.Fprintf(&b, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, reportRule)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "OVERALL")
	fmt.Fprintf(&b, "  Total geometries: %8d\n", total)
	fmt.Fprintf(&b, "  With results:     %8d (%5.1f%%)\n", withResults, percent(withResults, total))
	fmt.Fprintf(&b, "  Without results:  %8d (%5.1f%%)\n", withoutResults, percent(withoutResults, total))
	fmt.Fprintln(&b)

	writeCarTable(&b, records)
	writeSimulatorCounts(&b, records)
	writeConvergence(&b, records)

	fmt.Fprintln(&b, reportRule)
	return b.String()
}

func writeCarTable(b *strings.Builder, records []*types.SimulationRecord) {
	grouped := types.GroupByCar(records)
	cars := make([]string, 0, len(grouped))
	for car := range grouped {
		cars = append(cars, car)
	}
	sort.Strings(cars)

	fmt.Fprintln(b, "PER-CAR BREAKDOWN")
	fmt.Fprintf(b, "  %-30s %8s %10s %10s %6s\n", "Car", "Total", "Results", "Missing", "Rate")
	fmt.Fprintf(b, "  %s\n", strings.Repeat("-", 68))
	for _, car := range cars {
		recs := grouped[car]
		with := types.CountWithResults(recs)
		fmt.Fprintf(b, "  %-30s %8d %10d %10d %5.1f%%\n",
			car, len(recs), with, len(recs)-with, percent(with, len(recs)))
	}
	fmt.Fprintln(b)
}

func writeSimulatorCounts(b *strings.Builder, records []*types.SimulationRecord) {
	counts := map[string]int{}
	for _, r := range records {
		if r.Simulator != nil {
			counts[*r.Simulator]++
		}
	}
	sims := make([]string, 0, len(counts))
	for sim := range counts {
		sims = append(sims, sim)
	}
	sort.Strings(sims)

	fmt.Fprintln(b, "SIMULATORS")
	if len(sims) == 0 {
		fmt.Fprintln(b, "  (no matched results)")
	}
	for _, sim := range sims {
		fmt.Fprintf(b, "  %-30s %8d\n", sim, counts[sim])
	}
	fmt.Fprintln(b)
}

func writeConvergence(b *strings.Builder, records []*types.SimulationRecord) {
	converged, notConverged := 0, 0
	for _, r := range records {
		switch r.Status() {
		case types.StatusComplete:
			converged++
		case types.StatusCompleteNotConverged:
			notConverged++
		}
	}

	fmt.Fprintln(b, "CONVERGENCE")
	fmt.Fprintf(b, "  %-30s %8d\n", "converged", converged)
	fmt.Fprintf(b, "  %-30s %8d\n", "not_converged", notConverged)
	fmt.Fprintln(b)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
