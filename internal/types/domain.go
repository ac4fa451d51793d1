// Package types defines the shared domain model for the validation data
// collector: simulation records, extracted result payloads, and the
// application error taxonomy. It has no dependencies on other internal
// packages so that every component can consume it freely.
package types

// Status values derived from a record's result-linkage state.
const (
	// StatusIncomplete means no results were matched for the geometry.
	StatusIncomplete = "incomplete"

	// StatusComplete means results were matched and the run converged.
	StatusComplete = "complete"

	// StatusCompleteNotConverged means results were matched but the run
	// did not converge (or convergence is unknown).
	StatusCompleteNotConverged = "complete_not_converged"
)

// DefaultCarGroup is the classification used when a car name is not
// present in the configured car→group mapping.
const DefaultCarGroup = "unknown"

// GeometryMetadata holds the identification fields parsed from a geometry
// folder's JSON sidecar. It is transient: Discovery folds it into a
// SimulationRecord and discards it.
type GeometryMetadata struct {
	UniqueID   string
	BaselineID string
	CarName    string

	// MorphType is the name of the single non-zero morph parameter, or
	// nil for a baseline (unmorphed) geometry. If several parameters are
	// non-zero, the first one in the sidecar's stored order wins and the
	// rest are dropped.
	MorphType  *string
	MorphValue float64

	MorphParameters map[string]float64
}

// SimulationRecord is one aerodynamic simulation variant: a geometry
// discovered in the store, optionally enriched with matched results.
//
// Lifecycle: created by Discovery with identity and geometry fields
// populated; mutated exactly once by the matcher via SetResults (calling
// again overwrites, never accumulates); read-only thereafter.
type SimulationRecord struct {
	// Identity
	CarName      string
	CarGroup     string
	GeometryName string
	UniqueID     string
	BaselineID   string

	// Geometry variant descriptor
	MorphType       *string
	MorphValue      *float64
	MorphParameters map[string]float64

	// Store location of the geometry folder.
	StorePath string

	// Result linkage state. HasResults == false implies every field
	// below is nil; HasResults == true implies Simulator and Converged
	// are set.
	HasResults bool
	Simulator  *string
	Converged  *bool

	// Instantaneous quantities
	Cd    *float64
	Cl    *float64
	DragN *float64
	LiftN *float64

	// Window-averaged quantities
	AvgCd    *float64
	AvgCl    *float64
	AvgDragN *float64
	AvgLiftN *float64

	// Population standard deviations over the averaging window
	StdCd    *float64
	StdCl    *float64
	StdDragN *float64
	StdLiftN *float64
}

// SetResults copies an extracted result payload onto the record,
// field by field. Every result field is overwritten on each call, so a
// second match replaces the first rather than merging with it.
func (r *SimulationRecord) SetResults(res ResultData) {
	r.HasResults = true
	converged := res.Converged
	r.Converged = &converged
	simulator := res.Simulator
	r.Simulator = &simulator

	r.Cd = res.Cd
	r.Cl = res.Cl
	r.DragN = res.DragN
	r.LiftN = res.LiftN
	r.AvgCd = res.AvgCd
	r.AvgCl = res.AvgCl
	r.AvgDragN = res.AvgDragN
	r.AvgLiftN = res.AvgLiftN
	r.StdCd = res.StdCd
	r.StdCl = res.StdCl
	r.StdDragN = res.StdDragN
	r.StdLiftN = res.StdLiftN
}

// ClearResults resets the record to the no-results state, restoring the
// HasResults == false invariant (all result fields nil).
func (r *SimulationRecord) ClearResults() {
	r.HasResults = false
	r.Simulator = nil
	r.Converged = nil
	r.Cd, r.Cl, r.DragN, r.LiftN = nil, nil, nil, nil
	r.AvgCd, r.AvgCl, r.AvgDragN, r.AvgLiftN = nil, nil, nil, nil
	r.StdCd, r.StdCl, r.StdDragN, r.StdLiftN = nil, nil, nil, nil
}

// Status derives the processing status from the record's state.
// Convergence-unknown is folded into "complete_not_converged", the same
// as an explicit false.
func (r *SimulationRecord) Status() string {
	if !r.HasResults {
		return StatusIncomplete
	}
	if r.Converged != nil && *r.Converged {
		return StatusComplete
	}
	return StatusCompleteNotConverged
}

// IsBaseline reports whether this record is an unmorphed baseline
// geometry (no morph parameter applied).
func (r *SimulationRecord) IsBaseline() bool {
	return r.MorphType == nil
}

// CountWithResults returns how many records in the collection have
// matched results.
func CountWithResults(records []*SimulationRecord) int {
	n := 0
	for _, r := range records {
		if r.HasResults {
			n++
		}
	}
	return n
}

// GroupByCar buckets records by car name, preserving the input order
// inside each bucket.
func GroupByCar(records []*SimulationRecord) map[string][]*SimulationRecord {
	grouped := make(map[string][]*SimulationRecord)
	for _, r := range records {
		grouped[r.CarName] = append(grouped[r.CarName], r)
	}
	return grouped
}
