package types

// ResultData is the explicit result payload produced by the results
// extractor. Fields are pointers where a quantity may legitimately be
// absent (missing scalar, empty averaging window, degenerate reference
// parameters). The matcher assigns this struct onto a SimulationRecord
// field by field; there is no dynamic key merge, so an unexpected key in
// the source payload is simply never carried.
type ResultData struct {
	// Simulator is the label of the simulator that produced the results.
	// Always set by the extractor.
	Simulator string

	// Converged is the boolean cast of the scalar payload's convergence
	// flag; a missing flag reads as false.
	Converged bool

	// Instantaneous forces in Newtons, absent if missing from the
	// scalar payload.
	DragN *float64
	LiftN *float64

	// Instantaneous coefficients. Absent when the corresponding force is
	// absent or the dynamic-pressure denominator is exactly zero.
	Cd *float64
	Cl *float64

	// Window-averaged forces and coefficients from the force series.
	// Absent when no series is present or no rows parsed for the
	// quantity.
	AvgDragN *float64
	AvgLiftN *float64
	AvgCd    *float64
	AvgCl    *float64

	// Population standard deviations over the same window.
	StdDragN *float64
	StdLiftN *float64
	StdCd    *float64
	StdCl    *float64
}

// ReferenceParams are the free-stream reference conditions used for
// coefficient calculation. Defaults apply when the scalar payload omits
// a parameter.
type ReferenceParams struct {
	Density  float64 // kg/m^3
	Velocity float64 // m/s
	Area     float64 // m^2
}

// Default reference conditions (sea-level air, 30 m/s, unit area).
const (
	DefaultRefDensity  = 1.225
	DefaultRefVelocity = 30.0
	DefaultRefArea     = 1.0
)

// DefaultReferenceParams returns the reference conditions assumed when
// the scalar payload carries none.
func DefaultReferenceParams() ReferenceParams {
	return ReferenceParams{
		Density:  DefaultRefDensity,
		Velocity: DefaultRefVelocity,
		Area:     DefaultRefArea,
	}
}
