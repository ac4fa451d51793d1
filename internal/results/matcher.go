package results

import (
	"context"
	"log/slog"
	"strings"

	"aeroval/internal/store"
	"aeroval/internal/types"
)

// FolderLister is the storage surface the matcher needs.
type FolderLister interface {
	ListFolders(ctx context.Context, prefix string) ([]string, error)
}

// Matcher locates the results folder for a simulation record and
// delegates extraction. Two naming regimes exist under the results
// namespace: the default simulator's folders carry the bare unique id,
// every other simulator prefixes its name ("DES_<unique_id>").
type Matcher struct {
	lister    FolderLister
	extractor *Extractor
	logger    *slog.Logger

	resultsPrefix    string
	defaultSimulator string
	simulatorFilter  string
}

// NewMatcher creates a matcher for one run's target simulator.
func NewMatcher(lister FolderLister, extractor *Extractor, resultsPrefix, defaultSimulator, simulatorFilter string, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	if simulatorFilter == "" {
		simulatorFilter = defaultSimulator
	}
	return &Matcher{
		lister:           lister,
		extractor:        extractor,
		logger:           logger,
		resultsPrefix:    resultsPrefix,
		defaultSimulator: defaultSimulator,
		simulatorFilter:  simulatorFilter,
	}
}

// MatchAndExtract finds the record's results folder and enriches the
// record in place. No match, or a matched folder without a scalar
// payload, leaves the record in the no-results state; only storage
// failures return an error.
func (m *Matcher) MatchAndExtract(ctx context.Context, rec *types.SimulationRecord) error {
	folder, err := m.findResultsFolder(ctx, rec.UniqueID)
	if err != nil {
		return err
	}
	if folder == "" {
		m.logger.DebugContext(ctx, "no results folder matched",
			"unique_id", rec.UniqueID, "simulator", m.simulatorFilter)
		rec.ClearResults()
		return nil
	}

	// Recover the simulator from the folder name itself; it must agree
	// with the filter by construction of the match.
	simulator, ok := ParseSimulatorFolder(store.FolderName(folder), rec.UniqueID, m.defaultSimulator)
	if !ok {
		simulator = m.simulatorFilter
	}

	res, err := m.extractor.ExtractFromFolder(ctx, folder, simulator)
	if err != nil {
		if types.IsFatal(err) {
			return err
		}
		// Folder matched but its scalar payload is unusable. Distinct
		// log from "no folder matched", identical record state.
		m.logger.WarnContext(ctx, "matched folder has no extractable results",
			"unique_id", rec.UniqueID, "folder", folder, "error", err)
		rec.ClearResults()
		return nil
	}

	rec.SetResults(*res)
	m.logger.DebugContext(ctx, "record enriched with results",
		"unique_id", rec.UniqueID, "folder", folder, "converged", res.Converged)
	return nil
}

// findResultsFolder lists the results namespace and returns the first
// folder whose leaf name equals the expected name exactly, or "" when
// none does. Only exact equality matches; a bare unique-id folder never
// matches a non-default simulator filter.
func (m *Matcher) findResultsFolder(ctx context.Context, uniqueID string) (string, error) {
	folders, err := m.lister.ListFolders(ctx, m.resultsPrefix)
	if err != nil {
		return "", err
	}

	expected := uniqueID
	if m.simulatorFilter != m.defaultSimulator {
		expected = m.simulatorFilter + "_" + uniqueID
	}

	for _, folder := range folders {
		if store.FolderName(folder) == expected {
			return folder, nil
		}
	}
	return "", nil
}

// ParseSimulatorFolder recovers the simulator name from a results folder
// leaf name, given the unique id it should contain. It is total over both
// naming regimes: a bare unique id maps to the default simulator, a
// "<sim>_<unique_id>" name maps to that simulator, and anything else
// reports no match. No substring surgery: a unique id occurring elsewhere
// in the name does not confuse the parse.
func ParseSimulatorFolder(folderName, uniqueID, defaultSimulator string) (string, bool) {
	if uniqueID == "" {
		return "", false
	}
	if folderName == uniqueID {
		return defaultSimulator, true
	}
	if prefix, found := strings.CutSuffix(folderName, "_"+uniqueID); found && prefix != "" {
		return prefix, true
	}
	return "", false
}
