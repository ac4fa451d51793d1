// Package discovery enumerates geometry leaf folders and builds the
// initial simulation record set. A leaf is a folder with no sub-folders;
// every leaf with a readable metadata sidecar becomes one record.
package discovery

import (
	"context"
	"log/slog"

	"aeroval/internal/store"
	"aeroval/internal/types"
)

// LeafLister is the storage surface discovery needs.
type LeafLister interface {
	ListLeafFolders(ctx context.Context, prefix string) ([]string, error)
}

// MetadataExtractor produces geometry metadata for one folder.
type MetadataExtractor interface {
	ExtractFromFolder(ctx context.Context, folder string) (*types.GeometryMetadata, error)
}

// Discovery walks the geometries namespace and constructs simulation
// records with identity and geometry fields populated. Result fields are
// left empty for the matcher.
type Discovery struct {
	lister    LeafLister
	extractor MetadataExtractor
	carGroups map[string]string
	logger    *slog.Logger
}

// NewDiscovery creates a Discovery over the given store surface.
// carGroups maps car names to classification groups; unmapped cars get
// types.DefaultCarGroup.
func NewDiscovery(lister LeafLister, extractor MetadataExtractor, carGroups map[string]string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		lister:    lister,
		extractor: extractor,
		carGroups: carGroups,
		logger:    logger,
	}
}

// DiscoverAll enumerates every leaf folder under geometriesPrefix and
// returns one record per folder with usable metadata, in listing order.
// A non-empty carFilter keeps only records whose car name equals it
// exactly. Folders without metadata are skipped with a warning; storage
// failures abort with an error.
func (d *Discovery) DiscoverAll(ctx context.Context, geometriesPrefix string, carFilter string) ([]*types.SimulationRecord, error) {
	d.logger.InfoContext(ctx, "starting discovery", "prefix", geometriesPrefix)

	folders, err := d.lister.ListLeafFolders(ctx, geometriesPrefix)
	if err != nil {
		return nil, err
	}
	d.logger.InfoContext(ctx, "found geometry folders", "count", len(folders))

	var records []*types.SimulationRecord
	skipped := 0

	for _, folder := range folders {
		rec, err := d.createRecord(ctx, folder)
		if err != nil {
			if types.IsFatal(err) {
				return nil, err
			}
			d.logger.WarnContext(ctx, "skipping geometry folder without metadata", "folder", folder)
			skipped++
			continue
		}

		if carFilter != "" && rec.CarName != carFilter {
			continue
		}
		records = append(records, rec)
	}

	d.logger.InfoContext(ctx, "discovery complete",
		"records", len(records), "skipped", skipped, "car_filter", carFilter)
	return records, nil
}

// createRecord extracts one folder's metadata and folds it into a fresh
// record with empty result state.
func (d *Discovery) createRecord(ctx context.Context, folder string) (*types.SimulationRecord, error) {
	md, err := d.extractor.ExtractFromFolder(ctx, folder)
	if err != nil {
		return nil, err
	}

	geometryName := store.FolderName(folder)
	uniqueID := md.UniqueID
	if uniqueID == "" {
		uniqueID = geometryName
	}

	group, ok := d.carGroups[md.CarName]
	if !ok {
		group = types.DefaultCarGroup
	}

	morphValue := md.MorphValue
	rec := &types.SimulationRecord{
		CarName:         md.CarName,
		CarGroup:        group,
		GeometryName:    geometryName,
		UniqueID:        uniqueID,
		BaselineID:      md.BaselineID,
		MorphType:       md.MorphType,
		MorphValue:      &morphValue,
		MorphParameters: md.MorphParameters,
		StorePath:       folder,
	}

	d.logger.DebugContext(ctx, "created record",
		"unique_id", rec.UniqueID, "car", rec.CarName, "group", rec.CarGroup)
	return rec, nil
}
