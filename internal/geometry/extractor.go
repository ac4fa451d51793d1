// Package geometry extracts identification metadata from geometry folder
// sidecars. Each geometry folder carries one JSON sidecar named after the
// folder itself; a folder whose sidecar is absent or unparsable yields "no
// metadata" and is skipped by discovery.
package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"aeroval/internal/store"
	"aeroval/internal/types"
)

// symmetricSuffix is trimmed from baseline identifiers when deriving the
// car name (e.g. "Audi_RS7_Symmetric" → "Audi_RS7").
const symmetricSuffix = "_Symmetric"

// morphSeparator splits a morphed unique id into car name and morph tail.
const morphSeparator = "_Morph_"

// SidecarReader is the storage surface the extractor needs.
type SidecarReader interface {
	ReadJSON(ctx context.Context, key string, v any) error
}

// Extractor reads geometry sidecars and derives identification metadata.
type Extractor struct {
	reader SidecarReader
	logger *slog.Logger
}

// NewExtractor creates a metadata extractor over the given reader.
func NewExtractor(reader SidecarReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{reader: reader, logger: logger}
}

// sidecar mirrors the geometry JSON layout. Morph parameters stay raw so
// their stored key order can be scanned (a decoded map would lose it).
type sidecar struct {
	UniqueID         string          `json:"unique_id"`
	ParentBaselineID string          `json:"parent_baseline_id"`
	MorphParameters  json.RawMessage `json:"morph_parameters"`
}

// ExtractFromFolder locates the folder's sidecar (key = folder name +
// ".json" inside the folder) and parses it into GeometryMetadata.
// An absent or unparsable sidecar returns a not_found_metadata error;
// storage failures propagate as fatal.
func (e *Extractor) ExtractFromFolder(ctx context.Context, folder string) (*types.GeometryMetadata, error) {
	folder = store.EnsureFolder(folder)
	name := store.FolderName(folder)
	key := folder + name + ".json"

	var sc sidecar
	if err := e.reader.ReadJSON(ctx, key, &sc); err != nil {
		if types.IsFatal(err) {
			return nil, err
		}
		// Absent and unparsable collapse to the same signal: this folder
		// has no usable metadata.
		e.logger.WarnContext(ctx, "no usable metadata sidecar", "key", key, "error", err)
		return nil, &types.AppError{
			Code:    types.ErrCodeNotFoundMetadata,
			Message: fmt.Sprintf("metadata sidecar %q", key),
			Err:     err,
		}
	}

	morphType, morphValue, params, err := parseMorphParameters(sc.MorphParameters)
	if err != nil {
		e.logger.WarnContext(ctx, "unparsable morph parameters", "key", key, "error", err)
		return nil, &types.AppError{
			Code:    types.ErrCodeNotFoundMetadata,
			Message: fmt.Sprintf("metadata sidecar %q", key),
			Err:     err,
		}
	}

	md := &types.GeometryMetadata{
		UniqueID:        sc.UniqueID,
		BaselineID:      sc.ParentBaselineID,
		CarName:         deriveCarName(sc.UniqueID, sc.ParentBaselineID),
		MorphType:       morphType,
		MorphValue:      morphValue,
		MorphParameters: params,
	}

	e.logger.DebugContext(ctx, "extracted metadata",
		"unique_id", md.UniqueID,
		"baseline_id", md.BaselineID,
		"car_name", md.CarName,
	)
	return md, nil
}

// parseMorphParameters scans the morph_parameters object in its stored
// key order and returns the first parameter with a non-zero value. If
// every value is zero, or the object is empty or absent, the geometry is
// a baseline: (nil, 0.0).
//
// If several parameters are non-zero only the first is reported; the
// others are dropped. Combined-morph variants are not modeled.
func parseMorphParameters(raw json.RawMessage) (*string, float64, map[string]float64, error) {
	params := map[string]float64{}
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, 0.0, params, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, 0, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, 0, nil, fmt.Errorf("morph_parameters is not an object")
	}

	var morphType *string
	morphValue := 0.0

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, 0, nil, err
		}
		key := keyTok.(string)

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return nil, 0, nil, fmt.Errorf("morph parameter %q: %w", key, err)
		}
		val, err := num.Float64()
		if err != nil {
			return nil, 0, nil, fmt.Errorf("morph parameter %q: %w", key, err)
		}

		params[key] = val
		if morphType == nil && val != 0.0 {
			k := key
			morphType = &k
			morphValue = val
		}
	}

	return morphType, morphValue, params, nil
}

// deriveCarName recovers the car name from the baseline id when present,
// otherwise from the unique id (everything before the morph tail).
func deriveCarName(uniqueID, baselineID string) string {
	if baselineID != "" {
		return strings.ReplaceAll(baselineID, symmetricSuffix, "")
	}
	if uniqueID != "" {
		head := strings.SplitN(uniqueID, morphSeparator, 2)[0]
		return strings.ReplaceAll(head, symmetricSuffix, "")
	}
	return "Unknown"
}
