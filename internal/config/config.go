// Package config implements the configuration loading lifecycle for the
// collector.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Normalize the store prefixes.
//  4. Validate the struct using go-playground/validator.
//  5. Load the car→group mapping file if one is configured.
package config

import "strings"

// Config holds every tunable for one collector run. Values come from the
// environment (optionally seeded by a .env file); the car-group mapping
// comes from a YAML file referenced by CAR_GROUPS_FILE.
type Config struct {
	// Runtime
	Environment string `envconfig:"APP_ENV" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Object store
	Bucket           string `envconfig:"AEROVAL_BUCKET" validate:"required"`
	AWSRegion        string `envconfig:"AWS_REGION" default:""`
	GeometriesPrefix string `envconfig:"GEOMETRIES_PREFIX" default:"sim-data/validation/geometries" validate:"required"`
	ResultsPrefix    string `envconfig:"RESULTS_PREFIX" default:"sim-data/validation/outputs" validate:"required"`

	// Output destination: a local directory, or a key prefix in the
	// bucket when OUTPUT_TO_S3 is set.
	OutputPath string `envconfig:"OUTPUT_PATH" default:"./output" validate:"required"`
	OutputToS3 bool   `envconfig:"OUTPUT_TO_S3" default:"false"`

	// Pipeline tunables
	CarGroupsFile    string `envconfig:"CAR_GROUPS_FILE"`
	DefaultSimulator string `envconfig:"DEFAULT_SIMULATOR" default:"JakubNet" validate:"required"`
	SignalLength     int    `envconfig:"SIGNAL_LENGTH" default:"300" validate:"min=1"`
	MaxWorkers       int    `envconfig:"MAX_WORKERS" default:"1" validate:"min=1"`

	// Telemetry
	MetricsEnabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"AeroVal"`

	// CarGroups is populated from CarGroupsFile, not the environment.
	CarGroups map[string]string `ignored:"true"`
}

// normalize trims trailing delimiters from the store prefixes so key
// construction can append exactly one.
func (c *Config) normalize() {
	c.GeometriesPrefix = strings.TrimSuffix(c.GeometriesPrefix, "/")
	c.ResultsPrefix = strings.TrimSuffix(c.ResultsPrefix, "/")
}
