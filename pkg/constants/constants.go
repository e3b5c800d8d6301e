// Package constants provides shared constants used throughout the parcelmap codebase.
// This includes timeouts, file permissions, limits, and default paths that
// should be consistent across the pipeline and the CLI.
package constants

import "time"

// Timeout constants
const (
	// ReconcileTimeout bounds a single reconciliation run
	ReconcileTimeout = 5 * time.Minute

	// HTTPTimeout is the default timeout for fetching remote input files
	HTTPTimeout = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DefaultWorkers is the normalizer worker count when none is configured
	DefaultWorkers = 8

	// MaxWorkers caps the configurable worker count
	MaxWorkers = 256

	// MaxLineSize is the largest NDJSON/CSV line accepted by the sources (4 MiB)
	MaxLineSize = 4 * 1024 * 1024
)

// Path constants
const (
	// DefaultConfigFile is the config file name searched in the working and home directories
	DefaultConfigFile = ".parcelmap"

	// DefaultRulesPath is where rule overrides are looked up when none is given
	DefaultRulesPath = "parcelmap.rules.yaml"

	// DefaultReportName is the file name of the quality report next to the output
	DefaultReportName = "quality_report"
)

// Format constants
const (
	// DateLayout is the ISO date layout used for sale and deed dates
	DateLayout = "2006-01-02"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
