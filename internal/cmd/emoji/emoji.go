// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across commands.
package emoji

// Symbol constants for CLI status lines.
const (
	// Success represents successful completion of an operation.
	// Used for: valid rules files, runs with nothing to review.
	Success = "✓"

	// Error represents failures.
	// Used for: records excluded from reconciliation.
	Error = "✗"

	// Warning represents non-critical issues.
	// Used for: records flagged for review.
	Warning = "!"
)
