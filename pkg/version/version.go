// Package version exposes build metadata injected at link time.
package version

// Values are overridden via -ldflags at build time.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git hash the binary was built from.
	Commit = "<unknown>"

	// Date is the build timestamp.
	Date = "<unknown>"
)
