// Package buildinfo carries version stamps injected by the linker.
package buildinfo

// Set via -ldflags, for example:
//
//	-X 'github.com/m3rciful/damagebot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/damagebot/core/buildinfo.Commit=1f2e3d4'
//	-X 'github.com/m3rciful/damagebot/core/buildinfo.Date=2026-10-01T09:00:00Z'
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)
