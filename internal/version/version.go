package version

import "runtime"

// Overridden at build time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/shelf/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String renders the one-line banner printed by `shelf version` and at startup.
func String() string {
	return "shelf " + Version + " (commit=" + Commit + ", built=" + BuildDate + ", " + GoVersion + ")"
}
