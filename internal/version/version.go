// Package version provides application version information.
// The version can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/booster-sim/internal/version.Version=v1.2.3"
package version

// Version is the application version. It defaults to "dev" and can be
// overridden at build time using ldflags.
var Version = "dev"

// UserAgent identifies the simulator to upstream APIs.
func UserAgent() string {
	return "BoosterSim/" + Version
}
