package version

// Version is the release version, overridden at build time with
// -ldflags "-X itinera/pkg/version.Version=v1.2.3".
var Version = "v0.4.0-dev"
