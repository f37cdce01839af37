package version

// Version is the application version. Overridden at build time via
// -ldflags "-X wikiutils/pkg/version.Version=...".
var Version = "0.1.0-dev"
