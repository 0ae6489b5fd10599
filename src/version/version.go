package version

// Version is the CLI version string. Overridden at build time via
// -ldflags "-X dirbackup/src/version.Version=...".
var Version = "0.1.0-dev"
