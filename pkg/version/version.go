package version

// Version is the service version. Release builds override it with
// -ldflags "-X tastebud/pkg/version.Version=...".
var Version = "v0.3.0"
