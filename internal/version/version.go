// Package version carries the build version, set with
// -ldflags "-X filesmanager/internal/version.Version=...".
package version

var Version = "dev"
