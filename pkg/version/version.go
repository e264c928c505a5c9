// Package version holds the build version.
package version

// Version is the current application version.
var Version = "0.3.0"
