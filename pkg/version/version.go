// Package version holds the application version.
package version

// Version is the current application version.
const Version = "0.3.0"
