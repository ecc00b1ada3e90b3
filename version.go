// Package arrange provides the version information for arrange-go.
package arrange

// Version is the current version of arrange-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
