//go:build !js && !wasip1

package platform

// FileSystemAccessSupported reports whether user directories can be opened.
func FileSystemAccessSupported() bool {
	return true
}
