//go:build js || wasip1

package platform

func FileSystemAccessSupported() bool {
	return false
}
