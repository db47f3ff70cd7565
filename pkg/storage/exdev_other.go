//go:build !unix

package storage

// Cross-device detection is only implemented for unix; elsewhere a failed
// rename is reported as is.
func isEXDEV(err error) bool {
	return false
}
