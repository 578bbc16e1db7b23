//go:build !linux

// Package process adjusts scheduling properties of the calling thread.
package process

// SetCPUAffinity
// is a no-op where thread affinity is not supported.
func SetCPUAffinity(_ int) error {
	return nil
}
