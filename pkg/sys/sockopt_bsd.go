//go:build dragonfly || freebsd || netbsd || openbsd

package sys

func setNoSigpipe(_ int) error {
	return nil
}
