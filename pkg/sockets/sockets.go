// Package sockets creates and tears down the sockets that aio requests operate on.
// It is deliberately blocking: Open, Dial and Accept are setup calls, the data
// path goes through aio.
package sockets

import (
	"github.com/brickingsoft/errors"
)

var ErrUnsupported = errors.Define("sockets are not supported on this platform")

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "sockets"
)

const (
	errMetaOpKey    = "op"
	errMetaOpOpen   = "open"
	errMetaOpDial   = "dial"
	errMetaOpAccept = "accept"
	errMetaOpClose  = "close"
	errMetaOpAddr   = "addr"
)

func newError(msg string, op string, cause error) error {
	return errors.New(
		msg,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(cause),
	)
}
