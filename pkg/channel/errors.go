package channel

import "github.com/brickingsoft/errors"

var (
	ErrBusy   = errors.Define("channel already has a pending party on this side")
	ErrReused = errors.Define("channel awaiter was already awaited")
)

func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "channel"
)

const (
	errMetaOpKey   = "op"
	errMetaOpWrite = "write"
	errMetaOpRead  = "read"
)

func newError(op string, cause error) error {
	var msg string
	if op == errMetaOpWrite {
		msg = "write failed"
	} else {
		msg = "read failed"
	}
	return errors.New(
		msg,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(errors.From(cause)),
	)
}
