package event

import "github.com/brickingsoft/errors"

var (
	ErrCanceled = errors.Define("event canceled")
	ErrAwaited  = errors.Define("event is already awaited")
)

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "event"
)

const (
	errMetaOpKey      = "op"
	errMetaOpAwait    = "await"
	errMetaOpSchedule = "schedule"
	errMetaOpWait     = "wait"
)
