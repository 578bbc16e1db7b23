package aio

import (
	stderr "errors"
	"syscall"

	"github.com/brickingsoft/errors"
)

var (
	ErrSubmission  = errors.Define("submission failed")
	ErrCompletion  = errors.Define("completion failed")
	ErrInFlight    = errors.Define("descriptor is in flight")
	ErrClosed      = errors.Define("engine closed")
	ErrUnsupported = errors.Define("platform is not supported")
)

func IsSubmissionError(err error) bool {
	return errors.Is(err, ErrSubmission)
}

func IsCompletionError(err error) bool {
	return errors.Is(err, ErrCompletion)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Error
// is a failed submission or completion. Err describes the failure and is
// classified by IsSubmissionError and IsCompletionError; Errno is the system
// error code behind it, zero when the failure did not come from the system.
type Error struct {
	Op    string
	Errno syscall.Errno
	Err   error
}

func (e *Error) Error() string {
	if e.Errno != 0 {
		return e.Op + ": " + e.Err.Error() + ": " + e.Errno.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errno
// returns the operating system error code carried by err.
func Errno(err error) (syscall.Errno, bool) {
	var e *Error
	if stderr.As(err, &e) && e.Errno != 0 {
		return e.Errno, true
	}
	var errno syscall.Errno
	if stderr.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// errnoOf must run before cause is wrapped: enhanced errors keep only its message.
func errnoOf(cause error) syscall.Errno {
	var errno syscall.Errno
	if stderr.As(cause, &errno) {
		return errno
	}
	return 0
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "aio"
)

const (
	errMetaOpKey          = "op"
	errMetaOpSendTo       = "send_to"
	errMetaOpRecvFrom     = "receive_from"
	errMetaOpSend         = "send"
	errMetaOpRecv         = "receive"
	errMetaOpReset        = "reset"
	errMetaOpStartup      = "startup"
	errMetaOpShutdown     = "shutdown"
	errMetaOpAssociate    = "associate"
	errMetaOpDisassociate = "disassociate"
)

func submissionError(op string, cause error) error {
	return &Error{
		Op:    op,
		Errno: errnoOf(cause),
		Err: errors.New(
			"submit failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, op),
			errors.WithWrap(errors.From(ErrSubmission, errors.WithWrap(cause))),
		),
	}
}

func completionError(op string, cause error) error {
	return &Error{
		Op:    op,
		Errno: errnoOf(cause),
		Err: errors.New(
			"operation failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, op),
			errors.WithWrap(errors.From(ErrCompletion, errors.WithWrap(cause))),
		),
	}
}

func engineError(msg string, op string, cause error) error {
	return errors.New(
		msg,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(cause),
	)
}
