package mover

import (
	"context"
	"errors"
	"os"
	"syscall"

	"curator/internal/errclass"
)

// Errno sets chosen to match how network shares and local disks actually
// fail: a share drops with unreachable/timeout/stale errors that clear on
// their own, a local disk fails with permission or capacity errors that do
// not.
var permanentErrnos = []syscall.Errno{
	syscall.EACCES,
	syscall.EPERM,
	syscall.EROFS,
	syscall.ENOSPC,
	syscall.EDQUOT,
	syscall.ENAMETOOLONG,
	syscall.EINVAL,
	syscall.EISDIR,
	syscall.ENOTDIR,
	syscall.EFBIG,
}

var transientErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.EBUSY,
	syscall.EIO,
	syscall.ETIMEDOUT,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.ENETDOWN,
	syscall.ENETUNREACH,
	syscall.ENOTCONN,
	syscall.ESTALE,
}

// classify maps a raw move failure onto the pipeline taxonomy. network biases
// the unknown-error default: an unrecognized failure against a network
// destination is worth retrying, the same failure against a local disk is not.
func classify(op string, network bool, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return errclass.Wrap(errclass.ErrTransient, "mover", op, "attempt timed out", err)
	case errors.Is(err, os.ErrNotExist):
		return errclass.Wrap(errclass.ErrPermanent, "mover", op, "source vanished", err)
	case errors.Is(err, os.ErrPermission):
		return errclass.Wrap(errclass.ErrPermanent, "mover", op, "permission denied", err)
	}
	for _, errno := range permanentErrnos {
		if errors.Is(err, errno) {
			return errclass.Wrap(errclass.ErrPermanent, "mover", op, errno.Error(), err)
		}
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return errclass.Wrap(errclass.ErrTransient, "mover", op, errno.Error(), err)
		}
	}
	if network {
		return errclass.Wrap(errclass.ErrTransient, "mover", op, "network destination failure", err)
	}
	return errclass.Wrap(errclass.ErrPermanent, "mover", op, "local destination failure", err)
}
