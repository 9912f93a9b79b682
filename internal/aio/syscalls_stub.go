//go:build !linux

package aio

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/cerr"
)

// On non-Linux hosts there is no legacy AIO ABI to bind to; every entry
// point fails with a SYSTEM error naming the host platform. This mirrors
// the POSIX-AIO path the source spec calls out as "not implemented" rather
// than attempting a userspace emulation (explicitly out of scope).

type ioContext uintptr

type iocb struct{}

type ioEvent struct{ data uint64 }

func ioSetup(nrEvents uint32) (ioContext, error) {
	return 0, unsupported("io_setup")
}

func ioDestroy(ctx ioContext) error {
	return unsupported("io_destroy")
}

func ioSubmit(ctx ioContext, cbs []*iocb) (int, error) {
	return 0, unsupported("io_submit")
}

func ioGetevents(ctx ioContext, minNr, maxNr int, events []ioEvent, timeout *unix.Timespec) (int, error) {
	return 0, unsupported("io_getevents")
}

func newCompletionFD() (int, error) {
	return -1, unsupported("eventfd")
}

func drainCompletionFD(fd int) error {
	return unsupported("eventfd read")
}

func (r *Request) prepare(tag uint64, resfd int) {}

func unsupported(op string) error {
	return cerr.New(op, cerr.CodeSystem, "kernel AIO is not available on "+runtime.GOOS)
}

func wrapErrno(op string, err error) error {
	return cerr.Wrap(op, err)
}
