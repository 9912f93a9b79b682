//go:build linux

// Package aio implements kernel-AIO request submission and harvest behind a
// single non-blocking completion descriptor. The submission/harvest path
// uses the legacy io_setup/io_submit/io_getevents/io_destroy ABI (not
// io_uring) so that a single completion eventfd can represent "one or more
// results waiting" the way a readiness-based event loop expects.
package aio

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/cerr"
)

// System call numbers for the legacy Linux AIO ABI (x86-64). These are not
// exposed by golang.org/x/sys/unix, which only wraps io_uring.
const (
	sysIoSetup     = 206
	sysIoDestroy   = 207
	sysIoSubmit    = 209
	sysIoGetevents = 208
)

// iocbFlagResfd tells the kernel to signal completion on iocb.resfd instead
// of (or in addition to) SIGIO.
const iocbFlagResfd = 1

// ioCmd mirrors libaio's IO_CMD_* opcode values.
type ioCmd int16

const (
	ioCmdPread  ioCmd = 0
	ioCmdPwrite ioCmd = 1
)

// iocb mirrors struct iocb from <libaio.h>/<linux/aio_abi.h> for the
// pread/pwrite command shape used here. Field order and widths must match
// the kernel ABI exactly since this struct crosses the syscall boundary.
type iocb struct {
	data       uint64
	key        uint32
	rwFlags    int32
	lioOpcode  int16
	reqprio    int16
	fildes     uint32
	buf        uint64
	nbytes     uint64
	offset     int64
	reserved2  uint64
	flags      uint32
	resfd      uint32
}

// ioEvent mirrors struct io_event.
type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

// ioContext is the opaque kernel AIO context handle (aio_context_t is a
// userspace-visible unsigned long in the kernel ABI).
type ioContext uintptr

func ioSetup(nrEvents uint32) (ioContext, error) {
	var ctx ioContext
	r1, _, errno := syscall.Syscall(sysIoSetup, uintptr(nrEvents), uintptr(unsafe.Pointer(&ctx)), 0)
	if errno != 0 {
		return 0, errno
	}
	_ = r1
	return ctx, nil
}

func ioDestroy(ctx ioContext) error {
	_, _, errno := syscall.Syscall(sysIoDestroy, uintptr(ctx), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioSubmit(ctx ioContext, cbs []*iocb) (int, error) {
	if len(cbs) == 0 {
		return 0, nil
	}
	r1, _, errno := syscall.Syscall(sysIoSubmit, uintptr(ctx), uintptr(len(cbs)), uintptr(unsafe.Pointer(&cbs[0])))
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

func ioGetevents(ctx ioContext, minNr, maxNr int, events []ioEvent, timeout *unix.Timespec) (int, error) {
	r1, _, errno := syscall.Syscall6(sysIoGetevents, uintptr(ctx), uintptr(minNr), uintptr(maxNr),
		uintptr(unsafe.Pointer(&events[0])), uintptr(unsafe.Pointer(timeout)), 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

// newCompletionFD creates the non-blocking eventfd the kernel increments on
// each AIO completion and that the caller's event loop watches for
// readability.
func newCompletionFD() (int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

func drainCompletionFD(fd int) error {
	var buf [8]byte
	_, err := unix.Read(fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// prepare fills in the iocb the kernel will read during io_submit. data
// holds the small correlation tag the Manager assigned this Request (see
// Manager.reqs), not the Request's address — stashing a raw pointer in a
// kernel-bound field would leave nothing Go-reachable rooting the Request
// once Submit returns, the same use-after-free hazard the teacher's own
// tag/index idiom (internal/queue/runner.go's tagStates) avoids.
func (r *Request) prepare(tag uint64, resfd int) {
	var buf unsafe.Pointer
	if r.region.Len() > 0 {
		buf = unsafe.Pointer(&r.region.Bytes[0])
	}
	r.cb = iocb{
		data:      tag,
		lioOpcode: int16(r.mode),
		fildes:    uint32(r.fd),
		buf:       uint64(uintptr(buf)),
		nbytes:    uint64(r.region.Len()),
		offset:    r.offset,
		flags:     iocbFlagResfd,
		resfd:     uint32(resfd),
	}
}

func wrapErrno(op string, err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := err.(syscall.Errno); ok {
		return cerr.NewErrno(op, errno)
	}
	if errno, ok := err.(unix.Errno); ok {
		return cerr.NewErrno(op, syscall.Errno(errno))
	}
	return cerr.Wrap(op, err)
}
