package bulktransfer

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// readFromEndpoint issues a single pread (HasOffset) or read against a FILE
// endpoint at logical position off bytes into the transfer.
func readFromEndpoint(e Endpoint, buf []byte, off uint64) (int, error) {
	if e.HasOffset {
		return unix.Pread(e.FD, buf, e.Offset+int64(off))
	}
	return unix.Read(e.FD, buf)
}

// writeToEndpoint issues a single pwrite (HasOffset) or write against a
// FILE endpoint at logical position off bytes into the transfer.
func writeToEndpoint(e Endpoint, buf []byte, off uint64) (int, error) {
	if e.HasOffset {
		return unix.Pwrite(e.FD, buf, e.Offset+int64(off))
	}
	return unix.Write(e.FD, buf)
}

// copyFD2Mem performs a single pread/read into the destination region,
// offset by length-l_rem bytes so a short read is resumable on the next
// queue().
func copyFD2Mem(r *Request) {
	off := r.length - r.lRem
	buf := r.dst.Region.Slice(int(off))[:r.lRem]
	n, err := readFromEndpoint(r.src, buf, off)
	if err != nil {
		r.errno = errnoOf(err)
		return
	}
	if n <= 0 {
		r.errno = int(unix.EIO)
		return
	}
	r.lRem -= uint64(n)
}

// copyMem2FD performs a single pwrite/write from the source region, offset
// by length-l_rem bytes; a short write updates l_rem for the next round.
func copyMem2FD(r *Request) {
	off := r.length - r.lRem
	buf := r.src.Region.Slice(int(off))[:r.lRem]
	n, err := writeToEndpoint(r.dst, buf, off)
	if err != nil {
		r.errno = errnoOf(err)
		return
	}
	if n <= 0 {
		r.errno = int(unix.EIO)
		return
	}
	r.lRem -= uint64(n)
}

// copyMem2Mem performs one non-overlapping byte copy; the caller is
// responsible for disjointness of the two regions.
func copyMem2Mem(r *Request) {
	copy(r.dst.Region.Bytes[:r.length], r.src.Region.Bytes[:r.length])
	r.lRem = 0
}

func errnoOf(err error) int {
	if errno, ok := err.(syscall.Errno); ok {
		return int(errno)
	}
	if errno, ok := err.(unix.Errno); ok {
		return int(errno)
	}
	return -1
}
