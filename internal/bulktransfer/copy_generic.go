//go:build !linux

package bulktransfer

import "golang.org/x/sys/unix"

// openTrampoline/closeTrampoline are no-ops off Linux: fd2fd falls back to
// a heap-buffer copy loop instead of splice(2), which is Linux-only.
func (w *worker) openTrampoline() error { return nil }
func (w *worker) closeTrampoline()      {}

// pipe2 opens a pipe and applies the requested flags individually, since
// Pipe2 itself is a Linux-only entry point in golang.org/x/sys/unix.
func pipe2(flags int) ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, err
	}
	if flags&unix.O_NONBLOCK != 0 {
		unix.SetNonblock(fds[0], true)
		unix.SetNonblock(fds[1], true)
	}
	if flags&unix.O_CLOEXEC != 0 {
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}
	return fds, nil
}

func runCopy(r *Request, w *worker) {
	switch r.kind {
	case transferFD2FD:
		copyFD2FD(r)
	case transferFD2Mem:
		copyFD2Mem(r)
	case transferMem2FD:
		copyMem2FD(r)
	default:
		copyMem2Mem(r)
	}
}

// copyFD2FD is the non-GNU fallback from _asyncfd2fdmodule.c's copy_data:
// a pooled heap buffer stands in for the splice trampoline pipe. A short
// destination write stashes the unwritten remainder for the next Queue to
// flush before reading further from the source.
func copyFD2FD(r *Request) {
	for r.lRem > 0 {
		if len(r.stash) > 0 {
			dstOff := r.length - r.lRem
			n, err := writeToEndpoint(r.dst, r.stash, dstOff)
			if err != nil {
				r.errno = errnoOf(err)
				return
			}
			if n <= 0 {
				r.errno = int(unix.EIO)
				return
			}
			r.lRem -= uint64(n)
			if n < len(r.stash) {
				r.stash = append([]byte(nil), r.stash[n:]...)
				return
			}
			r.stash = nil
			continue
		}

		toMove := r.lRem
		if toMove > size1m {
			toMove = size1m
		}
		buf := GetBuffer(uint32(toMove))

		srcOff := r.length - r.lRem
		n, err := readFromEndpoint(r.src, buf, srcOff)
		if err != nil {
			PutBuffer(buf)
			r.errno = errnoOf(err)
			return
		}
		if n <= 0 {
			PutBuffer(buf)
			r.errno = int(unix.EIO)
			return
		}

		dstOff := r.length - r.lRem
		n2, err := writeToEndpoint(r.dst, buf[:n], dstOff)
		if err != nil {
			PutBuffer(buf)
			r.errno = errnoOf(err)
			return
		}
		if n2 < n {
			stash := make([]byte, n-n2)
			copy(stash, buf[n2:n])
			PutBuffer(buf)
			r.stash = stash
			r.lRem -= uint64(n2)
			return
		}
		PutBuffer(buf)
		r.lRem -= uint64(n2)
	}
}
