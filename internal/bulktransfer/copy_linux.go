//go:build linux

package bulktransfer

import (
	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/constants"
)

// spliceChunk caps how many bytes move through the trampoline pipe per
// splice pair.
const spliceChunk = constants.SpliceTrampolineSize

// pipe2 opens a pipe with the given fcntl flags (O_NONBLOCK, O_CLOEXEC).
func pipe2(flags int) ([2]int, error) {
	var fds [2]int
	err := unix.Pipe2(fds[:], flags)
	return fds, err
}

// openTrampoline allocates the worker's private splice pipe.
func (w *worker) openTrampoline() error {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return err
	}
	w.pipeR, w.pipeW = fds[0], fds[1]
	return nil
}

func (w *worker) closeTrampoline() {
	if w.pipeR >= 0 {
		unix.Close(w.pipeR)
		w.pipeR = -1
	}
	if w.pipeW >= 0 {
		unix.Close(w.pipeW)
		w.pipeW = -1
	}
}

// runCopy executes one Request's copy, dispatching on its endpoint kinds.
// It runs until l_rem reaches zero or a short destination write forces it
// to park (updating stash/l_rem so the next Queue resumes correctly).
func runCopy(r *Request, w *worker) {
	switch r.kind {
	case transferFD2FD:
		copyFD2FD(r, w)
	case transferFD2Mem:
		copyFD2Mem(r)
	case transferMem2FD:
		copyMem2FD(r)
	default:
		copyMem2Mem(r)
	}
}

// copyFD2FD moves bytes src->dst through the worker's trampoline pipe via
// splice(2), avoiding a userspace copy. Grounded on _asyncfd2fdmodule.c's
// copy_data GNU branch: splice into the pipe, then splice out of the pipe;
// a short second splice drains the pipe's leftover bytes into r.stash and
// parks the Request, which the next Queue flushes before splicing again.
func copyFD2FD(r *Request, w *worker) {
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
		if toMove > spliceChunk {
			toMove = spliceChunk
		}

		srcOff := r.length - r.lRem
		n1, err := spliceIn(r, w, srcOff, toMove)
		if err != nil {
			r.errno = errnoOf(err)
			return
		}
		if n1 <= 0 {
			r.errno = int(unix.EIO)
			return
		}

		dstOff := r.length - r.lRem
		n2, err := spliceOut(r, w, dstOff, n1)
		if err != nil {
			drainIntoStash(w, n1)
			r.errno = errnoOf(err)
			return
		}
		if n2 < n1 {
			r.stash = drainIntoStash(w, n1-n2)
			r.lRem -= uint64(n2)
			return
		}
		r.lRem -= uint64(n2)
	}
}

func spliceIn(r *Request, w *worker, off, n uint64) (uint64, error) {
	flags := unix.SPLICE_F_MOVE
	if r.src.HasOffset {
		o := r.src.Offset + int64(off)
		cnt, err := unix.Splice(r.src.FD, &o, w.pipeW, nil, int(n), flags)
		return uint64(cnt), err
	}
	cnt, err := unix.Splice(r.src.FD, nil, w.pipeW, nil, int(n), flags)
	return uint64(cnt), err
}

func spliceOut(r *Request, w *worker, off, n uint64) (uint64, error) {
	flags := unix.SPLICE_F_MOVE
	if r.dst.HasOffset {
		o := r.dst.Offset + int64(off)
		cnt, err := unix.Splice(w.pipeR, nil, r.dst.FD, &o, int(n), flags)
		return uint64(cnt), err
	}
	cnt, err := unix.Splice(w.pipeR, nil, r.dst.FD, nil, int(n), flags)
	return uint64(cnt), err
}

// drainIntoStash reads exactly n bytes sitting in the worker's trampoline
// pipe (already moved there by a successful first splice) into a fresh
// stash buffer.
func drainIntoStash(w *worker, n uint64) []byte {
	buf := make([]byte, n)
	var filled uint64
	for filled < n {
		c, err := unix.Read(w.pipeR, buf[filled:])
		if c <= 0 || err != nil {
			break
		}
		filled += uint64(c)
	}
	return buf[:filled]
}
