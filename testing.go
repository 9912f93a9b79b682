package coreio

import (
	"os"
	"syscall"
)

// TempFile creates a temp file preloaded with size bytes of deterministic
// content (byte i mod 251), giving AIO and bulk-transfer code a real fd to
// pread/pwrite/splice against (cmd/coreio-bench uses it). The caller must
// close and remove it; RemoveTempFile does both.
func TempFile(pattern string, size int) (*os.File, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	if size > 0 {
		buf := make([]byte, size)
		for i := range buf {
			buf[i] = byte(i % 251)
		}
		if _, err := f.Write(buf); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, err
		}
		if _, err := f.Seek(0, 0); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, err
		}
	}
	return f, nil
}

// RemoveTempFile closes f and removes its backing path, ignoring errors
// (best-effort test cleanup).
func RemoveTempFile(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}

// PipePair opens a blocking pipe pair, for exercising a bulk transfer
// whose destination accepts only m<n bytes at a time (spec §8 S5). No test
// in this module calls it.
func PipePair() (r *os.File, w *os.File, err error) {
	var fds [2]int
	if err := syscall.Pipe(fds); err != nil {
		return nil, nil, err
	}
	r = os.NewFile(uintptr(fds[0]), "pipe-r")
	w = os.NewFile(uintptr(fds[1]), "pipe-w")
	return r, w, nil
}

// DrainLimited reads from r in chunks no larger than chunk, stopping once
// total bytes have been read or EOF/no-more-data is hit. It can serve as
// the slow-reader half of the S5 resumption scenario; no test in this
// module calls it.
func DrainLimited(r *os.File, total, chunk int) ([]byte, error) {
	out := make([]byte, 0, total)
	buf := make([]byte, chunk)
	for len(out) < total {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}
