package bulktransfer

import (
	"bytes"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/region"
)

func tempFileWith(t *testing.T, content []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "bulk-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return f
}

func waitReadable(t *testing.T, fd int, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for time.Now().Before(deadline) {
		n, err := unix.Poll(fds, 50)
		if err != nil && err != unix.EINTR {
			t.Fatalf("Poll: %v", err)
		}
		if n > 0 {
			return true
		}
	}
	return false
}

// TestDispatcherFD2FDRoundTrip moves ten 1 MiB files through a two-worker
// Dispatcher and checks byte-for-byte equality plus pending_count settling
// back to 0 (scenario S4).
func TestDispatcherFD2FDRoundTrip(t *testing.T) {
	d, err := NewDispatcher(2)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	const n = 10
	const size = 1024 * 1024

	srcs := make([]*os.File, n)
	dsts := make([]*os.File, n)
	payloads := make([][]byte, n)

	for i := 0; i < n; i++ {
		payload := make([]byte, size)
		if _, err := rand.Read(payload); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}
		payloads[i] = payload
		srcs[i] = tempFileWith(t, payload)
		defer srcs[i].Close()

		dst, err := os.CreateTemp(t.TempDir(), "bulk-dst-*")
		if err != nil {
			t.Fatalf("CreateTemp: %v", err)
		}
		dsts[i] = dst
		defer dst.Close()

		req, err := NewRequest(d,
			FileEndpoint(int(srcs[i].Fd()), 0, true),
			FileEndpoint(int(dsts[i].Fd()), 0, true),
			uint64(size), i)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if err := req.Queue(); err != nil {
			t.Fatalf("Queue: %v", err)
		}
	}

	done := 0
	deadline := time.Now().Add(10 * time.Second)
	for done < n && time.Now().Before(deadline) {
		if !waitReadable(t, d.FileNo(), time.Second) {
			continue
		}
		for _, r := range d.Harvest() {
			if err := r.GetErrors(); err != nil {
				t.Fatalf("request %v failed: %v", r.Opaque(), err)
			}
			if r.MissingByteCount() != 0 {
				t.Fatalf("request %v missing %d bytes", r.Opaque(), r.MissingByteCount())
			}
			done++
		}
	}
	if done != n {
		t.Fatalf("expected %d completions, got %d", n, done)
	}

	if pc := d.PendingCount(); pc != 0 {
		t.Fatalf("expected pending_count=0 after draining, got %d", pc)
	}

	for i := 0; i < n; i++ {
		got, err := os.ReadFile(dsts[i].Name())
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !bytes.Equal(got, payloads[i]) {
			t.Fatalf("transfer %d: destination content mismatch", i)
		}
	}
}

// TestDispatcherMem2FDPartialPipe drains a 1 MiB mem2fd transfer through a
// pipe whose reader only takes 4 KiB at a time, requeuing the Request after
// each harvest until no bytes are missing (scenario S5). The pipe is
// blocking, so the write may finish in one cycle or across several
// short-write/resume cycles.
func TestDispatcherMem2FDPartialPipe(t *testing.T) {
	d, err := NewDispatcher(1)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	const size = 1024 * 1024
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	reg := region.New(payload, false)

	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		t.Fatalf("Pipe2: %v", err)
	}
	pr, pw := fds[0], fds[1]
	defer unix.Close(pr)

	readDone := make(chan []byte, 1)
	go func() {
		got := make([]byte, 0, size)
		buf := make([]byte, 4096)
		for len(got) < size {
			n, err := unix.Read(pr, buf)
			if n > 0 {
				got = append(got, buf[:n]...)
			}
			if err != nil && err != unix.EINTR {
				break
			}
		}
		readDone <- got
	}()

	req, err := NewRequest(d, MemoryEndpoint(reg), FileEndpoint(pw, 0, false), uint64(size), nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	for req.MissingByteCount() > 0 {
		if err := req.Queue(); err != nil {
			t.Fatalf("Queue: %v", err)
		}
		if !waitReadable(t, d.FileNo(), 5*time.Second) {
			t.Fatalf("timed out waiting for completion")
		}
		results := d.Harvest()
		if len(results) != 1 || results[0] != req {
			t.Fatalf("expected req back from Harvest, got %v", results)
		}
		if err := req.GetErrors(); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
	unix.Close(pw)

	got := <-readDone
	if !bytes.Equal(got, payload) {
		t.Fatalf("pipe reader content mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

// TestDispatcherFD2MemRoundTrip reads a file's full contents into an
// in-memory region through a single queue/harvest cycle (the fd2mem case of
// the bulk round-trip property).
func TestDispatcherFD2MemRoundTrip(t *testing.T) {
	d, err := NewDispatcher(1)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	const size = 256 * 1024
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	src := tempFileWith(t, payload)
	defer src.Close()

	dst := make([]byte, size)
	reg := region.New(dst, true)

	req, err := NewRequest(d, FileEndpoint(int(src.Fd()), 0, true), MemoryEndpoint(reg), uint64(size), "fd2mem")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := req.Queue(); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if !waitReadable(t, d.FileNo(), 5*time.Second) {
		t.Fatalf("timed out waiting for completion")
	}
	results := d.Harvest()
	if len(results) != 1 || results[0] != req {
		t.Fatalf("expected req back from Harvest, got %v", results)
	}
	if err := req.GetErrors(); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if req.MissingByteCount() != 0 {
		t.Fatalf("expected missing_byte_count=0, got %d", req.MissingByteCount())
	}
	if !bytes.Equal(dst, payload) {
		t.Fatalf("fd2mem copy mismatch")
	}
}

func TestDispatcherMem2Mem(t *testing.T) {
	d, err := NewDispatcher(1)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	src := []byte("the quick brown fox jumps over the lazy dog")
	dst := make([]byte, len(src))

	req, err := NewRequest(d, MemoryEndpoint(region.New(src, false)), MemoryEndpoint(region.New(dst, true)), uint64(len(src)), nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := req.Queue(); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if !waitReadable(t, d.FileNo(), 2*time.Second) {
		t.Fatalf("timed out waiting for completion")
	}
	results := d.Harvest()
	if len(results) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(results))
	}
	if string(dst) != string(src) {
		t.Fatalf("mem2mem copy mismatch: got %q", dst)
	}
}

func TestDispatcherQueueRejectsZeroLength(t *testing.T) {
	d, err := NewDispatcher(1)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()

	src := []byte("x")
	dst := make([]byte, 1)
	req, err := NewRequest(d, MemoryEndpoint(region.New(src, false)), MemoryEndpoint(region.New(dst, true)), 0, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := req.Queue(); err == nil {
		t.Fatalf("expected VALUE error queuing a zero-length request")
	}
}
