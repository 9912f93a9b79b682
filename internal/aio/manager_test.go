//go:build linux

package aio

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/region"
)

func tempFile(t *testing.T, content []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "aio-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return f
}

func TestManagerSubmitHarvestRead(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	f := tempFile(t, payload)
	defer f.Close()

	mgr, err := NewManager(8)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer mgr.Close()

	buf := make([]byte, len(payload))
	reg := region.New(buf, true)
	req, err := NewRequest(ModeRead, reg, int(f.Fd()), 0)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if err := mgr.Submit([]*Request{req}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !req.Submitted() {
		t.Fatalf("expected Submitted() true after Submit")
	}
	if mgr.Pending() != 1 {
		t.Fatalf("expected Pending()=1, got %d", mgr.Pending())
	}

	done, err := mgr.Harvest(1, 2*time.Second)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(done) != 1 {
		t.Fatalf("expected 1 completed request, got %d", len(done))
	}

	rc, err := done[0].RC()
	if err != nil {
		t.Fatalf("RC: %v", err)
	}
	if int(rc) != len(payload) {
		t.Fatalf("expected rc=%d, got %d", len(payload), rc)
	}
	if string(buf) != string(payload) {
		t.Fatalf("expected read payload %q, got %q", payload, buf)
	}
	if mgr.Pending() != 0 {
		t.Fatalf("expected Pending()=0 after harvest, got %d", mgr.Pending())
	}
}

// makeReadBatch builds a single-element submit batch with no variable in
// the caller's frame retaining it beyond the returned slice, so that once
// Submit returns and this function's locals go out of scope, the Manager's
// own bookkeeping is the only thing keeping the Request reachable.
func makeReadBatch(t *testing.T, f *os.File, payload []byte) []*Request {
	t.Helper()
	buf := make([]byte, len(payload))
	reg := region.New(buf, true)
	req, err := NewRequest(ModeRead, reg, int(f.Fd()), 0)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return []*Request{req}
}

// TestManagerSubmitHarvestNoCallerReference drops every caller-held
// reference to the submitted Request between Submit and Harvest, forcing a
// GC in between, to exercise the Manager's own tag-indexed bookkeeping as
// the Request's sole remaining root.
func TestManagerSubmitHarvestNoCallerReference(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	f := tempFile(t, payload)
	defer f.Close()

	mgr, err := NewManager(8)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Submit(makeReadBatch(t, f, payload)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	runtime.GC()
	runtime.GC()

	done, err := mgr.Harvest(1, 2*time.Second)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(done) != 1 {
		t.Fatalf("expected 1 completed request, got %d", len(done))
	}
	rc, err := done[0].RC()
	if err != nil {
		t.Fatalf("RC: %v", err)
	}
	if int(rc) != len(payload) {
		t.Fatalf("expected rc=%d, got %d", len(payload), rc)
	}
}

func TestManagerSubmitQueueFull(t *testing.T) {
	mgr, err := NewManager(1)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer mgr.Close()

	f := tempFile(t, []byte("x"))
	defer f.Close()

	buf := make([]byte, 1)
	r1, _ := NewRequest(ModeRead, region.New(buf, true), int(f.Fd()), 0)
	r2, _ := NewRequest(ModeRead, region.New(make([]byte, 1), true), int(f.Fd()), 0)

	if err := mgr.Submit([]*Request{r1, r2}); err == nil {
		t.Fatalf("expected queue-full error")
	} else if !cerr.IsCode(err, cerr.CodeValue) {
		t.Fatalf("expected VALUE error, got %v", err)
	}
	if r1.Submitted() || r2.Submitted() {
		t.Fatalf("expected neither request submitted after a rejected batch")
	}
}

func TestManagerSubmitAlreadySubmitted(t *testing.T) {
	mgr, err := NewManager(4)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer mgr.Close()

	f := tempFile(t, []byte("hello"))
	defer f.Close()

	buf := make([]byte, 5)
	req, _ := NewRequest(ModeRead, region.New(buf, true), int(f.Fd()), 0)

	if err := mgr.Submit([]*Request{req}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := mgr.Harvest(1, time.Second); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if err := mgr.Submit([]*Request{req}); err == nil {
		t.Fatalf("expected already-submitted error on resubmit")
	}
}

func TestManagerHarvestMinNrExceedsPending(t *testing.T) {
	mgr, err := NewManager(4)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer mgr.Close()

	if _, err := mgr.Harvest(1, 0); err == nil {
		t.Fatalf("expected VALUE error when min_nr exceeds pending")
	}
}
