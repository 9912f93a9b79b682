//go:build linux

package sigcapture

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func waitForCount(t *testing.T, c *Capture, want int, within time.Duration) []SigInfo {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		records, _ := c.Harvest()
		if len(records) >= want {
			return records
		}
		if len(records) > 0 {
			t.Fatalf("got %d records before reaching want=%d", len(records), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d captured signals", want)
	return nil
}

func TestCaptureInstallAndHarvest(t *testing.T) {
	c := New(8)
	defer c.Stop()

	if err := c.Install(int(syscall.SIGUSR1), 0); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	records := waitForCount(t, c, 1, 2*time.Second)
	if records[0].Signo() != uint32(syscall.SIGUSR1) {
		t.Fatalf("expected SIGUSR1 (%d), got %d", syscall.SIGUSR1, records[0].Signo())
	}
	if records[0].PID() != uint32(os.Getpid()) {
		t.Fatalf("expected sender pid=%d, got %d", os.Getpid(), records[0].PID())
	}
}

func TestCaptureWakeupFD(t *testing.T) {
	c := New(8)
	defer c.Stop()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()
	if err := syscall.SetNonblock(int(w.Fd()), true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}

	prev := c.SetWakeupFD(int(w.Fd()))
	if prev != -1 {
		t.Fatalf("expected previous wakeup fd -1, got %d", prev)
	}

	if err := c.Install(int(syscall.SIGUSR2), 0); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	waitForCount(t, c, 1, 2*time.Second)

	var b [1]byte
	n, err := r.Read(b[:])
	if err != nil {
		t.Fatalf("expected a wakeup byte, got error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 wakeup byte, got %d", n)
	}
}

func TestSignalSet(t *testing.T) {
	s := NewSignalSet()
	if s.Contains(int(syscall.SIGUSR1)) {
		t.Fatalf("expected empty set to not contain SIGUSR1")
	}
	s.Add(int(syscall.SIGUSR1))
	if !s.Contains(int(syscall.SIGUSR1)) {
		t.Fatalf("expected set to contain SIGUSR1 after Add")
	}
	s.Remove(int(syscall.SIGUSR1))
	if s.Contains(int(syscall.SIGUSR1)) {
		t.Fatalf("expected set to not contain SIGUSR1 after Remove")
	}
	s.Fill()
	if !s.Contains(int(syscall.SIGTERM)) {
		t.Fatalf("expected filled set to contain SIGTERM")
	}
	s.Clear()
	if s.Contains(int(syscall.SIGTERM)) {
		t.Fatalf("expected cleared set to not contain SIGTERM")
	}
}

func TestCaptureOverflowHighPriority(t *testing.T) {
	c := New(3)
	defer c.Stop()

	c.SetHP(func() *SignalSet {
		hp := NewSignalSet()
		hp.Add(int(syscall.SIGUSR2))
		return hp
	}())

	if err := c.Install(int(syscall.SIGUSR1), 0); err != nil {
		t.Fatalf("Install USR1: %v", err)
	}
	if err := c.Install(int(syscall.SIGUSR2), 0); err != nil {
		t.Fatalf("Install USR2: %v", err)
	}

	for i := 0; i < 3; i++ {
		syscall.Kill(os.Getpid(), syscall.SIGUSR1)
	}
	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 2; i++ {
		syscall.Kill(os.Getpid(), syscall.SIGUSR2)
	}
	time.Sleep(200 * time.Millisecond)

	records, overflowed := c.Harvest()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if !overflowed {
		t.Fatalf("expected overflowed=true")
	}
	if records[2].Signo() != uint32(syscall.SIGUSR2) {
		t.Fatalf("expected last record to be the overwritten high-priority SIGUSR2, got signo=%d", records[2].Signo())
	}
}

func TestCaptureResize(t *testing.T) {
	c := New(2)
	defer c.Stop()
	if err := c.Resize(4); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := c.Resize(0); err == nil {
		t.Fatalf("expected error resizing to 0")
	}
}
