//go:build linux

package sigcapture

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/constants"
	"github.com/birchwood-labs/coreio/internal/interfaces"
	"github.com/birchwood-labs/coreio/internal/logging"
)

// slot is one of the two symmetric buffers: the current front slot receives
// reader-goroutine writes, the current back slot is drained by Harvest.
type slot struct {
	data     []SigInfo
	used     int32
	nonempty int32
}

func newSlot(capacity int) *slot {
	return &slot{data: make([]SigInfo, capacity)}
}

// Capture is the process-wide singleton double-buffered signal record
// store. The real implementation this is modeled on writes front-slot
// records from genuine async-signal-context code; Go offers no cgo-free
// equivalent, so a single background goroutine reading a signalfd plays
// that role instead, and a mutex — rather than sigprocmask — serializes it
// against Harvest/Resize/SetHP/SetWakeupFD, since an ordinary goroutine has
// no other way to coordinate with another goroutine.
type Capture struct {
	mu       sync.Mutex
	front    *slot
	back     *slot
	capacity int
	hp       *SignalSet
	wakeupFD int32 // -1 means unset

	fd      int // signalfd descriptor, -1 until the first Install
	mask    unix.Sigset_t
	started bool
	stopCh  chan struct{}
	logger  *logging.Logger

	observer interfaces.Observer
}

// New builds a Capture with the given slot capacity L.
func New(capacity int) *Capture {
	if capacity <= 0 {
		capacity = constants.DefaultSlotCapacity
	}
	return &Capture{
		front:    newSlot(capacity),
		back:     newSlot(capacity),
		capacity: capacity,
		hp:       NewSignalSet(),
		wakeupFD: -1,
		fd:       -1,
		logger:   logging.Default().With("component", "sigcapture"),
		observer: interfaces.NoOpObserver{},
	}
}

// SetObserver installs the metrics sink subsequent Harvest calls report
// into. Passing nil restores the no-op default.
func (c *Capture) SetObserver(o interfaces.Observer) {
	if o == nil {
		o = interfaces.NoOpObserver{}
	}
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// Install registers sig for capture. SA_SIGINFO-equivalent behavior is
// implicit in signalfd; flags is accepted for interface parity with the
// source spec's sigaction-flags parameter but otherwise unused, since
// signalfd has no per-signal flag surface. The signal remains captured
// until the process exits or Stop closes the signalfd; there is no
// per-signal uninstall.
func (c *Capture) Install(sig int, flags int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	word, bit := sigWordBit(sig)
	c.mask.Val[word] |= 1 << bit

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &c.mask, nil); err != nil {
		return cerr.Wrap("sigcapture.Install", err)
	}

	if c.fd < 0 {
		fd, err := unix.Signalfd(-1, &c.mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
		if err != nil {
			return cerr.Wrap("sigcapture.Install", err)
		}
		c.fd = fd
	} else if _, err := unix.Signalfd(c.fd, &c.mask, 0); err != nil {
		return cerr.Wrap("sigcapture.Install", err)
	}

	if !c.started {
		c.started = true
		c.stopCh = make(chan struct{})
		go c.readLoop(c.fd, c.stopCh)
	}
	return nil
}

// readLoop is the goroutine standing in for the signal handler: it is the
// sole writer of front-slot records outside of the mutex-guarded swap in
// Harvest/Resize.
func (c *Capture) readLoop(fd int, stop chan struct{}) {
	var buf [constants.SignalfdReadBatch]unix.SignalfdSiginfo
	raw := (*[unsafe.Sizeof(buf)]byte)(unsafe.Pointer(&buf[0]))[:]

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := unix.Read(fd, raw)
		if err != nil {
			if err == unix.EAGAIN {
				pollReadable(fd, stop)
				continue
			}
			return
		}
		count := n / int(unsafe.Sizeof(unix.SignalfdSiginfo{}))
		for i := 0; i < count; i++ {
			c.record(newSigInfo(buf[i]))
		}
	}
}

// pollReadable blocks until fd is readable or stop fires, using a short
// poll loop since this package avoids pulling in a full event-loop
// dependency for its own internal reader.
func pollReadable(fd int, stop chan struct{}) {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := unix.Poll(pfd, 200)
		if err != nil && err != unix.EINTR {
			return
		}
		if n > 0 {
			return
		}
	}
}

func (c *Capture) record(info SigInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.front
	if int(f.used) >= c.capacity {
		if c.hp.Contains(int(info.Signo())) && c.capacity > 0 {
			f.data[c.capacity-1] = info
		}
		return
	}
	f.data[f.used] = info
	wasEmpty := f.used == 0
	atomic.AddInt32(&f.used, 1)
	atomic.StoreInt32(&f.nonempty, 1)

	if wasEmpty && c.wakeupFD >= 0 {
		var b [1]byte
		_, _ = unix.Write(int(c.wakeupFD), b[:]) // EAGAIN tolerated by design
	}
}

// Harvest swaps the front and back slots under the capture mutex, then
// drains the back slot into a freshly allocated sequence of snapshots. It
// reports whether the drained slot was saturated (front was full at swap
// time), i.e. records may have been dropped since the last harvest.
func (c *Capture) Harvest() ([]SigInfo, bool) {
	c.mu.Lock()
	c.front, c.back = c.back, c.front
	drained := c.back
	observer := c.observer
	c.mu.Unlock()

	used := int(atomic.LoadInt32(&drained.used))
	out := make([]SigInfo, used)
	copy(out, drained.data[:used])
	overflowed := used >= c.capacity

	atomic.StoreInt32(&drained.used, 0)
	atomic.StoreInt32(&drained.nonempty, 0)
	observer.ObserveSignalHarvest(len(out), overflowed)
	return out, overflowed
}

// Resize reallocates both slots to hold up to L records, truncating the
// current front slot's live records if L is smaller (loss is permitted but
// deterministic: it keeps the first L records).
func (c *Capture) Resize(l int) error {
	if l <= 0 {
		return cerr.New("sigcapture.Resize", cerr.CodeValue, "capacity must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	newFront := newSlot(l)
	newBack := newSlot(l)

	used := int(atomic.LoadInt32(&c.front.used))
	if used > l {
		used = l
	}
	copy(newFront.data, c.front.data[:used])
	newFront.used = int32(used)
	newFront.nonempty = c.front.nonempty

	c.front, c.back = newFront, newBack
	c.capacity = l
	return nil
}

// SetHP replaces the high-priority signal set, returning the previous one.
func (c *Capture) SetHP(hp *SignalSet) *SignalSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.hp
	if hp == nil {
		hp = NewSignalSet()
	}
	c.hp = hp
	return prev
}

// SetWakeupFD atomically replaces the wakeup descriptor, returning the
// previous value (-1 meaning none).
func (c *Capture) SetWakeupFD(fd int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.wakeupFD
	c.wakeupFD = int32(fd)
	return int(prev)
}

// Stop halts the background reader goroutine and closes the signalfd. It
// exists for test teardown; the source spec has no analogous operation
// since the handler there lives for the process lifetime.
func (c *Capture) Stop() {
	c.mu.Lock()
	fd := c.fd
	started := c.started
	stopCh := c.stopCh
	c.started = false
	c.fd = -1
	c.mu.Unlock()

	if started {
		close(stopCh)
	}
	if fd >= 0 {
		unix.Close(fd)
	}
}
