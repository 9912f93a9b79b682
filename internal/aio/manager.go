package aio

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/interfaces"
	"github.com/birchwood-labs/coreio/internal/logging"
)

// Manager owns a kernel AIO context of fixed capacity N and a single
// non-blocking completion descriptor the caller's event loop watches for
// readability. It is created once and destroyed only after every submitted
// Request has been harvested; destroying with requests in flight is
// undefined, matching the kernel's own io_destroy contract.
type Manager struct {
	ctx      ioContext
	fd       int
	capacity uint32
	pending  uint32

	// reqs roots every in-flight Request by the small correlation tag
	// stashed in its iocb.data, keeping it (and its region's backing
	// array) reachable for the GC between Submit and Harvest — nothing
	// else does, since the kernel only ever hands back the bare tag.
	reqs    map[uint64]*Request
	nextTag uint64

	logger   *logging.Logger
	observer interfaces.Observer
}

// SetObserver installs the metrics sink subsequent Harvest calls report
// into. Passing nil restores the no-op default.
func (m *Manager) SetObserver(o interfaces.Observer) {
	if o == nil {
		o = interfaces.NoOpObserver{}
	}
	m.observer = o
}

// NewManager allocates a kernel AIO context of the given capacity and a
// non-blocking eventfd-style completion descriptor. capacity must be
// greater than zero.
func NewManager(capacity uint32) (*Manager, error) {
	if capacity == 0 {
		return nil, cerr.New("aio.NewManager", cerr.CodeValue, "capacity must be > 0")
	}

	log := logging.Default().With("component", "aio")

	fd, err := newCompletionFD()
	if err != nil {
		return nil, wrapErrno("aio.NewManager.eventfd", err)
	}

	ctx, err := ioSetup(capacity)
	if err != nil {
		unix.Close(fd)
		return nil, wrapErrno("aio.NewManager.io_setup", err)
	}

	log.Debug("aio manager created", "capacity", capacity, "fd", fd)
	return &Manager{
		ctx:      ctx,
		fd:       fd,
		capacity: capacity,
		reqs:     make(map[uint64]*Request, capacity),
		logger:   log,
		observer: interfaces.NoOpObserver{},
	}, nil
}

// FD returns the read-only completion descriptor to register with an event
// loop. It stays open for the Manager's lifetime.
func (m *Manager) FD() int { return m.fd }

// Pending returns the count of submitted-but-unharvested Requests.
func (m *Manager) Pending() uint32 { return m.pending }

// Capacity returns the fixed capacity N the Manager was created with.
func (m *Manager) Capacity() uint32 { return m.capacity }

// Submit hands an ordered batch of unsubmitted Requests to the kernel. On
// success every element's submitted flag becomes true and the Manager
// retains an ownership claim on each until Harvest returns it. On any
// error, Requests that the kernel never accepted are restored to
// unsubmitted and released; a prefix the kernel did accept is left
// submitted, matching the underlying io_submit's partial-batch contract.
func (m *Manager) Submit(reqs []*Request) error {
	if len(reqs) == 0 {
		return nil
	}
	if uint32(len(reqs)) > m.capacity-m.pending {
		return cerr.New("aio.Submit", cerr.CodeValue, "queue length exceeded")
	}

	cbs := make([]*iocb, 0, len(reqs))
	tags := make([]uint64, 0, len(reqs))
	for i, req := range reqs {
		if req.Submitted() {
			m.releasePrefix(reqs[:i], tags)
			return cerr.New("aio.Submit", cerr.CodeState, "request already submitted")
		}
		tag := m.nextTag
		m.nextTag++
		req.region.Claim()
		req.prepare(tag, m.fd)
		req.markSubmitted()
		m.reqs[tag] = req
		cbs = append(cbs, &req.cb)
		tags = append(tags, tag)
	}

	n, err := ioSubmit(m.ctx, cbs)
	if err != nil {
		for i, req := range reqs {
			req.markUnsubmitted()
			delete(m.reqs, tags[i])
		}
		return wrapErrno("aio.Submit.io_submit", err)
	}
	if n < len(reqs) {
		// Kernel accepted a prefix; the rest are restored to unsubmitted.
		for i := n; i < len(reqs); i++ {
			reqs[i].markUnsubmitted()
			delete(m.reqs, tags[i])
		}
	}

	m.pending += uint32(n)
	m.logger.Debug("aio submitted", "count", n, "pending", m.pending)
	m.observer.ObserveQueueDepth(m.pending)
	if n < len(reqs) {
		return cerr.New("aio.Submit.io_submit", cerr.CodeSystem, "kernel accepted only part of the batch")
	}
	return nil
}

func (m *Manager) releasePrefix(reqs []*Request, tags []uint64) {
	for i, req := range reqs {
		req.markUnsubmitted()
		delete(m.reqs, tags[i])
	}
}

// Harvest waits until at least minNr completions are available or timeout
// elapses (timeout < 0 waits indefinitely), then returns the completed
// Requests in kernel-reported order with their result fields populated.
// An empty batch on timeout expiry is a valid outcome, not an error.
func (m *Manager) Harvest(minNr int, timeout time.Duration) ([]*Request, error) {
	if minNr < 0 || uint32(minNr) > m.pending {
		return nil, cerr.New("aio.Harvest", cerr.CodeValue, "min_nr exceeds pending count")
	}

	events := make([]ioEvent, m.capacity)
	var tsp *unix.Timespec
	var ts unix.Timespec
	if timeout >= 0 {
		ts = unix.NsecToTimespec(timeout.Nanoseconds())
		tsp = &ts
	}

	n, err := ioGetevents(m.ctx, minNr, int(m.capacity), events, tsp)
	if err != nil {
		return nil, wrapErrno("aio.Harvest.io_getevents", err)
	}

	m.pending -= uint32(n)
	out := make([]*Request, n)
	for i := 0; i < n; i++ {
		tag := events[i].data
		req := m.reqs[tag]
		delete(m.reqs, tag)
		submittedAt := req.submittedAt
		req.markCompleted(events[i].res, events[i].res2)
		out[i] = req

		rc, rcErr := req.RC()
		success := rcErr == nil && rc >= 0
		var bytes uint64
		if success {
			bytes = uint64(rc)
		}
		var latencyNs uint64
		if !submittedAt.IsZero() {
			latencyNs = uint64(time.Since(submittedAt).Nanoseconds())
		}
		m.observer.ObserveAIOCompletion(bytes, latencyNs, success)
	}

	if n > 0 {
		// Keep the eventfd counter from growing unbounded across harvests;
		// a spurious extra wakeup after this drain is expected and benign.
		_ = drainCompletionFD(m.fd)
		m.logger.Debug("aio harvested", "count", n, "pending", m.pending)
		m.observer.ObserveQueueDepth(m.pending)
	}
	return out, nil
}

// Close destroys the kernel AIO context and closes the completion
// descriptor. The caller must have harvested every submitted Request
// first; destroying with requests in flight is undefined.
func (m *Manager) Close() error {
	if err := ioDestroy(m.ctx); err != nil {
		return wrapErrno("aio.Close.io_destroy", err)
	}
	return unix.Close(m.fd)
}
