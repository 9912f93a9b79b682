package bulktransfer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/interfaces"
	"github.com/birchwood-labs/coreio/internal/logging"
)

// worker owns whatever per-goroutine scratch a platform's copy path needs.
// On Linux, fd2fd transfers splice through pipeR/pipeW; other platforms
// leave them unset.
type worker struct {
	id           int
	pipeR, pipeW int
}

// Dispatcher is a fixed-size pool of worker goroutines draining a FIFO
// request queue and pushing finished Requests onto a LIFO result stack,
// signaling a readable pipe on the stack's 0->1 transition. It is the Go
// analog of the source's DataTransferDispatcher: a pthread-mutex/
// pthread-cond-var request queue plus a pthread-mutex result stack,
// translated into sync.Mutex/sync.Cond since that is the only primitive
// two goroutines have to wait on shared state change (golang.org/x/sync's
// errgroup, present elsewhere in the example pack, only joins a fixed batch
// of work and has no FIFO-queue/cond-var-wakeup/LIFO-result-stack
// semantics, so it does not fit this shape).
type Dispatcher struct {
	reqMu    sync.Mutex
	reqCond  *sync.Cond
	reqHead  *Request
	reqTail  *Request
	reqCount int

	resMu    sync.Mutex
	resHead  *Request
	resCount int

	sigR, sigW int

	workers []*worker
	wg      sync.WaitGroup
	active  bool

	logger   *logging.Logger
	observer interfaces.Observer
}

// SetObserver installs the metrics sink subsequent completions report
// into. Passing nil restores the no-op default.
func (d *Dispatcher) SetObserver(o interfaces.Observer) {
	if o == nil {
		o = interfaces.NoOpObserver{}
	}
	d.resMu.Lock()
	d.observer = o
	d.resMu.Unlock()
}

// NewDispatcher starts workerCount worker goroutines. workerCount must be
// at least 1.
func NewDispatcher(workerCount int) (*Dispatcher, error) {
	if workerCount <= 0 {
		return nil, cerr.New("bulktransfer.NewDispatcher", cerr.CodeValue, "workerCount must be positive")
	}

	sigFDs, err := pipe2(unix.O_NONBLOCK | unix.O_CLOEXEC)
	if err != nil {
		return nil, cerr.Wrap("bulktransfer.NewDispatcher", err)
	}

	d := &Dispatcher{
		sigR:     sigFDs[0],
		sigW:     sigFDs[1],
		active:   true,
		logger:   logging.Default().With("component", "bulktransfer"),
		observer: interfaces.NoOpObserver{},
	}
	d.reqCond = sync.NewCond(&d.reqMu)

	d.workers = make([]*worker, workerCount)
	for i := 0; i < workerCount; i++ {
		w := &worker{id: i, pipeR: -1, pipeW: -1}
		if err := w.openTrampoline(); err != nil {
			d.closeWorkers(i)
			unix.Close(d.sigR)
			unix.Close(d.sigW)
			return nil, cerr.Wrap("bulktransfer.NewDispatcher", err)
		}
		d.workers[i] = w
		d.wg.Add(1)
		go d.run(w)
	}

	d.logger.Debug("dispatcher started", "workers", workerCount, "sig_fd", d.sigR)
	return d, nil
}

func (d *Dispatcher) closeWorkers(n int) {
	for i := 0; i < n; i++ {
		d.workers[i].closeTrampoline()
	}
}

// enqueue links req onto the request FIFO and wakes one worker.
func (d *Dispatcher) enqueue(req *Request) error {
	d.reqMu.Lock()
	if !d.active {
		d.reqMu.Unlock()
		return cerr.New("bulktransfer.enqueue", cerr.CodeState, "dispatcher is closed")
	}
	req.next = nil
	if d.reqTail == nil {
		d.reqHead = req
	} else {
		d.reqTail.next = req
	}
	d.reqTail = req
	d.reqCount++
	req.queued = true
	depth := d.reqCount
	d.reqMu.Unlock()

	d.resMu.Lock()
	observer := d.observer
	d.resMu.Unlock()
	observer.ObserveQueueDepth(uint32(depth))

	d.reqCond.Signal()
	return nil
}

// run is the worker goroutine body: dequeue, copy, push to result stack,
// signal the readable pipe on the stack's empty->non-empty transition.
func (d *Dispatcher) run(w *worker) {
	defer d.wg.Done()

	d.reqMu.Lock()
	for {
		for d.active && d.reqHead == nil {
			d.reqCond.Wait()
		}
		if !d.active && d.reqHead == nil {
			d.reqMu.Unlock()
			return
		}

		job := d.reqHead
		d.reqHead = job.next
		if d.reqHead == nil {
			d.reqTail = nil
		}
		d.reqCount--
		d.reqMu.Unlock()

		job.next = nil
		runCopy(job, w)

		d.resMu.Lock()
		job.next = d.resHead
		d.resHead = job
		wasEmpty := d.resCount == 0
		d.resCount++
		observer := d.observer
		d.resMu.Unlock()

		success := job.GetErrors() == nil
		var latencyNs uint64
		if !job.queuedAt.IsZero() {
			latencyNs = uint64(time.Since(job.queuedAt).Nanoseconds())
		}
		observer.ObserveBulkCompletion(job.length-job.lRem, latencyNs, success)

		if wasEmpty {
			d.signalReady()
		}
		if !success {
			d.logger.Debug("transfer failed", "worker", w.id, "errno", job.Errno())
		}

		d.reqMu.Lock()
	}
}

func (d *Dispatcher) signalReady() {
	var one [1]byte
	for {
		_, err := unix.Write(d.sigW, one[:])
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

// Harvest atomically drains the result stack in completion order (oldest
// completion first), clears each Request's queued flag, and drains the
// signal pipe. It returns an empty slice if nothing has completed.
func (d *Dispatcher) Harvest() []*Request {
	d.resMu.Lock()
	head := d.resHead
	count := d.resCount
	d.resHead = nil
	d.resCount = 0
	d.resMu.Unlock()

	if count == 0 {
		return nil
	}

	// head is a LIFO (most-recently-completed first); reverse it so
	// Harvest returns completions oldest-first.
	out := make([]*Request, 0, count)
	for n := head; n != nil; {
		next := n.next
		n.next = nil
		out = append(out, n)
		n = next
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	drainPipe(d.sigR)

	for _, r := range out {
		r.queued = false
	}
	return out
}

// PendingCount returns the number of Requests currently waiting in the
// request FIFO (not counting those actively being copied by a worker).
func (d *Dispatcher) PendingCount() int {
	d.reqMu.Lock()
	defer d.reqMu.Unlock()
	return d.reqCount
}

// FileNo returns the read end of the completion signal pipe, readable
// (one or more bytes pending) whenever Harvest would return a non-empty
// slice.
func (d *Dispatcher) FileNo() int { return d.sigR }

// Close stops accepting new Requests, waits for the workers to finish every
// Request already in the request FIFO, then releases the dispatcher's file
// descriptors. Requests left unharvested on the result stack are marked
// unqueued.
func (d *Dispatcher) Close() error {
	d.reqMu.Lock()
	d.active = false
	d.reqMu.Unlock()
	d.reqCond.Broadcast()
	d.wg.Wait()

	d.reqMu.Lock()
	for n := d.reqHead; n != nil; n = n.next {
		n.queued = false
	}
	d.reqHead, d.reqTail, d.reqCount = nil, nil, 0
	d.reqMu.Unlock()

	d.resMu.Lock()
	for n := d.resHead; n != nil; n = n.next {
		n.queued = false
	}
	d.resHead, d.resCount = nil, 0
	d.resMu.Unlock()

	for _, w := range d.workers {
		w.closeTrampoline()
	}
	unix.Close(d.sigR)
	unix.Close(d.sigW)
	return nil
}

func drainPipe(fd int) {
	var buf [64]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}
