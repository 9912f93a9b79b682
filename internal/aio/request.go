package aio

import (
	"time"

	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/region"
)

// Mode selects the AIO command issued for a Request.
type Mode int16

const (
	// ModeRead issues a pread into the Request's region.
	ModeRead Mode = Mode(ioCmdPread)
	// ModeWrite issues a pwrite from the Request's region.
	ModeWrite Mode = Mode(ioCmdPwrite)
)

// state tracks a Request through CREATED -> SUBMITTED -> COMPLETED. No
// other transition is valid.
type state int

const (
	stateCreated state = iota
	stateSubmitted
	stateCompleted
)

// Request represents a single pread/pwrite against one open file
// descriptor. It is built unsubmitted, handed to a Manager's Submit, and
// later returned (with its result fields populated) from Harvest.
type Request struct {
	mode   Mode
	region *region.Region
	fd     int
	offset int64

	state state

	res  int64
	res2 int64

	submittedAt time.Time

	cb iocb
}

// NewRequest builds an unsubmitted Request. A WRITE region only needs read
// access from the caller's perspective but the kernel only reads it; a READ
// region must be writable since the kernel writes into it. fd is borrowed —
// the caller retains ownership and must keep it open until harvest.
func NewRequest(mode Mode, reg *region.Region, fd int, offset int64) (*Request, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, cerr.New("aio.NewRequest", cerr.CodeValue, "invalid mode")
	}
	if reg == nil {
		return nil, cerr.New("aio.NewRequest", cerr.CodeValue, "nil region")
	}
	if mode == ModeRead && !reg.Writable {
		return nil, cerr.New("aio.NewRequest", cerr.CodeValue, "READ region must be writable")
	}
	if offset < 0 {
		return nil, cerr.New("aio.NewRequest", cerr.CodeValue, "negative offset")
	}
	return &Request{
		mode:   mode,
		region: reg,
		fd:     fd,
		offset: offset,
		state:  stateCreated,
	}, nil
}

// FD returns the file descriptor this Request operates against.
func (r *Request) FD() int { return r.fd }

// Offset returns the byte offset the Request was created with.
func (r *Request) Offset() int64 { return r.offset }

// Mode returns the Request's I/O direction.
func (r *Request) Mode() Mode { return r.mode }

// Submitted reports whether Submit has ever accepted this Request. It is
// monotonic: once true, it never reverts to false.
func (r *Request) Submitted() bool { return r.state != stateCreated }

// Completed reports whether Harvest has returned this Request.
func (r *Request) Completed() bool { return r.state == stateCompleted }

// RC returns the primary kernel result code, following the same contract
// the underlying C request getter used: a positive secondary status is an
// internal inconsistency, reported here as a STATE error rather than
// silently returning a result.
func (r *Request) RC() (int64, error) {
	if r.res2 == 0 || r.res2 < 0 {
		return r.res, nil
	}
	return 0, cerr.New("aio.Request.RC", cerr.CodeState, "internal error: res2 positive")
}

// Res2 exposes the secondary kernel status verbatim, for callers that want
// to inspect it directly rather than through RC's contract.
func (r *Request) Res2() int64 { return r.res2 }

func (r *Request) markSubmitted() {
	r.state = stateSubmitted
	r.submittedAt = time.Now()
}
func (r *Request) markUnsubmitted() {
	r.state = stateCreated
	r.region.Release()
}
func (r *Request) markCompleted(res, res2 int64) {
	r.res, r.res2 = res, res2
	r.state = stateCompleted
	r.region.Release()
}
