//go:build !linux

package sigcapture

import (
	"github.com/birchwood-labs/coreio/internal/cerr"
	"github.com/birchwood-labs/coreio/internal/interfaces"
)

// Capture stubs the signal-capture singleton on hosts without signalfd.
type Capture struct {
	hp       *SignalSet
	wakeupFD int
}

func (c *Capture) SetObserver(o interfaces.Observer) {}

func New(capacity int) *Capture {
	return &Capture{hp: NewSignalSet(), wakeupFD: -1}
}

func (c *Capture) Install(sig int, flags int) error {
	return cerr.New("sigcapture.Install", cerr.CodeSystem, "signal capture requires signalfd (linux only)")
}

func (c *Capture) Harvest() ([]SigInfo, bool) { return nil, false }

func (c *Capture) Resize(l int) error {
	return cerr.New("sigcapture.Resize", cerr.CodeSystem, "signal capture requires signalfd (linux only)")
}

func (c *Capture) SetHP(hp *SignalSet) *SignalSet {
	prev := c.hp
	if hp == nil {
		hp = NewSignalSet()
	}
	c.hp = hp
	return prev
}

func (c *Capture) SetWakeupFD(fd int) int {
	prev := c.wakeupFD
	c.wakeupFD = fd
	return prev
}

func (c *Capture) Stop() {}
