//go:build linux

package sigcapture

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SignalSet wraps a kernel sigset_t, mirroring sigemptyset/sigfillset/
// sigaddset/sigdelset/sigismember from <signal.h>.
type SignalSet struct {
	raw unix.Sigset_t
}

// NewSignalSet returns an empty signal set.
func NewSignalSet() *SignalSet { return &SignalSet{} }

// Clear empties the set (sigemptyset).
func (s *SignalSet) Clear() {
	for i := range s.raw.Val {
		s.raw.Val[i] = 0
	}
}

// Fill sets every signal (sigfillset).
func (s *SignalSet) Fill() {
	for i := range s.raw.Val {
		s.raw.Val[i] = ^uint64(0)
	}
}

// Add inserts sig into the set (sigaddset).
func (s *SignalSet) Add(sig int) {
	word, bit := sigWordBit(sig)
	s.raw.Val[word] |= 1 << bit
}

// Remove deletes sig from the set (sigdelset).
func (s *SignalSet) Remove(sig int) {
	word, bit := sigWordBit(sig)
	s.raw.Val[word] &^= 1 << bit
}

// Contains reports set membership (sigismember).
func (s *SignalSet) Contains(sig int) bool {
	word, bit := sigWordBit(sig)
	return s.raw.Val[word]&(1<<bit) != 0
}

// Bytes returns a raw byte view of the underlying sigset_t.
func (s *SignalSet) Bytes() []byte {
	return (*[unsafe.Sizeof(unix.Sigset_t{})]byte)(unsafe.Pointer(&s.raw))[:]
}

func sigWordBit(sig int) (word, bit uint) {
	idx := uint(sig - 1)
	return idx / 64, idx % 64
}
