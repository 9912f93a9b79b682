//go:build !linux

package sigcapture

// SigInfo stubs the record type on hosts without signalfd; every field
// reads as zero since no capture is possible here.
type SigInfo struct{}

func (s SigInfo) Signo() uint32    { return 0 }
func (s SigInfo) Errno() int32     { return 0 }
func (s SigInfo) Code() int32      { return 0 }
func (s SigInfo) PID() uint32      { return 0 }
func (s SigInfo) UID() uint32      { return 0 }
func (s SigInfo) Status() int32    { return 0 }
func (s SigInfo) Utime() uint64    { return 0 }
func (s SigInfo) Stime() uint64    { return 0 }
func (s SigInfo) ValueInt() int32  { return 0 }
func (s SigInfo) ValuePtr() uint64 { return 0 }
func (s SigInfo) Int() int32       { return 0 }
func (s SigInfo) Ptr() uint64      { return 0 }
func (s SigInfo) Addr() uint64     { return 0 }
func (s SigInfo) Band() uint32     { return 0 }
func (s SigInfo) FD() int32        { return 0 }

func (s *SigInfo) Bytes() []byte { return nil }
