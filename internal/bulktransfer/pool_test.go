package bulktransfer

import "testing"

func TestGetBufferSizeBuckets(t *testing.T) {
	tests := []struct {
		name        string
		requestSize uint32
		expectCap   int
	}{
		{"64KB bucket - exact", 64 * 1024, 64 * 1024},
		{"64KB bucket - smaller", 1024, 64 * 1024},
		{"128KB bucket - smaller", 65 * 1024, 128 * 1024},
		{"256KB bucket - smaller", 200 * 1024, 256 * 1024},
		{"512KB bucket - smaller", 400 * 1024, 512 * 1024},
		{"1MB bucket - exact", 1024 * 1024, 1024 * 1024},
		{"1MB bucket - smaller", 800 * 1024, 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetBuffer(tt.requestSize)
			if len(buf) != int(tt.requestSize) {
				t.Errorf("GetBuffer(%d) returned len=%d, want %d", tt.requestSize, len(buf), tt.requestSize)
			}
			if cap(buf) != tt.expectCap {
				t.Errorf("GetBuffer(%d) returned cap=%d, want %d", tt.requestSize, cap(buf), tt.expectCap)
			}
			PutBuffer(buf)
		})
	}
}

func TestPutBufferNonStandardCap(t *testing.T) {
	buf := make([]byte, 100*1024)
	PutBuffer(buf)
}
