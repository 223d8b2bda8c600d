package audio

import (
	"testing"
)

func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestRing_AvailableBounds(t *testing.T) {
	r := NewRing(16)
	if got := r.Available(); got != 0 {
		t.Fatalf("empty ring Available=%d, want 0", got)
	}

	r.Write(seq(0, 10))
	if got := r.Available(); got != 10 {
		t.Fatalf("Available=%d, want 10", got)
	}

	dst := make([]float32, 4)
	if !r.Read(dst) {
		t.Fatalf("Read returned false with 10 samples available")
	}
	if got := r.Available(); got != 6 {
		t.Fatalf("Available=%d after read, want 6", got)
	}
	for i, v := range dst {
		if v != float32(i) {
			t.Fatalf("dst[%d]=%v, want %v", i, v, float32(i))
		}
	}
}

func TestRing_OverflowDiscardsOldest(t *testing.T) {
	r := NewRing(8)

	// capacity + k samples leaves exactly capacity available and drops the
	// oldest k.
	r.Write(seq(0, 11))
	if got := r.Available(); got != 8 {
		t.Fatalf("Available=%d after overflow, want 8", got)
	}

	dst := make([]float32, 8)
	if !r.Read(dst) {
		t.Fatalf("Read returned false with a full ring")
	}
	for i, v := range dst {
		want := float32(3 + i) // samples 0..2 were discarded
		if v != want {
			t.Fatalf("dst[%d]=%v, want %v", i, v, want)
		}
	}
}

func TestRing_OverflowAcrossWrites(t *testing.T) {
	r := NewRing(8)
	r.Write(seq(0, 6))
	r.Write(seq(6, 6))

	if got := r.Available(); got != 8 {
		t.Fatalf("Available=%d, want 8", got)
	}
	dst := make([]float32, 8)
	r.Read(dst)
	if dst[0] != 4 || dst[7] != 11 {
		t.Fatalf("read window [%v..%v], want [4..11]", dst[0], dst[7])
	}
}

func TestRing_SingleWriteLargerThanCapacity(t *testing.T) {
	r := NewRing(4)
	r.Write(seq(0, 10))
	if got := r.Available(); got != 4 {
		t.Fatalf("Available=%d, want 4", got)
	}
	dst := make([]float32, 4)
	r.Read(dst)
	for i, v := range dst {
		if want := float32(6 + i); v != want {
			t.Fatalf("dst[%d]=%v, want %v", i, v, want)
		}
	}
}

func TestRing_UnderrunEmitsSilence(t *testing.T) {
	r := NewRing(64)
	r.Write(seq(1, 3))

	dst := make([]float32, 8)
	dst[0] = 42
	if r.Read(dst) {
		t.Fatalf("Read returned true with only 3 of 8 samples available")
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d]=%v on underrun, want silence", i, v)
		}
	}
	// Underrun must not consume anything.
	if got := r.Available(); got != 3 {
		t.Fatalf("Available=%d after underrun, want 3", got)
	}
}

func TestRing_FlushDuringReadDiscardsBacklog(t *testing.T) {
	r := NewRing(1 << 16)
	dst := make([]float32, 1<<15)

	for i := 0; i < 200; i++ {
		r.Flush()
		r.Write(seq(0, r.Capacity()))

		done := make(chan struct{})
		go func() {
			r.Read(dst)
			close(done)
		}()
		r.Flush()
		<-done

		// Whether the read landed before, after, or across the flush, no
		// pre-flush audio may remain once both have returned.
		if got := r.Available(); got != 0 {
			t.Fatalf("iteration %d: Available=%d after Flush returned, want 0", i, got)
		}
	}
}

func TestRing_FlushThenReadIsSilence(t *testing.T) {
	r := NewRing(64)
	r.Write(seq(1, 32))
	r.Flush()

	if got := r.Available(); got != 0 {
		t.Fatalf("Available=%d after flush, want 0", got)
	}
	dst := make([]float32, 16)
	if r.Read(dst) {
		t.Fatalf("Read returned true after flush")
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d]=%v after flush, want silence", i, v)
		}
	}

	// The ring stays usable after a flush.
	r.Write(seq(100, 16))
	if !r.Read(dst) {
		t.Fatalf("Read returned false after post-flush write")
	}
	if dst[0] != 100 {
		t.Fatalf("dst[0]=%v after post-flush write, want 100", dst[0])
	}
}
