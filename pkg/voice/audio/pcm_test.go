package audio

import (
	"encoding/binary"
	"testing"
)

func TestSampleToFloat_Endpoints(t *testing.T) {
	cases := []struct {
		in   int16
		want float32
	}{
		{-32768, -1.0},
		{32767, 1.0},
		{0, 0.0},
		{-16384, -0.5},
	}
	for _, tc := range cases {
		if got := SampleToFloat(tc.in); got != tc.want {
			t.Fatalf("SampleToFloat(%d)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDecodePCM16(t *testing.T) {
	pcm := make([]byte, 6)
	var min int16 = -32768
	binary.LittleEndian.PutUint16(pcm[0:], uint16(min))
	binary.LittleEndian.PutUint16(pcm[2:], 0)
	binary.LittleEndian.PutUint16(pcm[4:], 32767)

	out := DecodePCM16(nil, pcm)
	if len(out) != 3 {
		t.Fatalf("decoded %d samples, want 3", len(out))
	}
	if out[0] != -1.0 || out[1] != 0.0 || out[2] != 1.0 {
		t.Fatalf("decoded %v, want [-1 0 1]", out)
	}
}

func TestDecodePCM16_IgnoresTrailingByte(t *testing.T) {
	out := DecodePCM16(nil, []byte{0x00, 0x40, 0x7f})
	if len(out) != 1 {
		t.Fatalf("decoded %d samples, want 1", len(out))
	}
}

func TestFloatToSample_RoundTripEndpoints(t *testing.T) {
	if got := FloatToSample(-1.0); got != -32768 {
		t.Fatalf("FloatToSample(-1)=%d, want -32768", got)
	}
	if got := FloatToSample(1.0); got != 32767 {
		t.Fatalf("FloatToSample(1)=%d, want 32767", got)
	}
	if got := FloatToSample(2.5); got != 32767 {
		t.Fatalf("FloatToSample(2.5)=%d, want clamp to 32767", got)
	}
	if got := FloatToSample(-2.5); got != -32768 {
		t.Fatalf("FloatToSample(-2.5)=%d, want clamp to -32768", got)
	}
}
