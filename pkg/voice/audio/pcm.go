package audio

import "encoding/binary"

// SampleToFloat converts one 16-bit signed sample to float32 in [-1, 1].
// Negative samples divide by 32768 and non-negative ones by 32767 so the
// representable range stays symmetric at ±1.0.
func SampleToFloat(s int16) float32 {
	if s < 0 {
		return float32(s) / 32768.0
	}
	return float32(s) / 32767.0
}

// DecodePCM16 converts little-endian 16-bit PCM bytes into float32 samples
// appended to dst. A trailing odd byte is ignored.
func DecodePCM16(dst []float32, pcm []byte) []float32 {
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		dst = append(dst, SampleToFloat(s))
	}
	return dst
}

// FloatToSample converts a float32 in [-1, 1] back to a 16-bit sample,
// clamping out-of-range input. Used by render backends that want integer
// output.
func FloatToSample(f float32) int16 {
	switch {
	case f <= -1.0:
		return -32768
	case f >= 1.0:
		return 32767
	case f < 0:
		return int16(f * 32768.0)
	default:
		return int16(f * 32767.0)
	}
}
