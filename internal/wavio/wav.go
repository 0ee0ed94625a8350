// Package wavio encodes and decodes the 44-byte canonical RIFF/WAVE
// PCM16 container the renderer emits (spec §6). It is deliberately
// narrow: no extended chunks, no float/24-bit variants, mono/stereo/N
// channels all supported via interleaving.
package wavio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cartomix/stitchcore/internal/domain"
)

const (
	headerSize     = 44
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// Encode clamps every sample to [-1, 1] and writes a little-endian
// interleaved PCM16 WAV file. It returns an error only if buf has no
// channels or zero sample rate (spec §7 kind 5: output encoding
// failure).
func Encode(buf *domain.PCMBuffer) ([]byte, error) {
	channels := buf.NumChannels()
	if channels == 0 || sampleRateOf(buf) <= 0 {
		return nil, fmt.Errorf("wavio: cannot encode buffer with channels=%d sample_rate=%d", channels, sampleRateOf(buf))
	}

	frames := buf.Length()
	dataLen := frames * channels * bytesPerSample

	out := make([]byte, headerSize+dataLen)
	writeHeader(out, buf.SampleRate, channels, dataLen)

	offset := headerSize
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			s := float64(buf.Channels[c][f])
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			var v int16
			if s < 0 {
				v = int16(s * 0x8000)
			} else {
				v = int16(s * 0x7FFF)
			}
			binary.LittleEndian.PutUint16(out[offset:], uint16(v))
			offset += bytesPerSample
		}
	}

	return out, nil
}

func sampleRateOf(buf *domain.PCMBuffer) int {
	if buf == nil {
		return 0
	}
	return buf.SampleRate
}

func writeHeader(out []byte, sampleRate, channels, dataLen int) {
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	byteRate := sampleRate * channels * bytesPerSample
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	blockAlign := channels * bytesPerSample
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))
}

// Decode parses a canonical 44-byte-header PCM16 WAV back into a
// float32 PCMBuffer, the inverse of Encode, used both by the round-trip
// tests and by any caller that wants to re-ingest a rendered file.
func Decode(data []byte) (*domain.PCMBuffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wavio: data too short for a WAV header (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wavio: missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return nil, fmt.Errorf("wavio: unsupported chunk layout (expected canonical 44-byte header)")
	}

	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	bits := binary.LittleEndian.Uint16(data[34:36])
	if bits != bitsPerSample {
		return nil, fmt.Errorf("wavio: unsupported bit depth %d (only 16-bit is decoded)", bits)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("wavio: invalid header channels=%d sample_rate=%d", channels, sampleRate)
	}

	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	available := len(data) - headerSize
	if dataLen > available {
		dataLen = available
	}

	frameBytes := channels * bytesPerSample
	frames := dataLen / frameBytes

	buf := domain.NewPCMBuffer(sampleRate, channels, frames)
	offset := headerSize
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			raw := int16(binary.LittleEndian.Uint16(data[offset:]))
			offset += bytesPerSample
			var s float64
			if raw < 0 {
				s = float64(raw) / 0x8000
			} else {
				s = float64(raw) / 0x7FFF
			}
			buf.Channels[c][f] = float32(s)
		}
	}

	return buf, nil
}

// PeakAmplitude reports the maximum absolute sample value across all
// channels; callers use it to assert the limiter's guarantee.
func PeakAmplitude(buf *domain.PCMBuffer) float64 {
	peak := 0.0
	for _, ch := range buf.Channels {
		for _, s := range ch {
			v := math.Abs(float64(s))
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}
