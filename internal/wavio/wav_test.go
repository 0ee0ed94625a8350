package wavio

import (
	"math"
	"testing"

	"github.com/cartomix/stitchcore/internal/domain"
)

func TestEncodeHeaderLayout(t *testing.T) {
	buf := domain.NewPCMBuffer(44100, 2, 10)
	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLen := headerSize + 10*2*bytesPerSample
	if len(data) != wantLen {
		t.Fatalf("expected %d bytes, got %d", wantLen, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		t.Fatalf("missing fmt /data chunk ids")
	}
}

func TestEncodeRejectsDegenerate(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("expected error encoding a nil buffer")
	}
	if _, err := Encode(domain.NewPCMBuffer(0, 2, 10)); err == nil {
		t.Error("expected error encoding a zero sample-rate buffer")
	}
	if _, err := Encode(domain.NewPCMBuffer(48000, 0, 10)); err == nil {
		t.Error("expected error encoding a channel-less buffer")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sr := 48000
	buf := domain.NewPCMBuffer(sr, 2, sr)
	for c := range buf.Channels {
		for i := range buf.Channels[c] {
			buf.Channels[c][i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sr)))
		}
	}

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.SampleRate != sr || decoded.NumChannels() != 2 || decoded.Length() != sr {
		t.Fatalf("unexpected decoded shape: sr=%d channels=%d frames=%d", decoded.SampleRate, decoded.NumChannels(), decoded.Length())
	}

	const tolerance = 1.0 / (1 << 15)
	for c := range buf.Channels {
		for i := range buf.Channels[c] {
			diff := math.Abs(float64(buf.Channels[c][i] - decoded.Channels[c][i]))
			if diff > tolerance+1e-6 {
				t.Fatalf("channel %d frame %d: expected %v, got %v (diff %v)", c, i, buf.Channels[c][i], decoded.Channels[c][i], diff)
			}
		}
	}
}

func TestDecodeRejectsShortData(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error decoding too-short data")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := domain.NewPCMBuffer(48000, 1, 4)
	data, _ := Encode(buf)
	data[0] = 'X'
	if _, err := Decode(data); err == nil {
		t.Error("expected error decoding data with corrupted RIFF magic")
	}
}

func TestPeakAmplitude(t *testing.T) {
	buf := domain.NewPCMBuffer(48000, 1, 4)
	buf.Channels[0] = []float32{0.1, -0.9, 0.3, 0.2}
	if got := PeakAmplitude(buf); math.Abs(got-float64(float32(0.9))) > 1e-9 {
		t.Errorf("expected peak float32(0.9), got %v", got)
	}
}
