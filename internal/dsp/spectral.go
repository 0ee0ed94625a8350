// Package dsp provides the low-level spectral primitives (C1) the
// track analyzer builds on: windowed magnitude spectra and a strict
// local-peak test. Real-valued FFT magnitude is computed with
// gonum's dsp/fourier rather than a hand-rolled O(N^2) DFT — the
// spec permits either, and gonum is already part of this codebase's
// dependency graph.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// HannWindow returns a Hann window of length n.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// ApplyWindow multiplies samples by win in place and returns samples.
func ApplyWindow(samples, win []float64) []float64 {
	n := len(samples)
	if len(win) < n {
		n = len(win)
	}
	for i := 0; i < n; i++ {
		samples[i] *= win[i]
	}
	return samples
}

// MagnitudeSpectrum computes the magnitude of the real-valued DFT of
// samples, zero-padded/truncated to a power-of-two length internally
// by the caller's choice of N (samples must already be that length;
// the analyzer is responsible for framing). The result has the same
// length as samples, mirrored from the one-sided FFT output so callers
// can index any bin 0..N-1 (bins N/2+1..N-1 are the conjugate mirror
// and carry the same magnitude as their N-k counterpart).
func MagnitudeSpectrum(samples []float64) []float64 {
	n := len(samples)
	mag := make([]float64, n)
	if n == 0 {
		return mag
	}
	if n == 1 {
		mag[0] = math.Abs(samples[0])
		return mag
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, samples)
	for k, c := range coeffs {
		m := math.Hypot(real(c), imag(c))
		mag[k] = m
		mirror := n - k
		if mirror < n && mirror != k {
			mag[mirror] = m
		}
	}
	return mag
}

// IsLocalPeak reports whether series[i] is strictly greater than every
// other element within [i-radius, i+radius] (indices outside the
// slice bounds are simply skipped, matching a truncated window at the
// series edges).
func IsLocalPeak(series []float64, i, radius int) bool {
	if i < 0 || i >= len(series) || radius < 0 {
		return false
	}
	v := series[i]
	lo := i - radius
	if lo < 0 {
		lo = 0
	}
	hi := i + radius
	if hi >= len(series) {
		hi = len(series) - 1
	}
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		if series[j] >= v {
			return false
		}
	}
	return true
}

// BinFrequency returns the frequency in Hz represented by DFT bin k
// out of n total samples at the given sample rate.
func BinFrequency(k, n, sampleRate int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(k) * float64(sampleRate) / float64(n)
}
