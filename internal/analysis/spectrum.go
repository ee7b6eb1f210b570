// Package analysis offers tuning diagnostics for recorded runs: error
// spectra for spotting oscillation, plus step-response figures.
package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// fft runs an in-place iterative Cooley-Tukey transform. The caller pads
// the input so len(data) is always a power of two.
func fft(data []float64) []complex128 {
	n := len(data)
	out := make([]complex128, n)
	if n == 0 {
		return out
	}

	levels := bits.TrailingZeros(uint(n))
	for i, v := range data {
		out[reverseBits(uint(i), levels)] = complex(v, 0)
	}

	for size := 2; size <= n; size *= 2 {
		half := size / 2
		angle := -2 * math.Pi / float64(size)
		for block := 0; block < n; block += size {
			for k := 0; k < half; k++ {
				w := cmplx.Exp(complex(0, angle*float64(k)))
				a := out[block+k]
				b := w * out[block+k+half]
				out[block+k] = a + b
				out[block+k+half] = a - b
			}
		}
	}
	return out
}

func reverseBits(x uint, width int) uint {
	var r uint
	for i := 0; i < width; i++ {
		r = r<<1 | x&1
		x >>= 1
	}
	return r
}

// Spectrum returns the magnitude spectrum of the signal. The input is
// zero-padded to the next power of two before the transform; only the
// first half of the bins is returned.
func Spectrum(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)

	bins := fft(padded)
	ps := make([]float64, len(bins)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}
	return ps
}

// DominantFrequency finds the strongest non-DC component of the signal
// and returns its frequency in hertz along with its magnitude. dt is the
// sampling interval. A zero frequency means no oscillation was found.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	if len(data) < 2 || dt <= 0 {
		return 0, 0
	}

	ps := Spectrum(data)
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 {
		return 0, 0
	}

	// Bin width is the sampling rate over the padded length.
	n := len(ps) * 2
	freq = float64(maxIdx) / (float64(n) * dt)
	return freq, power
}
