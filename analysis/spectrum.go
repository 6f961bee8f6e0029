// Package analysis computes spectra and summary statistics over decoded telemetry.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is the one-sided magnitude spectrum of a real signal.
type Spectrum struct {
	// Freqs are in Hz, ascending from 0 to the Nyquist frequency.
	Freqs      []float64
	Magnitudes []float64
}

// ComputeSpectrum returns the magnitude spectrum of `signal` sampled every `period` seconds. The
// signal's mean is removed first so the DC bin does not hide the oscillations.
func ComputeSpectrum(signal []float64, period float64) (Spectrum, error) {
	if len(signal) < 2 {
		return Spectrum{}, errors.Errorf("need at least 2 samples, got %d", len(signal))
	}
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return Spectrum{}, errors.Errorf("invalid sample period %v", period)
	}

	mean, err := stats.Mean(signal)
	if err != nil {
		return Spectrum{}, err
	}
	centered := make([]float64, len(signal))
	copy(centered, signal)
	floats.AddConst(-mean, centered)

	fft := fourier.NewFFT(len(centered))
	coeffs := fft.Coefficients(nil, centered)

	sampleRate := 1 / period
	ret := Spectrum{
		Freqs:      make([]float64, len(coeffs)),
		Magnitudes: make([]float64, len(coeffs)),
	}
	for idx, coeff := range coeffs {
		ret.Freqs[idx] = fft.Freq(idx) * sampleRate
		ret.Magnitudes[idx] = cmplx.Abs(coeff)
	}
	return ret, nil
}

// DominantFrequency returns the frequency and magnitude of the largest bin at or above `minFreq`.
func (spectrum Spectrum) DominantFrequency(minFreq float64) (float64, float64, error) {
	start := -1
	for idx, freq := range spectrum.Freqs {
		if freq >= minFreq {
			start = idx
			break
		}
	}
	if start < 0 {
		return 0, 0, errors.Errorf("no frequency bin at or above %v Hz", minFreq)
	}

	peak := start + floats.MaxIdx(spectrum.Magnitudes[start:])
	return spectrum.Freqs[peak], spectrum.Magnitudes[peak], nil
}

// LockInAmplitude demodulates `signal` at `freq` Hz and returns its amplitude envelope. The in-phase
// and quadrature products are low-passed with a centered moving average one oscillation period
// wide, which has no phase lag.
func LockInAmplitude(times, signal []float64, freq float64) ([]float64, error) {
	if len(times) != len(signal) {
		return nil, errors.Errorf("have %d times for %d samples", len(times), len(signal))
	}
	if len(signal) < 2 || freq <= 0 {
		return nil, errors.New("need at least 2 samples and a positive frequency")
	}

	mean, err := stats.Mean(signal)
	if err != nil {
		return nil, err
	}
	inPhase := make([]float64, len(signal))
	quadrature := make([]float64, len(signal))
	for idx, value := range signal {
		phase := 2 * math.Pi * freq * times[idx]
		inPhase[idx] = 2 * (value - mean) * math.Cos(phase)
		quadrature[idx] = 2 * (value - mean) * math.Sin(phase)
	}

	period := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	window := 1
	if period > 0 {
		window = int(math.Max(1, math.Round(1/(freq*period))))
	}
	inPhase = movingAverage(inPhase, window)
	quadrature = movingAverage(quadrature, window)

	ret := make([]float64, len(signal))
	for idx := range ret {
		ret[idx] = math.Hypot(inPhase[idx], quadrature[idx])
	}
	return ret, nil
}

// movingAverage averages each sample with its neighbours in a `window` wide centered window,
// shrinking the window at the edges.
func movingAverage(values []float64, window int) []float64 {
	half := window / 2
	ret := make([]float64, len(values))
	for idx := range values {
		lo := max(0, idx-half)
		hi := min(len(values), idx+half+1)
		ret[idx] = floats.Sum(values[lo:hi]) / float64(hi-lo)
	}
	return ret
}

// GaussianWeightedMean weights each value by a Gaussian of its distance to the mean, with the
// sample standard deviation as width, so outliers pull the result less than in a plain mean.
func GaussianWeightedMean(values []float64) (float64, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, err
	}
	sigma, err := stats.StandardDeviation(values)
	if err != nil {
		return 0, err
	}
	if sigma == 0 {
		return mean, nil
	}

	var weighted, total float64
	for _, value := range values {
		weight := math.Exp(-math.Pow(value-mean, 2) / (2 * sigma * sigma))
		weighted += weight * value
		total += weight
	}
	return weighted / total, nil
}
