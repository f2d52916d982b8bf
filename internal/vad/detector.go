// Package vad segments a stream of 20ms PCM frames into spoken phrases.
package vad

import (
	"encoding/binary"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	voiceBandLow  = 300.0
	voiceBandHigh = 3400.0
)

// Detector classifies single frames as speech or not.
type Detector struct {
	sampleRate      int
	energyThreshold float64
	minVoiceRatio   float64
}

// NewDetector builds a detector. energyThreshold is an RMS level on the
// int16 scale; minVoiceRatio is the share of spectral energy that must sit
// in the voice band.
func NewDetector(sampleRate int, energyThreshold float64, minVoiceRatio float64) *Detector {
	return &Detector{
		sampleRate:      sampleRate,
		energyThreshold: energyThreshold,
		minVoiceRatio:   minVoiceRatio,
	}
}

// IsSpeech reports whether frame is loud enough and shaped like a voice.
func (d *Detector) IsSpeech(frame []byte) bool {
	samples := toFloat(frame)
	if len(samples) < 2 {
		return false
	}
	if RMS(samples) < d.energyThreshold {
		return false
	}
	return d.VoiceRatio(samples) >= d.minVoiceRatio
}

// RMS of samples on the int16 scale.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// VoiceRatio is the fraction of spectral power between 300 and 3400 Hz,
// measured over a Hann window to limit leakage.
func (d *Detector) VoiceRatio(samples []float64) float64 {
	windowed := make([]float64, len(samples))
	copy(windowed, samples)
	window.Apply(windowed, window.Hann)

	spectrum := fft.FFTReal(windowed)
	n := len(spectrum)
	binHz := float64(d.sampleRate) / float64(n)

	var voice, total float64
	// skip DC; only the first half is unique for real input
	for k := 1; k <= n/2; k++ {
		power := math.Pow(cmplx.Abs(spectrum[k]), 2)
		total += power
		freq := float64(k) * binHz
		if freq >= voiceBandLow && freq <= voiceBandHigh {
			voice += power
		}
	}
	if total == 0 {
		return 0
	}
	return voice / total
}

func toFloat(frame []byte) []float64 {
	out := make([]float64, len(frame)/2)
	for i := range out {
		out[i] = float64(int16(binary.LittleEndian.Uint16(frame[i*2:])))
	}
	return out
}
