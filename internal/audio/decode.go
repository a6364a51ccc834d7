package audio

import (
	"fmt"
	"math"
	"time"
)

// TargetSampleRate is the rate every recording is decoded to before encoding
const TargetSampleRate = 16000

// Format describes interleaved float32 audio as delivered by a capture device
type Format struct {
	SampleRate int
	Channels   int
}

// Validate checks that the format can be decoded
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	return nil
}

// Chunk is one buffer of interleaved samples from the capture device
type Chunk []float32

// Samples is mono float32 audio in [-1, 1]
type Samples []float32

// Duration returns the playback length of n mono samples at rate
func Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}

// TotalSamples counts the raw samples across chunks
func TotalSamples(chunks []Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	return total
}

// Concat joins chunks into one interleaved buffer
func Concat(chunks []Chunk) []float32 {
	out := make([]float32, 0, TotalSamples(chunks))
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Decode turns captured chunks into mono samples at targetRate. Zero chunks
// or zero samples decode to an empty buffer.
func Decode(chunks []Chunk, f Format, targetRate int) (Samples, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", targetRate)
	}

	raw := Concat(chunks)
	if len(raw) == 0 {
		return Samples{}, nil
	}

	mono := Downmix(raw, f.Channels)
	return Resample(mono, f.SampleRate, targetRate), nil
}

// Downmix averages interleaved frames into one channel and clamps the result.
// A trailing partial frame is dropped.
func Downmix(interleaved []float32, channels int) Samples {
	if channels <= 1 {
		out := make(Samples, len(interleaved))
		for i, s := range interleaved {
			out[i] = Clamp(s)
		}
		return out
	}

	frames := len(interleaved) / channels
	out := make(Samples, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = Clamp(sum / float32(channels))
	}
	return out
}

// Resample converts mono audio between rates with linear interpolation
func Resample(in Samples, from, to int) Samples {
	if from == to || len(in) == 0 {
		out := make(Samples, len(in))
		copy(out, in)
		return out
	}

	outLen := int(int64(len(in)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}

	out := make(Samples, outLen)
	step := float64(from) / float64(to)
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j] + (in[j+1]-in[j])*frac
	}
	return out
}

// Clamp limits a sample to [-1, 1]. NaN becomes silence.
func Clamp(s float32) float32 {
	switch {
	case math.IsNaN(float64(s)):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}
