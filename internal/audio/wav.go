package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// HeaderSize is the size of the canonical WAV header
const HeaderSize = 44

const (
	pcmFormat     = 1
	monoChannels  = 1
	bitsPerSample = 16
)

// WAVHeader is the canonical 44-byte RIFF/WAVE header
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + Subchunk2Size
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for linear PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * 2
	BlockAlign    uint16 // NumChannels * 2
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // sample count * 2
}

func newHeader(numSamples, sampleRate int) WAVHeader {
	dataSize := uint32(numSamples) * bitsPerSample / 8
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   pcmFormat,
		NumChannels:   monoChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * monoChannels * bitsPerSample / 8,
		BlockAlign:    monoChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// PCM16 converts a float sample to signed 16-bit PCM. The sample is clamped
// first, so 1.0 maps to 32767 and -1.0 to -32768.
func PCM16(s float32) int16 {
	s = Clamp(s)
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// EncodeWAV serializes mono samples into a canonical WAV container of
// exactly HeaderSize + 2*len(samples) bytes.
func EncodeWAV(samples Samples, sampleRate int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(samples)*2))
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteWAV(buf, samples, sampleRate)
	return buf.Bytes()
}

// WriteWAV streams the WAV container for samples to w
func WriteWAV(w io.Writer, samples Samples, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	header := newHeader(len(samples), sampleRate)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = PCM16(s)
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// WAVInfo summarizes a canonical WAV container
type WAVInfo struct {
	SampleRate    uint32        `json:"sample_rate"`
	Channels      uint16        `json:"channels"`
	BitsPerSample uint16        `json:"bits_per_sample"`
	NumSamples    uint32        `json:"num_samples"`
	DataSize      uint32        `json:"data_size_bytes"`
	Duration      time.Duration `json:"duration"`
}

// ParseWAV validates a canonical 16-bit PCM WAV container and returns its header fields
func ParseWAV(data []byte) (*WAVInfo, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}

	var header WAVHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	switch {
	case string(header.ChunkID[:]) != "RIFF":
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	case string(header.Format[:]) != "WAVE":
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	case string(header.Subchunk1ID[:]) != "fmt ":
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	case string(header.Subchunk2ID[:]) != "data":
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	case header.AudioFormat != pcmFormat:
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	case header.BitsPerSample != bitsPerSample:
		return nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	case header.NumChannels == 0:
		return nil, fmt.Errorf("invalid WAV file: zero channels")
	case header.SampleRate == 0:
		return nil, fmt.Errorf("invalid WAV file: zero sample rate")
	}

	if int(header.Subchunk2Size) > len(data)-HeaderSize {
		return nil, fmt.Errorf("WAV data truncated: header declares %d bytes, %d present",
			header.Subchunk2Size, len(data)-HeaderSize)
	}

	frameSize := uint32(header.NumChannels) * bitsPerSample / 8
	numSamples := header.Subchunk2Size / frameSize
	return &WAVInfo{
		SampleRate:    header.SampleRate,
		Channels:      header.NumChannels,
		BitsPerSample: header.BitsPerSample,
		NumSamples:    numSamples,
		DataSize:      header.Subchunk2Size,
		Duration:      Duration(int(numSamples), int(header.SampleRate)),
	}, nil
}

// DecodeWAV reads a mono 16-bit container back into float samples
func DecodeWAV(data []byte) (Samples, int, error) {
	info, err := ParseWAV(data)
	if err != nil {
		return nil, 0, err
	}
	if info.Channels != monoChannels {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", info.Channels)
	}

	pcm := make([]int16, info.NumSamples)
	if err := binary.Read(bytes.NewReader(data[HeaderSize:]), binary.LittleEndian, pcm); err != nil {
		return nil, 0, fmt.Errorf("failed to read audio samples: %w", err)
	}

	out := make(Samples, len(pcm))
	for i, v := range pcm {
		if v < 0 {
			out[i] = float32(v) / 32768
		} else {
			out[i] = float32(v) / 32767
		}
	}
	return out, int(info.SampleRate), nil
}
