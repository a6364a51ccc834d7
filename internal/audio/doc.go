// Package audio turns captured microphone audio into the canonical
// uncompressed WAV container the transcription endpoint accepts.
//
// Capture devices deliver interleaved float32 chunks in whatever format the
// device opened with. Decode concatenates them, downmixes to one channel and
// resamples to 16 kHz; EncodeWAV then writes a 44-byte RIFF header followed by
// little-endian signed 16-bit samples.
package audio
