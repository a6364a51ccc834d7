package cmd

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/audio"
)

func NewWavCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wav",
		Short: "Encode and inspect WAV recordings",
	}
	cmd.AddCommand(newWavEncodeCommand())
	cmd.AddCommand(newWavInfoCommand())
	return cmd
}

func newWavEncodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <in.f32> <out.wav>",
		Short: "Convert raw float32 capture to a 16 kHz mono WAV",
		Long: `Convert raw little-endian float32 samples, interleaved when more than one
channel, into the 16 kHz mono 16-bit PCM WAV uploaded to /speech-to-text.

Example:
  hrchat wav encode --rate 48000 --channels 2 capture.f32 recording.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, _ := cmd.Flags().GetInt("rate")
			channels, _ := cmd.Flags().GetInt("channels")
			return runWavEncode(cmd.OutOrStdout(), args[0], args[1], audio.Format{SampleRate: rate, Channels: channels})
		},
	}
	cmd.Flags().Int("rate", audio.TargetSampleRate, "Sample rate of the raw input")
	cmd.Flags().Int("channels", 1, "Channel count of the raw input")
	return cmd
}

func runWavEncode(out io.Writer, inPath, outPath string, format audio.Format) error {
	raw, err := readFloat32File(inPath)
	if err != nil {
		return err
	}

	samples, err := audio.Decode([]audio.Chunk{raw}, format, audio.TargetSampleRate)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", inPath, err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	w := bufio.NewWriter(f)
	if err := audio.WriteWAV(w, samples, audio.TargetSampleRate); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outPath, err)
	}

	fmt.Fprintf(out, "Wrote %s: %d samples, %s at %d Hz mono\n",
		outPath, len(samples), audio.Duration(len(samples), audio.TargetSampleRate), audio.TargetSampleRate)
	return nil
}

func readFloat32File(path string) (audio.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s is not raw float32 data: %d bytes is not a multiple of 4", path, len(data))
	}
	samples := make([]float32, len(data)/4)
	if _, err := binary.Decode(data, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return audio.Chunk(samples), nil
}

func newWavInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file.wav>",
		Short: "Show the header fields of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			info, err := audio.ParseWAV(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "Sample rate:     %d Hz\n", info.SampleRate)
			fmt.Fprintf(out, "Channels:        %d\n", info.Channels)
			fmt.Fprintf(out, "Bits per sample: %d\n", info.BitsPerSample)
			fmt.Fprintf(out, "Samples:         %d\n", info.NumSamples)
			fmt.Fprintf(out, "Data size:       %d bytes\n", info.DataSize)
			fmt.Fprintf(out, "Duration:        %s\n", info.Duration)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the header as JSON")
	return cmd
}
