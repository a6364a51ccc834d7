package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/voice"
)

func NewVoiceCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voice-check",
		Short: "Check that voice capture is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, voice.CheckVoiceSystem(voice.DeviceConfig{
				SampleRate:  cfg.Voice.SampleRate,
				Channels:    cfg.Voice.Channels,
				FrameLength: cfg.Voice.FrameLength,
			}))
			fmt.Fprintf(out, "\n  Voice enabled: %t\n  Max recording: %s\n", cfg.Voice.Enabled, cfg.Voice.MaxRecording)
			fmt.Fprintf(out, "  Transcription endpoint: %s%s\n", cfg.Backend.URL, cfg.Backend.SpeechPath)
			return nil
		},
	}
}
