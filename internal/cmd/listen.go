package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/voice"
)

func NewListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Record one voice message and send its transcript",
		Long: `Record a voice message from the default microphone, transcribe it through
the backend's /speech-to-text endpoint and send the transcript as a chat
message. Recording stops when Enter is pressed or the maximum duration
(voice.max_recording, 5s by default) is reached.

Requires a build with -tags voice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Recorder == nil {
				return errors.New("voice capture is disabled in the configuration")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			a.Recorder.OnState(func(s voice.State) {
				if s == voice.Recording {
					fmt.Fprintln(out, "Recording... press Enter to stop")
				}
			})
			go func() {
				bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				a.Recorder.Stop()
			}()

			before := len(a.Session.Entries())
			err = a.Recorder.Record(ctx)
			switch {
			case errors.Is(err, voice.ErrEmptyCapture):
				fmt.Fprintln(out, "No audio captured.")
				return nil
			case err != nil:
				return err
			}

			for _, e := range a.Session.Entries()[before:] {
				fmt.Fprintf(out, "%s: %s\n", e.Author(), e.Text)
			}
			return nil
		},
	}
}
