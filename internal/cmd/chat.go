package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/chat"
)

func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the HR assistant",
		Long: `Start an interactive chat with the HR assistant.

Messages are sent to the backend's /chat endpoint. Voice recordings are
encoded as 16 kHz mono WAV and transcribed by /speech-to-text before being
sent as a message.

Keyboard shortcuts:
• Enter: Send message
• Ctrl+T: Start or stop a voice recording
• PgUp/PgDn: Scroll the conversation
• Ctrl+C: Exit chat

Slash commands:
• /voice - Start or stop a voice recording
• /help - Show all commands
• /quit - Leave the chat

When stdin or stdout is not a terminal the chat falls back to a plain
line-based mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			simple, _ := cmd.Flags().GetBool("simple")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if metricsAddr == "" {
				metricsAddr = a.Config.Metrics.Addr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if !simple && chat.ShouldUseEnhancedUI() {
				if err := a.LogToFile(a.Config.Logging.File); err != nil {
					return err
				}
			}

			if err := a.WatchConfig(ctx); err != nil {
				a.Logger.Warning("Config hot reload disabled: %v", err)
			}
			if metricsAddr != "" {
				go func() {
					if err := a.ServeMetrics(ctx, metricsAddr); err != nil {
						a.Logger.Error("%v", err)
					}
				}()
			}

			if !simple && chat.ShouldUseEnhancedUI() {
				return chat.NewChatUI(ctx, a.Session, a.Voice()).Run()
			}
			return chat.RunSimple(ctx, a.Session, a.Voice(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090 (default from config)")
	cmd.Flags().Bool("simple", false, "Use the line-based interface even in a terminal")

	return cmd
}
