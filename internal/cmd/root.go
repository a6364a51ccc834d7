// internal/cmd/root.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/app"
	"github.com/phildougherty/hrchat/internal/config"
	"github.com/phildougherty/hrchat/internal/voice"
)

// captureDevice replaces the PortAudio microphone when set
var captureDevice voice.Device

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hrchat",
		Short:        "Terminal chat client for the HR assistant",
		Long:         `hrchat exchanges text and voice messages with an HR assistant backend over HTTP.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigFile, "Specify hrchat configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "HR assistant base URL (overrides config)")

	// Conversation commands
	rootCmd.AddCommand(NewChatCommand())
	rootCmd.AddCommand(NewSendCommand())
	rootCmd.AddCommand(NewListenCommand())

	// Utility commands
	rootCmd.AddCommand(NewWavCommand())
	rootCmd.AddCommand(NewVoiceCheckCommand())
	rootCmd.AddCommand(NewDevServerCommand())

	return rootCmd
}

// newApp builds the application from the persistent flags
func newApp(cmd *cobra.Command) (*app.App, error) {
	file, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	backendURL, _ := cmd.Flags().GetString("backend")

	return app.New(app.Options{
		ConfigFile: file,
		BackendURL: backendURL,
		Verbose:    verbose,
		Device:     captureDevice,
	})
}

// loadConfig reads the configuration without building the rest of the app
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.LoadEnv()
	file, _ := cmd.Flags().GetString("config")
	return config.Load(file)
}
