package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phildougherty/hrchat/internal/devserver"
	"github.com/phildougherty/hrchat/internal/logging"
)

func NewDevServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run a local stand-in for the HR assistant backend",
		Long: `Run a local backend that serves /chat and /speech-to-text for development.

Chat messages are echoed back and uploaded recordings are validated as
16-bit PCM WAV and described instead of transcribed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			addr, _ := cmd.Flags().GetString("addr")
			origin, _ := cmd.Flags().GetString("origin")
			if addr == "" {
				addr = cfg.DevServer.Addr
			}
			if origin == "" {
				origin = cfg.DevServer.AllowedOrigin
			}

			level := cfg.Logging.Level
			if verbose {
				level = logging.DEBUG.String()
			}
			logger := logging.NewLogger(level)
			logger.SetJSONFormat(cfg.Logging.Format == "json")

			handler := devserver.New(devserver.Echo{MinSpeech: 100 * time.Millisecond}, origin, logger.GetLogr())
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("Dev server listening on %s (origin %s)", addr, origin)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("dev server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
	cmd.Flags().String("origin", "", "Allowed CORS origin (default from config)")
	return cmd
}
