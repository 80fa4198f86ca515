package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/logging"
	"github.com/Tyrowin/roomchat/internal/server"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

var serveOpts struct {
	port    string
	envFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// loadConfig resolves configuration from the env file, the environment and
// finally the command-line flags.
func loadConfig() (*server.Config, error) {
	cfg, err := server.LoadConfig(serveOpts.envFile)
	if err != nil {
		return nil, err
	}
	if serveOpts.port != "" {
		cfg.Port = serveOpts.port
		sanitized := cfg.Sanitize()
		if err := sanitized.Validate(); err != nil {
			return nil, err
		}
		cfg = &sanitized
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.Info("Starting roomchat", "version", version, "port", cfg.Port)

	srv, err := server.New(*cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"roomchat": func(ctx context.Context) error {
				slog.Info("Graceful shutdown initiated...")
				cancel()
				return srv.Shutdown(ctx)
			},
		},
	)

	select {
	case err := <-serveErr:
		if err != nil {
			_ = srv.Shutdown(context.Background())
			return fmt.Errorf("serve: %w", err)
		}
	case exitCode := <-wait:
		if exitCode != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", exitCode)
		}
	}

	slog.Info("roomchat stopped")
	return nil
}
