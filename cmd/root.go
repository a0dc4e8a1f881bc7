// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvanheerden/cartprobe/internal/config"
	"github.com/rvanheerden/cartprobe/internal/observability"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCommand builds a fresh root command. Each invocation gets clean
// flag state.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cartprobe",
		Short:   "cartprobe drives a browser through e-commerce purchase flows and verifies the result.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before any command: configuration, then logging.
			v, err := config.NewViper(cfgFile)
			if err != nil {
				return err
			}
			c, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "cartprobe"})
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = c

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Info("Starting cartprobe.", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./cartprobe.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command under the given context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed.", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
