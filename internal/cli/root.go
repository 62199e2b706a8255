// Package cli implements the mat2img command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/mat2img/internal/logger"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

// fs is the filesystem every command works on.
var fs afero.Fs = afero.NewOsFs()

var (
	logLevel  string
	logJSON   bool
	logSource bool
)

var rootCmd = &cobra.Command{
	Use:   "mat2img",
	Short: "Convert labeled MAT-files to images",
	Long: `mat2img converts MATLAB MAT-files holding a cjdata record into grayscale
images, one directory per label. Both level 5 and v7.3 (HDF5) files are read.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cfg := logger.DefaultConfig()
		cfg.Level = logger.LogLevel(logLevel)
		cfg.JSON = logJSON
		cfg.AddSource = logSource
		cfg.Output = cmd.ErrOrStderr()
		cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.NewLogger(cfg)))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", string(logger.InfoLevel), "log level: debug, info, warn, error or disabled")
	pf.BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	pf.BoolVar(&logSource, "log-source", false, "add the caller to log lines")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
