package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/pnet/internal/bootstrap"
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/infrastructure/monitoring"
	"github.com/turtacn/pnet/pkg/logger"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	jsonOutput bool
}

// NewRootCommand builds the `pnet-cert` command tree.
// NewRootCommand 构建 `pnet-cert` 命令树。
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pnet-cert",
		Short: "Certify mitigating controls against model-driven cybersecurity risk.",
		Long: `pnet-cert ranks vulnerability features, explains the risk model, calibrates
significance thresholds and renders audit evidence on whether a control closes
enough of an asset's risk gap.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to pnet.yaml (default: /etc/pnet/pnet.yaml or ./pnet.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newCalibrateCommand(opts),
		newAssessCommand(opts),
		newDemoCommand(opts),
		newControlsCommand(opts),
		newIngestCommand(opts),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
// Execute 运行命令行程序，失败时以非零状态退出。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds a console logger on stderr.
func (o *rootOptions) loadConfig() (*config.Config, logger.Logger, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logCfg := config.LogConfig{Level: level, Format: "console", OutputPath: "stderr"}
	log, err := monitoring.NewZapLogger(&logCfg)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadConfig(o.configPath, log)
	if err != nil {
		return nil, nil, err
	}
	cfg.Log = logCfg
	return cfg, log, nil
}

// withContainer builds the service graph, runs fn and releases it.
func (o *rootOptions) withContainer(ctx context.Context, fn func(c *bootstrap.Container) error) error {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return err
	}
	c, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(context.Background()); cerr != nil {
			log.Warn(ctx, "failed to release resources", logger.Fields{"error": cerr.Error()})
		}
	}()
	return fn(c)
}

func (o *rootOptions) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

//Personal.AI order the ending
