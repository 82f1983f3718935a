package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/config"
	"github.com/ceyewan/leaseflake/internal/bootstrap"
)

type rootFlags struct {
	configName string
	configDirs []string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "leaseflake",
		Short:         "Snowflake ID service with leased worker numbers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configName, "config", "leaseflake", "Config file name without extension")
	root.PersistentFlags().StringSliceVar(&flags.configDirs, "config-dir", []string{".", "./config"}, "Directories searched for the config file")

	root.AddCommand(
		newServeCmd(flags),
		newDecodeCmd(),
		newReleaseCmd(flags),
	)
	return root
}

// load 读取配置，加载阶段的日志输出到 stderr
func (f *rootFlags) load(ctx context.Context) (*bootstrap.Config, config.Loader, error) {
	bootLogger, err := clog.New(&clog.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		bootLogger = clog.Discard()
	}
	return bootstrap.LoadConfig(ctx, f.configName, f.configDirs, bootLogger)
}
