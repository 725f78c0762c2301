// Package cmd is the dcos-test-utils command line: the cluster clients and
// the ssh runner driven from flags and DCOS_ prefixed environment variables.
package cmd

import (
	"fmt"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dcos/dcos-test-utils/internal/config"
)

const envPrefix = "DCOS"

func NewRootCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dcos-test-utils",
		Short:         "Drive a DC/OS cluster under test",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: cobrautil.CommandStack(
			presetFlags,
			func(cmd *cobra.Command, args []string) error {
				return validateConfiguration(cfg)
			},
			func(cmd *cobra.Command, args []string) error {
				return setupLogger(cfg)
			},
		),
	}

	registerFlags(cmd.PersistentFlags(), cfg)

	cmd.AddCommand(
		NewWaitCommand(cfg),
		NewHealthCommand(cfg),
		NewJobsCommand(cfg),
		NewPackageCommand(cfg),
		NewIAMCommand(cfg),
		NewDiagnosticsCommand(cfg),
		NewSSHCommand(cfg),
		NewHistoryCommand(cfg),
	)

	return cmd
}

func registerFlags(flags *pflag.FlagSet, cfg *config.Configuration) {
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "output format (json, yaml)")

	flags.StringVar(&cfg.Cluster.DNSAddress, "dns-address", cfg.Cluster.DNSAddress, "url of the cluster")
	flags.StringSliceVar(&cfg.Cluster.Masters, "masters", cfg.Cluster.Masters, "master ips")
	flags.StringSliceVar(&cfg.Cluster.Agents, "agents", cfg.Cluster.Agents, "private agent ips")
	flags.StringSliceVar(&cfg.Cluster.PublicAgents, "public-agents", cfg.Cluster.PublicAgents, "public agent ips")
	flags.StringVar(&cfg.Cluster.Username, "username", cfg.Cluster.Username, "login uid")
	flags.StringVar(&cfg.Cluster.Password, "password", cfg.Cluster.Password, "login password")
	flags.StringVar(&cfg.Cluster.Token, "token", cfg.Cluster.Token, "login token, used when no username is set")
	flags.StringVar(&cfg.Cluster.ServiceAccount, "service-account", cfg.Cluster.ServiceAccount, "login with the kept credentials of this service account")
	flags.BoolVar(&cfg.Cluster.Enterprise, "enterprise", cfg.Cluster.Enterprise, "the cluster runs the enterprise edition")
	flags.BoolVar(&cfg.Cluster.InsecureSkipVerify, "insecure-skip-verify", cfg.Cluster.InsecureSkipVerify, "do not verify the cluster certificate")
	flags.DurationVar(&cfg.Cluster.WaitTimeout, "wait-timeout", cfg.Cluster.WaitTimeout, "how long to wait for the cluster")
	flags.DurationVar(&cfg.Cluster.RetryInterval, "retry-interval", cfg.Cluster.RetryInterval, "interval between retries of failed requests and cluster polls")
	flags.IntVar(&cfg.Cluster.RetryAttempts, "retry-attempts", cfg.Cluster.RetryAttempts, "attempts of requests failing with common errors")

	flags.StringVar(&cfg.SSH.User, "ssh-user", cfg.SSH.User, "ssh user")
	flags.StringVar(&cfg.SSH.KeyPath, "ssh-key-path", cfg.SSH.KeyPath, "ssh private key")
	flags.IntVar(&cfg.SSH.Parallelism, "ssh-parallelism", cfg.SSH.Parallelism, "hosts reached at the same time")
	flags.DurationVar(&cfg.SSH.ProcessTimeout, "ssh-process-timeout", cfg.SSH.ProcessTimeout, "timeout of one ssh or scp process")
	flags.StringVar(&cfg.SSH.SSHBinary, "ssh-binary", cfg.SSH.SSHBinary, "ssh binary")
	flags.StringVar(&cfg.SSH.SCPBinary, "scp-binary", cfg.SSH.SCPBinary, "scp binary")

	flags.StringVar(&cfg.Store.Path, "store-path", cfg.Store.Path, "duckdb file recording results, empty to disable")
	flags.StringVar(&cfg.Store.CredentialsFolder, "credentials-folder", cfg.Store.CredentialsFolder, "folder of service account credentials")
}

// setupViper reads flags from DCOS_ prefixed variables, DCOS_DNS_ADDRESS
// for --dns-address.
func setupViper() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func presetFlags(cmd *cobra.Command, args []string) error {
	setupViper()
	cobraflags.PresetRequiredFlags(envPrefix, make(map[*pflag.Flag]bool), cmd)
	return nil
}

func setupLogger(cfg *config.Configuration) error {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	zap.S().Named("cmd").Debugw("configuration", "config", cfg.DebugMap())
	return nil
}
