package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/internal/models"
	"github.com/dcos/dcos-test-utils/pkg/ssh"
)

func NewSSHCommand(cfg *config.Configuration) *cobra.Command {
	var hosts []string

	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Run commands on cluster nodes over ssh",
	}
	cmd.PersistentFlags().StringSliceVar(&hosts, "hosts", nil, "host or host:port targets, every node of the cluster when empty")

	cmd.AddCommand(
		newSSHRunCommand(cfg, &hosts),
		newSSHCopyCommand(cfg, &hosts),
	)
	return cmd
}

func newSSHRunCommand(cfg *config.Configuration, hosts *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "Run a command on every target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, cfg, *hosts, func(ctx context.Context, r *ssh.MultiRunner) ([]ssh.CommandResult, error) {
				return r.RunOnHosts(ctx, func(ctx context.Context, host string) (ssh.CommandResult, error) {
					return r.Run(ctx, host, args...)
				})
			})
		},
	}
}

func newSSHCopyCommand(cfg *config.Configuration, hosts *[]string) *cobra.Command {
	var (
		recursive bool
		then      []string
	)

	cmd := &cobra.Command{
		Use:   "copy LOCAL REMOTE",
		Short: "Copy a file to every target, then optionally run a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := ssh.Chain{ssh.CopyStep{Local: args[0], Remote: args[1], Recursive: recursive}}
			if len(then) > 0 {
				chain = append(chain, ssh.RunStep{Cmd: then})
			}

			return dispatch(cmd, cfg, *hosts, func(ctx context.Context, r *ssh.MultiRunner) ([]ssh.CommandResult, error) {
				perHost, err := r.RunCommandChain(ctx, chain)
				return slices.Concat(perHost...), err
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "copy a directory")
	cmd.Flags().StringSliceVar(&then, "then", nil, "command run on each host after a successful copy")
	return cmd
}

// dispatch runs fn against the targets, prints and records the results. It
// fails when any process exits non-zero.
func dispatch(cmd *cobra.Command, cfg *config.Configuration, hosts []string,
	fn func(ctx context.Context, r *ssh.MultiRunner) ([]ssh.CommandResult, error)) error {
	ctx := cmd.Context()

	if len(hosts) == 0 {
		hosts = slices.Concat(cfg.Cluster.Masters, cfg.Cluster.Agents, cfg.Cluster.PublicAgents)
	}
	if len(hosts) == 0 {
		return errors.New("no hosts given and no cluster nodes configured")
	}

	client, err := newSSHClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	runner := ssh.NewMultiRunner(client, hosts)
	runner.Parallelism = cfg.SSH.Parallelism
	runner.ProcessTimeout = cfg.SSH.ProcessTimeout

	results, runErr := fn(ctx, runner)

	recorded := toModels(uuid.NewString(), results)
	printResults(cmd.OutOrStdout(), recorded)

	if err := recordResults(ctx, cfg, recorded); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, r := range recorded {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(recorded))
	}
	return nil
}

// toModels drops results of hosts that never started a process.
func toModels(runID string, results []ssh.CommandResult) []models.CommandResult {
	out := make([]models.CommandResult, 0, len(results))
	for _, r := range results {
		if len(r.Cmd) == 0 {
			continue
		}
		out = append(out, models.CommandResult{
			RunID:      runID,
			Host:       r.Host,
			Cmd:        r.Cmd,
			Stdout:     r.Stdout,
			Stderr:     r.Stderr,
			ReturnCode: r.ReturnCode,
			PID:        r.PID,
		})
	}
	return out
}

func recordResults(ctx context.Context, cfg *config.Configuration, results []models.CommandResult) error {
	st, err := openStore(ctx, cfg)
	if err != nil || st == nil {
		return err
	}
	defer st.Close()

	_, err = st.Commands().Insert(context.WithoutCancel(ctx), results...)
	return err
}
