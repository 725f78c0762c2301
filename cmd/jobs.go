package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/pkg/jobs"
)

func NewJobsCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run jobs on the cluster job scheduler",
	}
	cmd.AddCommand(newJobsRunCommand(cfg))
	return cmd
}

func newJobsRunCommand(cfg *config.Configuration) *cobra.Command {
	var (
		file    string
		timeout time.Duration
		keep    bool
	)

	cmd := &cobra.Command{
		Use:   "run -f definition.yaml",
		Short: "Create a job from a YAML or JSON definition, run it once and remove it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := readDefinition(file)
			if err != nil {
				return err
			}
			jobID, _ := definition["id"].(string)
			if jobID == "" {
				return errors.New("job definition has no id")
			}

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if _, err := s.Jobs.Create(cmd.Context(), definition); err != nil {
				return err
			}
			if !keep {
				defer destroyJob(cmd.Context(), s.Jobs, jobID)
			}

			result, err := s.Jobs.Run(cmd.Context(), jobID, timeout)
			if err != nil {
				return err
			}
			if err := printObject(cmd.OutOrStdout(), cfg, result.Run); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("job %s failed", jobID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "job definition")
	cmd.Flags().DurationVar(&timeout, "timeout", jobs.DefaultTimeout, "how long to wait for the run")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the job after the run")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func destroyJob(ctx context.Context, c *jobs.Client, jobID string) {
	if err := c.Destroy(context.WithoutCancel(ctx), jobID); err != nil {
		zap.S().Named("cmd").Warnw("failed to remove job", "job", jobID, "error", err)
	}
}

// readDefinition reads a YAML or JSON object. An empty path reads nothing.
func readDefinition(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var definition map[string]any
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return definition, nil
}
