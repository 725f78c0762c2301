package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
)

func NewWaitCommand(cfg *config.Configuration) *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Wait until the cluster answers and every node is reported healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// WaitForDCOS logs in once the cluster answers.
			s, err := buildSession(cfg)
			if err != nil {
				return err
			}
			if err := s.WaitForDCOS(cmd.Context(), cfg.Cluster.WaitTimeout); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "cluster %s is up\n", cfg.Cluster.DNSAddress)
			return nil
		},
	}
}
