package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/pkg/diagnostics"
)

func NewHealthCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the cluster health API",
	}

	for _, sub := range []struct {
		use, short string
		fn         func(*diagnostics.Client, context.Context) (map[string]any, error)
	}{
		{"units", "List the systemd units of every node", (*diagnostics.Client).Units},
		{"nodes", "List the nodes known to the health API", (*diagnostics.Client).Nodes},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := newSession(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				result, err := sub.fn(s.Health, cmd.Context())
				if err != nil {
					return err
				}
				return printObject(cmd.OutOrStdout(), cfg, result)
			},
		})
	}

	return cmd
}
