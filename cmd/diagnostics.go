package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/internal/models"
	"github.com/dcos/dcos-test-utils/internal/store"
	"github.com/dcos/dcos-test-utils/pkg/filter"
	"github.com/dcos/dcos-test-utils/pkg/testenv"
)

func NewDiagnosticsCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Create and download diagnostics bundles",
	}
	cmd.AddCommand(newDiagnosticsCollectCommand(cfg), newDiagnosticsListCommand(cfg))
	return cmd
}

func newDiagnosticsCollectCommand(cfg *config.Configuration) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Create a bundle for every node, wait for it and download every available bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, cfg)
			if err != nil {
				return err
			}

			dir = testenv.DiagnosticsDir(dir)
			if err := testenv.CollectDiagnostics(ctx, s, dir); err != nil {
				return err
			}

			st, err := openStore(ctx, cfg)
			if err != nil || st == nil {
				return err
			}
			defer st.Close()

			ids, err := s.Health.GetDiagnosticsReports(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				path := filepath.Join(dir, id)
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if err := st.Bundles().Save(ctx, models.Bundle{
					ID:           id,
					Cluster:      cfg.Cluster.DNSAddress,
					Path:         path,
					Size:         info.Size(),
					DownloadedAt: time.Now().UTC(),
				}); err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "%s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "download directory, the home directory when not a directory")
	return cmd
}

func newDiagnosticsListCommand(cfg *config.Configuration) *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the downloaded bundles recorded for the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := filter.Compile(expr, store.BundleFilterFields)
			if err != nil {
				return err
			}
			st, err := requireStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			bundles, err := st.Bundles().Search(cmd.Context(), cfg.Cluster.DNSAddress, cond)
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, bundles)
		},
	}

	cmd.Flags().StringVar(&expr, "filter", "", `filter expression, e.g. "size > 10MB"`)
	return cmd
}
