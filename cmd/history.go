package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/internal/store"
	"github.com/dcos/dcos-test-utils/pkg/filter"
)

func NewHistoryCommand(cfg *config.Configuration) *cobra.Command {
	var (
		runID      string
		hosts      []string
		failedOnly bool
		limit      int
		remove     bool
		expr       string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded ssh runs, or the results of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := requireStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if runID == "" {
				if remove {
					return errors.New("--delete requires --run-id")
				}
				runs, err := st.Commands().Runs(ctx)
				if err != nil {
					return err
				}
				printRuns(cmd.OutOrStdout(), runs)
				return nil
			}

			if remove {
				return st.Commands().DeleteRun(ctx, runID)
			}

			cond, err := filter.Compile(expr, store.CommandFilterFields)
			if err != nil {
				return err
			}
			query := store.NewCommandQueryFilter().ByRunID(runID).ByHosts(hosts...).Where(cond)
			if failedOnly {
				query = query.FailedOnly()
			}
			if limit > 0 {
				query = query.Limit(limit)
			}
			results, err := st.Commands().List(ctx, query)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run to show")
	cmd.Flags().StringSliceVar(&hosts, "hosts", nil, "only these hosts")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only failed commands")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the run")
	cmd.Flags().StringVar(&expr, "filter", "", `filter expression, e.g. "return_code != 0 and stdout ~ /refused/"`)
	return cmd
}

func requireStore(cmd *cobra.Command, cfg *config.Configuration) (*store.Store, error) {
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("store-path cannot be empty")
	}
	return st, nil
}
