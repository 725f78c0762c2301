package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/pkg/packages"
)

func NewPackageCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Manage packages with the cluster package manager",
	}
	cmd.AddCommand(
		newPackageInstallCommand(cfg),
		newPackageUninstallCommand(cfg),
		newPackageListCommand(cfg),
		newPackageDescribeCommand(cfg),
	)
	return cmd
}

func newPackageInstallCommand(cfg *config.Configuration) *cobra.Command {
	var (
		opts        packages.InstallOptions
		optionsFile string
	)

	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Install a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := readDefinition(optionsFile)
			if err != nil {
				return err
			}
			opts.Options = options

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := s.Package.Install(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, result)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "package version, latest when empty")
	cmd.Flags().StringVar(&opts.AppID, "app-id", "", "service name")
	cmd.Flags().StringVar(&optionsFile, "options", "", "YAML or JSON package options")

	return cmd
}

func newPackageUninstallCommand(cfg *config.Configuration) *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "uninstall NAME",
		Short: "Uninstall a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := s.Package.Uninstall(cmd.Context(), args[0], appID)
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, result)
		},
	}

	cmd.Flags().StringVar(&appID, "app-id", "", "service name")
	return cmd
}

func newPackageListCommand(cfg *config.Configuration) *cobra.Command {
	var name, appID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := s.Package.List(cmd.Context(), name, appID)
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, result)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "package name")
	cmd.Flags().StringVar(&appID, "app-id", "", "service name")
	return cmd
}

func newPackageDescribeCommand(cfg *config.Configuration) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "describe NAME",
		Short: "Describe a package of the configured repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := s.Package.Describe(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, result)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "package version")
	return cmd
}
