package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/pkg/certificates"
)

func NewIAMCommand(cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iam",
		Short: "Manage service accounts and permissions",
	}

	sa := &cobra.Command{
		Use:     "service-accounts",
		Aliases: []string{"sa"},
		Short:   "Manage service accounts",
	}
	sa.AddCommand(
		newServiceAccountCreateCommand(cfg),
		newServiceAccountDeleteCommand(cfg),
		newServiceAccountListCommand(cfg),
	)

	cmd.AddCommand(sa, newGrantCommand(cfg))
	return cmd
}

func newServiceAccountCreateCommand(cfg *config.Configuration) *cobra.Command {
	var (
		description string
		keyBits     int
	)

	cmd := &cobra.Command{
		Use:   "create UID",
		Short: "Create a service account with a new key pair and keep its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid := args[0]
			creds := newCredentialStore(cfg)
			if creds.Exists(uid) {
				return fmt.Errorf("credentials of %s already exist", uid)
			}

			keys, err := certificates.GenerateKeyPair(keyBits)
			if err != nil {
				return err
			}

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := s.IAM.CreateServiceAccount(cmd.Context(), uid, keys.PublicKey, description); err != nil {
				return err
			}

			account := s.IAM.ServiceAccountCredentials(uid, keys.PrivateKey)
			if err := creds.Save(account); err != nil {
				return fmt.Errorf("saving credentials of %s: %w", uid, err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "service account %s created\n", uid)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "dcos-test-utils service account", "account description")
	cmd.Flags().IntVar(&keyBits, "key-bits", 2048, "rsa key size")
	return cmd
}

func newServiceAccountDeleteCommand(cfg *config.Configuration) *cobra.Command {
	return &cobra.Command{
		Use:   "delete UID",
		Short: "Delete a service account and its kept credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := s.IAM.DeleteServiceAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			return newCredentialStore(cfg).Delete(args[0])
		},
	}
}

func newServiceAccountListCommand(cfg *config.Configuration) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List service accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				uids, err := newCredentialStore(cfg).List()
				if err != nil {
					return err
				}
				return printObject(cmd.OutOrStdout(), cfg, uids)
			}

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			uids, err := s.IAM.ListServiceAccounts(cmd.Context())
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), cfg, uids)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "list the accounts with kept credentials instead")
	return cmd
}

func newGrantCommand(cfg *config.Configuration) *cobra.Command {
	var (
		action      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "grant UID RID",
		Short: "Grant a permission on a resource, creating its ACL when missing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, rid := args[0], args[1]
			if !cfg.Cluster.Enterprise {
				return errors.New("permissions are only available on enterprise clusters")
			}

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := s.IAM.CreateACL(cmd.Context(), rid, description); err != nil {
				return err
			}
			return s.IAM.GrantUserPermission(cmd.Context(), uid, action, rid)
		},
	}

	cmd.Flags().StringVar(&action, "action", "full", "granted action")
	cmd.Flags().StringVar(&description, "description", "created by dcos-test-utils", "ACL description")
	return cmd
}
