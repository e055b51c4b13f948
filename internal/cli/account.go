package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/metastore"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountGetCmd())
	cmd.AddCommand(newAccountUpdateCmd())
	cmd.AddCommand(newAccountDeleteCmd())
	cmd.AddCommand(newAccountListCmd())
	return cmd
}

func printAccount(cmd *cobra.Command, acct *types.Account) error {
	return emit(cmd, acct, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s)\n", acct.ID, acct.FullName)
		if len(acct.WorkspaceIDs) > 0 {
			fmt.Fprintf(w, "  workspaces: %s\n", strings.Join(acct.WorkspaceIDs, ", "))
		}
		printProperties(w, acct.Properties)
	})
}

func newAccountCreateCmd() *cobra.Command {
	var fullName string
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <login>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := propertyMap(sets)
			if err != nil {
				return err
			}
			acct := types.NewAccount(args[0], fullName)
			acct.Properties = properties
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.CreateAccount(acct); err != nil {
					return err
				}
				return printAccount(cmd, acct)
			})
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	propertyFlags(cmd, &sets, nil)
	return cmd
}

func newAccountGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an account, creating it if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				acct, err := s.ReadAccount(args[0])
				if err != nil {
					return err
				}
				return printAccount(cmd, acct)
			})
		},
	}
}

func newAccountUpdateCmd() *cobra.Command {
	var fullName, rename string
	var sets, unsets []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an account's name, login or properties",
		Long: "Change an account. --rename moves the account, its workspaces and\n" +
			"their projects to a new login.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := changeSet(sets, unsets)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *metastore.Store) error {
				acct, err := s.ReadAccount(args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("full-name") {
					acct.FullName = fullName
				}
				if rename != "" {
					acct.UserName = rename
				}
				if err := s.UpdateAccount(acct, changes); err != nil {
					return err
				}
				return printAccount(cmd, acct)
			})
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "new display name")
	cmd.Flags().StringVar(&rename, "rename", "", "new login")
	propertyFlags(cmd, &sets, &unsets)
	return cmd
}

func newAccountDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account with all its workspaces and projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.DeleteAccount(args[0]); err != nil {
					return err
				}
				return emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted account %s\n", args[0])
				})
			})
		},
	}
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List account ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				ids, err := s.ListAccounts()
				if err != nil {
					return err
				}
				return emit(cmd, ids, func(w io.Writer) {
					for _, id := range ids {
						fmt.Fprintln(w, id)
					}
				})
			})
		},
	}
}
