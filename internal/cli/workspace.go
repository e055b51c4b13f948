package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/codec"
	"github.com/mesh-intelligence/metastore/internal/metastore"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}
	cmd.AddCommand(newWorkspaceCreateCmd())
	cmd.AddCommand(newWorkspaceGetCmd())
	cmd.AddCommand(newWorkspaceUpdateCmd())
	cmd.AddCommand(newWorkspaceMoveCmd())
	cmd.AddCommand(newWorkspaceDeleteCmd())
	return cmd
}

func printWorkspace(cmd *cobra.Command, ws *types.Workspace, location string) error {
	return emit(cmd, ws, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s) owned by %s\n", ws.ID, ws.FullName, ws.AccountID)
		if location != "" {
			fmt.Fprintf(w, "  content: %s\n", location)
		}
		if len(ws.ProjectNames) > 0 {
			fmt.Fprintf(w, "  projects: %s\n", strings.Join(ws.ProjectNames, ", "))
		}
		printProperties(w, ws.Properties)
	})
}

func newWorkspaceCreateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <account> <name>",
		Short: "Create a workspace in an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := propertyMap(sets)
			if err != nil {
				return err
			}
			ws := &types.Workspace{AccountID: args[0], FullName: args[1], Properties: properties}
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.CreateWorkspace(ws); err != nil {
					return err
				}
				return printWorkspace(cmd, ws, "")
			})
		},
	}
	propertyFlags(cmd, &sets, nil)
	return cmd
}

func newWorkspaceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				ws, err := s.ReadWorkspace(args[0])
				if err != nil {
					return err
				}
				location, err := s.WorkspaceContentLocation(ws.ID)
				if err != nil {
					return err
				}
				return printWorkspace(cmd, ws, location)
			})
		},
	}
}

func newWorkspaceUpdateCmd() *cobra.Command {
	var fullName string
	var sets, unsets []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a workspace's name or properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := changeSet(sets, unsets)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *metastore.Store) error {
				ws, err := s.ReadWorkspace(args[0])
				if err != nil {
					return err
				}
				if fullName != "" {
					ws.FullName = fullName
				}
				if err := s.UpdateWorkspace(ws, changes); err != nil {
					return err
				}
				return printWorkspace(cmd, ws, "")
			})
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "new display name")
	propertyFlags(cmd, &sets, &unsets)
	return cmd
}

func newWorkspaceMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <account>",
		Short: "Move a workspace and its projects to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				ws, err := s.ReadWorkspace(args[0])
				if err != nil {
					return err
				}
				ws.AccountID = args[1]
				if err := s.UpdateWorkspace(ws, nil); err != nil {
					return err
				}
				return printWorkspace(cmd, ws, "")
			})
		},
	}
}

func newWorkspaceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workspace and its projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.DeleteWorkspace(codec.DecodeAccountID(id), id); err != nil {
					return err
				}
				return emit(cmd, map[string]string{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted workspace %s\n", id)
				})
			})
		},
	}
}
