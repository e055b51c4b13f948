package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/metastore/internal/metastore"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectGetCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func printProject(cmd *cobra.Command, p *types.Project) error {
	return emit(cmd, p, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s) in %s\n", p.ID, p.FullName, p.WorkspaceID)
		fmt.Fprintf(w, "  content: %s\n", p.ContentLocation)
		printProperties(w, p.Properties)
	})
}

func newProjectCreateCmd() *cobra.Command {
	var location string
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <workspace> <name>",
		Short: "Create a project",
		Long: "Create a project. Without --location its content lives in a folder\n" +
			"inside the workspace; with one the project is linked to that URI.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := propertyMap(sets)
			if err != nil {
				return err
			}
			p := &types.Project{
				WorkspaceID:     args[0],
				FullName:        args[1],
				ContentLocation: location,
				Properties:      properties,
			}
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.CreateProject(p); err != nil {
					return err
				}
				return printProject(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "content URI of a linked project")
	propertyFlags(cmd, &sets, nil)
	return cmd
}

func newProjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <workspace> <name>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				p, err := s.ReadProject(args[0], args[1])
				if err != nil {
					return err
				}
				return printProject(cmd, p)
			})
		},
	}
}

func newProjectUpdateCmd() *cobra.Command {
	var rename, location string
	var sets, unsets []string
	cmd := &cobra.Command{
		Use:   "update <workspace> <name>",
		Short: "Rename a project or change its location or properties",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := changeSet(sets, unsets)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *metastore.Store) error {
				p, err := s.ReadProject(args[0], args[1])
				if err != nil {
					return err
				}
				if rename != "" {
					p.FullName = rename
				}
				if location != "" {
					p.ContentLocation = location
				}
				if err := s.UpdateProject(p, changes); err != nil {
					return err
				}
				return printProject(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&rename, "rename", "", "new project name")
	cmd.Flags().StringVar(&location, "location", "", "new content URI")
	propertyFlags(cmd, &sets, &unsets)
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workspace> <name>",
		Short: "Delete a project and its default content folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *metastore.Store) error {
				if err := s.DeleteProject(args[0], args[1]); err != nil {
					return err
				}
				return emit(cmd, map[string]string{"deleted": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted project %s from %s\n", args[1], args[0])
				})
			})
		},
	}
}
