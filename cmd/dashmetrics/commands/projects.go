package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dashmetrics/internal/charts"
	"dashmetrics/internal/project"

	"github.com/spf13/cobra"
)

func newProjectsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage analytics projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(get),
		newProjectsAddCmd(get),
		newProjectsArchiveCmd(get),
		newProjectsDeleteCmd(get),
	)
	return cmd
}

func newProjectsListCmd(get func() *app) *cobra.Command {
	var filter, search, sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			list, err := a.projects.List(cmd.Context(), project.Query{
				Filter: project.Filter(strings.ToLower(filter)),
				Search: search,
				Sort:   project.SortBy(strings.ToLower(sortBy)),
			})
			if err != nil {
				return a.check(err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhum projeto encontrado.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NOME\tCATEGORIAS\tCRIADO EM\tSTATUS\tID")
			for _, p := range list {
				status := "ativo"
				if p.Archived {
					status = "arquivado"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					p.Name, strings.Join(p.Categories, ", "), p.CreatedAt.Local().Format("02/01/2006"), status, p.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter, "filter", string(project.FilterAll), "all, active or archived")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name or category")
	cmd.Flags().StringVar(&sortBy, "sort", string(project.SortByDate), "date or name")
	return cmd
}

func newProjectsAddCmd(get func() *app) *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "add <name> <spreadsheet-url>",
		Short: "Register a spreadsheet as a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.projects.Create(cmd.Context(), args[0], args[1], categories)
			if err != nil {
				return a.check(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Projeto %q criado (%s).\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "marketing category (repeatable): "+strings.Join(charts.DefaultRegistry().Keys(), ", "))
	return cmd
}

func newProjectsArchiveCmd(get func() *app) *cobra.Command {
	var restore bool
	cmd := &cobra.Command{
		Use:   "archive <project>",
		Short: "Archive a project, or restore it with --restore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := get().projects.Archive(args[0], !restore)
			if err != nil {
				return err
			}
			verb := "arquivado"
			if restore {
				verb = "restaurado"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Projeto %q %s.\n", p.Name, verb)
			return nil
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "unarchive the project")
	return cmd
}

func newProjectsDeleteCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project>",
		Aliases: []string{"rm"},
		Short:   "Delete a local project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := get().projects.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Projeto %q removido.\n", p.Name)
			return nil
		},
	}
}
