package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

func newDashboardsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboards",
		Aliases: []string{"dash"},
		Short:   "Browse and edit the dashboard tree",
	}
	cmd.AddCommand(
		newDashboardsListCmd(e),
		newDashboardsAddFolderCmd(e),
		newDashboardsAddCmd(e),
		newDashboardsExportCmd(e),
		newDashboardsImportCmd(e),
	)
	return cmd
}

func newDashboardsListCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the dashboard tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			tree := s.store.Dashboards()
			if asJSON {
				data, err := dashboard.Encode(tree)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}

func printTree(w io.Writer, root dashboard.Node) {
	dashboard.Walk(root, func(n dashboard.Node, depth int) bool {
		if depth == 0 {
			fmt.Fprintln(w, n.Name)
			return true
		}
		indent := strings.Repeat("  ", depth-1)
		if n.IsFolder() {
			fmt.Fprintf(w, "%s+ %s [%s]\n", indent, n.Name, n.ID)
			return true
		}
		fmt.Fprintf(w, "%s- %s [%s] %d views\n", indent, n.Name, n.ID, len(n.Views))
		return true
	})
}

func newDashboardsAddFolderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add-folder NAME",
		Short: "Add a folder at the top of the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			folder, err := s.store.AddDashboardFolder(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder %q added as %s.\n", folder.Name, folder.ID)
			return nil
		},
	}
}

// parseViews turns "kpi:graph" pairs into dashboard entries. The graph type
// defaults to line.
func parseViews(specs []string) ([]model.DashboardEntry, error) {
	views := make([]model.DashboardEntry, 0, len(specs))
	for _, spec := range specs {
		kpi, graph, found := strings.Cut(spec, ":")
		if kpi == "" {
			return nil, fmt.Errorf("view %q: missing KPI", spec)
		}
		g := model.GraphLine
		if found {
			var err error
			if g, err = model.ParseGraphType(graph); err != nil {
				return nil, fmt.Errorf("view %q: %w", spec, err)
			}
		}
		views = append(views, model.DashboardEntry{KPI: kpi, GraphType: g})
	}
	return views, nil
}

func newDashboardsAddCmd(e *env) *cobra.Command {
	var (
		folder string
		id     string
		views  []string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a dashboard layout",
		Example: `  sfdash dashboards add "Cutting energy" --folder energy \
    --view energy_cost_avg:line --view utilization_rate:pie`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseViews(views)
			if err != nil {
				return err
			}
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, v := range entries {
				if _, ok := s.store.KPI(v.KPI); !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: KPI %q is not in the catalog.\n", v.KPI)
				}
			}
			layout, err := s.store.AddDashboard(dashboard.NewLayout(id, args[0], entries...), folder)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard %q added as %s.\n", layout.Name, layout.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&folder, "folder", "", "parent folder id (default: top level)")
	f.StringVar(&id, "id", "", "layout id (default: derived from the name)")
	f.StringArrayVar(&views, "view", nil, "view as KPI[:GRAPH], repeatable")
	return cmd
}

func newDashboardsExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a layout to a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			layout, ok := s.store.Layout(args[0])
			if !ok {
				return fmt.Errorf("dashboard %q not found", args[0])
			}
			if out == "" {
				dir, err := config.GetDashboardsDir()
				if err != nil {
					return err
				}
				out = filepath.Join(dir, layout.ID+".toml")
			}
			if err := dashboard.SaveLayoutFile(layout, out); err != nil {
				return fmt.Errorf("exporting %s: %w", layout.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s.\n", layout.ID, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <config dir>/dashboards/ID.toml)")
	return cmd
}

// resolveLayoutPath accepts a file path or the name of a file in the
// dashboards directory.
func resolveLayoutPath(arg string) (string, error) {
	if strings.ContainsRune(arg, filepath.Separator) || strings.HasSuffix(arg, ".toml") {
		return arg, nil
	}
	dir, err := config.GetDashboardsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, arg+".toml"), nil
}

func newDashboardsImportCmd(e *env) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "import [FILE|NAME]",
		Short: "Add a layout from a TOML file; without arguments list importable files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				dir, err := config.GetDashboardsDir()
				if err != nil {
					return err
				}
				names, err := dashboard.ListLayoutFiles(dir)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No layout files in %s.\n", dir)
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			path, err := resolveLayoutPath(args[0])
			if err != nil {
				return err
			}
			layout, err := dashboard.LoadLayoutFile(path)
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			added, err := s.store.AddDashboard(layout, folder)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s.\n", added.Name, added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "parent folder id (default: top level)")
	return cmd
}
