package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/model"
)

func newKPIsCmd(e *env) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "List the KPI catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			t := newTable("ID", "NAME", "GROUP", "UNIT", "FORECAST")
			n := 0
			for _, k := range s.store.KPIs() {
				if kind != "" && !strings.EqualFold(k.Type, kind) {
					continue
				}
				forecast := ""
				if k.Forecastable {
					forecast = "yes"
				}
				t.Row(k.ID, k.Name, model.SplitCamel(k.Type), k.Unit, forecast)
				n++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintf(out, "%d KPIs (source: %s)\n", n, s.store.Source())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "only KPIs of this group, e.g. EnergyKPI")
	return cmd
}

func newMachinesCmd(e *env) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List the machine catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			t := newTable("ID", "TYPE", "DESCRIPTION", "LINE")
			n := 0
			for _, m := range s.store.Machines() {
				if kind != "" && !strings.EqualFold(m.Type, kind) {
					continue
				}
				t.Row(m.MachineID, model.SplitCamel(m.Type), m.Description, m.Line)
				n++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintf(out, "%d machines (source: %s)\n", n, s.store.Source())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "only machines of this type, e.g. LaserCutter")
	return cmd
}
