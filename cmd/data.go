package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
)

// frameFlags selects a time frame on the command line.
type frameFlags struct {
	days int
	from string
	to   string
	agg  string
}

func (f *frameFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.days, "days", 7, "window length in days ending today")
	fl.StringVar(&f.from, "from", "", "window start (YYYY-MM-DD), overrides --days")
	fl.StringVar(&f.to, "to", "", "window end (YYYY-MM-DD, default today)")
	fl.StringVar(&f.agg, "agg", "", "bucket width: hour, day, week or month")
}

// timeFrame resolves the flags against now.
func (f *frameFlags) timeFrame(now time.Time) (model.TimeFrame, error) {
	tf := model.LastDays(now, f.days)
	if f.to != "" {
		to, err := time.ParseInLocation(time.DateOnly, f.to, now.Location())
		if err != nil {
			return model.TimeFrame{}, fmt.Errorf("--to: %w", err)
		}
		tf.To = to
		if f.from == "" {
			tf.From = to.AddDate(0, 0, -f.days)
		}
	}
	if f.from != "" {
		from, err := time.ParseInLocation(time.DateOnly, f.from, now.Location())
		if err != nil {
			return model.TimeFrame{}, fmt.Errorf("--from: %w", err)
		}
		tf.From = from
	}
	if f.agg != "" {
		u, err := model.ParseUnit(f.agg)
		if err != nil {
			return model.TimeFrame{}, err
		}
		tf = tf.WithAggregation(u)
	}
	return tf, tf.Validate()
}

func newFetchCmd(e *env) *cobra.Command {
	var (
		frame    frameFlags
		graph    string
		machines []string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "fetch KPI",
		Short: "Fetch the chart data of one KPI",
		Example: `  sfdash fetch energy_cost_avg --days 30
  sfdash fetch utilization_rate --graph pie --machine ast-xpimckaf3dlf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := model.ParseGraphType(graph)
			if err != nil {
				return err
			}
			tf, err := frame.timeFrame(time.Now())
			if err != nil {
				return err
			}
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.fetcher.Fetch(cmd.Context(), query.Request{
				KPI:       args[0],
				TimeFrame: tf,
				Graph:     g,
				Machines:  machines,
			})
			if err != nil {
				return err
			}
			if data.Route == query.RouteMock {
				fmt.Fprintln(cmd.ErrOrStderr(), "Offline: showing placeholder data.")
			}
			return writeChart(cmd.OutOrStdout(), data, asJSON)
		},
	}
	frame.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&graph, "graph", "g", string(model.GraphLine), "graph type, decides the data shape")
	f.StringSliceVarP(&machines, "machine", "m", nil, "machine ids (default: all)")
	f.BoolVar(&asJSON, "json", false, "print the reshaped data as JSON")
	return cmd
}

func newForecastCmd(e *env) *cobra.Command {
	var (
		days     int
		machines []string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "forecast KPI",
		Short: "Predict a KPI for the coming days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			if k, ok := s.store.KPI(args[0]); ok && !k.Forecastable {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not marked forecastable.\n", k.ID)
			}
			data, err := s.fetcher.Forecast(cmd.Context(), args[0], machines, days)
			if err != nil {
				return err
			}
			return writeChart(cmd.OutOrStdout(), data, asJSON)
		},
	}
	f := cmd.Flags()
	f.IntVar(&days, "days", 7, "forecast horizon in days")
	f.StringSliceVarP(&machines, "machine", "m", nil, "machine ids (default: all)")
	f.BoolVar(&asJSON, "json", false, "print the reshaped data as JSON")
	return cmd
}

// writeChart prints chart data as a table, or as JSON of the populated shape.
func writeChart(w io.Writer, d query.ChartData, asJSON bool) error {
	if asJSON {
		var v any
		switch d.Shape {
		case model.ShapeHistogram:
			v = d.Bins
		case model.ShapeCategorical:
			v = d.Categories
		default:
			v = d.Points
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if d.Empty() {
		fmt.Fprintln(w, "No data.")
		return nil
	}

	switch d.Shape {
	case model.ShapeHistogram:
		t := newTable("BIN", "COUNT")
		for _, b := range d.Bins {
			t.Row(b.Label, strconv.Itoa(b.Count))
		}
		fmt.Fprintln(w, t.Render())
	case model.ShapeCategorical:
		t := newTable("NAME", "VALUE")
		for _, c := range d.Categories {
			t.Row(c.Name, formatValue(c.Value))
		}
		fmt.Fprintln(w, t.Render())
	default:
		t := newTable(append([]string{"TIMESTAMP"}, d.Series...)...)
		for _, p := range d.Points {
			row := make([]string, 0, len(d.Series)+1)
			row = append(row, p.Timestamp)
			for _, s := range d.Series {
				if v, ok := p.Values[s]; ok {
					row = append(row, formatValue(v))
				} else {
					row = append(row, "")
				}
			}
			t.Row(row...)
		}
		fmt.Fprintln(w, t.Render())
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
