package query

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
	"github.com/smartfactory/sfdash/internal/model"
)

// DefaultConcurrency bounds parallel calculation calls when Fetcher.Concurrency
// is zero.
const DefaultConcurrency = 4

// Backend is the subset of the REST client the fetcher needs.
type Backend interface {
	Historical(ctx context.Context, q api.HistoricalQuery) ([]api.Row, error)
	Calculate(ctx context.Context, items []api.CalcItem) ([]api.Row, error)
	Predict(ctx context.Context, items []api.PredictItem) ([]api.Row, error)
	Offline() bool
}

var _ Backend = (*api.Client)(nil)

// Request describes one chart.
type Request struct {
	KPI       string
	TimeFrame model.TimeFrame
	Graph     model.GraphType
	Machines  []string
}

// Fetcher routes chart requests to the backend and reshapes the answers.
type Fetcher struct {
	Backend Backend
	// Machines lists the catalog machine ids, used when a request has no
	// machine filter.
	Machines func() []string
	// Concurrency bounds parallel calculation calls.
	Concurrency int
	// Offline is asked on every request and forces mock data while it
	// reports true. Nil means online.
	Offline func() bool
	Mock    Mock
	// Now defaults to time.Now.
	Now func() time.Time
}

// UsesMock reports whether requests are currently answered with mock data.
func (f *Fetcher) UsesMock() bool {
	return f.Backend == nil || (f.Offline != nil && f.Offline()) || f.Backend.Offline()
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fetcher) machines(filter []string) []string {
	if len(filter) > 0 {
		return filter
	}
	if f.Machines == nil {
		return nil
	}
	return f.Machines()
}

// Fetch loads and reshapes the data for req. When the backend is
// unreachable it answers with mock data tagged RouteMock.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (ChartData, error) {
	if err := req.TimeFrame.Validate(); err != nil {
		return ChartData{}, err
	}
	route := RouteFor(req.KPI)
	if f.UsesMock() {
		return f.mock(req), nil
	}

	start := time.Now()
	var (
		rows []api.Row
		err  error
	)
	switch route {
	case RouteHistorical:
		rows, err = f.historical(ctx, req)
	default:
		rows, err = f.calculate(ctx, req)
	}
	if api.IsUnreachable(err) {
		logging.Warn().Err(err).Str("kpi", req.KPI).Msg("backend unavailable, using mock data")
		return f.mock(req), nil
	}
	if err != nil {
		return ChartData{}, fmt.Errorf("fetch %s: %w", req.KPI, err)
	}
	metrics.QueryDuration.WithLabelValues(route.String()).Observe(time.Since(start).Seconds())

	data := Reshape(req.Graph, rows)
	data.Route = route
	return data, nil
}

func (f *Fetcher) historical(ctx context.Context, req Request) ([]api.Row, error) {
	return f.Backend.Historical(ctx, api.HistoricalQuery{
		KPI:       req.KPI,
		From:      req.TimeFrame.From,
		To:        req.TimeFrame.To,
		Machines:  req.Machines,
		GroupTime: BucketFor(req.TimeFrame).ISODuration(),
	})
}

// calculate issues one call per machine and bucket and concatenates the
// answers in plan order. Rows that do not echo their bucket or machine get
// them filled in from the plan.
func (f *Fetcher) calculate(ctx context.Context, req Request) ([]api.Row, error) {
	machines := f.machines(req.Machines)
	if len(machines) == 0 {
		logging.Warn().Str("kpi", req.KPI).Msg("no machines to calculate for")
		return nil, nil
	}
	plan := PlanCalculation(req.KPI, req.TimeFrame, machines)
	layout := time.DateOnly
	if BucketFor(req.TimeFrame) == model.UnitHour {
		layout = time.RFC3339
	}

	limit := f.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([][]api.Row, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range plan {
		g.Go(func() error {
			rows, err := f.Backend.Calculate(gctx, []api.CalcItem{item})
			if err != nil {
				return err
			}
			for j := range rows {
				if rows[j].Timestamp == "" {
					rows[j].Timestamp = item.Start.Format(layout)
				}
				if rows[j].Series == "" {
					rows[j].Series = item.Machine
				}
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []api.Row
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func (f *Fetcher) mock(req Request) ChartData {
	rows := f.Mock.Rows(req.KPI, req.TimeFrame, f.machines(req.Machines))
	data := Reshape(req.Graph, rows)
	data.Route = RouteMock
	metrics.QueryDuration.WithLabelValues(RouteMock.String()).Observe(0)
	return data
}

// Forecast asks for daily predictions of kpi on each machine for the next
// days days and returns them as a time series.
func (f *Fetcher) Forecast(ctx context.Context, kpi string, machines []string, days int) (ChartData, error) {
	if days <= 0 {
		days = 7
	}
	machines = f.machines(machines)
	now := f.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tf := model.TimeFrame{From: today.AddDate(0, 0, 1), To: today.AddDate(0, 0, days)}.WithAggregation(model.UnitDay)

	if f.UsesMock() {
		return f.mock(Request{KPI: kpi, TimeFrame: tf, Graph: model.GraphLine, Machines: machines}), nil
	}

	items := make([]api.PredictItem, 0, len(machines)*days)
	for _, m := range machines {
		for _, d := range Segments(tf.From, tf.To, model.UnitDay) {
			items = append(items, api.PredictItem{Machine: m, KPI: kpi, Date: d})
		}
	}
	rows, err := f.Backend.Predict(ctx, items)
	if err != nil {
		return ChartData{}, fmt.Errorf("forecast %s: %w", kpi, err)
	}
	data := Reshape(model.GraphLine, rows)
	data.Route = RouteHistorical
	return data, nil
}
