package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// newServer answers every request with status and body and records the last
// request.
func newServer(t *testing.T, status int, body string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", APIKey: "secret"}), rec
}

func TestPingSendsHeaders(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{}`)
	require.NoError(t, c.Ping(context.Background()))

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/smartfactory/dummy", rec.path)
	assert.Equal(t, "secret", rec.header.Get("x-api-key"))
	assert.NotEmpty(t, rec.header.Get("X-Request-ID"))
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c, _ := newServer(t, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
	_, err := c.Login(context.Background(), "bob", "nope")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "login", apiErr.Endpoint)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestLogin(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"userId":"u1","email":"bob@example.com","role":"FFM"}`)
	u, err := c.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: "u1", Username: "bob", Email: "bob@example.com", Role: "FFM"}, u)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "bob", body["username"])
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
}

func TestUserScopedPaths(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `[]`)
	ctx := context.Background()

	_, err := c.Reports(ctx, "u 1")
	require.NoError(t, err)
	assert.Equal(t, "/smartfactory/reports", rec.path)
	assert.Equal(t, "userId=u+1", rec.query)

	_, err = c.Alerts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "/smartfactory/alerts/u1", rec.path)

	require.NoError(t, c.Logout(ctx, "u1"))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/smartfactory/logout", rec.path)
	assert.Equal(t, "userId=u1", rec.query)

	require.NoError(t, c.ChangePassword(ctx, "u1", "a", "b"))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/smartfactory/user/u1", rec.path)
}

func TestKPICatalog(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"EnergyKPI":{"energy_cost_avg":{"description":"d","unit":"EUR","forecastable":true}}}`)
	kpis, err := c.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/smartfactory/kpi", rec.path)
	require.Len(t, kpis, 1)
	assert.Equal(t, "Energy KPI", kpis[0].Type)
	assert.Equal(t, "Energy Cost (Avg)", kpis[0].Name)
}

func TestKPICatalogDecodeFailure(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `{"EnergyKPI":{"energy_cost_avg":{"unit":"EUR"}}}`)
	_, err := c.KPIs(context.Background())
	var de *model.DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestHistoricalBody(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `[{"time":"2024-01-01","Machine_Name":"m1","Value":3.5}]`)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := c.Historical(context.Background(), HistoricalQuery{
		KPI:       "energy_cost_avg",
		From:      from,
		To:        from.AddDate(0, 0, 2),
		GroupTime: "P1D",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "m1", rows[0].Series)
	assert.Equal(t, 3.5, *rows[0].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "energy_cost_avg", body["kpi"])
	assert.Equal(t, "P1D", body["group_time"])
	assert.Equal(t, []any{}, body["machines"])
	tf := body["timeframe"].(map[string]any)
	assert.Equal(t, "2024-01-01T00:00:00Z", tf["start_date"])
	assert.Equal(t, "2024-01-03T00:00:00Z", tf["end_date"])
}

func TestCalculateBody(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `[{"Date_Start":"2024-01-01","Machine_Name":"m1","Value":"7"}]`)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := c.Calculate(context.Background(), []CalcItem{{Start: start, End: start.AddDate(0, 0, 1), Machine: "m1", KPI: "energy_cost"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7.0, *rows[0].Value)

	var body []map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &body))
	require.Len(t, body, 1)
	assert.Equal(t, "m1", body[0]["Machine_Name"])
	assert.Equal(t, "energy_cost", body[0]["KPI_Name"])
	assert.Equal(t, "2024-01-02T00:00:00Z", body[0]["Date_End"])
}

func TestPredictWrapsValue(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"value":[{"Date_prediction":"2024-01-02","Machine_Name":"m1","Predicted_value":1.25}]}`)
	rows, err := c.Predict(context.Background(), []PredictItem{{Machine: "m1", KPI: "k", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-02", rows[0].Timestamp)
	assert.Equal(t, 1.25, *rows[0].Value)

	var body map[string][]map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "2024-01-02", body["value"][0]["Date_prediction"])
}

func TestDashboardSettingsRoundTrip(t *testing.T) {
	tree := dashboard.NewRoot(dashboard.NewLayout("a", "A", model.DashboardEntry{KPI: "k", GraphType: model.GraphPie}))
	encoded, err := dashboard.Encode(tree)
	require.NoError(t, err)

	c, rec := newServer(t, http.StatusOK, string(encoded))
	require.NoError(t, c.SaveDashboardSettings(context.Background(), "u1", tree))
	assert.Equal(t, "/smartfactory/dashboardSettings/u1", rec.path)
	assert.JSONEq(t, string(encoded), string(rec.body))

	got, err := c.DashboardSettings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.ChildIDs())
}

func TestNotFound(t *testing.T) {
	c, _ := newServer(t, http.StatusNotFound, `{"message":"no settings"}`)
	_, err := c.DashboardSettings(context.Background(), "u1")
	assert.True(t, IsNotFound(err))
}

func TestChatLenientSuggestion(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"textResponse":"Here you go","label":"dashboard","dashboard":{"name":"Energy","views":[{"kpi":"energy_cost_avg","graph_type":"radar"}]}}`)
	reply, err := c.Chat(context.Background(), "u1", "show energy")
	require.NoError(t, err)
	assert.Equal(t, "/smartfactory/agent/u1", rec.path)
	require.NotNil(t, reply.Suggestion)
	assert.Equal(t, model.GraphLine, reply.Suggestion.Views[0].GraphType)
}

func TestDownloadReportReturnsBytes(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, "%PDF-1.4")
	data, err := c.DownloadReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "/smartfactory/reports/download/r1", rec.path)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	c, _ := newServer(t, http.StatusInternalServerError, `{}`)
	ctx := context.Background()
	for range 10 {
		_ = c.Ping(ctx)
	}
	assert.True(t, c.Offline())

	err := c.Ping(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsUnreachable(err))
}

func TestIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New(Config{BaseURL: base, Timeout: time.Second})
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))

	assert.False(t, IsUnreachable(nil))
	assert.False(t, IsUnreachable(&APIError{Status: http.StatusBadGateway}))
	assert.False(t, IsUnreachable(context.Canceled))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c, _ := newServer(t, http.StatusBadRequest, `{}`)
	ctx := context.Background()
	for range 12 {
		_ = c.Ping(ctx)
	}
	assert.False(t, c.Offline())
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RequestsPerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Ping(ctx))
	cancel()
	assert.ErrorIs(t, c.Ping(ctx), context.Canceled)
}
