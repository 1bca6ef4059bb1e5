package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

// DateLayout is the timestamp format sent in request bodies.
const DateLayout = time.RFC3339

func userPath(prefix, userID string) string {
	return prefix + "/" + url.PathEscape(userID)
}

func userQuery(path, userID string) string {
	return path + "?" + url.Values{"userId": {userID}}.Encode()
}

func decodeJSON(endpoint string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}

// Ping probes connectivity with GET /dummy.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.getJSON(ctx, "dummy", "/dummy")
	return err
}

// Login authenticates and returns the account.
func (c *Client) Login(ctx context.Context, username, password string) (model.User, error) {
	data, err := c.postJSON(ctx, "login", "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := decodeJSON("login", data, &u); err != nil {
		return model.User{}, err
	}
	if u.Username == "" {
		u.Username = username
	}
	return u, nil
}

// Registration is the body of POST /register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Site     string `json:"site,omitempty"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, r Registration) (model.User, error) {
	data, err := c.postJSON(ctx, "register", "/register", r)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := decodeJSON("register", data, &u); err != nil {
		return model.User{}, err
	}
	if u.Username == "" {
		u.Username = r.Username
	}
	return u, nil
}

// ChangePassword updates the password of userID with PUT /user/{id}.
func (c *Client) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	_, err := c.do(ctx, http.MethodPut, "user", userPath("/user", userID), map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	})
	return err
}

// Logout ends the server session of userID.
func (c *Client) Logout(ctx context.Context, userID string) error {
	_, err := c.postJSON(ctx, "logout", userQuery("/logout", userID), nil)
	return err
}

// Reports lists the generated reports of userID.
func (c *Client) Reports(ctx context.Context, userID string) ([]model.Report, error) {
	data, err := c.getJSON(ctx, "reports", userQuery("/reports", userID))
	if err != nil {
		return nil, err
	}
	var out []model.Report
	if err := decodeJSON("reports", data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReportRequest is the body of POST /reports/generate.
type ReportRequest struct {
	UserID   string
	Name     string
	KPIs     []string
	Machines []string
	From, To time.Time
}

func (r ReportRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"userId":   r.UserID,
		"name":     r.Name,
		"kpis":     nonNil(r.KPIs),
		"machines": nonNil(r.Machines),
		"timeframe": timeframeWire{
			Start: r.From.Format(DateLayout),
			End:   r.To.Format(DateLayout),
		},
	})
}

// GenerateReport asks the server for a new report.
func (c *Client) GenerateReport(ctx context.Context, r ReportRequest) (model.Report, error) {
	data, err := c.postJSON(ctx, "reports/generate", "/reports/generate", r)
	if err != nil {
		return model.Report{}, err
	}
	var rep model.Report
	if err := decodeJSON("reports/generate", data, &rep); err != nil {
		return model.Report{}, err
	}
	return rep, nil
}

// ScheduleReport registers a recurring report for userID.
func (c *Client) ScheduleReport(ctx context.Context, userID string, s model.Schedule) error {
	body := struct {
		UserID string `json:"userId"`
		model.Schedule
	}{UserID: userID, Schedule: s}
	_, err := c.postJSON(ctx, "reports/schedule", "/reports/schedule", body)
	return err
}

// Schedules lists the report schedules of userID.
func (c *Client) Schedules(ctx context.Context, userID string) ([]model.Schedule, error) {
	data, err := c.getJSON(ctx, "reports/schedule", userQuery("/reports/schedule", userID))
	if err != nil {
		return nil, err
	}
	out, err := model.DecodeSchedules(data)
	if err != nil {
		return nil, fmt.Errorf("reports/schedule: %w", err)
	}
	return out, nil
}

// DownloadReport returns the raw bytes of a generated report.
func (c *Client) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	return c.getJSON(ctx, "reports/download", "/reports/download/"+url.PathEscape(id))
}

type timeframeWire struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// HistoricalQuery is the body of POST /historical.
type HistoricalQuery struct {
	KPI       string
	From, To  time.Time
	Machines  []string
	GroupTime string
}

func (q HistoricalQuery) MarshalJSON() ([]byte, error) {
	type wire struct {
		KPI       string        `json:"kpi"`
		TimeFrame timeframeWire `json:"timeframe"`
		Machines  []string      `json:"machines"`
		GroupTime string        `json:"group_time,omitempty"`
	}
	return json.Marshal(wire{
		KPI:       q.KPI,
		TimeFrame: timeframeWire{Start: q.From.Format(DateLayout), End: q.To.Format(DateLayout)},
		Machines:  nonNil(q.Machines),
		GroupTime: q.GroupTime,
	})
}

// Historical runs a server-side bucketed query.
func (c *Client) Historical(ctx context.Context, q HistoricalQuery) ([]Row, error) {
	data, err := c.postJSON(ctx, "historical", "/historical", q)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("historical: %w", err)
	}
	return rows, nil
}

// PredictItem asks for a forecast of one KPI on one machine for one date.
type PredictItem struct {
	Machine string
	KPI     string
	Date    time.Time
}

func (p PredictItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"Machine_Name":    p.Machine,
		"KPI_Name":        p.KPI,
		"Date_prediction": p.Date.Format(time.DateOnly),
	})
}

// Predict requests forecasts for items.
func (c *Client) Predict(ctx context.Context, items []PredictItem) ([]Row, error) {
	body := map[string][]PredictItem{"value": nonNil(items)}
	data, err := c.postJSON(ctx, "predict", "/predict", body)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return rows, nil
}

// CalcItem asks the calculation engine for one KPI on one machine over one
// bucket.
type CalcItem struct {
	Start   time.Time
	End     time.Time
	Machine string
	KPI     string
}

func (ci CalcItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"Date_Start":   ci.Start.Format(DateLayout),
		"Date_End":     ci.End.Format(DateLayout),
		"Machine_Name": ci.Machine,
		"KPI_Name":     ci.KPI,
	})
}

// Calculate runs on-demand KPI calculations.
func (c *Client) Calculate(ctx context.Context, items []CalcItem) ([]Row, error) {
	data, err := c.postJSON(ctx, "calculate", "/calculate", nonNil(items))
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("calculate: %w", err)
	}
	return rows, nil
}

// SaveSettings stores the preferences of userID.
func (c *Client) SaveSettings(ctx context.Context, userID string, s model.UserSettings) error {
	if s == nil {
		s = model.UserSettings{}
	}
	_, err := c.postJSON(ctx, "settings", userPath("/settings", userID), s)
	return err
}

// Settings loads the preferences of userID.
func (c *Client) Settings(ctx context.Context, userID string) (model.UserSettings, error) {
	data, err := c.getJSON(ctx, "settings", userPath("/settings", userID))
	if err != nil {
		return nil, err
	}
	s := model.UserSettings{}
	if err := decodeJSON("settings", data, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// Alerts lists the notifications of userID.
func (c *Client) Alerts(ctx context.Context, userID string) ([]model.Alert, error) {
	data, err := c.getJSON(ctx, "alerts", userPath("/alerts", userID))
	if err != nil {
		return nil, err
	}
	var out []model.Alert
	if err := decodeJSON("alerts", data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chat sends one message to the assistant.
func (c *Client) Chat(ctx context.Context, userID, message string) (model.ChatReply, error) {
	data, err := c.postJSON(ctx, "agent", userPath("/agent", userID), map[string]string{"userInput": message})
	if err != nil {
		return model.ChatReply{}, err
	}
	reply, err := model.DecodeChatReply(data)
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("agent: %w", err)
	}
	return reply, nil
}

// KPIs fetches the grouped KPI catalog.
func (c *Client) KPIs(ctx context.Context) ([]model.KPI, error) {
	data, err := c.getJSON(ctx, "kpi", "/kpi")
	if err != nil {
		return nil, err
	}
	out, err := model.DecodeKPIGroups(data)
	if err != nil {
		return nil, fmt.Errorf("kpi: %w", err)
	}
	return out, nil
}

// Machines fetches the grouped machine catalog.
func (c *Client) Machines(ctx context.Context) ([]model.Machine, error) {
	data, err := c.getJSON(ctx, "retrieveMachines", "/retrieveMachines")
	if err != nil {
		return nil, err
	}
	out, err := model.DecodeMachineGroups(data)
	if err != nil {
		return nil, fmt.Errorf("retrieveMachines: %w", err)
	}
	return out, nil
}

// SaveDashboardSettings persists the dashboard tree of userID.
func (c *Client) SaveDashboardSettings(ctx context.Context, userID string, tree dashboard.Node) error {
	_, err := c.postJSON(ctx, "dashboardSettings", userPath("/dashboardSettings", userID), tree)
	return err
}

// DashboardSettings loads the persisted dashboard tree of userID.
func (c *Client) DashboardSettings(ctx context.Context, userID string) (dashboard.Node, error) {
	data, err := c.getJSON(ctx, "dashboardSettings", userPath("/dashboardSettings", userID))
	if err != nil {
		return dashboard.Node{}, err
	}
	tree, err := dashboard.DecodeTree(data)
	if err != nil {
		return dashboard.Node{}, fmt.Errorf("dashboardSettings: %w", err)
	}
	return tree, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
