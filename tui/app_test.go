package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/model"
	"github.com/smartfactory/sfdash/internal/query"
	"github.com/smartfactory/sfdash/internal/snapshot"
	"github.com/smartfactory/sfdash/internal/store"
	"github.com/smartfactory/sfdash/tui/styles"
)

type constFetcher struct{}

func (constFetcher) Fetch(_ context.Context, req query.Request) (query.ChartData, error) {
	return query.ChartData{
		Shape:      model.ShapeCategorical,
		Categories: []query.Category{{Name: "m1", Value: 1}},
	}, nil
}

func newTestApp(t *testing.T) (AppModel, *store.Store, *engine.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	st := store.New(nil, snapshot.Embedded())
	st.Initialize(ctx)
	mgr := engine.NewManager(constFetcher{}, engine.Options{Interval: time.Hour, Catalog: st})
	t.Cleanup(func() {
		cancel()
		mgr.StopAll()
	})

	m := NewAppModel(ctx, Options{
		Config:     config.DefaultConfig(),
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Store:      st,
		Manager:    mgr,
		Offline:    func() bool { return st.Source() != store.SourceRemote },
		Version:    "test",
	})
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, st, mgr
}

func update(m AppModel, msg tea.Msg) AppModel {
	next, _ := m.Update(msg)
	return next.(AppModel)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

func TestOpenLayoutByName(t *testing.T) {
	m, _, mgr := newTestApp(t)

	m = update(m, openLayoutMsg{ref: "Energy Overview"})
	if m.active != "energy_overview" {
		t.Fatalf("active = %q, want energy_overview", m.active)
	}
	if n := len(mgr.List()); n != 1 {
		t.Errorf("running pollers = %d, want 1", n)
	}
	if !strings.Contains(m.View(), "Energy Overview") {
		t.Error("header should show the layout name")
	}
}

func TestHeaderOfflineFollowsOption(t *testing.T) {
	m, _, _ := newTestApp(t)
	if !strings.Contains(m.View(), "OFFLINE") {
		t.Error("bundled data should show OFFLINE")
	}

	online := false
	m.opts.Offline = func() bool { return online }
	if strings.Contains(m.View(), "OFFLINE") {
		t.Error("header kept OFFLINE after the source went remote")
	}
}

func TestOpenUnknownLayout(t *testing.T) {
	m, _, mgr := newTestApp(t)

	m = update(m, openLayoutMsg{ref: "nope"})
	if m.active != "" {
		t.Errorf("active = %q, want none", m.active)
	}
	if !strings.Contains(m.message, `no dashboard "nope"`) {
		t.Errorf("message = %q", m.message)
	}
	if n := len(mgr.List()); n != 0 {
		t.Errorf("running pollers = %d, want 0", n)
	}
}

func TestTimeFrameKeyRetargetsActivePoller(t *testing.T) {
	m, _, mgr := newTestApp(t)
	m = update(m, openLayoutMsg{ref: "energy_overview"})

	m = update(m, runes("t"))
	m = update(m, runes("a"))

	p, err := mgr.Poller("energy_overview")
	if err != nil {
		t.Fatal(err)
	}
	want := m.frame.frame(m.now())
	if !sameFrame(p.TimeFrame(), want) {
		t.Errorf("poller frame = %+v, want %+v", p.TimeFrame(), want)
	}
	if m.frame.String() != "last 30 days / hour" {
		t.Errorf("frame label = %q", m.frame.String())
	}
}

func TestTreeRunsSelectedLayout(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = update(m, runes("d"))
	if m.state != StateTree {
		t.Fatalf("state = %v, want tree", m.state)
	}
	// The first item is the Energy folder, the second its first layout.
	m = update(m, runes("j"))
	m = update(m, enter)
	if m.state != StateDashboard || m.active != "energy_overview" {
		t.Errorf("state = %v active = %q", m.state, m.active)
	}
}

func TestBuilderAddsLayoutToStore(t *testing.T) {
	m, st, _ := newTestApp(t)

	m = update(m, runes("n"))
	if m.state != StateBuilder {
		t.Fatalf("state = %v, want builder", m.state)
	}
	m = update(m, runes("Line 3"))
	m = update(m, enter)
	m = update(m, runes("energy_cost_avg"))
	m = update(m, enter) // to graph field
	m = update(m, enter) // add view
	m = update(m, enter) // review
	m = update(m, enter) // save

	layout, ok := dashboard.Find(st.Dashboards(), "line_3")
	if !ok {
		t.Fatal("layout line_3 not in store")
	}
	if len(layout.Views) != 1 || layout.Views[0].KPI != "energy_cost_avg" {
		t.Errorf("views = %+v", layout.Views)
	}
	if m.active != "line_3" || m.state != StateDashboard {
		t.Errorf("state = %v active = %q", m.state, m.active)
	}
}

func TestBuilderNameCollidingWithOtherFolder(t *testing.T) {
	m, st, mgr := newTestApp(t)
	m = update(m, openLayoutMsg{ref: "energy_overview"})

	m = update(m, runes("n"))
	m = update(m, runes("Energy Overview"))
	m = update(m, enter)
	m = update(m, runes("energy_cost_avg"))
	m = update(m, enter)
	m = update(m, enter)
	m = update(m, enter)
	m = update(m, enter)

	if m.active != "energy_overview_1" {
		t.Fatalf("active = %q, want energy_overview_1", m.active)
	}
	snap, err := mgr.Snapshot(m.active)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Views) != 1 {
		t.Errorf("running layout has %d views, want the new one with 1", len(snap.Views))
	}
	bundled, ok := st.Layout("energy_overview")
	if !ok || len(bundled.Views) != 3 {
		t.Errorf("bundled layout = %+v", bundled)
	}
}

func TestBuilderRejectsUnknownKPI(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = update(m, runes("n"))
	m = update(m, runes("Line 3"))
	m = update(m, enter)
	m = update(m, runes("no_such_kpi"))
	m = update(m, enter)
	m = update(m, enter)

	if m.state != StateBuilder {
		t.Fatalf("state = %v, want builder", m.state)
	}
	if !strings.Contains(m.View(), `Unknown KPI "no_such_kpi"`) {
		t.Error("expected an unknown KPI error")
	}
}

func TestFolderPromptCreatesFolder(t *testing.T) {
	m, st, _ := newTestApp(t)

	m = update(m, runes("f"))
	if m.state != StateFolderPrompt {
		t.Fatalf("state = %v, want prompt", m.state)
	}
	m = update(m, runes("Quality"))
	m = update(m, enter)

	if m.state != StateTree {
		t.Errorf("state = %v, want tree", m.state)
	}
	if _, ok := dashboard.Find(st.Dashboards(), "quality"); !ok {
		t.Error("folder quality not in store")
	}
}

func TestSettingsSaveAppliesTheme(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = update(m, runes("s"))
	m = update(m, right)
	m = update(m, enter)

	want := styles.Cycle(styles.DefaultSlug, 1)
	if m.state != StateDashboard {
		t.Fatalf("state = %v, want dashboard", m.state)
	}
	if m.opts.Config.Theme != want {
		t.Errorf("config theme = %q, want %q", m.opts.Config.Theme, want)
	}
	if m.theme.Name != styles.Resolve(want).Name {
		t.Errorf("active theme = %q", m.theme.Name)
	}
	saved, err := config.LoadConfig(m.opts.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Theme != want {
		t.Errorf("saved theme = %q, want %q", saved.Theme, want)
	}
}

func TestHelpOverlayToggles(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = update(m, runes("?"))
	if !m.help.IsVisible() {
		t.Fatal("help should be visible")
	}
	m = update(m, runes("d"))
	if m.state != StateDashboard {
		t.Error("keys other than close should be swallowed by the help overlay")
	}
	m = update(m, esc)
	if m.help.IsVisible() {
		t.Error("esc should close help")
	}
}

func TestAlertsWithoutUser(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = update(m, runes("A"))
	if m.state != StateAlerts {
		t.Fatalf("state = %v, want alerts", m.state)
	}
	if !strings.Contains(m.View(), "sfdash login") {
		t.Error("expected the sign-in hint")
	}
	m = update(m, esc)
	if m.state != StateDashboard {
		t.Errorf("state = %v, want dashboard", m.state)
	}
}
