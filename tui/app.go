// Package tui is the full-screen dashboard browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/store"
	"github.com/smartfactory/sfdash/tui/components"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
	"github.com/smartfactory/sfdash/tui/views"
)

// AppState represents the current screen/view of the application.
type AppState int

const (
	StateDashboard AppState = iota
	StateTree
	StateDetail
	StateBuilder
	StateSettings
	StateFolderPrompt
	StateAlerts
)

const messageTTL = 5 * time.Second

// TickMsg triggers a periodic UI refresh to pick up new refresh data.
type TickMsg struct{}

type openLayoutMsg struct{ ref string }

type reloadDoneMsg struct {
	report store.LoadReport
	err    error
}

// Options wires the app to the data layer.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Store      *store.Store
	Manager    *engine.Manager
	// Alerts is nil when no user is signed in.
	Alerts   *engine.AlertFeed
	Profiles []string
	User     string
	// Offline reports whether charts currently show mock data.
	Offline func() bool
	Version string
	// Layout is opened on start, by id or name.
	Layout string
}

// AppModel is the root Bubble Tea model that manages all views and state.
type AppModel struct {
	ctx   context.Context
	opts  Options
	state AppState
	theme styles.Theme

	dashboard views.DashboardView
	detail    views.DetailView
	tree      views.TreeView
	builder   views.BuilderView
	settings  views.SettingsView
	prompt    views.PromptView
	alerts    views.AlertsView
	help      views.HelpView

	width  int
	height int

	active   string
	snapshot *engine.LayoutSnapshot
	frame    frameSelection

	message   string
	messageAt time.Time
	now       func() time.Time
}

// NewAppModel creates the root model. Pollers started from the UI live
// until ctx is cancelled or they are stopped.
func NewAppModel(ctx context.Context, opts Options) AppModel {
	m := AppModel{
		ctx:   ctx,
		opts:  opts,
		state: StateDashboard,
		frame: frameSelection{preset: defaultFrame},
		now:   time.Now,
	}
	m.applyTheme(styles.Resolve(opts.Config.Theme))
	return m
}

func (m *AppModel) applyTheme(theme styles.Theme) {
	m.theme = theme
	m.dashboard = views.NewDashboardView(theme)
	m.detail = views.NewDetailView(theme)
	m.tree = views.NewTreeView(theme)
	m.alerts = views.NewAlertsView(theme)
	m.help = views.NewHelpView(theme)
	m.resize()
	m.syncSnapshot()
}

// Init starts the tick loop and opens the start-up layout.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if m.opts.Layout != "" {
		ref := m.opts.Layout
		cmds = append(cmds, func() tea.Msg { return openLayoutMsg{ref: ref} })
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *AppModel) flash(format string, args ...any) {
	m.message = fmt.Sprintf(format, args...)
	m.messageAt = m.now()
}

func (m AppModel) bodyHeight() int {
	return max(m.height-3, 1)
}

func (m *AppModel) resize() {
	h := m.bodyHeight()
	m.dashboard.SetSize(m.width, h)
	m.detail.SetSize(m.width, h)
	m.tree.SetSize(m.width, h)
	m.builder.SetSize(m.width, h)
	m.settings.SetSize(m.width, h)
	m.prompt.SetSize(m.width, h)
	m.alerts.SetSize(m.width, h)
	m.help.SetSize(m.width, h)
}

// syncSnapshot pulls the active layout's latest state into the views.
func (m *AppModel) syncSnapshot() {
	if m.active == "" {
		m.snapshot = nil
		m.dashboard.SetSnapshot(nil)
		return
	}
	snap, err := m.opts.Manager.Snapshot(m.active)
	if err != nil {
		m.active = ""
		m.snapshot = nil
		m.dashboard.SetSnapshot(nil)
		return
	}
	m.snapshot = snap
	m.dashboard.SetSnapshot(snap)
	if m.state == StateDetail {
		if vs, ok := m.dashboard.Selected(); ok {
			m.detail.SetStats(&vs)
		}
	}
}

func (m *AppModel) syncAlerts() {
	if m.opts.Alerts == nil {
		m.alerts.SetNote("Sign in (sfdash login) to receive alerts.")
		return
	}
	m.alerts.SetAlerts(m.opts.Alerts.Latest(), m.opts.Alerts.Err())
}

// findLayout resolves a layout by id, then by name.
func (m AppModel) findLayout(ref string) (dashboard.Node, bool) {
	layouts := dashboard.Layouts(m.opts.Store.Dashboards())
	for _, l := range layouts {
		if l.ID == ref {
			return l, true
		}
	}
	for _, l := range layouts {
		if l.Name == ref {
			return l, true
		}
	}
	return dashboard.Node{}, false
}

// activate shows layout, starting its poller when needed. A running poller
// is moved to the selected time frame.
func (m *AppModel) activate(layout dashboard.Node) {
	tf := m.frame.frame(m.now())
	p, err := m.opts.Manager.Poller(layout.ID)
	switch {
	case errors.Is(err, engine.ErrNotRunning):
		if err := m.opts.Manager.Start(m.ctx, layout, tf); err != nil {
			m.flash("start %s: %v", layout.Name, err)
			return
		}
	case err != nil:
		m.flash("%v", err)
		return
	case !sameFrame(p.TimeFrame(), tf):
		if err := p.SetTimeFrame(tf); err != nil {
			m.flash("%v", err)
		}
	}
	m.active = layout.ID
	m.state = StateDashboard
	m.syncSnapshot()
}

// applyFrame pushes the selected time frame to the active poller.
func (m *AppModel) applyFrame() {
	if m.active == "" {
		return
	}
	p, err := m.opts.Manager.Poller(m.active)
	if err != nil {
		return
	}
	if err := p.SetTimeFrame(m.frame.frame(m.now())); err != nil {
		m.flash("%v", err)
		return
	}
	m.syncSnapshot()
}

func (m *AppModel) openTree() {
	m.tree.SetTree(m.opts.Store.Dashboards(), m.opts.Manager.List())
	m.tree.SetSize(m.width, m.bodyHeight())
	m.state = StateTree
}

func (m *AppModel) openBuilder(folderID string) {
	root := m.opts.Store.Dashboards()
	folder, ok := dashboard.Find(root, folderID)
	if !ok || !folder.IsFolder() {
		folder = root
	}
	m.builder = views.NewBuilderView(m.theme, m.opts.Store.KPIs(), folder)
	m.builder.SetSize(m.width, m.bodyHeight())
	m.state = StateBuilder
}

func (m AppModel) reloadCmd() tea.Cmd {
	ctx, st := m.ctx, m.opts.Store
	return func() tea.Msg {
		rep, err := st.Reload(ctx)
		return reloadDoneMsg{report: rep, err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case TickMsg:
		m.syncSnapshot()
		if m.state == StateAlerts {
			m.syncAlerts()
		}
		if m.message != "" && m.now().Sub(m.messageAt) > messageTTL {
			m.message = ""
		}
		return m, tickCmd()

	case openLayoutMsg:
		if layout, ok := m.findLayout(msg.ref); ok {
			m.activate(layout)
		} else {
			m.flash("no dashboard %q", msg.ref)
		}
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.flash("reload failed: %v", msg.err)
		} else {
			m.flash("reloaded from %s (%d warnings)", msg.report.Source, len(msg.report.Warnings))
		}
		if m.state == StateTree {
			m.openTree()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := keys.DefaultKeyMap

	if m.help.IsVisible() {
		if key.Matches(msg, km.Help) || key.Matches(msg, km.Escape) {
			m.help.Toggle()
		}
		return m, nil
	}

	switch m.state {
	case StateTree:
		var action views.TreeAction
		m.tree, _, action = m.tree.Update(msg)
		switch action {
		case views.TreeClose:
			m.state = StateDashboard
		case views.TreeRun:
			if layout, ok := m.tree.SelectedLayout(); ok {
				m.activate(layout)
			}
		case views.TreeStop:
			if layout, ok := m.tree.SelectedLayout(); ok {
				if err := m.opts.Manager.Stop(layout.ID); err != nil {
					m.flash("%v", err)
				}
				if m.active == layout.ID {
					m.active = ""
					m.syncSnapshot()
				}
				m.openTree()
			}
		case views.TreeNew:
			m.openBuilder(m.tree.SelectedFolder())
		case views.TreeNewFolder:
			m.prompt = views.NewPromptView(m.theme, "New Folder", "folder name")
			m.prompt.SetSize(m.width, m.bodyHeight())
			m.state = StateFolderPrompt
		}
		return m, nil

	case StateDetail:
		var back bool
		m.detail, _, back = m.detail.Update(msg)
		if back {
			m.state = StateDashboard
		}
		return m, nil

	case StateBuilder:
		var (
			cmd    tea.Cmd
			action views.BuilderAction
		)
		m.builder, cmd, action = m.builder.Update(msg)
		switch action {
		case views.BuilderActionClose:
			m.state = StateDashboard
		case views.BuilderActionSave:
			saved, err := m.opts.Store.AddDashboard(m.builder.Layout(), m.builder.FolderID())
			if err != nil {
				m.builder.SetError(err.Error())
				return m, nil
			}
			logging.Info().Str("layout", saved.ID).Str("folder", m.builder.FolderID()).Msg("dashboard created")
			m.flash("saved %s", saved.Name)
			m.activate(saved)
		}
		return m, cmd

	case StateSettings:
		var (
			cmd    tea.Cmd
			action views.SettingsAction
		)
		m.settings, cmd, action = m.settings.Update(msg)
		switch action {
		case views.SettingsClose:
			m.state = StateDashboard
		case views.SettingsSaved:
			cfg := m.opts.Config
			cfg.Theme = m.settings.Saved.Theme
			cfg.DefaultProfile = m.settings.Saved.DefaultProfile
			cfg.RefreshInterval = m.settings.Saved.RefreshInterval
			cfg.MaxHistory = m.settings.Saved.MaxHistory
			m.applyTheme(styles.Resolve(cfg.Theme))
			m.state = StateDashboard
			m.flash("settings saved; refresh changes apply to newly opened dashboards")
		}
		return m, cmd

	case StateFolderPrompt:
		var (
			cmd    tea.Cmd
			action views.PromptAction
		)
		m.prompt, cmd, action = m.prompt.Update(msg)
		switch action {
		case views.PromptCancel:
			m.openTree()
		case views.PromptSubmit:
			folder, err := m.opts.Store.AddDashboardFolder(m.prompt.Value())
			if err != nil {
				m.flash("%v", err)
			} else {
				m.flash("created folder %s", folder.Name)
			}
			m.openTree()
		}
		return m, cmd

	case StateAlerts:
		var closed bool
		m.alerts, closed = m.alerts.Update(msg)
		if closed {
			m.state = StateDashboard
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, km.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.Help):
		m.help.Toggle()
	case key.Matches(msg, km.Dashboards):
		m.openTree()
	case key.Matches(msg, km.New):
		m.openBuilder(dashboard.RootID)
	case key.Matches(msg, km.Folder):
		m.prompt = views.NewPromptView(m.theme, "New Folder", "folder name")
		m.prompt.SetSize(m.width, m.bodyHeight())
		m.state = StateFolderPrompt
	case key.Matches(msg, km.Settings):
		m.settings = views.NewSettingsView(m.theme, m.opts.Config, m.opts.ConfigPath, m.opts.Profiles)
		m.settings.SetSize(m.width, m.bodyHeight())
		m.state = StateSettings
	case key.Matches(msg, km.Alerts):
		m.syncAlerts()
		m.state = StateAlerts
	case key.Matches(msg, km.Refresh):
		if p, err := m.opts.Manager.Poller(m.active); err == nil {
			p.Refresh()
			m.flash("refreshing")
		}
	case key.Matches(msg, km.Reload):
		m.flash("reloading catalogs")
		return m, m.reloadCmd()
	case key.Matches(msg, km.TimeFrame):
		m.frame = m.frame.nextPreset()
		m.applyFrame()
	case key.Matches(msg, km.Aggregation):
		m.frame = m.frame.nextAggregation()
		m.applyFrame()
	case key.Matches(msg, km.Enter):
		if vs, ok := m.dashboard.Selected(); ok {
			m.detail.SetStats(&vs)
			m.state = StateDetail
		}
	default:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the full application UI by composing header, body, and status.
func (m AppModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	running := m.opts.Manager.List()
	h := components.HeaderInfo{
		Offline: m.opts.Offline != nil && m.opts.Offline(),
		Source:  m.opts.Store.Source().String(),
		User:    m.opts.User,
		Running: len(running),
		Version: m.opts.Version,
	}
	st := components.StatusInfo{
		Interval:  m.opts.Config.RefreshInterval,
		TimeFrame: m.frame.String(),
		Message:   m.message,
	}
	if snap := m.snapshot; snap != nil {
		h.Layout = snap.LayoutName
		h.Live = snap.State == engine.EngineRunning
		st.LastRefresh = snap.LastRefresh
		st.Total = len(snap.Views)
		for _, v := range snap.Views {
			if v.Err == nil && !v.LastRefresh.IsZero() {
				st.OK++
			}
		}
	}
	if m.opts.Alerts != nil {
		if latest := m.opts.Alerts.Latest(); len(latest) > 0 {
			st.Alert = latest[0].Title
		}
	}

	var body string
	switch {
	case m.help.IsVisible():
		body = m.help.View()
	case m.state == StateTree:
		body = m.tree.View()
	case m.state == StateDetail:
		body = m.detail.View()
	case m.state == StateBuilder:
		body = m.builder.View()
	case m.state == StateSettings:
		body = m.settings.View()
	case m.state == StateFolderPrompt:
		body = m.prompt.View()
	case m.state == StateAlerts:
		body = m.alerts.View()
	default:
		body = m.dashboard.View()
	}

	bodyStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Background(m.theme.Base00).
		Foreground(m.theme.Base05)

	return lipgloss.JoinVertical(lipgloss.Left,
		components.RenderHeader(m.theme, h, m.width),
		bodyStyle.Render(body),
		components.RenderStatusBar(m.theme, st, m.width),
	)
}
