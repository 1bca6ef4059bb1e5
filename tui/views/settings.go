package views

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/tui/components"
	"github.com/smartfactory/sfdash/tui/keys"
	"github.com/smartfactory/sfdash/tui/styles"
)

// SettingsAction describes what the app should do after a settings update.
type SettingsAction int

const (
	// SettingsNone means continue in the settings view.
	SettingsNone SettingsAction = iota
	// SettingsClose means the user cancelled without saving.
	SettingsClose
	// SettingsSaved means the config was written; Saved holds it.
	SettingsSaved
)

const (
	settingsFieldTheme = iota
	settingsFieldProfile
	settingsFieldInterval
	settingsFieldHistory
	settingsFieldCount
)

// SettingsView edits the persisted preferences with a live theme preview.
type SettingsView struct {
	theme      styles.Theme
	sty        *styles.Styles
	configPath string
	profiles   []string

	themeSlug string
	cursor    int
	width     int
	height    int

	profileInput  textinput.Model
	intervalInput textinput.Model
	historyInput  textinput.Model

	err string
	// Saved is the config as written, set when Update returns SettingsSaved.
	Saved *config.Config
}

// NewSettingsView creates a SettingsView populated from cfg. Saving writes
// to configPath; profiles are offered as hints for the default profile.
func NewSettingsView(theme styles.Theme, cfg *config.Config, configPath string, profiles []string) SettingsView {
	newInput := func(placeholder, value string, limit int) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		in.Width = 40
		in.SetValue(value)
		return in
	}

	slug := cfg.Theme
	if styles.GetThemeByName(slug) == nil {
		slug = styles.DefaultSlug
	}

	return SettingsView{
		theme:         theme,
		sty:           styles.NewStyles(theme),
		configPath:    configPath,
		profiles:      profiles,
		themeSlug:     slug,
		profileInput:  newInput("default profile", cfg.DefaultProfile, 64),
		intervalInput: newInput("30s", cfg.RefreshInterval.String(), 16),
		historyInput:  newInput("120", strconv.Itoa(cfg.MaxHistory), 8),
	}
}

// SetSize updates the available dimensions for the settings view.
func (s *SettingsView) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *SettingsView) focusInput() {
	s.profileInput.Blur()
	s.intervalInput.Blur()
	s.historyInput.Blur()

	switch s.cursor {
	case settingsFieldProfile:
		s.profileInput.Focus()
	case settingsFieldInterval:
		s.intervalInput.Focus()
	case settingsFieldHistory:
		s.historyInput.Focus()
	}
}

func (s *SettingsView) cycleTheme(delta int) {
	s.themeSlug = styles.Cycle(s.themeSlug, delta)
	s.theme = styles.Resolve(s.themeSlug)
	s.sty = styles.NewStyles(s.theme)
}

// Update handles messages for the settings view.
func (s SettingsView) Update(msg tea.Msg) (SettingsView, tea.Cmd, SettingsAction) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, SettingsNone
	}
	km := keys.DefaultKeyMap
	switch {
	case key.Matches(keyMsg, km.Escape):
		return s, nil, SettingsClose
	case key.Matches(keyMsg, km.Enter):
		return s.save()
	case keyMsg.String() == "up", keyMsg.String() == "shift+tab":
		s.cursor = (s.cursor - 1 + settingsFieldCount) % settingsFieldCount
		s.focusInput()
		return s, nil, SettingsNone
	case keyMsg.String() == "down", keyMsg.String() == "tab":
		s.cursor = (s.cursor + 1) % settingsFieldCount
		s.focusInput()
		return s, nil, SettingsNone
	case s.cursor == settingsFieldTheme && key.Matches(keyMsg, km.Left):
		s.cycleTheme(-1)
		return s, nil, SettingsNone
	case s.cursor == settingsFieldTheme && key.Matches(keyMsg, km.Right):
		s.cycleTheme(1)
		return s, nil, SettingsNone
	}

	var cmd tea.Cmd
	switch s.cursor {
	case settingsFieldProfile:
		s.profileInput, cmd = s.profileInput.Update(msg)
	case settingsFieldInterval:
		s.intervalInput, cmd = s.intervalInput.Update(msg)
	case settingsFieldHistory:
		s.historyInput, cmd = s.historyInput.Update(msg)
	}
	return s, cmd, SettingsNone
}

// save validates the fields and writes them over the config file. The file
// is re-read first so environment overrides are not persisted.
func (s SettingsView) save() (SettingsView, tea.Cmd, SettingsAction) {
	interval, err := time.ParseDuration(strings.TrimSpace(s.intervalInput.Value()))
	if err != nil {
		s.err = fmt.Sprintf("Invalid refresh interval: %v", err)
		return s, nil, SettingsNone
	}
	if interval < time.Second {
		s.err = "Refresh interval must be at least 1s"
		return s, nil, SettingsNone
	}
	history, err := strconv.Atoi(strings.TrimSpace(s.historyInput.Value()))
	if err != nil || history < 1 {
		s.err = "Max history must be a positive integer"
		return s, nil, SettingsNone
	}

	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.err = fmt.Sprintf("Failed to read config: %v", err)
		return s, nil, SettingsNone
	}
	cfg.Theme = s.themeSlug
	cfg.DefaultProfile = strings.TrimSpace(s.profileInput.Value())
	cfg.RefreshInterval = interval
	cfg.MaxHistory = history

	if err := config.SaveConfig(cfg, s.configPath); err != nil {
		s.err = fmt.Sprintf("Failed to save config: %v", err)
		return s, nil, SettingsNone
	}
	s.err = ""
	s.Saved = cfg
	return s, nil, SettingsSaved
}

// View renders the settings screen.
func (s SettingsView) View() string {
	var b strings.Builder

	b.WriteString("\n  " + s.sty.HeaderTitle.Render("Settings") + "\n\n")
	if s.err != "" {
		b.WriteString("  " + s.sty.FormError.Render(s.err) + "\n\n")
	}

	themeDisplay := fmt.Sprintf("< %s >  (%d/%d)", s.theme.Name,
		slices.Index(styles.ListThemes(), s.themeSlug)+1, len(styles.Themes))

	rows := []struct {
		label string
		view  string
	}{
		{"Theme", s.sty.Value.Render(themeDisplay)},
		{"Default Profile", s.profileInput.View()},
		{"Refresh Interval", s.intervalInput.View()},
		{"Max History", s.historyInput.View()},
	}
	for i, row := range rows {
		indicator, label := "  ", s.sty.FormLabel
		if i == s.cursor {
			indicator, label = s.sty.FormLabelActive.Render("> "), s.sty.FormLabelActive
		}
		b.WriteString("  " + indicator + label.Render(padRight(row.label+":", 20)) + row.view + "\n")
	}
	if len(s.profiles) > 0 {
		b.WriteString("\n  " + s.sty.FormHint.Render("Profiles: "+strings.Join(s.profiles, ", ")) + "\n")
	}

	b.WriteString("\n" + s.renderThemePreview() + "\n")
	b.WriteString("  " + s.renderHelp() + "\n")
	return b.String()
}

// renderThemePreview draws a miniature dashboard in the selected theme.
func (s SettingsView) renderThemePreview() string {
	t := s.theme
	width := min(max(s.width-6, 30), 60)

	sep := lipgloss.NewStyle().Foreground(t.Base03)
	label := " Theme Preview "
	left := max(width-len(label), 2) / 2
	right := max(width-len(label)-left, 0)

	lines := []string{
		sep.Render(strings.Repeat("-", left)) + s.sty.HeaderTitle.Render(label) + sep.Render(strings.Repeat("-", right)),
		components.RenderHeader(t, components.HeaderInfo{Layout: "Line 1 Overview", Live: true, Source: "remote", Version: "preview"}, width),
		s.sty.TableHeader.Render(padRight("View", 24) + padRight("Latest", 12) + "Trend"),
	}
	samples := []struct {
		name   string
		value  string
		style  lipgloss.Style
		series []float64
	}{
		{"Energy Cost Avg", "42.1 EUR", s.sty.StatusUp, []float64{3, 4, 6, 5, 7, 8}},
		{"Working Time Sum", "7.5 h", s.sty.StatusWarn, []float64{8, 7, 7, 6, 5, 4}},
		{"Idle Time Max", "error", s.sty.StatusDown, nil},
	}
	for _, r := range samples {
		lines = append(lines, s.sty.TableRow.Render(padRight(r.name, 24))+
			r.style.Render(padRight(r.value, 12))+
			s.sty.SparklineStyle.Render(components.Sparkline(r.series, 8)))
	}

	swatches := []lipgloss.Color{t.Base08, t.Base09, t.Base0A, t.Base0B, t.Base0C, t.Base0D, t.Base0E}
	var sw strings.Builder
	sw.WriteString(s.sty.FormHint.Render("Colors: "))
	for _, c := range swatches {
		sw.WriteString(lipgloss.NewStyle().Foreground(c).Render("██") + " ")
	}
	lines = append(lines, "", sw.String(), sep.Render(strings.Repeat("-", width)))

	return "  " + strings.Join(lines, "\n  ")
}

func (s SettingsView) renderHelp() string {
	k := s.sty.FooterKey
	hint := fmt.Sprintf("%s/%s navigate  %s save  %s cancel",
		k.Render("[up]"), k.Render("[down]"), k.Render("[enter]"), k.Render("[esc]"))
	if s.cursor == settingsFieldTheme {
		hint = fmt.Sprintf("%s/%s cycle theme  ", k.Render("[left]"), k.Render("[right]")) + hint
	}
	return s.sty.FormHint.Render(hint)
}
