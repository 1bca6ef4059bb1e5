package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Enter       key.Binding
	Escape      key.Binding
	Tab         key.Binding
	Quit        key.Binding
	Dashboards  key.Binding
	New         key.Binding
	Folder      key.Binding
	Settings    key.Binding
	Refresh     key.Binding
	Reload      key.Binding
	TimeFrame   key.Binding
	Aggregation key.Binding
	Alerts      key.Binding
	Help        key.Binding
}

// DefaultKeyMap provides the default set of key bindings.
var DefaultKeyMap = KeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("left/h", "left")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("right/l", "right")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Dashboards:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboards")),
	New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new dashboard")),
	Folder:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "new folder")),
	Settings:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Reload:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload catalogs")),
	TimeFrame:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time frame")),
	Aggregation: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "aggregation")),
	Alerts:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "alerts")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Global lists the bindings shown in the help overlay, in display order.
func (k KeyMap) Global() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Enter, k.Escape, k.Dashboards, k.New, k.Folder,
		k.TimeFrame, k.Aggregation, k.Refresh, k.Reload, k.Alerts,
		k.Settings, k.Help, k.Quit,
	}
}
