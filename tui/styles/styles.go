package styles

import "github.com/charmbracelet/lipgloss"

// Styles holds all themed lipgloss styles for the application.
type Styles struct {
	// Header / Footer
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	FooterKey   lipgloss.Style
	FooterDesc  lipgloss.Style

	// Table
	TableHeader  lipgloss.Style
	TableRow     lipgloss.Style
	TableRowSel  lipgloss.Style
	TableCellDim lipgloss.Style

	// Status colors
	StatusUp   lipgloss.Style
	StatusDown lipgloss.Style
	StatusWarn lipgloss.Style

	// Charts
	SparklineStyle lipgloss.Style
	ChartLine      lipgloss.Style
	ChartBar       lipgloss.Style
	ChartAxis      lipgloss.Style

	// Values
	Value lipgloss.Style
	Unit  lipgloss.Style
	Route lipgloss.Style

	// Tree
	Folder lipgloss.Style
	Layout lipgloss.Style

	// Modal / overlay
	ModalBorder lipgloss.Style
	ModalTitle  lipgloss.Style

	// Form
	FormLabel       lipgloss.Style
	FormLabelActive lipgloss.Style
	FormError       lipgloss.Style
	FormHint        lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(theme Theme) *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Foreground(theme.Base05).
			Background(theme.Base01).
			Bold(true).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),
		FooterKey: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),
		FooterDesc: lipgloss.NewStyle().
			Foreground(theme.Base04),

		TableHeader: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),
		TableRow: lipgloss.NewStyle().
			Foreground(theme.Base05),
		TableRowSel: lipgloss.NewStyle().
			Foreground(theme.Base05).
			Background(theme.Base02),
		TableCellDim: lipgloss.NewStyle().
			Foreground(theme.Base03),

		StatusUp: lipgloss.NewStyle().
			Foreground(theme.Base0B),
		StatusDown: lipgloss.NewStyle().
			Foreground(theme.Base08),
		StatusWarn: lipgloss.NewStyle().
			Foreground(theme.Base0A),

		SparklineStyle: lipgloss.NewStyle().
			Foreground(theme.Base0C),
		ChartLine: lipgloss.NewStyle().
			Foreground(theme.Base0D),
		ChartBar: lipgloss.NewStyle().
			Foreground(theme.Base0E),
		ChartAxis: lipgloss.NewStyle().
			Foreground(theme.Base03),

		Value: lipgloss.NewStyle().
			Foreground(theme.Base06).
			Bold(true),
		Unit: lipgloss.NewStyle().
			Foreground(theme.Base04),
		Route: lipgloss.NewStyle().
			Foreground(theme.Base09),

		Folder: lipgloss.NewStyle().
			Foreground(theme.Base0E).
			Bold(true),
		Layout: lipgloss.NewStyle().
			Foreground(theme.Base05),

		ModalBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Base0D).
			BorderBackground(theme.Base00).
			Background(theme.Base00).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),

		FormLabel: lipgloss.NewStyle().
			Foreground(theme.Base04),
		FormLabelActive: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),
		FormError: lipgloss.NewStyle().
			Foreground(theme.Base08),
		FormHint: lipgloss.NewStyle().
			Foreground(theme.Base04),
	}
}
