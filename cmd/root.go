package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/metrics"
)

// Version is stamped at build time.
var Version = "0.1.0"

// env carries the global flags and the loaded configuration to every
// subcommand.
type env struct {
	configPath  string
	profileName string
	theme       string
	layout      string
	logLevel    string
	metricsAddr string
	offline     bool

	cfg *config.Config
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the sfdash command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "sfdash",
		Short:         "SmartFactory manufacturing analytics dashboards",
		Long:          "sfdash browses SmartFactory KPI dashboards in the terminal.\nRun without a subcommand to launch the dashboard TUI.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "config file (default <config dir>/config.toml)")
	pf.StringVarP(&e.profileName, "profile", "p", "", "connection profile to use")
	pf.StringVar(&e.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&e.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.BoolVar(&e.offline, "offline", false, "never contact the API, use mirrored or bundled data")
	root.Flags().StringVarP(&e.theme, "theme", "t", "", "theme override for this session")
	root.Flags().StringVarP(&e.layout, "dashboard", "d", "", "open this dashboard layout on start")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newRegisterCmd(e),
		newPasswdCmd(e),
		newProfileCmd(e),
		newKPIsCmd(e),
		newMachinesCmd(e),
		newDashboardsCmd(e),
		newFetchCmd(e),
		newForecastCmd(e),
		newReportsCmd(e),
		newAlertsCmd(e),
		newChatCmd(e),
		newConfigCmd(e),
		newThemesCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and configures
// logging and the optional metrics endpoint.
func (e *env) setup(ctx context.Context) error {
	if e.configPath == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		e.configPath = p
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	if e.offline {
		cfg.Offline = true
	}
	if e.theme != "" {
		cfg.Theme = e.theme
	}
	e.cfg = cfg

	logging.Init(logging.Config{Level: cfg.LogLevel, Output: os.Stderr})

	if e.metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, e.metricsAddr); err != nil {
				logging.Error().Err(err).Str("addr", e.metricsAddr).Msg("metrics endpoint stopped")
			}
		}()
	}
	return nil
}

func (e *env) saveConfig() error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("creating config directories: %w", err)
	}
	if err := config.SaveConfig(e.cfg, e.configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sfdash v%s\n", Version)
		},
	}
}
