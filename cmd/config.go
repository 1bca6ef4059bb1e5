package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/tui/styles"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Show the config and data directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dataDir, err := config.GetDataDir()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "config: %s\n", e.configPath)
				fmt.Fprintf(out, "data:   %s\n", dataDir)
				return nil
			},
		},
		&cobra.Command{
			Use:   "theme NAME",
			Short: "Set the default theme",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if styles.GetThemeByName(args[0]) == nil {
					return fmt.Errorf("unknown theme %q (run 'sfdash themes' to list them)", args[0])
				}
				return e.setAndSave(cmd, "theme", args[0], func(c *config.Config) { c.Theme = args[0] })
			},
		},
		&cobra.Command{
			Use:   "profile NAME",
			Short: "Set the default profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				vault, err := openVault()
				if err != nil {
					return err
				}
				if _, err := vault.Get(args[0]); err != nil {
					return err
				}
				return e.setAndSave(cmd, "profile", args[0], func(c *config.Config) { c.DefaultProfile = args[0] })
			},
		},
		&cobra.Command{
			Use:   "api-url URL",
			Short: "Set the API base URL used without a profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := url.Parse(args[0])
				if err != nil || u.Scheme == "" || u.Host == "" {
					return fmt.Errorf("invalid URL %q", args[0])
				}
				return e.setAndSave(cmd, "API URL", args[0], func(c *config.Config) { c.API.BaseURL = args[0] })
			},
		},
	)
	return cmd
}

// setAndSave reloads the file without environment overrides, applies fn and
// writes it back.
func (e *env) setAndSave(cmd *cobra.Command, what, value string, fn func(*config.Config)) error {
	cfg, err := config.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	fn(cfg)
	e.cfg = cfg
	if err := e.saveConfig(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default %s set to %q.\n", what, value)
	return nil
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range styles.ListThemes() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
