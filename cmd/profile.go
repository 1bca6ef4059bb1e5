package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/profile"
)

func newProfileCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage connection profiles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all profiles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return profileList(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "add",
			Short: "Add a new profile (interactive)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return profileAdd(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove a profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				vault, err := openVault()
				if err != nil {
					return err
				}
				if err := vault.Remove(args[0]); err != nil {
					return fmt.Errorf("removing profile: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %q removed.\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "test [NAME]",
			Short: "Check that the API of a profile answers",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 1 {
					e.profileName = args[0]
				}
				return profileTest(cmd, e)
			},
		},
	)
	return cmd
}

func profileList(cmd *cobra.Command, e *env) error {
	vault, err := openVault()
	if err != nil {
		return err
	}
	summaries, err := vault.List()
	if err != nil {
		return fmt.Errorf("listing profiles: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No profiles configured.")
		return nil
	}

	t := newTable("", "NAME", "BASE URL", "USER", "API KEY", "SESSION")
	for _, s := range summaries {
		marker := ""
		if s.Name == e.cfg.DefaultProfile {
			marker = "*"
		}
		session := "-"
		if s.LoggedIn {
			session = "logged in"
		}
		t.Row(marker, s.Name, s.BaseURL, s.Username, s.APIKey, session)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func profileAdd(cmd *cobra.Command, e *env) error {
	name, err := readLine("Profile name: ")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("name is required")
	}
	p := profile.Profile{Name: name}
	if p.BaseURL, err = readLineDefault("API base URL: ", e.cfg.API.BaseURL); err != nil {
		return err
	}
	key, err := readSecret("API key (blank for none): ")
	if err != nil {
		return err
	}
	p.APIKey = string(key)
	if p.Username, err = readLine("Username (blank to log in later): "); err != nil {
		return err
	}
	if p.Username != "" {
		pw, err := readSecret("Password (blank to prompt at login): ")
		if err != nil {
			return err
		}
		p.Password = string(pw)
	}

	vault, err := openVault()
	if err != nil {
		return err
	}
	if err := vault.Add(p); err != nil {
		return fmt.Errorf("adding profile: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %q added.\n", name)

	if e.cfg.DefaultProfile == "" {
		e.cfg.DefaultProfile = name
		if err := e.saveConfig(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to %q.\n", name)
	}
	return nil
}

func profileTest(cmd *cobra.Command, e *env) error {
	_, p, err := e.resolveProfile()
	if err != nil {
		return err
	}
	client := e.newClient(p)
	fmt.Fprintf(cmd.ErrOrStderr(), "Testing %s ...\n", client.BaseURL())
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("API unreachable: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Connection test successful.")
	return nil
}

// newTable returns a bordered table with the given headers.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
