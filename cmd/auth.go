package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/profile"
)

// requireVault fails for the anonymous profile, which has nowhere to keep a
// session.
func requireVault(s *session) error {
	if s.vault == nil {
		return errors.New("no profile selected: run 'sfdash profile add' or pass --profile")
	}
	return nil
}

func newLoginCmd(e *env) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session in the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := requireVault(s); err != nil {
				return err
			}
			if username == "" {
				username = s.profile.Username
			}
			if username == "" {
				if username, err = readLine("Username: "); err != nil {
					return err
				}
			}
			password := s.profile.Password
			if password == "" || username != s.profile.Username {
				pw, err := readSecret("Password: ")
				if err != nil {
					return err
				}
				password = string(pw)
			}

			user, err := s.client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if s.profile.Username != username {
				err := updateProfile(s, func(p *profile.Profile) {
					p.Username = username
					p.Password = ""
				})
				if err != nil {
					return err
				}
			}
			if err := s.vault.SetSession(s.profile.Name, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (default: the profile's)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := requireVault(s); err != nil {
				return err
			}
			userID, err := s.requireUser()
			if err != nil {
				return err
			}
			if err := s.client.Logout(cmd.Context(), userID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: server logout failed: %v\n", err)
			}
			if err := s.vault.SetSession(s.profile.Name, ""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var reg api.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			if reg.Username == "" {
				if reg.Username, err = readLine("Username: "); err != nil {
					return err
				}
			}
			if reg.Email == "" {
				if reg.Email, err = readLine("Email: "); err != nil {
					return err
				}
			}
			pw, err := readSecret("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readSecret("Confirm password: ")
			if err != nil {
				return err
			}
			if string(pw) != string(confirm) {
				return errors.New("passwords do not match")
			}
			reg.Password = string(pw)

			user, err := s.client.Register(cmd.Context(), reg)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created (%s).\n", user.Username, user.ID)

			if s.vault != nil {
				if err := updateProfile(s, func(p *profile.Profile) { p.Username = user.Username }); err != nil {
					return err
				}
				if err := s.vault.SetSession(s.profile.Name, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %q is now logged in.\n", s.profile.Name)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&reg.Username, "username", "u", "", "account name")
	f.StringVar(&reg.Email, "email", "", "contact email")
	f.StringVar(&reg.Role, "role", "", "role (e.g. FFM, SMO)")
	f.StringVar(&reg.Site, "site", "", "factory site")
	return cmd
}

func newPasswdCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			userID, err := s.requireUser()
			if err != nil {
				return err
			}
			oldPw, err := readSecret("Current password: ")
			if err != nil {
				return err
			}
			newPw, err := readSecret("New password: ")
			if err != nil {
				return err
			}
			if len(newPw) == 0 {
				return errors.New("new password must not be empty")
			}
			if err := s.client.ChangePassword(cmd.Context(), userID, string(oldPw), string(newPw)); err != nil {
				return fmt.Errorf("changing password: %w", err)
			}
			if s.vault != nil && s.profile.Password != "" {
				if err := updateProfile(s, func(p *profile.Profile) { p.Password = string(newPw) }); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
}

// updateProfile applies fn to the stored copy of the active profile, so
// values filled in from the configuration are not persisted.
func updateProfile(s *session, fn func(p *profile.Profile)) error {
	p, err := s.vault.Get(s.profile.Name)
	if err != nil {
		return err
	}
	fn(&p)
	return s.vault.Update(p.Name, p)
}
