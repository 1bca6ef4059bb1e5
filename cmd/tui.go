package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/tui"
)

const alertCapacity = 50

// runTUI launches the dashboard browser. The TUI owns the terminal, so
// logging moves to the log file first.
func runTUI(ctx context.Context, e *env) error {
	if path, err := config.GetLogPath(); err == nil {
		if f, err := logging.OpenFile(path); err == nil {
			defer f.Close()
			logging.Init(logging.Config{Level: e.cfg.LogLevel, Format: "json", Output: f})
		}
	}

	s, err := e.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := e.cfg
	mgr := engine.NewManager(s.fetcher, engine.Options{
		Interval:   cfg.RefreshInterval,
		MaxHistory: cfg.MaxHistory,
		Catalog:    s.store,
	})
	defer mgr.StopAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var feed *engine.AlertFeed
	if s.profile.LoggedIn() && !s.offline {
		feed = engine.NewAlertFeed(s.client, s.profile.UserID, cfg.RefreshInterval, alertCapacity)
		go feed.Run(ctx)
	}

	var profiles []string
	if s.vault != nil {
		if list, err := s.vault.List(); err == nil {
			for _, p := range list {
				profiles = append(profiles, p.Name)
			}
		}
	}

	logging.Info().Str("profile", s.profile.Name).Stringer("source", s.store.Source()).Msg("starting dashboard browser")

	model := tui.NewAppModel(ctx, tui.Options{
		Config:     cfg,
		ConfigPath: e.configPath,
		Store:      s.store,
		Manager:    mgr,
		Alerts:     feed,
		Profiles:   profiles,
		User:       s.profile.Username,
		Offline:    s.fetcher.UsesMock,
		Version:    Version,
		Layout:     e.layout,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running dashboard browser: %w", err)
	}
	return nil
}
