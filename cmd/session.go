package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/smartfactory/sfdash/internal/api"
	"github.com/smartfactory/sfdash/internal/config"
	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/profile"
	"github.com/smartfactory/sfdash/internal/query"
	"github.com/smartfactory/sfdash/internal/snapshot"
	"github.com/smartfactory/sfdash/internal/store"
)

// session is everything a data command needs: the active profile, an API
// client and, when requested, a loaded store.
type session struct {
	vault   *profile.FileStore
	profile profile.Profile
	client  *api.Client
	mirror  *snapshot.Mirror
	store   *store.Store
	fetcher *query.Fetcher
	offline bool
}

// openVault opens the profile vault. A vault without a password is tried
// first, then SFDASH_MASTER_KEY or an interactive prompt.
func openVault() (*profile.FileStore, error) {
	path, err := config.GetProfileStorePath()
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating config directories: %w", err)
	}

	if key := os.Getenv(config.EnvMasterKey); key != "" {
		return profile.OpenFileStore(path, []byte(key))
	}
	vault, err := profile.OpenFileStore(path, []byte(""))
	if err == nil {
		return vault, nil
	}
	if !errors.Is(err, profile.ErrDecrypt) {
		return nil, err
	}
	password, err := readSecret("Master password: ")
	if err != nil {
		return nil, err
	}
	vault, err = profile.OpenFileStore(path, password)
	if err != nil {
		return nil, fmt.Errorf("opening profile vault: %w", err)
	}
	return vault, nil
}

// selectedProfile returns the name given by --profile or the configured
// default.
func (e *env) selectedProfile() string {
	if e.profileName != "" {
		return e.profileName
	}
	return e.cfg.DefaultProfile
}

// resolveProfile loads the selected profile. Without one, an anonymous
// profile is built from the configuration.
func (e *env) resolveProfile() (*profile.FileStore, profile.Profile, error) {
	anon := profile.Profile{BaseURL: e.cfg.API.BaseURL, APIKey: e.cfg.API.Key}
	name := e.selectedProfile()
	if name == "" {
		return nil, anon, nil
	}
	vault, err := openVault()
	if err != nil {
		return nil, profile.Profile{}, err
	}
	p, err := vault.Get(name)
	if err != nil {
		return nil, profile.Profile{}, err
	}
	if p.BaseURL == "" {
		p.BaseURL = anon.BaseURL
	}
	if p.APIKey == "" {
		p.APIKey = anon.APIKey
	}
	return vault, p, nil
}

func (e *env) newClient(p profile.Profile) *api.Client {
	return api.New(api.Config{
		BaseURL:           p.BaseURL,
		APIKey:            p.APIKey,
		Timeout:           e.cfg.API.Timeout,
		RequestsPerSecond: e.cfg.API.RequestsPerSecond,
	})
}

// openSession resolves the profile and builds a client. With withStore the
// catalogs and dashboard tree are loaded as well.
func (e *env) openSession(ctx context.Context, withStore bool) (*session, error) {
	vault, p, err := e.resolveProfile()
	if err != nil {
		return nil, err
	}
	s := &session{vault: vault, profile: p, client: e.newClient(p), offline: e.cfg.Offline}
	if !withStore {
		return s, nil
	}

	if e.cfg.OfflineMirror {
		if dir, err := config.GetMirrorDir(); err == nil {
			m, err := snapshot.Open(dir)
			if err != nil {
				logging.Warn().Err(err).Msg("offline mirror unavailable")
			} else {
				s.mirror = m
			}
		}
	}

	bundled := snapshot.Embedded()
	if e.cfg.FallbackDir != "" {
		bundled = snapshot.FromDir(e.cfg.FallbackDir)
	}

	var backend store.Backend
	if !s.offline {
		backend = s.client
	}
	opts := []store.Option{store.WithUser(p.UserID)}
	if s.mirror != nil {
		opts = append(opts, store.WithMirror(s.mirror))
	}
	s.store = store.New(backend, bundled, opts...)
	rep := s.store.Initialize(ctx)
	for _, w := range rep.Warnings {
		logging.Debug().Err(w).Msg("load warning")
	}
	logging.Debug().Stringer("source", rep.Source).Int("kpis", len(s.store.KPIs())).Msg("store loaded")

	s.fetcher = newFetcher(s.client, s.store, s.offline, e.cfg.API.CalcConcurrency)
	return s, nil
}

// newFetcher answers with mock data while st is not serving remote data, so
// a reload that reaches the API switches charts to live queries.
func newFetcher(backend query.Backend, st *store.Store, offline bool, concurrency int) *query.Fetcher {
	return &query.Fetcher{
		Backend:     backend,
		Machines:    st.MachineIDs,
		Concurrency: concurrency,
		Offline:     func() bool { return offline || st.Source() != store.SourceRemote },
	}
}

// requireUser returns the logged-in user id of the active profile.
func (s *session) requireUser() (string, error) {
	if !s.profile.LoggedIn() {
		return "", profile.ErrNotLoggedIn
	}
	return s.profile.UserID, nil
}

// Close flushes pending dashboard writes and releases the mirror.
func (s *session) Close() {
	if s.store != nil {
		s.store.Flush()
	}
	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing offline mirror")
		}
	}
}
