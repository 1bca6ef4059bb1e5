package profile

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/goccy/go-json"
)

const vaultVersion = 1

type vaultFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Data    []byte `json:"data"`
}

// FileStore is a Provider persisted as one encrypted JSON file.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	sealer   *sealer
	profiles map[string]Profile
}

var _ Provider = (*FileStore)(nil)

// OpenFileStore opens the vault at path with password, creating an empty one
// when the file does not exist.
func OpenFileStore(path string, password []byte) (*FileStore, error) {
	s := &FileStore{path: path, profiles: make(map[string]Profile)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		if s.sealer, err = newSealer(password, salt); err != nil {
			return nil, err
		}
		return s, s.save()
	}
	if err != nil {
		return nil, err
	}

	var vf vaultFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("corrupt profile vault: %w", err)
	}
	if vf.Version > vaultVersion {
		return nil, fmt.Errorf("profile vault version %d is newer than this build supports", vf.Version)
	}
	if s.sealer, err = newSealer(password, vf.Salt); err != nil {
		return nil, err
	}
	plaintext, err := s.sealer.open(vf.Data)
	if err != nil {
		return nil, ErrDecrypt
	}
	if err := json.Unmarshal(plaintext, &s.profiles); err != nil {
		return nil, fmt.Errorf("corrupt profile data: %w", err)
	}
	return s, nil
}

// save encrypts the profiles and replaces the file atomically.
func (s *FileStore) save() error {
	plaintext, err := json.Marshal(s.profiles)
	if err != nil {
		return err
	}
	sealed, err := s.sealer.seal(plaintext)
	if err != nil {
		return err
	}
	data, err := json.Marshal(vaultFile{Version: vaultVersion, Salt: s.sealer.salt, Data: sealed})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".profiles-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// List returns summaries sorted by name.
func (s *FileStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.profiles))
	for _, name := range slices.Sorted(maps.Keys(s.profiles)) {
		out = append(out, s.profiles[name].Summarize())
	}
	return out, nil
}

// Get returns the profile with the given name, or ErrNotFound.
func (s *FileStore) Get(name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// Add stores a new profile. Returns ErrDuplicate if the name is taken.
func (s *FileStore) Add(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.Name]; exists {
		return ErrDuplicate
	}
	s.profiles[p.Name] = p
	return s.save()
}

// Update replaces the profile called name, renaming it when p.Name differs.
func (s *FileStore) Update(name string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[name]; !exists {
		return ErrNotFound
	}
	if name != p.Name {
		if _, taken := s.profiles[p.Name]; taken {
			return ErrDuplicate
		}
		delete(s.profiles, name)
	}
	s.profiles[p.Name] = p
	return s.save()
}

// Remove deletes a profile.
func (s *FileStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[name]; !exists {
		return ErrNotFound
	}
	delete(s.profiles, name)
	return s.save()
}

// SetSession records the logged-in user of a profile. An empty userID logs
// out.
func (s *FileStore) SetSession(name, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[name]
	if !ok {
		return ErrNotFound
	}
	p.UserID = userID
	s.profiles[name] = p
	return s.save()
}
