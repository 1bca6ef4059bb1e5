package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

// ErrNotFound is returned when the mirror holds nothing under a key.
var ErrNotFound = errors.New("not in mirror")

const (
	keyKPIs       = "catalog:kpis"
	keyMachines   = "catalog:machines"
	keySavedAt    = "meta:saved_at"
	treeKeyPrefix = "tree:"
)

// Mirror persists the last remote catalogs and per-user dashboard trees so
// the client can start offline with real data. Values are stored in the
// server's own wire format.
type Mirror struct {
	db *badger.DB
}

// Open opens or creates a mirror in dir.
func Open(dir string) (*Mirror, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open mirror %s: %w", dir, err)
	}
	return &Mirror{db: db}, nil
}

// OpenInMemory opens a mirror that lives only as long as the process.
func OpenInMemory() (*Mirror, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory mirror: %w", err)
	}
	return &Mirror{db: db}, nil
}

// Close releases the underlying database.
func (m *Mirror) Close() error {
	return m.db.Close()
}

func (m *Mirror) put(key string, value []byte) error {
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		return txn.Set([]byte(keySavedAt), stamp)
	})
}

func (m *Mirror) get(key string) ([]byte, error) {
	var out []byte
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// SaveKPIs stores the KPI catalog.
func (m *Mirror) SaveKPIs(kpis []model.KPI) error {
	data, err := model.EncodeKPIGroups(kpis)
	if err != nil {
		return fmt.Errorf("encode kpis: %w", err)
	}
	return m.put(keyKPIs, data)
}

// KPIs returns the stored KPI catalog.
func (m *Mirror) KPIs() ([]model.KPI, error) {
	data, err := m.get(keyKPIs)
	if err != nil {
		return nil, err
	}
	return model.DecodeKPIGroups(data)
}

// SaveMachines stores the machine catalog.
func (m *Mirror) SaveMachines(machines []model.Machine) error {
	data, err := model.EncodeMachineGroups(machines)
	if err != nil {
		return fmt.Errorf("encode machines: %w", err)
	}
	return m.put(keyMachines, data)
}

// Machines returns the stored machine catalog.
func (m *Mirror) Machines() ([]model.Machine, error) {
	data, err := m.get(keyMachines)
	if err != nil {
		return nil, err
	}
	return model.DecodeMachineGroups(data)
}

// SaveTree stores the merged dashboard tree of a user.
func (m *Mirror) SaveTree(user string, tree dashboard.Node) error {
	data, err := dashboard.Encode(tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return m.put(treeKeyPrefix+user, data)
}

// Tree returns the stored dashboard tree of a user.
func (m *Mirror) Tree(user string) (dashboard.Node, error) {
	data, err := m.get(treeKeyPrefix + user)
	if err != nil {
		return dashboard.Node{}, err
	}
	return dashboard.DecodeTree(data)
}

// SavedAt reports when the mirror was last written.
func (m *Mirror) SavedAt() (time.Time, error) {
	data, err := m.get(keySavedAt)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, string(data))
}
