// Package snapshot provides the data the client falls back to when the
// backend cannot be reached: the bundled mock catalog shipped in the binary
// and a badger mirror of the last successful remote load.
package snapshot

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/smartfactory/sfdash/internal/dashboard"
	"github.com/smartfactory/sfdash/internal/model"
)

//go:embed mockData/*.json
var embedded embed.FS

const (
	kpisFile      = "kpis.json"
	machinesFile  = "machines.json"
	treeFile      = "dashboards.json"
	schedulesFile = "schedules.json"
)

// Bundled reads the mock catalog from a filesystem holding kpis.json,
// machines.json, dashboards.json and schedules.json.
type Bundled struct {
	fsys fs.FS
}

// Embedded returns the snapshot compiled into the binary.
func Embedded() *Bundled {
	sub, err := fs.Sub(embedded, "mockData")
	if err != nil {
		panic(err)
	}
	return &Bundled{fsys: sub}
}

// FromDir returns a snapshot read from dir on disk.
func FromDir(dir string) *Bundled {
	return &Bundled{fsys: os.DirFS(dir)}
}

// FromFS returns a snapshot read from fsys.
func FromFS(fsys fs.FS) *Bundled {
	return &Bundled{fsys: fsys}
}

func (b *Bundled) read(name string) ([]byte, error) {
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("bundled %s: %w", name, err)
	}
	return data, nil
}

// KPIs decodes the grouped KPI catalog.
func (b *Bundled) KPIs() ([]model.KPI, error) {
	data, err := b.read(kpisFile)
	if err != nil {
		return nil, err
	}
	return model.DecodeKPIGroups(data)
}

// Machines decodes the grouped machine catalog.
func (b *Bundled) Machines() ([]model.Machine, error) {
	data, err := b.read(machinesFile)
	if err != nil {
		return nil, err
	}
	return model.DecodeMachineGroups(data)
}

// Tree decodes the local dashboard tree.
func (b *Bundled) Tree() (dashboard.Node, error) {
	data, err := b.read(treeFile)
	if err != nil {
		return dashboard.Node{}, err
	}
	return dashboard.DecodeTree(data)
}

// Schedules decodes the sample report schedules.
func (b *Bundled) Schedules() ([]model.Schedule, error) {
	data, err := b.read(schedulesFile)
	if err != nil {
		return nil, err
	}
	return model.DecodeSchedules(data)
}
