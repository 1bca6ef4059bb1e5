package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/smartfactory/sfdash/internal/model"
)

// LayoutFile is the TOML form of a single layout, used to share layouts
// between installations.
type LayoutFile struct {
	ID    string     `toml:"id"`
	Name  string     `toml:"name"`
	Views []ViewFile `toml:"view"`
}

// ViewFile is one chart in a LayoutFile.
type ViewFile struct {
	KPI       string `toml:"kpi"`
	GraphType string `toml:"graph_type"`
}

// LoadLayoutFile reads a TOML layout at path. The id defaults to the file's
// base name and the name to the id; every view must carry a KPI and a known
// graph type.
func LoadLayoutFile(path string) (Node, error) {
	var lf LayoutFile
	if _, err := toml.DecodeFile(path, &lf); err != nil {
		return Node{}, err
	}
	if lf.ID == "" {
		lf.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if lf.Name == "" {
		lf.Name = lf.ID
	}
	views := make([]model.DashboardEntry, 0, len(lf.Views))
	for i, v := range lf.Views {
		if v.KPI == "" {
			return Node{}, fmt.Errorf("%s: view %d: missing kpi", path, i)
		}
		g, err := model.ParseGraphType(v.GraphType)
		if err != nil {
			return Node{}, fmt.Errorf("%s: view %d: %w", path, i, err)
		}
		views = append(views, model.DashboardEntry{KPI: v.KPI, GraphType: g})
	}
	return NewLayout(lf.ID, lf.Name, views...), nil
}

// SaveLayoutFile writes a layout node to path as TOML.
func SaveLayoutFile(n Node, path string) error {
	if n.Kind != KindLayout {
		return fmt.Errorf("%q is a %s, only layouts can be exported", n.ID, n.Kind)
	}
	lf := LayoutFile{ID: n.ID, Name: n.Name, Views: make([]ViewFile, len(n.Views))}
	for i, v := range n.Views {
		lf.Views[i] = ViewFile{KPI: v.KPI, GraphType: string(v.GraphType)}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(lf)
}

// ListLayoutFiles returns the base names (without .toml extension) of all
// TOML files found in dir. A missing dir yields an empty list.
func ListLayoutFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		}
	}
	return names, nil
}
