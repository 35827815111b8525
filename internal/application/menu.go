package application

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datops/internal/source"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

const backLabel = "Back"

// linkParents points every menu at its parent and every Back item at the
// menu above it.
func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == backLabel {
			item.Submenu = parent
			continue
		}
		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func buildMenuTree(m *Model) *Menu {
	files, err := listDatFiles(m.dir)

	var root *Menu
	switch {
	case err != nil:
		root = &Menu{
			Title: "datops",
			Items: []MenuItem{{Label: "Error: " + err.Error()}},
		}
	case len(files) == 0:
		root = &Menu{
			Title: "datops",
			Items: []MenuItem{{Label: "No .dat files in " + m.dir}},
		}
	default:
		root = &Menu{
			Title: fmt.Sprintf("datops: %d files in %s", len(files), m.dir),
			Items: []MenuItem{
				{Label: "Files ->", Submenu: loadFilesMenu(m, files)},
				{Label: "Merge all", Action: func() tea.Cmd { return m.merge(files) }},
			},
		}
	}

	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadFilesMenu(m *Model, files []string) *Menu {
	menu := &Menu{Title: "Files"}
	for _, f := range files {
		menu.Items = append(menu.Items, MenuItem{
			Label:   filepath.Base(f) + " ->",
			Submenu: loadFileMenu(m, f),
		})
	}
	menu.Items = append(menu.Items, MenuItem{Label: backLabel})
	return menu
}

func loadFileMenu(m *Model, path string) *Menu {
	return &Menu{
		Title: filepath.Base(path),
		Items: []MenuItem{
			{Label: "Inspect", Action: func() tea.Cmd { return m.inspect(path) }},
			{Label: "Convert to CSV", Action: func() tea.Cmd { return m.convert(path, "csv") }},
			{Label: "Convert to TSV", Action: func() tea.Cmd { return m.convert(path, "tsv") }},
			{Label: "Convert to XLSX", Action: func() tea.Cmd { return m.convert(path, "xlsx") }},
			{Label: backLabel},
		},
	}
}

// listDatFiles returns the DAT files directly in dir, compressed ones
// included, sorted by name.
func listDatFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := source.TrimCompressionExt(e.Name())
		if strings.EqualFold(filepath.Ext(name), ".dat") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
