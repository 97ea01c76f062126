package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
)

const (
	// PluginPathEnv names the environment variable listing plugin directories.
	PluginPathEnv = "HDF5_PLUGIN_PATH"

	// DefaultPluginPath is searched when PluginPathEnv is unset.
	DefaultPluginPath = "/usr/local/hdf5/lib/plugin"

	// PluginSymbol is the function every filter plugin exports. It has the
	// signature func(register func(id uint16, name string, ctor Constructor)).
	PluginSymbol = "RegisterFilters"
)

// PluginPath returns the plugin search path.
func PluginPath() string {
	if p := os.Getenv(PluginPathEnv); p != "" {
		return p
	}
	return DefaultPluginPath
}

// symbols is the part of *plugin.Plugin LoadPlugins needs.
type symbols interface {
	Lookup(name string) (plugin.Symbol, error)
}

// openPlugin opens a Go plugin. Tests replace it.
var openPlugin = func(path string) (symbols, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SkippedPlugin is a shared object on the plugin path that could not be
// used as a filter plugin, such as a native HDF5 filter library.
type SkippedPlugin struct {
	Path string
	Err  error
}

// Plugins is the outcome of LoadPlugins.
type Plugins struct {
	Loaded  []string
	Skipped []SkippedPlugin
}

// LoadPlugins opens every *.so in the directories of path (a list
// separated by os.PathListSeparator) and lets each register its filters.
// Missing directories are skipped. A shared object that is not a Go
// plugin exporting PluginSymbol is reported in Skipped rather than
// failing the load; only a directory that cannot be scanned is an error.
func LoadPlugins(path string) (Plugins, error) {
	var res Plugins
	for _, dir := range filepath.SplitList(path) {
		matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
		if err != nil {
			return res, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, so := range matches {
			if err := loadPlugin(so); err != nil {
				res.Skipped = append(res.Skipped, SkippedPlugin{Path: so, Err: err})
				continue
			}
			res.Loaded = append(res.Loaded, so)
		}
	}
	return res, nil
}

func loadPlugin(so string) error {
	p, err := openPlugin(so)
	if err != nil {
		return fmt.Errorf("opening plugin: %w", err)
	}
	sym, err := p.Lookup(PluginSymbol)
	if err != nil {
		return err
	}
	register, ok := sym.(func(func(uint16, string, Constructor)))
	if !ok {
		return fmt.Errorf("%s has type %T", PluginSymbol, sym)
	}
	register(Register)
	return nil
}
