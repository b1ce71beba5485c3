// Package config resolves winstow's configuration file:
// first-existing-wins across ./.winstowrc, $HOME/.winstowrc, and
// $APPDATA/winstow/config.toml, overlaid with WINSTOW_* environment
// variables and finally CLI flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// File is the on-disk shape of a .winstowrc / config.toml file.
type File struct {
	DefaultDir    string   `toml:"default-dir"`
	DefaultTarget string   `toml:"default-target"`
	Ignore        []string `toml:"ignore"`
	Defer         []string `toml:"defer"`
	Verbose       bool     `toml:"verbose"`
}

// Resolved is the fully merged configuration: file, then environment,
// then CLI flags, with replace-for-scalars, merge-for-lists precedence.
type Resolved struct {
	DefaultDir    string
	DefaultTarget string
	Ignore        []string
	Defer         []string
	Verbose       bool

	// SourcePath is the config file that was loaded, or "" if none existed.
	SourcePath string
}

// ResolutionPaths returns the three candidate config paths in the order
// they are checked, first-existing-wins.
func ResolutionPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".winstowrc"))
	} else {
		paths = append(paths, ".winstowrc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".winstowrc"))
	}
	if appData := os.Getenv("APPDATA"); appData != "" {
		paths = append(paths, filepath.Join(appData, "winstow", "config.toml"))
	}
	return paths
}

// Load resolves the first existing config file (if any), overlays
// WINSTOW_* environment variables, and returns the merged result. CLI
// flag values are applied afterward by the caller via Resolved.MergeCLI, since
// cobra owns flag parsing and this package must not import it.
func Load() (Resolved, error) {
	var file File
	var sourcePath string

	for _, path := range ResolutionPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Resolved{}, err
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return Resolved{}, err
		}
		sourcePath = path
		break
	}

	v := viper.New()
	v.SetEnvPrefix("WINSTOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	resolved := Resolved{
		DefaultDir:    file.DefaultDir,
		DefaultTarget: file.DefaultTarget,
		Ignore:        append([]string(nil), file.Ignore...),
		Defer:         append([]string(nil), file.Defer...),
		Verbose:       file.Verbose,
		SourcePath:    sourcePath,
	}

	if v.IsSet("default_dir") {
		resolved.DefaultDir = v.GetString("default_dir")
	}
	if v.IsSet("default_target") {
		resolved.DefaultTarget = v.GetString("default_target")
	}
	if v.IsSet("verbose") {
		resolved.Verbose = v.GetBool("verbose")
	}
	if v.IsSet("ignore") {
		resolved.Ignore = append(resolved.Ignore, strings.Split(v.GetString("ignore"), ",")...)
	}
	if v.IsSet("defer") {
		resolved.Defer = append(resolved.Defer, strings.Split(v.GetString("defer"), ",")...)
	}

	return resolved, nil
}

// MergeCLI applies CLI-supplied overrides onto a loaded Resolved config.
// Scalar values are replaced outright when the CLI supplies one;
// list-valued options (ignore, defer) merge, with CLI patterns appended
// after the config file's.
func (r Resolved) MergeCLI(dir, target string, ignore, deferred []string, verbose bool) Resolved {
	out := r
	if dir != "" {
		out.DefaultDir = dir
	}
	if target != "" {
		out.DefaultTarget = target
	}
	if verbose {
		out.Verbose = true
	}
	out.Ignore = append(append([]string(nil), r.Ignore...), ignore...)
	out.Defer = append(append([]string(nil), r.Defer...), deferred...)
	return out
}
