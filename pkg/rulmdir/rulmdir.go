// Package rulmdir encapsulates path knowledge for the per-user rulm
// directory, normally ~/.config/rulm. It provides a Dir value object with
// accessors for the config file, the log file and the optional .env file.
package rulmdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name under the user config directory.
const Name = "rulm"

// LocalConfigName is the config file looked up in the working directory
// before the user directory.
const LocalConfigName = "rulm.yaml"

// Dir is a value object that resolves paths within the rulm directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path, made absolute. No I/O is
// performed; use EnsureStructure to create it.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// User returns the Dir under os.UserConfigDir.
func User() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("rulmdir: user config dir: %w", err)
	}

	return New(filepath.Join(base, Name)), nil
}

// Root returns the absolute path of the directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the user config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// LogPath returns the default log file used by the TUI.
func (d Dir) LogPath() string { return filepath.Join(d.root, "rulm.log") }

// EnvPath returns the path to the user .env file.
func (d Dir) EnvPath() string { return filepath.Join(d.root, ".env") }

// Exists reports whether the directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}

// EnsureStructure creates the directory if it is missing. It is idempotent.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("rulmdir: create dir: %w", err)
	}

	return nil
}

// ResolveConfig picks the config file to load: explicit if set, otherwise
// rulm.yaml in workDir, otherwise the user config file. It returns "" when
// no candidate exists. An explicit path is returned even if missing so the
// caller reports the error.
func ResolveConfig(explicit, workDir string, d Dir) string {
	if explicit != "" {
		return explicit
	}

	for _, p := range []string{filepath.Join(workDir, LocalConfigName), d.ConfigPath()} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}

	return ""
}
