package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the mitc home directory.
	DefaultDirName = ".mitc"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// FieldsFileName is the optional field catalog override.
	FieldsFileName = "fields.json"

	// EnvFileName holds API keys loaded before configuration.
	EnvFileName = ".env"

	// ExportsDirName is the subdirectory for written workbooks.
	ExportsDirName = "exports"
)

// Dir represents the mitc home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.mitc).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// FieldsPath returns the path to the field catalog override.
func (d *Dir) FieldsPath() string {
	return filepath.Join(d.path, FieldsFileName)
}

// EnvPath returns the path to the home .env file.
func (d *Dir) EnvPath() string {
	return filepath.Join(d.path, EnvFileName)
}

// ExportsDir returns the directory for exported workbooks.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, ExportsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create exports directory (this also creates the parent)
	if err := os.MkdirAll(d.ExportsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create exports directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// FieldsExists returns true if a field catalog override is present.
func (d *Dir) FieldsExists() bool {
	_, err := os.Stat(d.FieldsPath())
	return err == nil
}
