package fields

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Store holds the active catalog and can follow changes to its file.
type Store struct {
	mu      sync.RWMutex
	catalog *Catalog
	path    string
	logger  *slog.Logger
}

// NewStore loads the catalog at path (or the defaults) into a store.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalog: LoadOrDefault(path, logger),
		path:    path,
		logger:  logger,
	}
}

// NewStaticStore wraps a fixed catalog.
func NewStaticStore(c *Catalog) *Store {
	return &Store{catalog: c, logger: slog.Default()}
}

// Catalog returns the active catalog. A nil store serves the defaults.
func (s *Store) Catalog() *Catalog {
	if s == nil {
		return Default()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Path returns the backing file, empty when running on defaults.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Watch reloads the catalog whenever its file changes. A reload that fails
// keeps the current catalog. No-op without a backing file.
func (s *Store) Watch() {
	if s.path == "" {
		return
	}
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		s.logger.Warn("not watching field config", "path", s.path, "error", err)
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		c, err := decode(v)
		if err != nil {
			s.logger.Warn("field config reload failed, keeping previous fields", "path", e.Name, "error", err)
			return
		}
		s.mu.Lock()
		s.catalog = c
		s.mu.Unlock()
		s.logger.Info("field config reloaded", "path", e.Name, "fields", c.Len())
	})
	v.WatchConfig()
}
