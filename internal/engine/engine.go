// Package engine is the MiniSQL driver. It keeps the catalog of resident
// tables, tracks the current table, and compiles and runs SQL text against
// them.
//
// An Engine is not safe for concurrent use.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// Errors returned by the catalog operations.
var (
	ErrTableExists  = errors.New("table already exists")
	ErrNoSuchTable  = errors.New("no such table")
	ErrNoCurrent    = errors.New("no table in use")
	ErrInvalidName  = errors.New("invalid table name")
	ErrFileConflict = errors.New("table file already exists")
)

// Engine holds the resident tables.
type Engine struct {
	logger  *slog.Logger
	dataDir string

	tables  map[string]*storage.Table
	paths   map[string]string // absolute path -> table name
	current *storage.Table
}

// Config holds engine configuration.
type Config struct {
	// DataDir is where CreateTable puts new table files.
	DataDir string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine with an empty catalog.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	logger.Debug("initializing engine", "data_dir", dataDir)

	return &Engine{
		logger:  logger,
		dataDir: dataDir,
		tables:  make(map[string]*storage.Table),
		paths:   make(map[string]string),
	}
}

// LoadTable opens a .gpa file and adds it to the catalog. Loading a path
// that is already resident returns the same table. The first table loaded
// becomes current.
func (e *Engine) LoadTable(path string) (*storage.Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if name, ok := e.paths[abs]; ok {
		return e.tables[name], nil
	}

	name, err := storage.NameFromPath(path)
	if err != nil {
		return nil, err
	}
	if existing, ok := e.tables[name]; ok {
		return nil, fmt.Errorf("%w: %s is already loaded from %s", ErrTableExists, name, existing.Path())
	}

	t, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	e.register(abs, t)
	e.logger.Debug("loaded table", "table", name, "path", abs, "rows", t.AliveCount(), "fields", len(t.Schema()))
	return t, nil
}

// CreateTable creates an empty file-backed table <DataDir>/<name>.gpa. The
// file is written on the first flush.
func (e *Engine) CreateTable(name string, schema core.Schema) (*storage.Table, error) {
	if !core.IsIdentifier(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := e.tables[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("table %s needs at least one field", name)
	}

	path, err := filepath.Abs(filepath.Join(e.dataDir, name+storage.Extension))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table path: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileConflict, path)
	}

	t, err := storage.Create(path, schema)
	if err != nil {
		return nil, err
	}
	e.register(path, t)
	e.logger.Debug("created table", "table", name, "path", path, "schema", schema.String())
	return t, nil
}

func (e *Engine) register(path string, t *storage.Table) {
	e.tables[t.Name()] = t
	e.paths[path] = t.Name()
	if e.current == nil {
		e.current = t
	}
}

// Use makes the named table current.
func (e *Engine) Use(name string) error {
	t, ok := e.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchTable, name)
	}
	e.current = t
	e.logger.Debug("using table", "table", name)
	return nil
}

// Current returns the current table, or nil.
func (e *Engine) Current() *storage.Table { return e.current }

// Lookup returns a resident table by name.
func (e *Engine) Lookup(name string) (*storage.Table, bool) {
	t, ok := e.tables[name]
	return t, ok
}

// Tables returns the resident tables sorted by name.
func (e *Engine) Tables() []*storage.Table {
	out := make([]*storage.Table, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *storage.Table) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// Flush writes every dirty table to disk.
func (e *Engine) Flush() error {
	var errs []error
	for _, t := range e.Tables() {
		if !t.Dirty() {
			continue
		}
		if err := t.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush %s: %w", t.Name(), err))
			continue
		}
		e.logger.Debug("flushed table", "table", t.Name(), "rows", t.AliveCount())
	}
	return errors.Join(errs...)
}

// Close flushes dirty tables and empties the catalog.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine", "tables", len(e.tables))

	var errs []error
	for _, t := range e.Tables() {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", t.Name(), err))
		}
	}
	clear(e.tables)
	clear(e.paths)
	e.current = nil
	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %w", errors.Join(errs...))
	}
	return nil
}
