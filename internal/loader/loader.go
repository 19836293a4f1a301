// Package loader discovers component modules on disk and instantiates them
// through a catalog of typed constructors.
//
// A module is a subdirectory of a family base directory (adapters/,
// translators/, plugins/) holding a manifest.yaml. The manifest names the
// catalog keys of the components the module provides. Modules load
// concurrently; a module that fails is logged and left out, the rest load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// ManifestFile is the entry-point file that marks a module directory.
const ManifestFile = "manifest.yaml"

// Manifest describes one module.
type Manifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Components  []string `yaml:"components"`
}

// Discover returns the module directories under base, sorted by name.
// A missing base is created and yields no modules.
func Discover(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(base, 0755); err != nil {
				return nil, fmt.Errorf("create %s: %w", base, err)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", base, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadManifest parses the manifest of the module at dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return m, &LoadError{Kind: NotFound, Path: dir, Err: err}
		case os.IsPermission(err):
			return m, &LoadError{Kind: PermissionDenied, Path: dir, Err: err}
		}
		return m, &LoadError{Kind: ImportFailure, Path: dir, Err: err}
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, &LoadError{Kind: ImportFailure, Path: dir, Err: fmt.Errorf("parse %s: %w", ManifestFile, err)}
	}
	if len(m.Components) == 0 {
		return m, &LoadError{Kind: NotFound, Path: dir, Err: errors.New("manifest lists no components")}
	}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	return m, nil
}

// WriteManifest writes m into dir, creating dir when needed.
func WriteManifest(dir string, m Manifest) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644)
}

// Loaded is one instantiated component.
type Loaded[T any] struct {
	Path   string
	Module string
	Key    string
	Value  T
}

// Loader loads the modules of one component family.
type Loader[T any] struct {
	family  component.Family
	base    string
	catalog *Catalog
	log     logging.Logger
}

// New creates a loader for family rooted at base.
func New[T any](family component.Family, base string, catalog *Catalog, log logging.Logger) *Loader[T] {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader[T]{family: family, base: base, catalog: catalog, log: log}
}

// Base returns the directory the loader scans.
func (l *Loader[T]) Base() string { return l.base }

// Load discovers and instantiates every module. Results keep discovery order.
// Per-module failures are logged and returned; only a discovery failure is an error.
func (l *Loader[T]) Load(ctx context.Context) ([]Loaded[T], []*LoadError, error) {
	dirs, err := Discover(l.base)
	if err != nil {
		return nil, nil, err
	}

	results := make([][]Loaded[T], len(dirs))
	failures := make([]*LoadError, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = &LoadError{Kind: ImportFailure, Family: l.family, Path: dir, Err: err}
				return nil
			}
			items, lerr := l.loadModule(dir)
			if lerr != nil {
				lerr.Family = l.family
				failures[i] = lerr
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var loaded []Loaded[T]
	var errs []*LoadError
	for i := range dirs {
		if failures[i] != nil {
			l.logFailure(failures[i])
			errs = append(errs, failures[i])
			continue
		}
		loaded = append(loaded, results[i]...)
	}
	return loaded, errs, nil
}

func (l *Loader[T]) loadModule(dir string) ([]Loaded[T], *LoadError) {
	m, err := ReadManifest(dir)
	if err != nil {
		var lerr *LoadError
		errors.As(err, &lerr)
		return nil, lerr
	}

	items := make([]Loaded[T], 0, len(m.Components))
	for _, key := range m.Components {
		factory, ok := l.catalog.Lookup(key)
		if !ok {
			return nil, &LoadError{Kind: NotFound, Path: dir, Err: fmt.Errorf("no constructor registered for %q", key)}
		}
		raw, err := construct(factory)
		if err != nil {
			return nil, &LoadError{Kind: ImportFailure, Path: dir, Err: fmt.Errorf("construct %q: %w", key, err)}
		}
		v, ok := raw.(T)
		if !ok {
			return nil, &LoadError{Kind: InterfaceMismatch, Path: dir, Err: fmt.Errorf("%q built %T, not a %s", key, raw, l.family)}
		}
		items = append(items, Loaded[T]{Path: dir, Module: m.Name, Key: key, Value: v})
	}
	return items, nil
}

func construct(f Factory) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f()
}

// Attach runs the second phase on every loaded component. Components whose
// attach fails are logged and dropped.
func (l *Loader[T]) Attach(items []Loaded[T], attach func(T) error) ([]Loaded[T], []*LoadError) {
	var kept []Loaded[T]
	var errs []*LoadError
	for _, it := range items {
		if err := attachOne(attach, it.Value); err != nil {
			lerr := &LoadError{Kind: AttachFailure, Family: l.family, Path: it.Path, Err: err}
			l.logFailure(lerr)
			errs = append(errs, lerr)
			continue
		}
		kept = append(kept, it)
	}
	return kept, errs
}

func attachOne[T any](attach func(T) error, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return attach(v)
}

func (l *Loader[T]) logFailure(e *LoadError) {
	l.log.Log(logging.Error, logging.En("[Loader] ❌ Failed to load %s %s (%s): %s", l.family, e.Path, e.Kind, logging.FirstLine(e.Err)).
		Zh("[Loader] ❌ %s %s 加载失败 (%s): %s", l.family, e.Path, e.Kind, logging.FirstLine(e.Err)))
}

// Factory builds one component value.
type Factory func() (any, error)

// Catalog maps constructor keys named in manifests to factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for key.
func (c *Catalog) Register(key string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[key] = f
}

// Lookup returns the factory for key.
func (c *Catalog) Lookup(key string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[key]
	return f, ok
}

// Keys returns the registered keys, sorted.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.factories))
	for k := range c.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
