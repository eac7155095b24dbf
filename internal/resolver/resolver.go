// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package resolver turns a configured module identifier and a type-name hint
// into a constructible behavior type.
//
// Modules are loaded once and cached for the life of the process. Types are
// looked up by convention: the hint followed by "Skin" or "Measure", ignoring
// case.
package resolver

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/extension"
)

// DefaultAPIConstraint accepts every 1.x module.
const DefaultAPIConstraint = ">= 1.0.0, < 2.0.0"

// ModuleRef identifies a module as the host configured it.
type ModuleRef struct {
	// Name is the raw PluginAssemblyName value.
	Name string
	// Path is Name made absolute by the host.
	Path string
}

// Builtin reports whether the ref names a statically linked module, and
// which one.
func (r ModuleRef) Builtin() (string, bool) {
	name := strings.TrimSpace(r.Name)
	if !strings.HasPrefix(name, extension.BuiltinPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, extension.BuiltinPrefix), true
}

// Key is the cache key of the module.
func (r ModuleRef) Key() string {
	if name, ok := r.Builtin(); ok {
		return extension.BuiltinPrefix + name
	}
	if r.Path == "" {
		return ""
	}
	return filepath.Clean(r.Path)
}

// Loader reads a module file.
type Loader interface {
	Load(ctx context.Context, path string) (*extension.Module, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (*extension.Module, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (*extension.Module, error) {
	return f(ctx, path)
}

// Resolver loads and caches modules and looks up types inside them.
// It is safe for concurrent use.
type Resolver struct {
	loaders    map[string]Loader
	allow      []glob.Glob
	patterns   []string
	constraint *semver.Constraints
	rawLimit   string
	logger     *slog.Logger
	stat       func(string) (fs.FileInfo, error)

	mu      sync.Mutex
	modules map[string]*extension.Module
	loads   int
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLoader registers l for files with extension ext (".lua").
func WithLoader(ext string, l Loader) Option {
	return func(r *Resolver) error {
		if l == nil {
			return oops.With("extension", ext).Errorf("nil loader")
		}
		r.loaders[strings.ToLower(ext)] = l
		return nil
	}
}

// WithAllowList restricts loadable modules to keys matching one of the glob
// patterns. Paths are matched with forward slashes.
func WithAllowList(patterns ...string) Option {
	return func(r *Resolver) error {
		r.allow = r.allow[:0]
		r.patterns = r.patterns[:0]
		for _, p := range patterns {
			g, err := glob.Compile(filepath.ToSlash(p), '/')
			if err != nil {
				return oops.With("pattern", p).Wrapf(err, "compile allow pattern")
			}
			r.allow = append(r.allow, g)
			r.patterns = append(r.patterns, p)
		}
		return nil
	}
}

// WithAPIConstraint sets the semver constraint a module's API version must
// satisfy.
func WithAPIConstraint(constraint string) Option {
	return func(r *Resolver) error {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return oops.With("constraint", constraint).Wrapf(err, "parse api constraint")
		}
		r.constraint = c
		r.rawLimit = constraint
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = l
		return nil
	}
}

// New creates a resolver. Without options only builtin modules resolve.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		loaders: make(map[string]Loader),
		modules: make(map[string]*extension.Module),
		logger:  slog.Default(),
		stat:    os.Stat,
	}
	if err := WithAPIConstraint(DefaultAPIConstraint)(r); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Extensions returns the file extensions a loader is registered for.
func (r *Resolver) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Loads returns how many times a loader has been invoked.
func (r *Resolver) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// Module returns the module ref points at, loading it on first use.
func (r *Resolver) Module(ctx context.Context, ref ModuleRef) (*extension.Module, error) {
	key := ref.Key()
	if key == "" {
		return nil, ErrModuleNotFound(ref.Name, nil)
	}
	if !r.allowed(key) {
		return nil, ErrModuleNotAllowed(key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.modules[key]; ok {
		return m, nil
	}

	m, err := r.load(ctx, ref, key)
	if err != nil {
		return nil, err
	}
	if err := r.checkVersion(key, m); err != nil {
		return nil, err
	}
	r.modules[key] = m
	r.logger.Debug("module loaded",
		"module", key,
		"api_version", m.APIVersion(),
		"skin_types", m.SkinTypes(),
		"measure_types", m.MeasureTypes())
	return m, nil
}

func (r *Resolver) load(ctx context.Context, ref ModuleRef, key string) (*extension.Module, error) {
	if name, ok := ref.Builtin(); ok {
		m, found := extension.Builtin(name)
		if !found {
			return nil, ErrModuleNotFound(key, nil)
		}
		return m, nil
	}

	if _, err := r.stat(key); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrModuleNotFound(key, err)
		}
		return nil, ErrModuleLoadFailed(key, err)
	}

	ext := strings.ToLower(filepath.Ext(key))
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, ErrModuleUnsupported(key, ext)
	}

	r.loads++
	m, err := loader.Load(ctx, key)
	if err != nil {
		return nil, ErrModuleLoadFailed(key, err)
	}
	if m == nil {
		return nil, ErrModuleLoadFailed(key, errors.New("loader returned no module"))
	}
	return m, nil
}

func (r *Resolver) allowed(key string) bool {
	if len(r.allow) == 0 {
		return true
	}
	slashed := filepath.ToSlash(key)
	for _, g := range r.allow {
		if g.Match(slashed) {
			return true
		}
	}
	return false
}

func (r *Resolver) checkVersion(key string, m *extension.Module) error {
	v, err := semver.NewVersion(m.APIVersion())
	if err != nil || !r.constraint.Check(v) {
		return ErrModuleIncompatible(key, m.APIVersion(), r.rawLimit)
	}
	return nil
}

// ResolveSkin finds the group-behavior type hint+"Skin" in the module.
func (r *Resolver) ResolveSkin(ctx context.Context, ref ModuleRef, hint string) (SkinDescriptor, error) {
	m, err := r.Module(ctx, ref)
	if err != nil {
		return SkinDescriptor{}, err
	}
	name, err := match(ref.Key(), m.SkinTypes(), hint+extension.SkinSuffix)
	if err != nil {
		return SkinDescriptor{}, err
	}
	f, _ := m.Skin(name)
	return SkinDescriptor{module: ref.Key(), typeName: name, factory: f}, nil
}

// ResolveMeasure finds the instance-behavior type hint+"Measure" in the
// module.
func (r *Resolver) ResolveMeasure(ctx context.Context, ref ModuleRef, hint string) (MeasureDescriptor, error) {
	m, err := r.Module(ctx, ref)
	if err != nil {
		return MeasureDescriptor{}, err
	}
	name, err := match(ref.Key(), m.MeasureTypes(), hint+extension.MeasureSuffix)
	if err != nil {
		return MeasureDescriptor{}, err
	}
	f, _ := m.Measure(name)
	return MeasureDescriptor{module: ref.Key(), typeName: name, factory: f}, nil
}

// match returns the single name equal to want ignoring case.
func match(module string, names []string, want string) (string, error) {
	var found []string
	for _, n := range names {
		if strings.EqualFold(n, want) {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return "", ErrTypeNotFound(module, want)
	case 1:
		return found[0], nil
	default:
		return "", ErrTypeAmbiguous(module, want, found)
	}
}
