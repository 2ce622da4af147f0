package language

import (
	"fmt"
	"sort"
	"sync"

	appErr "github.com/Gooit/Interpreter/pkg/errors"
)

// Factory builds the engine of one language.
type Factory func(Spec) (Engine, error)

type registryEntry struct {
	spec Spec
	once sync.Once
	eng  Engine
	err  error
}

// Registry maps language ids and aliases to lazily built engines. Each
// engine is constructed at most once and lives as long as the process.
type Registry struct {
	entries map[string]*registryEntry
	specs   []Spec
	build   Factory
}

// NewRegistry validates every spec up front; construction is deferred to
// the first Get of each language.
func NewRegistry(specs []Spec, build Factory) (*Registry, error) {
	if build == nil {
		return nil, fmt.Errorf("engine factory is required")
	}
	r := &Registry{entries: make(map[string]*registryEntry), build: build}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		entry := &registryEntry{spec: s}
		for _, name := range append([]string{s.ID}, s.Aliases...) {
			if _, dup := r.entries[name]; dup {
				return nil, fmt.Errorf("language %q registered twice", name)
			}
			r.entries[name] = entry
		}
		r.specs = append(r.specs, s)
	}
	sort.Slice(r.specs, func(i, j int) bool { return r.specs[i].ID < r.specs[j].ID })
	return r, nil
}

// Get returns the engine for a language id or alias.
func (r *Registry) Get(language string) (Engine, error) {
	entry, ok := r.entries[language]
	if !ok {
		return nil, appErr.UnsupportedLanguage(language)
	}
	entry.once.Do(func() {
		entry.eng, entry.err = r.build(entry.spec)
	})
	if entry.err != nil {
		return nil, appErr.Wrapf(entry.err, appErr.LanguageMisconfig, "language %s is misconfigured", entry.spec.ID)
	}
	return entry.eng, nil
}

// Languages lists the registered languages sorted by id.
func (r *Registry) Languages() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}
