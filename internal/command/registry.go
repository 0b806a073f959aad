// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Registry manages verb registration and lookup.
// It is thread-safe for concurrent access.
type Registry struct {
	commands map[string]CommandEntry
	mu       sync.RWMutex
}

// NewRegistry creates a new verb registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]CommandEntry),
	}
}

// Register adds a verb and its aliases to the registry. Names are stored in
// lowercase. An existing verb of the same name is overwritten and a warning
// is logged: last registered wins.
func (r *Registry) Register(entry CommandEntry) error {
	entry.Name = strings.ToLower(strings.TrimSpace(entry.Name))
	if err := ValidateCommandName(entry.Name); err != nil {
		return err
	}
	if entry.Handler == nil {
		return oops.Code(CodeInvalidArgs).With("command", entry.Name).Errorf("verb %s has no handler", entry.Name)
	}
	if entry.Source == "" {
		entry.Source = "core"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range append([]string{entry.Name}, entry.Aliases...) {
		name = strings.ToLower(name)
		if existing, ok := r.commands[name]; ok {
			slog.Warn("verb conflict: overwriting existing verb",
				"command", name,
				"previous_source", existing.Source,
				"new_source", entry.Source)
		}
		r.commands[name] = entry
	}
	return nil
}

// MustRegister registers entries, panicking on invalid names. Intended for
// built-in verb tables.
func (r *Registry) MustRegister(entries ...CommandEntry) {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a verb by name, case-insensitively.
func (r *Registry) Get(name string) (CommandEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[strings.ToLower(name)]
	return entry, ok
}

// All returns every canonical verb sorted by name. Aliases are folded into
// their entry.
func (r *Registry) All() []CommandEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]CommandEntry, 0, len(r.commands))
	for name, e := range r.commands {
		if name == e.Name {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Match returns the verbs whose name matches a glob pattern such as "@*" or
// "l??k".
func (r *Registry) Match(pattern string) ([]CommandEntry, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, oops.Code(CodeInvalidArgs).With("pattern", pattern).Wrap(err)
	}
	var out []CommandEntry
	for _, e := range r.All() {
		if g.Match(e.Name) {
			out = append(out, e)
		}
	}
	return out, nil
}
