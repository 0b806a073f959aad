// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Record is the stored form of a scripted verb.
type Record struct {
	ID       string `yaml:"id" json:"id" jsonschema:"required"`
	Code     string `yaml:"code" json:"code" jsonschema:"required"`
	Owner    string `yaml:"owner" json:"owner"`
	ObjectID string `yaml:"object_id" json:"object_id" jsonschema:"required"`
	Verb     string `yaml:"verb" json:"verb" jsonschema:"required"`
}

// VerbKey is the lookup key of a verb attached to an object.
func VerbKey(objectID, verb string) string {
	return objectID + ":" + strings.ToLower(verb)
}

type entry struct {
	rec  Record
	prog *Program
}

// Registry holds compiled scripts by id and by object verb.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*entry
	byVerb map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*entry), byVerb: make(map[string]string)}
}

// Register compiles code and stores it, replacing a previous script with the
// same id or object verb.
func (r *Registry) Register(id, code, owner, objectID, verb string) (*Program, error) {
	if id == "" || objectID == "" || verb == "" {
		return nil, oops.Code("INVALID_ARGS").Errorf("script needs an id, object and verb")
	}
	rec := Record{ID: id, Code: code, Owner: owner, ObjectID: objectID, Verb: strings.ToLower(verb)}
	prog, err := Compile(id, code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[id]; ok {
		delete(r.byVerb, VerbKey(old.rec.ObjectID, old.rec.Verb))
	}
	key := VerbKey(objectID, rec.Verb)
	if prev, ok := r.byVerb[key]; ok && prev != id {
		delete(r.byID, prev)
	}
	r.byID[id] = &entry{rec: rec, prog: prog}
	r.byVerb[key] = id
	return prog, nil
}

// Remove deletes a script by id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return oops.Code("NOT_FOUND").With("script_id", id).Errorf("no script %q", id)
	}
	delete(r.byID, id)
	delete(r.byVerb, VerbKey(e.rec.ObjectID, e.rec.Verb))
	return nil
}

// Get returns the record and program for id.
func (r *Registry) Get(id string) (Record, *Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return Record{}, nil, false
	}
	return e.rec, e.prog, true
}

// ForVerb returns the program attached to verb on objectID.
func (r *Registry) ForVerb(objectID, verb string) (Record, *Program, bool) {
	r.mu.RLock()
	id, ok := r.byVerb[VerbKey(objectID, verb)]
	r.mu.RUnlock()
	if !ok {
		return Record{}, nil, false
	}
	return r.Get(id)
}

// ListByOwner returns the owner's records sorted by id.
func (r *Registry) ListByOwner(owner string) []Record {
	return r.filter(func(rec Record) bool { return rec.Owner == owner })
}

// Match returns records whose id matches a glob pattern, sorted by id.
func (r *Registry) Match(pattern string) ([]Record, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.Code("INVALID_ARGS").With("pattern", pattern).Wrapf(err, "bad pattern")
	}
	return r.filter(func(rec Record) bool { return g.Match(rec.ID) }), nil
}

// Records returns every record sorted by id.
func (r *Registry) Records() []Record {
	return r.filter(func(Record) bool { return true })
}

func (r *Registry) filter(keep func(Record) bool) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, id := range slices.Sorted(maps.Keys(r.byID)) {
		if rec := r.byID[id].rec; keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Restore recompiles records, skipping and logging the ones that fail.
// It returns how many were registered.
func (r *Registry) Restore(records []Record) int {
	n := 0
	for _, rec := range records {
		if _, err := r.Register(rec.ID, rec.Code, rec.Owner, rec.ObjectID, rec.Verb); err != nil {
			slog.Warn("skipping stored script", "script_id", rec.ID, "error", err)
			continue
		}
		n++
	}
	return n
}

// Load reads a scripts.yaml document and restores it.
func (r *Registry) Load(src io.Reader) (int, error) {
	var records []Record
	if err := yaml.NewDecoder(src).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return 0, oops.Code("PERSIST_DECODE").Wrapf(err, "decoding scripts")
	}
	return r.Restore(records), nil
}

// Save writes every record as a scripts.yaml document.
func (r *Registry) Save(dst io.Writer) error {
	enc := yaml.NewEncoder(dst)
	enc.SetIndent(2)
	if err := enc.Encode(r.Records()); err != nil {
		return oops.Code("PERSIST_IO").Wrapf(err, "encoding scripts")
	}
	return enc.Close()
}
