// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"maps"
	"strings"
	"sync"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// SystemAliases are the built-in shortcuts every session starts with.
var SystemAliases = map[string]string{
	"n":  "go north",
	"s":  "go south",
	"e":  "go east",
	"w":  "go west",
	"u":  "go up",
	"d":  "go down",
	"l":  "look",
	"i":  "inventory",
	"'":  "say",
	"\"": "say",
	":":  "emote",
}

// AliasCache holds session and system aliases. Expansion is a single
// round: the result of an expansion is never expanded again.
// It is thread-safe for concurrent access.
type AliasCache struct {
	sessionAliases map[ulid.ULID]map[string]string // sessionID → alias → command
	systemAliases  map[string]string               // alias → command
	mu             sync.RWMutex
}

// NewAliasCache creates an alias cache preloaded with SystemAliases.
func NewAliasCache() *AliasCache {
	return &AliasCache{
		sessionAliases: make(map[ulid.ULID]map[string]string),
		systemAliases:  maps.Clone(SystemAliases),
	}
}

// LoadSystemAliases bulk loads extra system aliases at startup.
func (c *AliasCache) LoadSystemAliases(aliases map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range aliases {
		c.systemAliases[strings.ToLower(k)] = v
	}
}

// SystemAlias returns the system expansion of alias.
func (c *AliasCache) SystemAlias(alias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd, ok := c.systemAliases[strings.ToLower(alias)]
	return cmd, ok
}

// SetSessionAlias adds or replaces a session alias and returns the previous
// expansion, if any.
func (c *AliasCache) SetSessionAlias(sessionID ulid.ULID, alias, command string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionAliases[sessionID] == nil {
		c.sessionAliases[sessionID] = make(map[string]string)
	}
	alias = strings.ToLower(alias)
	prev, existed := c.sessionAliases[sessionID][alias]
	c.sessionAliases[sessionID][alias] = command
	return prev, existed
}

// RemoveSessionAlias removes a session alias, reporting whether it existed.
func (c *AliasCache) RemoveSessionAlias(sessionID ulid.ULID, alias string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	alias = strings.ToLower(alias)
	if _, ok := c.sessionAliases[sessionID][alias]; !ok {
		return false
	}
	delete(c.sessionAliases[sessionID], alias)
	return true
}

// SessionAlias returns the session expansion of alias.
func (c *AliasCache) SessionAlias(sessionID ulid.ULID, alias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd, ok := c.sessionAliases[sessionID][strings.ToLower(alias)]
	return cmd, ok
}

// ListSessionAliases returns a copy of the session's aliases.
func (c *AliasCache) ListSessionAliases(sessionID ulid.ULID) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.sessionAliases[sessionID])
}

// ClearSession removes all aliases for a session (on disconnect).
func (c *AliasCache) ClearSession(sessionID ulid.ULID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessionAliases, sessionID)
}

// AliasResult contains the result of alias resolution.
type AliasResult struct {
	Resolved  string // The resolved command string
	WasAlias  bool   // Whether an alias was expanded
	AliasUsed string // The alias that was matched (empty if no alias)
}

// Resolve expands input through one round of alias substitution.
// Resolution order:
//  1. Session alias matching the first word
//  2. System alias matching the first word
//  3. Single-character punctuation prefix aliases (e.g. "'hello" → "say hello")
//  4. No match → input unchanged
func (c *AliasCache) Resolve(sessionID ulid.ULID, input string) AliasResult {
	first, args := cutWord(input)
	if first == "" {
		return AliasResult{Resolved: input}
	}
	key := strings.ToLower(first)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if cmd, ok := c.sessionAliases[sessionID][key]; ok {
		return AliasResult{Resolved: join(cmd, args), WasAlias: true, AliasUsed: key}
	}
	if cmd, ok := c.systemAliases[key]; ok {
		return AliasResult{Resolved: join(cmd, args), WasAlias: true, AliasUsed: key}
	}

	// MUSH-style shortcuts where the alias is a single punctuation
	// character attached to the text.
	if prefix := first[:1]; len(first) > 1 && !isWordRune(rune(first[0])) {
		cmd, ok := c.sessionAliases[sessionID][prefix]
		if !ok {
			cmd, ok = c.systemAliases[prefix]
		}
		if ok {
			return AliasResult{Resolved: join(cmd, join(first[1:], args)), WasAlias: true, AliasUsed: prefix}
		}
	}
	return AliasResult{Resolved: input}
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '@' }

func join(cmd, args string) string {
	if args == "" {
		return cmd
	}
	return cmd + " " + args
}
