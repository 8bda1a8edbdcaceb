package plugin

import (
	"sort"
	"sync"
)

// Entry pairs a spec with the plugin handle that executes it. Entries are
// immutable once registered; re-registration installs a fresh entry.
type Entry struct {
	Spec   Spec
	Plugin Plugin
}

// Registry is the concurrent store of installed plugins, keyed by id and
// indexed by normalized command and mention tokens. Lookups happen on
// every inbound message and never block each other; mutations are rare
// (startup, management commands) and atomic relative to any lookup.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]*Entry
	byCommand map[string]string // normalized command -> plugin id
	byMention map[string]string // normalized mention -> plugin id
	overrides map[string]bool   // runtime enable/disable, survives re-registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[string]*Entry),
		byCommand: make(map[string]string),
		byMention: make(map[string]string),
		overrides: make(map[string]bool),
	}
}

// Register installs or atomically replaces the entry for spec.ID and
// rebuilds its trigger index rows. Stale rows from a previous
// registration of the same id are purged first so trigger changes never
// leave dangling routes. Returns the previous entry, if any. Runtime
// overrides are preserved across re-registration.
func (r *Registry) Register(spec Spec, p Plugin) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.byID[spec.ID]
	r.removeTriggersLocked(spec.ID)
	r.byID[spec.ID] = &Entry{Spec: spec, Plugin: p}
	for _, cmd := range spec.Triggers.Commands {
		r.byCommand[NormalizeCommand(cmd)] = spec.ID
	}
	for _, mention := range spec.Triggers.Mentions {
		r.byMention[NormalizeMention(mention)] = spec.ID
	}
	return previous
}

// Unregister removes the entry, its index rows, and any runtime override.
// Returns the removed entry, if any.
func (r *Registry) Unregister(id string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.byID[id]
	delete(r.byID, id)
	r.removeTriggersLocked(id)
	delete(r.overrides, id)
	return removed
}

// ByID looks up an entry by plugin id.
func (r *Registry) ByID(id string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// ByCommand looks up an entry by normalized command token.
func (r *Registry) ByCommand(token string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byCommand[token]; ok {
		return r.byID[id]
	}
	return nil
}

// ByMention looks up an entry by normalized mention token.
func (r *Registry) ByMention(token string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byMention[token]; ok {
		return r.byID[id]
	}
	return nil
}

// IDEntry is one row of an Entries snapshot.
type IDEntry struct {
	ID    string
	Entry *Entry
}

// Entries returns a point-in-time snapshot of all entries, sorted by id
// for stable enumeration.
func (r *Registry) Entries() []IDEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]IDEntry, 0, len(r.byID))
	for id, entry := range r.byID {
		out = append(out, IDEntry{ID: id, Entry: entry})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetOverride toggles a plugin at runtime, independent of spec.Enabled.
func (r *Registry) SetOverride(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[id] = enabled
}

// ClearOverride reverts a plugin to its static enabled default.
func (r *Registry) ClearOverride(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, id)
}

// IsEnabled reports whether a plugin may run: the runtime override if
// present, else the spec default, else false for unknown ids.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if enabled, ok := r.overrides[id]; ok {
		return enabled
	}
	if entry, ok := r.byID[id]; ok {
		return entry.Spec.Enabled
	}
	return false
}

// removeTriggersLocked purges all index rows pointing at id. Caller must
// hold the write lock.
func (r *Registry) removeTriggersLocked(id string) {
	for token, owner := range r.byCommand {
		if owner == id {
			delete(r.byCommand, token)
		}
	}
	for token, owner := range r.byMention {
		if owner == id {
			delete(r.byMention, token)
		}
	}
}
