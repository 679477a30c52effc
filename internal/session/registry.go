package session

import "sync"

// Registry is the process-wide mapping from session identifier to record,
// the single source of truth for which sessions exist. It is owned by the
// composition root and injected into the controller; absence of a record
// is a valid state, never an error.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Get returns the record for id, creating an uninitialized one if absent.
func (g *Registry) Get(id string) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	if !ok {
		rec = newRecord(id)
		g.records[id] = rec
	}
	return rec
}

// Lookup returns the record for id without creating one.
func (g *Registry) Lookup(id string) (*Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[id]
	return rec, ok
}

// Set stores rec under id, replacing any existing record.
func (g *Registry) Set(id string, rec *Record) {
	g.mu.Lock()
	g.records[id] = rec
	g.mu.Unlock()
}

// Clear removes the record for id so the identifier can be recreated.
func (g *Registry) Clear(id string) {
	g.mu.Lock()
	delete(g.records, id)
	g.mu.Unlock()
}

// Sessions lists the identifiers of all live records.
func (g *Registry) Sessions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.records))
	for id := range g.records {
		out = append(out, id)
	}
	return out
}
