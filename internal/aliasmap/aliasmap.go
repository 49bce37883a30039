// Package aliasmap implements spec §3's Symbolic-Alias-Map: a process-wide
// string-to-hierarchical-path table, auto-loaded at startup and mutable
// via the qt.names.* API.
package aliasmap

import (
	"encoding/json"
	"fmt"
	"os"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/rpcerr"
)

var log = qlog.For("aliasmap")

// Map is a mutex-protected alias -> hierarchical-path table.
type Map struct {
	mu   deadlock.Mutex
	data map[string]string
	path string
}

// New creates an empty map bound to path (used for later Save calls).
func New(path string) *Map {
	return &Map{data: map[string]string{}, path: path}
}

// Load reads path (spec §6's PROBE_NAME_MAP file) if it exists. Only
// string-valued entries are accepted; other shapes are ignored with a
// warning, matching spec §3's alias-map file format. A missing file is
// not an error — the map just starts empty.
func (m *Map) Load() error {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading alias map %s: %w", m.path, err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("parsing alias map %s: %w", m.path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for alias, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			log.Warnf("alias map %s: entry %q is not a string, ignoring", m.path, alias)
			continue
		}
		m.data[alias] = s
	}
	return nil
}

// Save writes the current map back to path as a single JSON object.
func (m *Map) Save() error {
	m.mu.Lock()
	snapshot := make(map[string]string, len(m.data))
	for k, v := range m.data {
		snapshot[k] = v
	}
	m.mu.Unlock()

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling alias map: %w", err)
	}
	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing alias map %s: %w", m.path, err)
	}
	return nil
}

// Register binds alias to path, overwriting any existing binding.
func (m *Map) Register(alias, path string) {
	m.mu.Lock()
	m.data[alias] = path
	m.mu.Unlock()
}

// Unregister removes alias. It is not an error if alias is already absent.
func (m *Map) Unregister(alias string) {
	m.mu.Lock()
	delete(m.data, alias)
	m.mu.Unlock()
}

// Resolve returns the hierarchical path bound to alias.
func (m *Map) Resolve(alias string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[alias]
	return p, ok
}

// List returns a snapshot of the full alias table.
func (m *Map) List() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Validate reports whether alias is bound, as an rpcerr if not — used by
// qt.names.validate to give a structured answer rather than a bare bool.
func (m *Map) Validate(alias string) error {
	if _, ok := m.Resolve(alias); !ok {
		return rpcerr.New(rpcerr.NameNotFound, "alias not registered", map[string]any{"alias": alias})
	}
	return nil
}
