// Package clientsession bundles the per-connection state a single
// JSON-RPC client session owns: its numeric ref table, its accessibility
// ref store, its lifecycle-notification toggle, and the subscriptions it
// holds against the process-wide signal monitor (spec §5 "Client
// disconnect cleanup").
package clientsession

import (
	"github.com/google/uuid"

	"github.com/qtmcp/probe/internal/accessibility"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/resolver"
	"github.com/qtmcp/probe/internal/signalmon"
)

// Session is one connected client's scoped state. The process-wide
// registry, alias map, and signal monitor are shared across sessions;
// everything in Session is torn down on disconnect.
type Session struct {
	ID string

	Refs     *resolver.NumericRefTable
	AccRefs  *accessibility.RefStore
	Resolver *resolver.Resolver
	Walker   *accessibility.Walker

	monitor *signalmon.Monitor
}

// New creates a session whose Resolver resolves against the process-wide
// reg/aliases, whose signal subscriptions are tracked against monitor, and
// whose accessibility walker is scoped to windows/clicker.
func New(reg *registry.Registry, aliases *aliasmap.Map, monitor *signalmon.Monitor, windows accessibility.WindowProvider, clicker accessibility.Clicker) *Session {
	refs := resolver.NewNumericRefTable()
	accRefs := accessibility.NewRefStore()
	return &Session{
		ID:       uuid.NewString(),
		Refs:     refs,
		AccRefs:  accRefs,
		Resolver: resolver.New(reg, aliases, refs),
		Walker:   accessibility.New(accRefs, windows, clicker),
		monitor:  monitor,
	}
}

// Disconnect performs the ordered cleanup spec §5 requires on client
// disconnect: numeric refs, then accessibility refs, then subscriptions,
// then lifecycle notifications.
func (s *Session) Disconnect() {
	s.Refs.Clear()
	s.AccRefs.Clear()
	s.monitor.ClearSession()
	s.monitor.SetLifecycleNotifications(false)
}
