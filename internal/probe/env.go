// Package probe wires together every process-wide and session-scoped
// component (registry, alias map, signal monitor, window tracker, input
// simulator, QML/model inspector, captured-log ring) into the shared
// dependency bundle the api/qt, api/cu, and api/chr method tables are
// built against. It mirrors the teacher's cmd/gasoline-cmd wiring
// pattern of "one struct holding every collaborator, built once at
// startup, handed to the tool table".
package probe

import (
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/clientsession"
	"github.com/qtmcp/probe/internal/input"
	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/qmlmodel"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/signalmon"
	"github.com/qtmcp/probe/internal/windowing"
)

// Version is the probe's own reported version, returned by qt.version.
const Version = "1.0.0"

// Process bundles every connection-agnostic singleton. Exactly one
// Process exists per host, built once at startup.
type Process struct {
	Registry *registry.Registry
	Aliases  *aliasmap.Map
	Windows  *windowing.Tracker
	Qml      *qmlmodel.Inspector
	Sim      *input.Simulator
	Console  *qlog.Ring
}

// NewProcess builds a Process. backend is the real host input/capture
// binding (or hostmock.InputBackend in tests/the demo binary); hasQmlEngine
// may be nil, taking qmlmodel.New's default.
func NewProcess(reg *registry.Registry, aliases *aliasmap.Map, backend input.Backend, hasQmlEngine func() bool) *Process {
	return &Process{
		Registry: reg,
		Aliases:  aliases,
		Windows:  windowing.New(reg),
		Qml:      qmlmodel.New(hasQmlEngine),
		Sim:      input.New(backend),
		Console:  qlog.NewRing(1000),
	}
}

// Env bundles a Process with one connection's session-scoped state: a
// fresh signal monitor (subscriptions are cleared on disconnect anyway,
// spec §5) delivering through deliver, plus the numeric-ref/accessibility
// -ref/resolver/walker bundle from internal/clientsession. Building a new
// Env re-wires the registry's lifecycle callback onto the new monitor,
// matching spec §1's "one client at a time" trust model.
type Env struct {
	*Process
	Monitor *signalmon.Monitor
	Session *clientsession.Session
}

// NewEnv builds a fresh per-connection environment. deliver is called for
// every queued notification (qtmcp.signalEmitted, qtmcp.objectCreated/
// Destroyed) and should write a framed JSON-RPC notification to this
// connection's transport.
func NewEnv(proc *Process, deliver func(method string, params any)) *Env {
	monitor := signalmon.New(deliver)
	proc.Registry.SetLifecycleCallback(monitor.HandleLifecycleEvent)
	sess := clientsession.New(proc.Registry, proc.Aliases, monitor, proc.Windows, proc.Sim)
	return &Env{Process: proc, Monitor: monitor, Session: sess}
}

// Disconnect runs the full client-disconnect cleanup (spec §5): session
// teardown plus disabling lifecycle notifications on the torn-down
// monitor (Session.Disconnect already does the latter, kept here as the
// one entry point cmd/qtmcp-host calls).
func (e *Env) Disconnect() {
	e.Session.Disconnect()
}
