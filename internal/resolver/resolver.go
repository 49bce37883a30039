// Package resolver implements spec §9's three-id resolver: a single
// Resolve(string) entry point dispatching by prefix, and the
// session-scoped numeric-ref minting table behind the "#N" addressing
// style (spec §3 Object-Id).
package resolver

import (
	"strconv"
	"strings"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcerr"
)

// NumericRefTable mints and tracks session-scoped "#N" numeric refs.
// Refs are monotonically assigned and never reused within a session
// (invariant 5 in spec §8), and are cleared wholesale on client
// disconnect.
type NumericRefTable struct {
	mu    deadlock.Mutex
	next  int
	byRef map[int]hostobj.Handle
	byObj map[hostobj.Object]int
}

// NewNumericRefTable creates an empty table.
func NewNumericRefTable() *NumericRefTable {
	return &NumericRefTable{byRef: map[int]hostobj.Handle{}, byObj: map[hostobj.Object]int{}}
}

// Expose mints (or returns the existing) numeric ref for h's live object,
// returning the ref formatted as "#N".
func (t *NumericRefTable) Expose(h hostobj.Handle) (string, bool) {
	obj, ok := h.Resolve()
	if !ok {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.byObj[obj]; ok {
		return "#" + strconv.Itoa(n), true
	}
	t.next++
	n := t.next
	t.byRef[n] = h
	t.byObj[obj] = n
	return "#" + strconv.Itoa(n), true
}

// Resolve looks up a previously minted numeric ref.
func (t *NumericRefTable) Resolve(n int) (hostobj.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.byRef[n]
	if !ok {
		return hostobj.Handle{}, false
	}
	if !h.Valid() {
		delete(t.byRef, n)
		return hostobj.Handle{}, false
	}
	return h, true
}

// Clear drops every minted ref (client disconnect, spec §5).
func (t *NumericRefTable) Clear() {
	t.mu.Lock()
	t.byRef = map[int]hostobj.Handle{}
	t.byObj = map[hostobj.Object]int{}
	t.mu.Unlock()
}

// Resolver dispatches a client-supplied object id string to a weak handle
// by prefix: "#N" against the numeric table, an exact alias-table match
// recursively against its bound path, otherwise hierarchical path
// navigation (spec §9).
type Resolver struct {
	Registry *registry.Registry
	Aliases  *aliasmap.Map
	Refs     *NumericRefTable
}

// New builds a resolver over a process-wide registry/alias map and a
// session-scoped numeric ref table.
func New(reg *registry.Registry, aliases *aliasmap.Map, refs *NumericRefTable) *Resolver {
	return &Resolver{Registry: reg, Aliases: aliases, Refs: refs}
}

// Resolve implements the single resolve(string) entry point.
func (r *Resolver) Resolve(id string) (hostobj.Handle, error) {
	if id == "" {
		return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "empty object id", nil)
	}

	if strings.HasPrefix(id, "#") {
		n, err := strconv.Atoi(id[1:])
		if err != nil {
			return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "malformed numeric ref", map[string]any{"objectId": id})
		}
		h, ok := r.Refs.Resolve(n)
		if !ok {
			return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "numeric ref not found", map[string]any{"objectId": id})
		}
		return h, nil
	}

	if path, ok := r.Aliases.Resolve(id); ok {
		return r.Registry.FindByID(path)
	}

	return r.Registry.FindByID(id)
}

// MustResolveWidget resolves id and additionally requires the object be
// widget-typed (spec §7 object-not-widget).
func (r *Resolver) MustResolveWidget(id string) (hostobj.Object, error) {
	h, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	obj, ok := h.Resolve()
	if !ok {
		return nil, rpcerr.New(rpcerr.ObjectStale, "object died", map[string]any{"objectId": id})
	}
	if !obj.IsWidget() {
		return nil, rpcerr.New(rpcerr.ObjectNotWidget, "operation requires a widget-typed object", map[string]any{"objectId": id})
	}
	return obj, nil
}
