// Package accessibility implements spec §4.4: the accessibility walker
// and its ephemeral ref store, used by the chr.* API surface.
package accessibility

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

type refEntry struct {
	iface  hostobj.AccessibleInterface
	handle hostobj.Handle
}

// RefStore mints and tracks the ephemeral ref_<N> identifiers exposed by
// chr.readPage / chr.find. Per spec §4.4, it is accessed only from the UI
// thread, so the mutex here is incidental defense-in-depth rather than a
// resource spec §5 names as needing deadlock-aware locking.
type RefStore struct {
	mu    sync.Mutex
	next  int
	byRef map[int]refEntry
}

// NewRefStore creates an empty store.
func NewRefStore() *RefStore {
	return &RefStore{byRef: map[int]refEntry{}}
}

// Clear resets the ref table and the counter to zero (chr.readPage's first
// step, per spec §3/§4.4).
func (s *RefStore) Clear() {
	s.mu.Lock()
	s.byRef = map[int]refEntry{}
	s.next = 0
	s.mu.Unlock()
}

// Mint assigns the next ref to iface/obj, continuing the counter —
// chr.find relies on this not resetting it (spec §4.4, §8 invariant 5).
func (s *RefStore) Mint(iface hostobj.AccessibleInterface, obj hostobj.Object) string {
	es, ok := obj.(hostobj.EpochSource)
	var handle hostobj.Handle
	if ok {
		handle = hostobj.NewHandle(obj, es.Epoch())
	}
	s.mu.Lock()
	s.next++
	n := s.next
	s.byRef[n] = refEntry{iface: iface, handle: handle}
	s.mu.Unlock()
	return fmt.Sprintf("ref_%d", n)
}

// Max returns the highest ref number minted so far.
func (s *RefStore) Max() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Resolve looks up ref, failing RefNotFound if unknown or RefStale if the
// underlying object/interface has died.
func (s *RefStore) Resolve(ref string) (hostobj.AccessibleInterface, error) {
	n, err := parseRef(ref)
	if err != nil {
		return nil, rpcerr.New(rpcerr.RefNotFound, "malformed ref", map[string]any{"ref": ref})
	}
	s.mu.Lock()
	e, ok := s.byRef[n]
	s.mu.Unlock()
	if !ok {
		return nil, rpcerr.New(rpcerr.RefNotFound, "unknown ref", map[string]any{"ref": ref})
	}
	if e.handle != (hostobj.Handle{}) && !e.handle.Valid() {
		return nil, rpcerr.New(rpcerr.RefStale, "object died", map[string]any{"ref": ref})
	}
	if !e.iface.Valid() {
		return nil, rpcerr.New(rpcerr.RefStale, "accessibility interface invalid", map[string]any{"ref": ref})
	}
	return e.iface, nil
}

func parseRef(ref string) (int, error) {
	s := strings.TrimPrefix(ref, "ref_")
	if s == ref {
		return 0, fmt.Errorf("ref %q missing ref_ prefix", ref)
	}
	return strconv.Atoi(s)
}
