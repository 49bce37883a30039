package registry

import (
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

// FindByID navigates from a known top-level root to the object named by
// path, per spec §4.1. Lookup of a dead or unknown id never panics and
// never returns a stale pointer; it returns ObjectNotFound.
func (r *Registry) FindByID(path string) (hostobj.Handle, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "empty object id", nil)
	}

	r.mu.Lock()
	roots := append([]*entry(nil), r.roots...)
	r.mu.Unlock()

	var current hostobj.Object
	for _, e := range roots {
		obj, ok := e.handle.Resolve()
		if !ok {
			continue
		}
		if segmentFor(obj) == segments[0] {
			current = obj
			break
		}
	}
	if current == nil {
		return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "no root object matches "+segments[0], map[string]any{"objectId": path})
	}

	for _, seg := range segments[1:] {
		var next hostobj.Object
		for _, child := range current.Children() {
			if segmentFor(child) == seg {
				next = child
				break
			}
		}
		if next == nil {
			return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "no child matches "+seg, map[string]any{"objectId": path})
		}
		current = next
	}

	es, ok := current.(hostobj.EpochSource)
	if !ok {
		return hostobj.Handle{}, rpcerr.New(rpcerr.ObjectNotFound, "object does not support weak handles", map[string]any{"objectId": path})
	}
	return hostobj.NewHandle(current, es.Epoch()), nil
}

// liveHandles returns every entry's handle that still resolves, scoped to
// the subtree of root if non-nil.
func (r *Registry) liveHandles(root hostobj.Object) []hostobj.Handle {
	r.mu.Lock()
	entries := append([]*entry(nil), r.all...)
	r.mu.Unlock()

	var out []hostobj.Handle
	for _, e := range entries {
		obj, ok := e.handle.Resolve()
		if !ok {
			continue
		}
		if root != nil && !isDescendantOrSelf(root, obj) {
			continue
		}
		out = append(out, e.handle)
	}
	return out
}

func isDescendantOrSelf(root, obj hostobj.Object) bool {
	for cur := obj; cur != nil; cur = cur.Parent() {
		if cur == root {
			return true
		}
	}
	return false
}

// FindByDisplayName returns the first live object (optionally scoped to
// root's subtree) whose DisplayName matches name.
func (r *Registry) FindByDisplayName(name string, root hostobj.Object) (hostobj.Handle, bool) {
	for _, h := range r.liveHandles(root) {
		obj, ok := h.Resolve()
		if !ok {
			continue
		}
		if obj.DisplayName() == name {
			return h, true
		}
	}
	return hostobj.Handle{}, false
}

// FindAllByClass returns every live object (optionally scoped to root's
// subtree) whose class name matches.
func (r *Registry) FindAllByClass(className string, root hostobj.Object) []hostobj.Handle {
	var out []hostobj.Handle
	for _, h := range r.liveHandles(root) {
		obj, ok := h.Resolve()
		if !ok {
			continue
		}
		if obj.ClassName() == className {
			out = append(out, h)
		}
	}
	return out
}

// AllObjects returns every currently live registered object. Callers must
// still tolerate objects destroyed between enumeration and dereference
// (spec §4.1): each returned Handle may already be stale by the time it
// is resolved again.
func (r *Registry) AllObjects() []hostobj.Handle {
	return r.liveHandles(nil)
}
