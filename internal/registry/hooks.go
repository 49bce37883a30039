// Package registry tracks every UI object the host exposes to the probe
// (spec §4.1): it is notified via AddObject/RemoveObject hooks, maintains
// a lookup index, and computes hierarchical ids on demand.
//
// Grounded on the teacher's internal/hook/eval package's "chain behind
// whatever was there before" instinct, generalized from "chain test
// hooks" to "chain host lifecycle hooks" per spec §4.1's idempotent,
// preserve-the-prior-callback contract.
package registry

import (
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/qlog"
)

// HookFunc is the shape of a host lifecycle callback.
type HookFunc func(obj hostobj.Object)

var log = qlog.For("registry")

// Registry is the single in-process index of live UI objects.
type Registry struct {
	mu deadlock.Mutex

	byIdentity map[hostobj.Object]*entry
	all        []*entry
	roots      []*entry

	installed   bool
	chainedAdd  HookFunc
	chainedDel  HookFunc

	lifecycleNotify func(className string, handle *hostobj.Handle, created bool)
}

type entry struct {
	handle    hostobj.Handle
	className string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byIdentity: map[hostobj.Object]*entry{}}
}

// SetLifecycleCallback installs the function invoked whenever an object is
// added or removed, used by internal/signalmon to emit lifecycle
// notifications (spec §4.3). handle is always the entry's weak handle; on
// removal it no longer resolves if the host has already destroyed the
// object.
func (r *Registry) SetLifecycleCallback(fn func(className string, handle *hostobj.Handle, created bool)) {
	r.mu.Lock()
	r.lifecycleNotify = fn
	r.mu.Unlock()
}

// InstallHooks returns the hook functions the host should invoke at
// object-construction and object-destruction time. It chains behind any
// previously installed hook (calling prevAdd/prevRemove first) and is
// idempotent: calling it a second time returns the same chained
// functions without re-wrapping.
func (r *Registry) InstallHooks(prevAdd, prevRemove HookFunc) (add, remove HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed {
		return r.chainedAdd, r.chainedDel
	}
	r.installed = true
	r.chainedAdd = func(obj hostobj.Object) {
		if prevAdd != nil {
			prevAdd(obj)
		}
		r.onAdd(obj)
	}
	r.chainedDel = func(obj hostobj.Object) {
		if prevRemove != nil {
			prevRemove(obj)
		}
		r.onRemove(obj)
	}
	return r.chainedAdd, r.chainedDel
}

// onAdd registers obj. Per spec §4.1, this fires before the derived
// class finishes construction, so only a pointer and the currently
// observable class name are cached — no display name, no children.
func (r *Registry) onAdd(obj hostobj.Object) {
	es, ok := obj.(hostobj.EpochSource)
	if !ok {
		log.Warnf("object of class %q does not support weak handles, skipping registration", obj.ClassName())
		return
	}
	e := &entry{
		handle:    hostobj.NewHandle(obj, es.Epoch()),
		className: obj.ClassName(),
	}

	r.mu.Lock()
	r.byIdentity[obj] = e
	r.all = append(r.all, e)
	isRoot := obj.Parent() == nil
	if isRoot {
		r.roots = append(r.roots, e)
	}
	cb := r.lifecycleNotify
	r.mu.Unlock()

	if cb != nil {
		h := e.handle
		cb(e.className, &h, true)
	}
}

// onRemove drops obj's registry entry. The weak handle already nulls on
// its own once the host destroys obj (hostobj.Handle.Resolve); removing
// the map entry here just lets memory for dead entries be reclaimed
// promptly instead of waiting for a lookup to filter it out (spec §4.1
// "or never (leaked into a tombstone state)").
func (r *Registry) onRemove(obj hostobj.Object) {
	r.mu.Lock()
	e, ok := r.byIdentity[obj]
	if ok {
		delete(r.byIdentity, obj)
		for i, x := range r.all {
			if x == e {
				r.all = append(r.all[:i], r.all[i+1:]...)
				break
			}
		}
		for i, x := range r.roots {
			if x == e {
				r.roots = append(r.roots[:i], r.roots[i+1:]...)
				break
			}
		}
	}
	cb := r.lifecycleNotify
	r.mu.Unlock()

	if !ok {
		return
	}
	if cb != nil {
		h := e.handle
		cb(e.className, &h, false)
	}
}

// ScanExisting registers root and every descendant already alive when
// hooks are installed (spec §4.1, used once at startup).
func (r *Registry) ScanExisting(root hostobj.Object) {
	if root == nil {
		return
	}
	r.onAdd(root)
	for _, child := range root.Children() {
		r.ScanExisting(child)
	}
}
