// Package signalmon is the probe's signal monitor (spec §4.3): it turns
// subscribe/unsubscribe calls and host signal emissions into queued
// JSON-RPC notifications, and optionally emits object lifecycle events.
package signalmon

import (
	"fmt"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcerr"
)

var log = qlog.For("signalmon")

// SignalNotification is the payload of a qtmcp.signalEmitted notification.
type SignalNotification struct {
	SubscriptionID string `json:"subscriptionId"`
	ObjectID       string `json:"objectId"`
	Signal         string `json:"signal"`
	Arguments      []any  `json:"arguments"`
	Timestamp      int64  `json:"timestamp"`
}

// LifecycleNotification is the payload of a qtmcp.objectCreated /
// qtmcp.objectDestroyed notification.
type LifecycleNotification struct {
	ObjectID  string `json:"objectId,omitempty"`
	ClassName string `json:"className"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
}

type subscription struct {
	id          string
	handle      hostobj.Handle
	objectID    string
	signal      string
	unsubscribe func()
}

type queuedNotif struct {
	method string
	params any
}

// Monitor owns the subscription table and the notification delivery
// queue. deliver is called from a single dedicated goroutine so
// notifications for signals emitted on one thread are never reordered
// (spec §4.3 "Ordering").
type Monitor struct {
	mu      deadlock.Mutex
	subs    map[string]*subscription
	nextSub int

	idCache map[hostobj.Object]string

	lifecycleEnabled bool

	queue   chan queuedNotif
	deliver func(method string, params any)
}

// New creates a Monitor that calls deliver for every queued notification.
func New(deliver func(method string, params any)) *Monitor {
	m := &Monitor{
		subs:    map[string]*subscription{},
		idCache: map[hostobj.Object]string{},
		queue:   make(chan queuedNotif, 4096),
		deliver: deliver,
	}
	go m.worker()
	return m
}

func (m *Monitor) worker() {
	for n := range m.queue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("panic delivering notification %s: %v", n.method, r)
				}
			}()
			m.deliver(n.method, n.params)
		}()
	}
}

func (m *Monitor) enqueue(method string, params any) {
	select {
	case m.queue <- queuedNotif{method, params}:
	default:
		log.Warnf("notification queue full, dropping %s", method)
	}
}

// Touch records id as the last-known hierarchical path for obj, so a
// later destroyed-lifecycle notification can still name it (spec §4.3:
// "the objectId is included only if it was previously cached").
func (m *Monitor) Touch(obj hostobj.Object, id string) {
	if obj == nil {
		return
	}
	m.mu.Lock()
	m.idCache[obj] = id
	m.mu.Unlock()
}

// Subscribe binds (handle, signal) to a new subscription id. Per spec
// §4.2/§4.3 failures: ObjectStale if the handle is dead,
// SignalNotFound if the object has no such signal.
func (m *Monitor) Subscribe(h hostobj.Handle, objectID, signal string) (string, error) {
	obj, ok := h.Resolve()
	if !ok {
		return "", rpcerr.New(rpcerr.ObjectStale, "object died before subscribe", map[string]any{"objectId": objectID})
	}

	found := false
	for _, d := range obj.Signals() {
		if d.Name == signal {
			found = true
			break
		}
	}
	if !found {
		return "", rpcerr.New(rpcerr.SignalNotFound, "no such signal", map[string]any{"objectId": objectID, "signal": signal})
	}

	m.mu.Lock()
	m.nextSub++
	subID := fmt.Sprintf("sub_%d", m.nextSub)
	m.mu.Unlock()

	unsubscribe, ok := obj.Subscribe(signal, func(args []hostobj.Value) {
		m.onEmission(subID, objectID, signal, args)
	})
	if !ok {
		return "", rpcerr.New(rpcerr.SignalNotFound, "no such signal", map[string]any{"objectId": objectID, "signal": signal})
	}

	m.Touch(obj, objectID)

	m.mu.Lock()
	m.subs[subID] = &subscription{id: subID, handle: h, objectID: objectID, signal: signal, unsubscribe: unsubscribe}
	m.mu.Unlock()
	return subID, nil
}

func (m *Monitor) onEmission(subID, objectID, signal string, args []hostobj.Value) {
	jsonArgs := make([]any, len(args))
	for i, a := range args {
		jsonArgs[i] = hostobj.ToJSON(a)
	}
	m.enqueue("qtmcp.signalEmitted", SignalNotification{
		SubscriptionID: subID,
		ObjectID:       objectID,
		Signal:         signal,
		Arguments:      jsonArgs,
		Timestamp:      time.Now().UnixMilli(),
	})
}

// Unsubscribe drops subID. Calling it twice is well-defined: the second
// call is a no-op (spec §8 invariant 9).
func (m *Monitor) Unsubscribe(subID string) {
	m.mu.Lock()
	sub, ok := m.subs[subID]
	if ok {
		delete(m.subs, subID)
	}
	m.mu.Unlock()
	if ok && sub.unsubscribe != nil {
		sub.unsubscribe()
	}
}

// UnsubscribeAllOn drops every subscription bound to obj, returning how
// many were removed. Used for the object-destruction auto-unsubscribe
// rule (spec §4.3) — must run before any destroyed-lifecycle notification
// is emitted for the same object.
func (m *Monitor) UnsubscribeAllOn(obj hostobj.Object) int {
	m.mu.Lock()
	var toDrop []*subscription
	for id, sub := range m.subs {
		if live, ok := sub.handle.Resolve(); ok && live == obj {
			toDrop = append(toDrop, sub)
			delete(m.subs, id)
		}
	}
	m.mu.Unlock()
	for _, sub := range toDrop {
		if sub.unsubscribe != nil {
			sub.unsubscribe()
		}
	}
	return len(toDrop)
}

// SubscriptionCount reports the live subscription count (test/diagnostic
// only, per spec §4.3).
func (m *Monitor) SubscriptionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// ClearSession drops every subscription (client disconnect, spec §5).
func (m *Monitor) ClearSession() {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.subs = map[string]*subscription{}
	m.mu.Unlock()
	for _, sub := range subs {
		if sub.unsubscribe != nil {
			sub.unsubscribe()
		}
	}
}

// SetLifecycleNotifications toggles created/destroyed notifications.
func (m *Monitor) SetLifecycleNotifications(enabled bool) {
	m.mu.Lock()
	m.lifecycleEnabled = enabled
	m.mu.Unlock()
}

// LifecycleEnabled reports the current toggle state.
func (m *Monitor) LifecycleEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lifecycleEnabled
}

// HandleLifecycleEvent is wired as the registry's lifecycle callback
// (registry.SetLifecycleCallback). On destruction it first drops every
// subscription bound to the dying object, then — if lifecycle
// notifications are enabled — emits the created/destroyed notification,
// including objectId only if it was cached earlier (spec §4.3, §9).
func (m *Monitor) HandleLifecycleEvent(className string, h *hostobj.Handle, created bool) {
	var obj hostobj.Object
	if h != nil {
		obj, _ = h.Resolve()
	}

	if !created && obj != nil {
		m.UnsubscribeAllOn(obj)
	}

	if !m.LifecycleEnabled() {
		return
	}

	event := "destroyed"
	if created {
		event = "created"
	}
	notif := LifecycleNotification{ClassName: className, Event: event, Timestamp: time.Now().UnixMilli()}
	if obj != nil {
		if created {
			// The object is still alive: its id is always computable live,
			// unlike a destroyed object's.
			notif.ObjectID = m.liveObjectID(obj)
			m.Touch(obj, notif.ObjectID)
		} else {
			m.mu.Lock()
			if id, ok := m.idCache[obj]; ok {
				notif.ObjectID = id
			}
			m.mu.Unlock()
		}
	}
	method := "qtmcp.objectDestroyed"
	if created {
		method = "qtmcp.objectCreated"
	}
	m.enqueue(method, notif)
}

func (m *Monitor) liveObjectID(obj hostobj.Object) string {
	return registry.ObjectID(obj)
}
