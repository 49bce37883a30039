// Package qt implements the probe's native API surface (spec §6 qt.*):
// object discovery, the meta-inspector, signal subscriptions, widget-level
// UI actions, the symbolic-alias-map, and the optional QML/model
// introspection methods.
package qt

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/inspector"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/qmlmodel"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcdispatch"
	"github.com/qtmcp/probe/internal/rpcerr"
	"github.com/qtmcp/probe/internal/rpcparams"
)

func resolveObj(env *probe.Env, id string) (hostobj.Object, error) {
	h, err := env.Session.Resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	obj, ok := h.Resolve()
	if !ok {
		return nil, rpcerr.New(rpcerr.ObjectStale, "object died", map[string]any{"objectId": id})
	}
	return obj, nil
}

// exposeID hands id to the client for obj and records it with the signal
// monitor, so a later destroyed-lifecycle notification can still name an
// object the client only ever saw via discovery, never subscribed to.
func exposeID(env *probe.Env, obj hostobj.Object) string {
	id := registry.ObjectID(obj)
	env.Monitor.Touch(obj, id)
	return id
}

// Register binds every qt.* method (plus its deprecated qtmcp.* alias, per
// spec §6) to d.
func Register(d *rpcdispatch.Dispatcher, env *probe.Env) {
	methods := map[string]rpcdispatch.HandlerFunc{
		"qt.objects.find":        findByDisplayName(env),
		"qt.objects.findByClass": findByClass(env),
		"qt.objects.tree":        objectsTree(env),
		"qt.objects.info":        objectsInfo(env),
		"qt.objects.inspect":     objectsInspect(env),
		"qt.objects.query":       objectsQuery(env),

		"qt.properties.list": propertiesList(env),
		"qt.properties.get":  propertiesGet(env),
		"qt.properties.set":  propertiesSet(env),

		"qt.methods.list":   methodsList(env),
		"qt.methods.invoke": methodsInvoke(env),

		"qt.signals.list":        signalsList(env),
		"qt.signals.subscribe":   signalsSubscribe(env),
		"qt.signals.unsubscribe": signalsUnsubscribe(env),
		"qt.signals.setLifecycle": signalsSetLifecycle(env),

		"qt.ui.click":      uiClick(env),
		"qt.ui.sendKeys":   uiSendKeys(env),
		"qt.ui.screenshot": uiScreenshot(env),
		"qt.ui.geometry":   uiGeometry(env),
		"qt.ui.hitTest":    uiHitTest(env),

		"qt.names.register":   namesRegister(env),
		"qt.names.unregister": namesUnregister(env),
		"qt.names.list":       namesList(env),
		"qt.names.validate":   namesValidate(env),
		"qt.names.load":       namesLoad(env),
		"qt.names.save":       namesSave(env),

		"qt.qml.inspect":   qmlInspect(env),
		"qt.models.list":   modelsList(env),
		"qt.models.info":   modelsInfo(env),
		"qt.models.data":   modelsData(env),
	}
	for name, fn := range methods {
		d.RegisterMethod(name, fn)
		d.RegisterMethod("qtmcp."+strings.TrimPrefix(name, "qt."), fn)
	}

	d.RegisterRaw("qt.ping", func(json.RawMessage) (any, error) { return map[string]any{"pong": true}, nil })
	d.RegisterRaw("qtmcp.ping", func(json.RawMessage) (any, error) { return map[string]any{"pong": true}, nil })
	d.RegisterRaw("qt.version", func(json.RawMessage) (any, error) { return map[string]any{"version": probe.Version}, nil })
	d.RegisterRaw("qtmcp.version", func(json.RawMessage) (any, error) { return map[string]any{"version": probe.Version}, nil })
	d.RegisterMethod("qt.modes", modes(env))
	d.RegisterMethod("qtmcp.modes", modes(env))
}

type modesResult struct {
	Registered []string `json:"registered"`
	Mode       string   `json:"mode"`
}

func modes(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		return modesResult{Registered: []string{"qt", "cu", "chr"}, Mode: "all"}, nil
	}
}

// --- qt.objects.* ---

type displayNameParams struct {
	DisplayName string `json:"displayName"`
	Root        string `json:"root,omitempty"`
}

func rootObj(env *probe.Env, rootID string) (hostobj.Object, error) {
	if rootID == "" {
		return nil, nil
	}
	return resolveObj(env, rootID)
}

func findByDisplayName(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p displayNameParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.DisplayName != "", "displayName"); err != nil {
			return nil, err
		}
		root, err := rootObj(env, p.Root)
		if err != nil {
			return nil, err
		}
		h, ok := env.Registry.FindByDisplayName(p.DisplayName, root)
		if !ok {
			return nil, rpcerr.New(rpcerr.ObjectNotFound, "no object with that display name", map[string]any{"displayName": p.DisplayName})
		}
		obj, _ := h.Resolve()
		return map[string]any{"objectId": exposeID(env, obj)}, nil
	}
}

type classNameParams struct {
	ClassName string `json:"className"`
	Root      string `json:"root,omitempty"`
}

func findByClass(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p classNameParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.ClassName != "", "className"); err != nil {
			return nil, err
		}
		root, err := rootObj(env, p.Root)
		if err != nil {
			return nil, err
		}
		handles := env.Registry.FindAllByClass(p.ClassName, root)
		ids := make([]string, 0, len(handles))
		for _, h := range handles {
			if obj, ok := h.Resolve(); ok {
				ids = append(ids, exposeID(env, obj))
			}
		}
		sort.Strings(ids)
		return map[string]any{"objectIds": ids}, nil
	}
}

type objectIDParams struct {
	ObjectID string `json:"objectId"`
}

type treeParams struct {
	ObjectID string `json:"objectId,omitempty"`
	Depth    int    `json:"depth,omitempty"`
}

type objectTreeNode struct {
	ObjectID    string           `json:"objectId"`
	ClassName   string           `json:"className"`
	DisplayName string           `json:"displayName,omitempty"`
	Children    []objectTreeNode `json:"children,omitempty"`
}

func buildObjectTree(env *probe.Env, obj hostobj.Object, depth, maxDepth int) objectTreeNode {
	node := objectTreeNode{ObjectID: exposeID(env, obj), ClassName: obj.ClassName(), DisplayName: obj.DisplayName()}
	if depth >= maxDepth {
		return node
	}
	for _, c := range obj.Children() {
		node.Children = append(node.Children, buildObjectTree(env, c, depth+1, maxDepth))
	}
	return node
}

func objectsTree(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p treeParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		maxDepth := p.Depth
		if maxDepth <= 0 || maxDepth > 20 {
			maxDepth = 20
		}
		if p.ObjectID != "" {
			obj, err := resolveObj(env, p.ObjectID)
			if err != nil {
				return nil, err
			}
			return buildObjectTree(env, obj, 0, maxDepth), nil
		}
		var roots []objectTreeNode
		for _, h := range env.Registry.AllObjects() {
			obj, ok := h.Resolve()
			if !ok || obj.Parent() != nil {
				continue
			}
			roots = append(roots, buildObjectTree(env, obj, 0, maxDepth))
		}
		return map[string]any{"roots": roots}, nil
	}
}

func objectsInfo(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.ObjectID != "", "objectId"); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		env.Monitor.Touch(obj, p.ObjectID)
		return &rpcdispatch.Meta{Value: inspector.Info(obj), Extra: map[string]any{"objectId": p.ObjectID}}, nil
	}
}

type inspectResult struct {
	inspector.ObjectInfo
	Properties []inspector.PropertyInfo `json:"properties"`
	Methods    []inspector.MethodInfo   `json:"methods"`
	Signals    []inspector.SignalInfo   `json:"signals"`
}

func objectsInspect(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.ObjectID != "", "objectId"); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		env.Monitor.Touch(obj, p.ObjectID)
		result := inspectResult{
			ObjectInfo: inspector.Info(obj),
			Properties: inspector.ListProperties(obj),
			Methods:    inspector.ListMethods(obj),
			Signals:    inspector.ListSignals(obj),
		}
		return &rpcdispatch.Meta{Value: result, Extra: map[string]any{"objectId": p.ObjectID}}, nil
	}
}

type queryParams struct {
	ClassName          string `json:"className,omitempty"`
	DisplayNameContains string `json:"displayNameContains,omitempty"`
	Root               string `json:"root,omitempty"`
}

func objectsQuery(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p queryParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		root, err := rootObj(env, p.Root)
		if err != nil {
			return nil, err
		}
		var handles []hostobj.Handle
		if p.ClassName != "" {
			handles = env.Registry.FindAllByClass(p.ClassName, root)
		} else {
			handles = env.Registry.AllObjects()
		}
		needle := strings.ToLower(p.DisplayNameContains)
		var out []map[string]any
		for _, h := range handles {
			obj, ok := h.Resolve()
			if !ok {
				continue
			}
			if root != nil {
				under := false
				for cur := obj; cur != nil; cur = cur.Parent() {
					if cur == root {
						under = true
						break
					}
				}
				if !under {
					continue
				}
			}
			if needle != "" && !strings.Contains(strings.ToLower(obj.DisplayName()), needle) {
				continue
			}
			out = append(out, map[string]any{
				"objectId":    exposeID(env, obj),
				"className":   obj.ClassName(),
				"displayName": obj.DisplayName(),
			})
		}
		return map[string]any{"objects": out}, nil
	}
}

// --- qt.properties.* ---

func propertiesList(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		return inspector.ListProperties(obj), nil
	}
}

type getPropertyParams struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
}

func propertiesGet(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p getPropertyParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Name != "", "name"); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		v, err := inspector.GetProperty(obj, p.Name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil
	}
}

type setPropertyParams struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	Value    any    `json:"value"`
}

func propertiesSet(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p setPropertyParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Name != "", "name"); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		if err := inspector.SetProperty(obj, p.Name, p.Value); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

// --- qt.methods.* ---

func methodsList(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		return inspector.ListMethods(obj), nil
	}
}

type invokeMethodParams struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	Args     []any  `json:"args"`
}

func methodsInvoke(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p invokeMethodParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Name != "", "name"); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		result, err := inspector.InvokeMethod(obj, p.Name, p.Args)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": result}, nil
	}
}

// --- qt.signals.* ---

func signalsList(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		return inspector.ListSignals(obj), nil
	}
}

type subscribeParams struct {
	ObjectID string `json:"objectId"`
	Signal   string `json:"signal"`
}

func signalsSubscribe(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p subscribeParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Signal != "", "signal"); err != nil {
			return nil, err
		}
		h, err := env.Session.Resolver.Resolve(p.ObjectID)
		if err != nil {
			return nil, err
		}
		subID, err := env.Monitor.Subscribe(h, p.ObjectID, p.Signal)
		if err != nil {
			return nil, err
		}
		return map[string]any{"subscriptionId": subID}, nil
	}
}

type subscriptionIDParams struct {
	SubscriptionID string `json:"subscriptionId"`
}

func signalsUnsubscribe(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p subscriptionIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		env.Monitor.Unsubscribe(p.SubscriptionID)
		return map[string]any{"success": true}, nil
	}
}

type setLifecycleParams struct {
	Enabled bool `json:"enabled"`
}

func signalsSetLifecycle(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p setLifecycleParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		env.Monitor.SetLifecycleNotifications(p.Enabled)
		return map[string]any{"enabled": p.Enabled}, nil
	}
}

// --- qt.ui.* ---

type uiClickParams struct {
	ObjectID string        `json:"objectId"`
	Button   string        `json:"button,omitempty"`
	Position *hostobj.Point `json:"position,omitempty"`
}

func uiClick(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p uiClickParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		widget, err := env.Session.Resolver.MustResolveWidget(p.ObjectID)
		if err != nil {
			return nil, err
		}
		button := p.Button
		if button == "" {
			button = "left"
		}
		pos := hostobj.Point{}
		if p.Position != nil {
			pos = *p.Position
		} else if g, ok := widget.Geometry(); ok {
			pos = hostobj.Point{X: g.Width / 2, Y: g.Height / 2}
		}
		if err := env.Sim.MouseClick(widget, pos, button); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

type uiSendKeysParams struct {
	ObjectID string `json:"objectId"`
	Keys     string `json:"keys"`
}

func uiSendKeys(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p uiSendKeysParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Keys != "", "keys"); err != nil {
			return nil, err
		}
		widget, err := env.Session.Resolver.MustResolveWidget(p.ObjectID)
		if err != nil {
			return nil, err
		}
		if err := env.Sim.SendKeySequence(widget, p.Keys); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

func uiScreenshot(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		widget, err := env.Session.Resolver.MustResolveWidget(p.ObjectID)
		if err != nil {
			return nil, err
		}
		png, err := env.Sim.CaptureWidget(widget)
		if err != nil {
			return nil, err
		}
		return map[string]any{"image": png, "format": "png;base64"}, nil
	}
}

func uiGeometry(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		widget, err := env.Session.Resolver.MustResolveWidget(p.ObjectID)
		if err != nil {
			return nil, err
		}
		g, ok := widget.Geometry()
		if !ok {
			return nil, rpcerr.New(rpcerr.ObjectNotWidget, "no geometry available", nil)
		}
		return g, nil
	}
}

type hitTestParams struct {
	ObjectID string       `json:"objectId"`
	Point    hostobj.Point `json:"point"`
}

func within(r hostobj.Rect, p hostobj.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

func deepestHit(obj hostobj.Object, p hostobj.Point) hostobj.Object {
	if g, ok := obj.Geometry(); ok && !within(g, p) {
		return nil
	}
	var best hostobj.Object
	if obj.IsWidget() {
		best = obj
	}
	for _, c := range obj.Children() {
		if hit := deepestHit(c, p); hit != nil {
			best = hit
		}
	}
	return best
}

func uiHitTest(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p hitTestParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		root, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		hit := deepestHit(root, p.Point)
		if hit == nil {
			return nil, rpcerr.New(rpcerr.ObjectNotFound, "no widget at point", map[string]any{"point": p.Point})
		}
		return map[string]any{"objectId": exposeID(env, hit)}, nil
	}
}

// --- qt.names.* ---

type aliasParams struct {
	Alias string `json:"alias"`
	Path  string `json:"path,omitempty"`
}

func namesRegister(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p aliasParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Alias != "", "alias"); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Path != "", "path"); err != nil {
			return nil, err
		}
		env.Aliases.Register(p.Alias, p.Path)
		return map[string]any{"success": true}, nil
	}
}

func namesUnregister(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p aliasParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		env.Aliases.Unregister(p.Alias)
		return map[string]any{"success": true}, nil
	}
}

func namesList(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		return env.Aliases.List(), nil
	}
}

func namesValidate(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p aliasParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := env.Aliases.Validate(p.Alias); err != nil {
			return nil, err
		}
		return map[string]any{"valid": true}, nil
	}
}

func namesLoad(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		if err := env.Aliases.Load(); err != nil {
			return nil, rpcerr.New(rpcerr.NameLoadError, err.Error(), nil)
		}
		return map[string]any{"success": true}, nil
	}
}

func namesSave(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		if err := env.Aliases.Save(); err != nil {
			return nil, rpcerr.New(rpcerr.NameLoadError, err.Error(), nil)
		}
		return map[string]any{"success": true}, nil
	}
}

// --- qt.qml.*, qt.models.* ---

func qmlInspect(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		info, err := env.Qml.InspectQml(obj)
		if err != nil {
			return nil, err
		}
		return info, nil
	}
}

func modelsList(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		return qmlmodel.ListModels(env.Registry), nil
	}
}

func modelsInfo(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p objectIDParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		return qmlmodel.Info(obj)
	}
}

type modelDataParams struct {
	ObjectID string `json:"objectId"`
	Row      int    `json:"row"`
	Column   int    `json:"column"`
	Role     int    `json:"role,omitempty"`
}

func modelsData(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p modelDataParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		obj, err := resolveObj(env, p.ObjectID)
		if err != nil {
			return nil, err
		}
		v, err := qmlmodel.Data(obj, p.Row, p.Column, p.Role)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil
	}
}
