// Package qmlmodel implements the qt.qml.inspect and qt.models.* methods
// (SPEC_FULL.md §C): optional QML context introspection and item-model
// navigation, both of which degrade to a typed error rather than a crash
// when the underlying capability is absent.
package qmlmodel

import (
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcerr"
)

// QmlInfo is the result of qt.qml.inspect.
type QmlInfo struct {
	ContextProperties map[string]any `json:"contextProperties"`
	QmlType           string         `json:"qmlType"`
	ID                string         `json:"id,omitempty"`
}

// Inspector exposes qt.qml.inspect and qt.models.*, operating over live
// Objects obtained from a resolver.
type Inspector struct {
	// HasQmlEngine reports whether the host process has a QML engine
	// attached at all. A real binding wires this to the host's global QML
	// engine registry; a process with no QML usage reports false so
	// qt.qml.inspect fails fast with qml-not-available instead of walking
	// every object looking for one that never exists.
	HasQmlEngine func() bool
}

// New creates an Inspector. hasQmlEngine may be nil, in which case the
// probe is treated as always having a QML engine (suitable for hostmock
// trees where every QML item declares its own context directly).
func New(hasQmlEngine func() bool) *Inspector {
	if hasQmlEngine == nil {
		hasQmlEngine = func() bool { return true }
	}
	return &Inspector{HasQmlEngine: hasQmlEngine}
}

// InspectQml implements qt.qml.inspect.
func (ins *Inspector) InspectQml(obj hostobj.Object) (QmlInfo, error) {
	if !ins.HasQmlEngine() {
		return QmlInfo{}, rpcerr.New(rpcerr.QmlNotAvailable, "process has no QML engine", nil)
	}
	props, qmlType, ok := obj.QmlContext()
	if !ok {
		return QmlInfo{}, rpcerr.New(rpcerr.NotQmlItem, "object is not QML-backed", map[string]any{"className": obj.ClassName()})
	}
	if qmlType == "" {
		return QmlInfo{}, rpcerr.New(rpcerr.QmlContextNotFound, "object has no attached QML context", map[string]any{"className": obj.ClassName()})
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = hostobj.ToJSON(v)
	}
	info := QmlInfo{ContextProperties: out, QmlType: qmlType}
	if dn := obj.DisplayName(); dn != "" {
		info.ID = dn
	}
	return info, nil
}

// ModelSummary is one row of qt.models.list.
type ModelSummary struct {
	ObjectID    string `json:"objectId"`
	ClassName   string `json:"className"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
}

// ListModels enumerates every live object whose class implements the
// item-model capability (spec §C).
func ListModels(reg *registry.Registry) []ModelSummary {
	var out []ModelSummary
	for _, h := range reg.AllObjects() {
		obj, ok := h.Resolve()
		if !ok {
			continue
		}
		m, ok := obj.AsModel()
		if !ok {
			continue
		}
		out = append(out, ModelSummary{
			ObjectID:    registry.ObjectID(obj),
			ClassName:   obj.ClassName(),
			RowCount:    m.RowCount,
			ColumnCount: m.ColumnCount,
		})
	}
	return out
}

// ModelInfo is the result of qt.models.info.
type ModelInfo struct {
	RowCount    int            `json:"rowCount"`
	ColumnCount int            `json:"columnCount"`
	RoleNames   map[int]string `json:"roleNames"`
}

func asModel(obj hostobj.Object) (hostobj.ItemModel, error) {
	m, ok := obj.AsModel()
	if !ok {
		return hostobj.ItemModel{}, rpcerr.New(rpcerr.NotAModel, "object does not implement an item model", map[string]any{"className": obj.ClassName()})
	}
	return m, nil
}

// Info implements qt.models.info.
func Info(obj hostobj.Object) (ModelInfo, error) {
	m, err := asModel(obj)
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{RowCount: m.RowCount, ColumnCount: m.ColumnCount, RoleNames: m.RoleNames}, nil
}

// Data implements qt.models.data. role defaults to 0 (Qt::DisplayRole) if
// not given.
func Data(obj hostobj.Object, row, column, role int) (any, error) {
	m, err := asModel(obj)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= m.RowCount || column < 0 || column >= m.ColumnCount {
		return nil, rpcerr.New(rpcerr.IndexOutOfBounds, "row/column out of bounds", map[string]any{
			"row": row, "column": column, "rowCount": m.RowCount, "columnCount": m.ColumnCount,
		})
	}
	if _, ok := m.RoleNames[role]; !ok && len(m.RoleNames) > 0 {
		return nil, rpcerr.New(rpcerr.RoleNotFound, "no such role", map[string]any{"role": role})
	}
	v, ok := m.Data(row, column, role)
	if !ok {
		return nil, rpcerr.New(rpcerr.IndexOutOfBounds, "no data at this index/role", map[string]any{"row": row, "column": column, "role": role})
	}
	return hostobj.ToJSON(v), nil
}
