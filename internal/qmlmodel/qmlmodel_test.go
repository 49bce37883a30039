package qmlmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/qmlmodel"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcerr"
)

func TestInspectQml_NotQmlItem(t *testing.T) {
	obj := hostmock.New("QPushButton")
	ins := qmlmodel.New(nil)
	_, err := ins.InspectQml(obj)
	require.Error(t, err)
	rerr := err.(*rpcerr.Error)
	assert.Equal(t, rpcerr.NotQmlItem, rerr.Kind)
}

func TestInspectQml_Success(t *testing.T) {
	obj := hostmock.New("QQuickItem")
	obj.WithQmlContext("Rectangle", map[string]hostobj.Value{"color": hostobj.StringValue("#ff0000")})
	ins := qmlmodel.New(nil)
	info, err := ins.InspectQml(obj)
	require.NoError(t, err)
	assert.Equal(t, "Rectangle", info.QmlType)
	assert.Equal(t, "#ff0000", info.ContextProperties["color"])
}

func TestInspectQml_NoEngine(t *testing.T) {
	obj := hostmock.New("QQuickItem")
	obj.WithQmlContext("Rectangle", nil)
	ins := qmlmodel.New(func() bool { return false })
	_, err := ins.InspectQml(obj)
	require.Error(t, err)
	assert.Equal(t, rpcerr.QmlNotAvailable, err.(*rpcerr.Error).Kind)
}

func TestModels_ListInfoData(t *testing.T) {
	reg := registry.New()
	obj := hostmock.New("QAbstractItemModel")
	obj.WithModel(hostobj.ItemModel{
		RowCount: 2, ColumnCount: 1,
		RoleNames: map[int]string{0: "display"},
		Data: func(row, column, role int) (hostobj.Value, bool) {
			if row == 0 {
				return hostobj.StringValue("first"), true
			}
			return hostobj.StringValue("second"), true
		},
	})
	reg.ScanExisting(obj)

	list := qmlmodel.ListModels(reg)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].RowCount)

	info, err := qmlmodel.Info(obj)
	require.NoError(t, err)
	assert.Equal(t, "display", info.RoleNames[0])

	v, err := qmlmodel.Data(obj, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	_, err = qmlmodel.Data(obj, 5, 0, 0)
	require.Error(t, err)
	assert.Equal(t, rpcerr.IndexOutOfBounds, err.(*rpcerr.Error).Kind)
}

func TestModels_NotAModel(t *testing.T) {
	obj := hostmock.New("QPushButton")
	_, err := qmlmodel.Info(obj)
	require.Error(t, err)
	assert.Equal(t, rpcerr.NotAModel, err.(*rpcerr.Error).Kind)
}
