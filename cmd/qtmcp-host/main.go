// Command qtmcp-host is a standalone demonstration host: it builds a
// small mock Qt-style widget tree with internal/hostmock, starts the
// probe's local WebSocket JSON-RPC server, and serves exactly one client
// connection at a time (spec §1, §5), mirroring the teacher's
// cmd/gasoline-cmd pattern of a thin main.go delegating to typed
// sub-packages.
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/qtmcp/probe/api/chr"
	"github.com/qtmcp/probe/api/cu"
	"github.com/qtmcp/probe/api/qt"
	"github.com/qtmcp/probe/internal/aliasmap"
	"github.com/qtmcp/probe/internal/config"
	"github.com/qtmcp/probe/internal/hostmock"
	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/registry"
	"github.com/qtmcp/probe/internal/rpcdispatch"
)

var log = qlog.For("qtmcp-host")

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var nameMapOverride string
	var modeOverride string

	root := &cobra.Command{
		Use:     "qtmcp-host",
		Short:   "Run the QtMCP demonstration probe host",
		Version: probe.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if nameMapOverride != "" {
				cfg.NameMap = nameMapOverride
			}
			if modeOverride != "" {
				m := config.Mode(modeOverride)
				if !m.Valid() {
					return fmt.Errorf("--mode %q must be one of native, computer_use, chrome, all", modeOverride)
				}
				cfg.Mode = m
			}
			return serve(cfg)
		},
	}
	root.Flags().IntVar(&cfg.Port, "port", cfg.Port, "TCP port for the local WebSocket server")
	root.Flags().StringVar(&modeOverride, "mode", string(cfg.Mode), "API surfaces to register: native, computer_use, chrome, all")
	root.Flags().StringVar(&nameMapOverride, "name-map", cfg.NameMap, "path to the persisted symbolic alias map")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildDemoTree() *hostmock.Object {
	window := hostmock.New("QMainWindow").
		WithSuperClasses("QWidget", "QObject").
		WithWidget(hostobj.Rect{X: 0, Y: 0, Width: 1024, Height: 768})
	window.SetDisplayName("mainWindow")

	button := window.AddChild("QPushButton")
	button.WithSuperClasses("QAbstractButton", "QWidget", "QObject").
		WithWidget(hostobj.Rect{X: 440, Y: 360, Width: 120, Height: 32})
	button.SetDisplayName("submitButton")

	label := window.AddChild("QLabel")
	label.WithSuperClasses("QFrame", "QWidget", "QObject").
		WithWidget(hostobj.Rect{X: 440, Y: 300, Width: 120, Height: 24})
	label.SetDisplayName("statusLabel")

	return window
}

func serve(cfg config.Config) error {
	if !cfg.Enabled {
		log.Info("probe disabled via PROBE_ENABLED=0, exiting")
		return nil
	}

	reg := registry.New()
	window := buildDemoTree()
	reg.ScanExisting(window)

	aliases := aliasmap.New(cfg.NameMap)
	_ = aliases.Load()

	backend := hostmock.NewInputBackend()
	proc := probe.NewProcess(reg, aliases, backend, func() bool { return false })
	proc.Windows.SetActiveWindow(window)

	native, computerUse, chromeSurface := cfg.Mode.Surfaces()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var connMu sync.Mutex

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		connMu.Lock()
		defer connMu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Error("websocket upgrade failed")
			return
		}
		defer conn.Close()

		var writeMu sync.Mutex
		d := rpcdispatch.New()

		env := probe.NewEnv(proc, func(method string, params any) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteMessage(websocket.TextMessage, d.SendNotification(method, params)); err != nil {
				log.WithError(err).Warn("failed to deliver notification")
			}
		})
		defer env.Disconnect()

		if native {
			qt.Register(d, env)
		}
		if computerUse {
			cu.Register(d, env)
		}
		if chromeSurface {
			chr.Register(d, env)
		}

		log.Info("client connected")
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.WithError(err).Info("client disconnected")
				return
			}
			resp := d.HandleMessage(raw)
			if resp == nil {
				continue
			}
			writeMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, resp)
			writeMu.Unlock()
			if err != nil {
				log.WithError(err).Warn("failed to write response")
				return
			}
		}
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	log.Infof("qtmcp-host listening on %s (mode=%s)", addr, cfg.Mode)
	return http.ListenAndServe(addr, nil)
}
