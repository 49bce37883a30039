// Package config reads the probe's startup-time environment variables
// (spec §6), mirroring the teacher's cmd/gasoline-cmd/config package's
// shape of "typed config struct populated once at startup, flags can
// override the same knobs for local runs".
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mode selects which API surfaces the dispatcher registers (spec §6,
// GLOSSARY "Mode").
type Mode string

const (
	ModeNative      Mode = "native"
	ModeComputerUse Mode = "computer_use"
	ModeChrome      Mode = "chrome"
	ModeAll         Mode = "all"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeNative, ModeComputerUse, ModeChrome, ModeAll:
		return true
	}
	return false
}

// Surfaces reports which of the three API namespaces this mode enables.
func (m Mode) Surfaces() (native, computerUse, chrome bool) {
	switch m {
	case ModeNative:
		return true, false, false
	case ModeComputerUse:
		return false, true, false
	case ModeChrome:
		return false, false, true
	default:
		return true, true, true
	}
}

const (
	EnvPort    = "PROBE_PORT"
	EnvMode    = "PROBE_MODE"
	EnvNameMap = "PROBE_NAME_MAP"
	EnvEnabled = "PROBE_ENABLED"

	DefaultPort    = 9222
	DefaultNameMap = "qtmcp-names.json"
)

// Config is the probe's resolved startup configuration.
type Config struct {
	Port      int
	Mode      Mode
	NameMap   string
	Enabled   bool
}

// FromEnv reads the four environment variables spec §6 names and
// validates them, falling back to documented defaults.
func FromEnv() (Config, error) {
	c := Config{
		Port:    DefaultPort,
		Mode:    ModeAll,
		NameMap: DefaultNameMap,
		Enabled: true,
	}

	if v := strings.TrimSpace(os.Getenv(EnvEnabled)); v == "0" {
		c.Enabled = false
	}

	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("%s=%q is not a valid TCP port (1-65535)", EnvPort, v)
		}
		c.Port = port
	}

	if v := strings.TrimSpace(os.Getenv(EnvMode)); v != "" {
		mode := Mode(v)
		if !mode.Valid() {
			return Config{}, fmt.Errorf("%s=%q must be one of native, computer_use, chrome, all", EnvMode, v)
		}
		c.Mode = mode
	}

	if v := strings.TrimSpace(os.Getenv(EnvNameMap)); v != "" {
		c.NameMap = v
	}

	return c, nil
}
