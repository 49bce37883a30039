// Package chr implements the probe's accessibility-tree API surface
// (spec §6 chr.*), the Chrome-DevTools-shaped namespace that walks the
// host's accessibility tree instead of addressing Qt objects directly.
package chr

import (
	"encoding/json"

	"github.com/qtmcp/probe/internal/accessibility"
	"github.com/qtmcp/probe/internal/probe"
	"github.com/qtmcp/probe/internal/qlog"
	"github.com/qtmcp/probe/internal/rpcdispatch"
	"github.com/qtmcp/probe/internal/rpcparams"
)

// Register binds every chr.* method to d.
func Register(d *rpcdispatch.Dispatcher, env *probe.Env) {
	d.RegisterMethod("chr.readPage", readPage(env))
	d.RegisterMethod("chr.click", click(env))
	d.RegisterMethod("chr.formInput", formInput(env))
	d.RegisterMethod("chr.getPageText", getPageText(env))
	d.RegisterMethod("chr.find", find(env))
	d.RegisterMethod("chr.navigate", navigate(env))
	d.RegisterMethod("chr.tabsContext", tabsContext(env))
	d.RegisterMethod("chr.readConsoleMessages", readConsoleMessages(env))
}

type readPageParams struct {
	Ref      string `json:"ref,omitempty"`
	Filter   string `json:"filter,omitempty"`
	Depth    int    `json:"depth,omitempty"`
	MaxChars int    `json:"maxChars,omitempty"`
}

func readPage(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p readPageParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		return env.Session.Walker.ReadPage(accessibility.ReadPageOptions{
			RefID:    p.Ref,
			Filter:   p.Filter,
			Depth:    p.Depth,
			MaxChars: p.MaxChars,
		})
	}
}

type refParams struct {
	Ref string `json:"ref"`
}

func click(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p refParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Ref != "", "ref"); err != nil {
			return nil, err
		}
		return env.Session.Walker.Click(p.Ref)
	}
}

type formInputParams struct {
	Ref   string `json:"ref"`
	Value any    `json:"value"`
}

func formInput(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p formInputParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Ref != "", "ref"); err != nil {
			return nil, err
		}
		if err := env.Session.Walker.FormInput(p.Ref, p.Value); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

func getPageText(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		text, err := env.Session.Walker.GetPageText()
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil
	}
}

type findParams struct {
	Query string `json:"query"`
}

func find(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p findParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Query != "", "query"); err != nil {
			return nil, err
		}
		return env.Session.Walker.Find(p.Query)
	}
}

type navigateParams struct {
	Action string `json:"action"`
	Ref    string `json:"ref,omitempty"`
}

func navigate(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p navigateParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		if err := rpcparams.Require(p.Action != "", "action"); err != nil {
			return nil, err
		}
		if err := env.Session.Walker.Navigate(p.Action, p.Ref); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	}
}

func tabsContext(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		return env.Session.Walker.TabsContext(), nil
	}
}

type readConsoleParams struct {
	Pattern    string `json:"pattern,omitempty"`
	OnlyErrors bool   `json:"onlyErrors,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Clear      bool   `json:"clear,omitempty"`
}

func readConsoleMessages(env *probe.Env) rpcdispatch.HandlerFunc {
	return func(raw json.RawMessage) (any, error) {
		var p readConsoleParams
		if err := rpcparams.Decode(raw, &p); err != nil {
			return nil, err
		}
		entries, err := env.Console.Read(p.Pattern, p.OnlyErrors, p.Limit, p.Clear)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []qlog.Entry{}
		}
		return map[string]any{"messages": entries}, nil
	}
}
