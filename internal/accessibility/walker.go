package accessibility

import (
	"strings"

	"github.com/qtmcp/probe/internal/hostobj"
	"github.com/qtmcp/probe/internal/rpcerr"
)

const (
	defaultDepth    = 15
	maxDepth        = 15
	textWalkDepth   = 30
	defaultMaxChars = 20000
	findResultCap   = 20
	hardNodeCap     = 5000
)

var interactiveRoles = map[string]bool{
	"button": true, "textbox": true, "checkbox": true, "radiobutton": true,
	"combobox": true, "slider": true, "link": true, "tab": true, "menuitem": true,
	"listitem": true, "treeitem": true, "cell": true,
}

func normalizeRole(raw string) string {
	return strings.ToLower(raw)
}

func isInteractiveRole(role string) bool {
	return interactiveRoles[role]
}

func statesMap(s hostobj.States) map[string]bool {
	out := map[string]bool{}
	if s.Focused {
		out["focused"] = true
	}
	if s.Disabled {
		out["disabled"] = true
	}
	if s.Checked {
		out["checked"] = true
	}
	if s.Selected {
		out["selected"] = true
	}
	if s.Expanded {
		out["expanded"] = true
	}
	if s.ReadOnly {
		out["readonly"] = true
	}
	return out
}

// TreeNode is one node of a read_page/find result (spec §4.4 "Tree node
// shape").
type TreeNode struct {
	Ref        *string          `json:"ref,omitempty"`
	Role       string           `json:"role"`
	Name       *string          `json:"name,omitempty"`
	ObjectName *string          `json:"objectName,omitempty"`
	ClassName  string           `json:"className"`
	Bounds     *hostobj.Rect    `json:"bounds,omitempty"`
	States     map[string]bool  `json:"states,omitempty"`
	Children   []TreeNode       `json:"children,omitempty"`
}

// WindowProvider supplies the probe's notion of top-level windows and which
// one is active, used by find/get_page_text/tabs_context/navigate.
type WindowProvider interface {
	Windows() []hostobj.Object
	ActiveWindow() (hostobj.Object, bool)
}

// Clicker synthesizes a mouse click, used by chr.click's fallback strategy
// when the accessibility interface offers no press action. Implemented by
// internal/input.
type Clicker interface {
	ClickCenter(obj hostobj.Object, center hostobj.Point) error
}

// Walker implements spec §4.4's read_page/find/get_page_text/click/
// form_input/navigate/tabs_context operations over a RefStore.
type Walker struct {
	Refs    *RefStore
	Windows WindowProvider
	Clicker Clicker
}

// New creates a Walker backed by refs and windows. clicker may be nil; in
// that case chr.click can only succeed via the accessibility press action.
func New(refs *RefStore, windows WindowProvider, clicker Clicker) *Walker {
	return &Walker{Refs: refs, Windows: windows, Clicker: clicker}
}

func (w *Walker) activeAccessible() (hostobj.AccessibleInterface, error) {
	win, ok := w.Windows.ActiveWindow()
	if !ok {
		return nil, rpcerr.New(rpcerr.NoActiveWindow, "no active window", nil)
	}
	acc, ok := win.Accessible()
	if !ok {
		return nil, rpcerr.New(rpcerr.ObjectNotFound, "active window has no accessibility interface", nil)
	}
	return acc, nil
}

// ReadPageOptions configures read_page. Depth <= 0 means "use the default";
// it is always clamped to maxDepth. MaxChars <= 0 means "use the default".
type ReadPageOptions struct {
	RefID    string
	Filter   string
	Depth    int
	MaxChars int
}

// ReadPageResult is read_page's {tree, totalNodes, truncated}.
type ReadPageResult struct {
	Tree       *TreeNode `json:"tree"`
	TotalNodes int       `json:"totalNodes"`
	Truncated  bool      `json:"truncated"`
}

type tooLarge struct{}

func (tooLarge) Error() string { return "tree too large" }

// ReadPage clears the ref store, then walks from root (or from ref_id's
// subtree) producing a pruned tree, per spec §4.4.
func (w *Walker) ReadPage(opts ReadPageOptions) (ReadPageResult, error) {
	var rootObj hostobj.Object
	if opts.RefID != "" {
		acc, err := w.Refs.Resolve(opts.RefID)
		if err != nil {
			return ReadPageResult{}, err
		}
		rootObj = acc.Underlying()
	}

	w.Refs.Clear()

	var rootAcc hostobj.AccessibleInterface
	if rootObj != nil {
		acc, ok := rootObj.Accessible()
		if !ok {
			return ReadPageResult{}, rpcerr.New(rpcerr.RefStale, "object no longer exposes an accessibility interface", nil)
		}
		rootAcc = acc
	} else {
		acc, err := w.activeAccessible()
		if err != nil {
			return ReadPageResult{}, err
		}
		rootAcc = acc
	}

	depth := opts.Depth
	if depth <= 0 || depth > maxDepth {
		depth = defaultDepth
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	filter := opts.Filter
	if filter == "" {
		filter = "all"
	}

	budget := maxChars
	truncated := false
	total := 0

	var build func(acc hostobj.AccessibleInterface, level int) (*TreeNode, error)
	build = func(acc hostobj.AccessibleInterface, level int) (*TreeNode, error) {
		total++
		if total > hardNodeCap {
			return nil, tooLarge{}
		}

		role := normalizeRole(acc.Role())
		node := &TreeNode{Role: role, ClassName: acc.Underlying().ClassName()}
		if name, ok := acc.Name(); ok && name != "" {
			node.Name = &name
		}
		if dn := acc.Underlying().DisplayName(); dn != "" {
			node.ObjectName = &dn
		}
		if b, ok := acc.Bounds(); ok {
			node.Bounds = &b
		}
		if sm := statesMap(acc.States()); len(sm) > 0 {
			node.States = sm
		}

		interactive := isInteractiveRole(role)
		if filter != "interactive" || interactive {
			ref := w.Refs.Mint(acc, acc.Underlying())
			node.Ref = &ref
		}

		budget -= len(role) + len(node.ClassName)
		if node.Name != nil {
			budget -= len(*node.Name)
		}
		if budget <= 0 {
			truncated = true
			return node, nil
		}
		if level >= depth {
			if len(acc.Children()) > 0 {
				truncated = true
			}
			return node, nil
		}

		for _, c := range acc.Children() {
			if !c.Valid() {
				continue
			}
			child, err := build(c, level+1)
			if err != nil {
				return nil, err
			}
			if child == nil {
				continue
			}
			if filter == "interactive" && child.Ref == nil && len(child.Children) == 0 {
				continue
			}
			node.Children = append(node.Children, *child)
			if budget <= 0 {
				break
			}
		}
		return node, nil
	}

	tree, err := build(rootAcc, 0)
	if err != nil {
		if _, ok := err.(tooLarge); ok {
			return ReadPageResult{}, rpcerr.New(rpcerr.TreeTooLarge, "accessibility tree exceeds node limit", map[string]any{"limit": hardNodeCap})
		}
		return ReadPageResult{}, rpcerr.Internal(err)
	}
	return ReadPageResult{Tree: tree, TotalNodes: total, Truncated: truncated}, nil
}

// Match is one row of find's results.
type Match struct {
	Ref        string          `json:"ref"`
	Role       string          `json:"role"`
	Name       *string         `json:"name,omitempty"`
	ObjectName *string         `json:"objectName,omitempty"`
	ClassName  string          `json:"className"`
	Bounds     *hostobj.Rect   `json:"bounds,omitempty"`
	States     map[string]bool `json:"states,omitempty"`
}

// FindResult is find's {matches, count}.
type FindResult struct {
	Matches []Match `json:"matches"`
	Count   int     `json:"count"`
}

// Find performs a case-insensitive substring search across the active
// window's accessibility tree, appending refs without clearing existing
// ones (spec §4.4, §8 invariant 5).
func (w *Walker) Find(query string) (FindResult, error) {
	root, err := w.activeAccessible()
	if err != nil {
		return FindResult{}, err
	}
	q := strings.ToLower(query)

	var matches []Match
	var walk func(acc hostobj.AccessibleInterface)
	walk = func(acc hostobj.AccessibleInterface) {
		if len(matches) > findResultCap {
			return
		}
		role := normalizeRole(acc.Role())
		name, _ := acc.Name()
		desc, _ := acc.Description()
		displayName := acc.Underlying().DisplayName()
		className := acc.Underlying().ClassName()

		matched := false
		for _, h := range []string{name, role, desc, displayName, className} {
			if h != "" && strings.Contains(strings.ToLower(h), q) {
				matched = true
				break
			}
		}
		if matched {
			ref := w.Refs.Mint(acc, acc.Underlying())
			m := Match{Ref: ref, Role: role, ClassName: className}
			if name != "" {
				m.Name = &name
			}
			if displayName != "" {
				m.ObjectName = &displayName
			}
			if b, ok := acc.Bounds(); ok {
				m.Bounds = &b
			}
			if sm := statesMap(acc.States()); len(sm) > 0 {
				m.States = sm
			}
			matches = append(matches, m)
		}
		for _, c := range acc.Children() {
			if c.Valid() {
				walk(c)
			}
		}
	}
	walk(root)

	if len(matches) > findResultCap {
		return FindResult{}, rpcerr.New(rpcerr.FindTooManyResults, "too many matches", map[string]any{"count": len(matches), "cap": findResultCap})
	}
	return FindResult{Matches: matches, Count: len(matches)}, nil
}

// GetPageText concatenates visible text-bearing nodes under the active
// window, depth-limited to 30 (spec §4.4).
func (w *Walker) GetPageText() (string, error) {
	root, err := w.activeAccessible()
	if err != nil {
		return "", err
	}
	var lines []string
	var walk func(acc hostobj.AccessibleInterface, depth int)
	walk = func(acc hostobj.AccessibleInterface, depth int) {
		if depth > textWalkDepth {
			return
		}
		if v, ok := acc.Underlying().Visible(); ok && !v {
			return
		}
		if name, ok := acc.Name(); ok && strings.TrimSpace(name) != "" {
			lines = append(lines, name)
		} else if text, ok := acc.Underlying().TextProperty(); ok && strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
		for _, c := range acc.Children() {
			if c.Valid() {
				walk(c, depth+1)
			}
		}
	}
	walk(root, 0)
	return strings.Join(lines, "\n"), nil
}

// ClickResult reports which strategy chr.click used.
type ClickResult struct {
	Method string `json:"method"`
}

// Click resolves ref and either invokes its press action or synthesizes a
// mouse click at its geometric center (spec §4.4).
func (w *Walker) Click(ref string) (ClickResult, error) {
	acc, err := w.Refs.Resolve(ref)
	if err != nil {
		return ClickResult{}, err
	}
	if acc.Press() {
		return ClickResult{Method: "press"}, nil
	}
	b, ok := acc.Bounds()
	if !ok {
		return ClickResult{}, rpcerr.New(rpcerr.FormInputUnsupported, "no geometry available to synthesize a click", nil)
	}
	if w.Clicker == nil {
		return ClickResult{}, rpcerr.New(rpcerr.FormInputUnsupported, "no input simulator wired", nil)
	}
	center := hostobj.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
	if err := w.Clicker.ClickCenter(acc.Underlying(), center); err != nil {
		return ClickResult{}, err
	}
	return ClickResult{Method: "synthesizedClick"}, nil
}

// FormInput applies value to ref using the type-directed strategy chain of
// spec §4.4.
func (w *Walker) FormInput(ref string, value any) error {
	acc, err := w.Refs.Resolve(ref)
	if err != nil {
		return err
	}

	if opts, ok := acc.ComboOptions(); ok {
		s, isStr := value.(string)
		if !isStr {
			return rpcerr.New(rpcerr.FormInputUnsupported, "combo widget requires a string value", nil)
		}
		for _, o := range opts {
			if strings.EqualFold(o, s) && acc.SelectComboOption(s) {
				return nil
			}
		}
		if acc.SetEditableText(s) {
			return nil
		}
		return rpcerr.New(rpcerr.FormInputUnsupported, "no matching combo option", map[string]any{"value": s})
	}

	if b, isBool := value.(bool); isBool {
		if acc.States().Checked == b {
			return nil
		}
		if acc.Toggle() {
			return nil
		}
		return rpcerr.New(rpcerr.FormInputUnsupported, "toggle action not offered", nil)
	}

	if f, isNum := value.(float64); isNum {
		if acc.SetNumericValue(f) {
			return nil
		}
		return rpcerr.New(rpcerr.FormInputUnsupported, "no numeric value interface", nil)
	}

	if s, isStr := value.(string); isStr {
		if acc.SetEditableText(s) {
			return nil
		}
		if acc.SetStringValue(s) {
			return nil
		}
		return rpcerr.New(rpcerr.FormInputUnsupported, "no editable-text or value interface", nil)
	}

	return rpcerr.New(rpcerr.FormInputUnsupported, "unsupported value type", nil)
}

// Navigate implements activateTab/activateMenuItem/back/forward (spec
// §4.4).
func (w *Walker) Navigate(action, ref string) error {
	switch action {
	case "activateTab", "activateMenuItem":
		if ref == "" {
			return rpcerr.New(rpcerr.NavigateInvalid, "ref required for "+action, nil)
		}
		acc, err := w.Refs.Resolve(ref)
		if err != nil {
			return err
		}
		if !acc.Press() {
			return rpcerr.New(rpcerr.NavigateInvalid, "press action not offered", nil)
		}
		return nil
	case "back", "forward":
		shortcut := "alt+left"
		if action == "forward" {
			shortcut = "alt+right"
		}
		acc, err := w.activeAccessible()
		if err != nil {
			return err
		}
		target := findByShortcut(acc, shortcut)
		if target == nil {
			return rpcerr.New(rpcerr.NavigateInvalid, "no action bound to "+shortcut, map[string]any{"action": action})
		}
		if !target.Press() {
			return rpcerr.New(rpcerr.NavigateInvalid, "bound action did not accept press", nil)
		}
		return nil
	default:
		return rpcerr.New(rpcerr.NavigateInvalid, "unknown navigate action", map[string]any{"action": action})
	}
}

func findByShortcut(acc hostobj.AccessibleInterface, want string) hostobj.AccessibleInterface {
	if s, ok := acc.Shortcut(); ok && strings.EqualFold(s, want) {
		return acc
	}
	for _, c := range acc.Children() {
		if !c.Valid() {
			continue
		}
		if found := findByShortcut(c, want); found != nil {
			return found
		}
	}
	return nil
}

// WindowInfo is one row of tabs_context.
type WindowInfo struct {
	WindowTitle string       `json:"windowTitle"`
	ClassName   string       `json:"className"`
	ObjectName  *string      `json:"objectName,omitempty"`
	IsActive    bool         `json:"isActive"`
	Geometry    hostobj.Rect `json:"geometry"`
}

// TabsContextResult is tabs_context's {windows, count}.
type TabsContextResult struct {
	Windows []WindowInfo `json:"windows"`
	Count   int          `json:"count"`
}

// TabsContext enumerates top-level windows (spec §4.4).
func (w *Walker) TabsContext() TabsContextResult {
	active, _ := w.Windows.ActiveWindow()
	var out []WindowInfo
	for _, win := range w.Windows.Windows() {
		title, _ := win.TextProperty()
		geom, _ := win.Geometry()
		info := WindowInfo{WindowTitle: title, ClassName: win.ClassName(), IsActive: win == active, Geometry: geom}
		if dn := win.DisplayName(); dn != "" {
			info.ObjectName = &dn
		}
		out = append(out, info)
	}
	return TabsContextResult{Windows: out, Count: len(out)}
}
