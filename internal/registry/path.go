package registry

import (
	"fmt"
	"strings"

	"github.com/qtmcp/probe/internal/hostobj"
)

// ObjectID computes obj's current hierarchical path (spec §3, §4.1). It is
// never cached: display name and parentage may change between calls, so
// every call walks the live parent chain.
func ObjectID(obj hostobj.Object) string {
	var segments []string
	cur := obj
	for cur != nil {
		segments = append([]string{segmentFor(cur)}, segments...)
		cur = cur.Parent()
	}
	return "/" + strings.Join(segments, "/")
}

// segmentFor computes one path segment by precedence: display-name,
// then text-property, then class-name[#index] (spec §4.1 "key algorithm").
func segmentFor(obj hostobj.Object) string {
	if dn := obj.DisplayName(); dn != "" {
		return dn
	}
	if txt, ok := obj.TextProperty(); ok && txt != "" {
		return "text_" + sanitizeText(txt, 20)
	}
	idx := siblingIndex(obj)
	if idx <= 1 {
		return obj.ClassName()
	}
	return fmt.Sprintf("%s#%d", obj.ClassName(), idx)
}

// siblingIndex counts unnamed, textless siblings of obj's class that
// precede it in construction order (i.e. appear earlier in the parent's
// child slice), returning obj's 1-based position among them. Objects with
// a display name or text never need an index because they use that
// segment instead.
func siblingIndex(obj hostobj.Object) int {
	parent := obj.Parent()
	if parent == nil {
		return 1
	}
	count := 0
	for _, sib := range parent.Children() {
		if sib.ClassName() != obj.ClassName() {
			continue
		}
		if sib.DisplayName() != "" {
			continue
		}
		if txt, ok := sib.TextProperty(); ok && txt != "" {
			continue
		}
		count++
		if sib == obj {
			return count
		}
	}
	return 1
}

// sanitizeText keeps alphanumerics and underscores, replacing everything
// else with "_", and truncates to maxRunes runes.
func sanitizeText(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	var b strings.Builder
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// splitPath splits a hierarchical path into its segments, tolerating a
// leading "/" or its absence.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
