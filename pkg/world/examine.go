package world

import (
	"fmt"
	"sort"
	"strings"
)

// PrettyFormat renders an object for examine: its repr line followed by a
// colored yaml-ish dump of everything on it.
func (w *World) PrettyFormat(obj *Object) string {
	id := w.DB.MustID(obj)
	var b strings.Builder
	b.WriteString(obj.Repr(id))

	key := func(depth int, name string) string {
		// rotate through the dim colors so nesting reads at a glance
		code := 31 + depth%6
		return fmt.Sprintf("%s%s%s", ColorCode(code), name, ColorCode(0))
	}
	line := func(name, value string) {
		b.WriteString("\n  " + key(0, name) + ": " + value)
	}

	line("name", obj.Name)
	line("description", Escape(obj.Description))
	line("flags", "["+strings.Join(obj.Flags, ", ")+"]")
	line("parent", w.reprRef(obj.Parent))
	if obj.Locatable() {
		line("location", w.reprRef(obj.Location))
	}
	if obj.HasContents() {
		line("contents", w.reprRefs(obj.Contents))
	}
	if obj.Kind == KRoom {
		line("exits", w.reprRefs(obj.Exits))
	}
	if obj.Kind == KPlayer || obj.Kind == KThing {
		line("powers", "["+strings.Join(obj.Powers, ", ")+"]")
	}
	if obj.Kind == KConfig {
		line("default_room", w.reprRef(obj.DefaultRoom))
		line("master_room", w.reprRef(obj.MasterRoom))
	}

	if len(obj.CustomCmds) > 0 {
		b.WriteString("\n  " + key(0, "custom_cmds") + ":")
		for _, name := range sortedKeys(obj.CustomCmds) {
			b.WriteString("\n    " + key(1, name) + ": " + obj.CustomCmds[name].Repr())
		}
	}
	if len(obj.CustomEvents) > 0 {
		b.WriteString("\n  " + key(0, "custom_events") + ":")
		for _, name := range sortedKeys(obj.CustomEvents) {
			b.WriteString("\n    " + key(1, name) + ": " + obj.CustomEvents[name].Repr())
		}
	}
	if len(obj.Attrs) > 0 {
		b.WriteString("\n  " + key(0, "attrs") + ":")
		for _, name := range sortedKeys(obj.Attrs) {
			b.WriteString("\n    " + key(1, name) + ": " + w.reprAttr(obj.Attrs[name]))
		}
	}
	return b.String()
}

func (w *World) reprRef(id Ref) string {
	if id == Nothing {
		return "nil"
	}
	obj := w.DB.Get(id)
	if obj == nil {
		return fmt.Sprintf("<#%d gone>", int(id))
	}
	return obj.Repr(id)
}

func (w *World) reprRefs(ids []Ref) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, w.reprRef(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (w *World) reprAttr(v Value) string {
	switch v.Kind {
	case VString:
		return fmt.Sprintf("%q", v.Str)
	case VNumber:
		return fmt.Sprint(v.Num)
	case VRef:
		return w.reprRef(v.Ref)
	case VLambda:
		return "<lambda: " + Escape(v.Str) + ">"
	}
	return "nil"
}

func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
