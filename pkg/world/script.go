package world

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
)

// Scripts attached to commands, matchers, event handlers and lambda
// attributes run in Lua. Every execution gets a fresh state, so scripts
// cannot leak values between runs; the world is their only shared state.
//
// The environment exposes:
//
//	self    the object owning the code
//	caller  the character that triggered it (may be nil)
//	here    the caller's location
//	send(s) write text to the caller
//	fail(s) abort the action with a message
//	db      get, dbref, create, remove, search, list
//	game    schedule(seconds, code)
//
// plus per-invocation values such as query, groups or text.

const objectMeta = "mushroom.object"

// failMarker tags Lua errors raised by fail() so the host can tell an
// intentional abort from a script bug.
const failMarker = "\x01actionfailed\x01"

// ExecCode runs a script. An ActionFailed raised by the script comes back
// as the error; any other script error is reported to the caller and
// swallowed, so a buggy object cannot break the session loop.
func (w *World) ExecCode(code string, caller Caller, owner Ref, kwargs map[string]any) error {
	l := w.newState(caller, owner, kwargs)
	if err := lua.DoString(l, code); err != nil {
		return w.scriptError(err, caller, "exec")
	}
	return nil
}

// EvalCode evaluates a script expression and returns its value.
func (w *World) EvalCode(code string, caller Caller, owner Ref, kwargs map[string]any) (any, error) {
	l := w.newState(caller, owner, kwargs)
	if err := lua.DoString(l, "return ("+code+")"); err != nil {
		return nil, w.scriptError(err, caller, "eval")
	}
	if l.Top() == 0 {
		return nil, nil
	}
	return w.toAny(l, -1), nil
}

func (w *World) scriptError(err error, caller Caller, verb string) error {
	msg := err.Error()
	if i := strings.Index(msg, failMarker); i >= 0 {
		return &ActionFailed{Msg: msg[i+len(failMarker):]}
	}
	caller.Send(verb + " error: " + msg)
	return nil
}

func (w *World) newState(caller Caller, owner Ref, kwargs map[string]any) *lua.State {
	l := lua.NewState()
	lua.OpenLibraries(l)
	w.registerObjectMeta(l)

	ownerObj := w.DB.Get(owner)
	if ownerObj == nil {
		ownerObj = caller.Player()
	}
	w.pushObject(l, ownerObj)
	l.SetGlobal("self")

	player := caller.Player()
	w.pushObject(l, player)
	l.SetGlobal("caller")
	if player != nil {
		w.pushObject(l, w.DB.LocationOf(player))
		l.SetGlobal("here")
	}

	l.PushGoFunction(func(l *lua.State) int {
		caller.Send(lua.CheckString(l, 1))
		return 0
	})
	l.SetGlobal("send")

	l.PushGoFunction(func(l *lua.State) int {
		lua.Errorf(l, "%s", failMarker+lua.CheckString(l, 1))
		return 0
	})
	l.SetGlobal("fail")

	w.registerDBTable(l)
	w.registerGameTable(l, caller, owner)

	for k, v := range kwargs {
		w.pushAny(l, v)
		l.SetGlobal(k)
	}
	return l
}

func (w *World) registerDBTable(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "get", Function: func(l *lua.State) int {
			w.pushObject(l, w.DB.Get(Ref(lua.CheckInteger(l, 1))))
			return 1
		}},
		{Name: "dbref", Function: func(l *lua.State) int {
			w.pushObject(l, w.DB.DBRef(lua.CheckString(l, 1)))
			return 1
		}},
		{Name: "create", Function: func(l *lua.State) int {
			kind, ok := kindFromName(lua.CheckString(l, 1))
			if !ok {
				lua.Errorf(l, "unknown object kind '%s'", lua.CheckString(l, 1))
			}
			obj := NewObject(kind, lua.CheckString(l, 2))
			if _, err := w.DB.Add(obj); err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			w.pushObject(l, obj)
			return 1
		}},
		{Name: "remove", Function: func(l *lua.State) int {
			obj := w.checkObject(l, 1)
			_ = w.DB.MoveTo(obj, nil)
			w.DB.RemoveObject(obj)
			return 0
		}},
		{Name: "search", Function: func(l *lua.State) int {
			kind := KObject
			if l.Top() >= 2 {
				k, ok := kindFromName(lua.CheckString(l, 2))
				if !ok {
					lua.Errorf(l, "unknown object kind '%s'", lua.CheckString(l, 2))
				}
				kind = k
			}
			w.pushObjects(l, w.DB.Search(lua.CheckString(l, 1), kind))
			return 1
		}},
		{Name: "list", Function: func(l *lua.State) int {
			kind, ok := kindFromName(lua.CheckString(l, 1))
			if !ok {
				lua.Errorf(l, "unknown object kind '%s'", lua.CheckString(l, 1))
			}
			w.pushObjects(l, w.DB.ListAll(kind))
			return 1
		}},
	}, 0)
	l.SetGlobal("db")
}

func (w *World) registerGameTable(l *lua.State, caller Caller, owner Ref) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "schedule", Function: func(l *lua.State) int {
			delay := time.Duration(lua.CheckNumber(l, 1) * float64(time.Second))
			code := lua.CheckString(l, 2)
			w.Game.Schedule(delay, func() {
				ownerObj := w.DB.Get(owner)
				if ownerObj == nil {
					return
				}
				c := w.CallerFor(ownerObj)
				if err := w.ExecCode(code, c, owner, nil); err != nil {
					if af, ok := AsActionFailed(err); ok {
						c.Send(af.Msg)
					}
				}
			})
			return 0
		}},
	}, 0)
	l.SetGlobal("game")
}

func kindFromName(name string) (Kind, bool) {
	switch name {
	case "thing":
		return KThing, true
	case "room":
		return KRoom, true
	case "player":
		return KPlayer, true
	case "object":
		return KObject, true
	}
	return KObject, false
}

// pushObject pushes an object proxy, or nil.
func (w *World) pushObject(l *lua.State, obj *Object) {
	if obj == nil {
		l.PushNil()
		return
	}
	l.PushUserData(w.DB.MustID(obj))
	lua.SetMetaTableNamed(l, objectMeta)
}

func (w *World) pushObjects(l *lua.State, objs []*Object) {
	l.NewTable()
	for i, obj := range objs {
		w.pushObject(l, obj)
		l.RawSetInt(-2, i+1)
	}
}

// checkObject resolves a proxy argument to a live object or raises.
func (w *World) checkObject(l *lua.State, index int) *Object {
	id, ok := lua.CheckUserData(l, index, objectMeta).(Ref)
	if !ok {
		lua.Errorf(l, "argument %d is not a world object", index)
	}
	obj := w.DB.Get(id)
	if obj == nil {
		lua.Errorf(l, "object #%d no longer exists", int(id))
	}
	return obj
}

func (w *World) registerObjectMeta(l *lua.State) {
	if !lua.NewMetaTable(l, objectMeta) {
		l.Pop(1)
		return
	}
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "__index", Function: w.objIndex},
		{Name: "__newindex", Function: w.objNewIndex},
		{Name: "__tostring", Function: func(l *lua.State) int {
			l.PushString(w.checkObject(l, 1).Name)
			return 1
		}},
		{Name: "__eq", Function: func(l *lua.State) int {
			a, _ := lua.CheckUserData(l, 1, objectMeta).(Ref)
			b, _ := lua.CheckUserData(l, 2, objectMeta).(Ref)
			l.PushBoolean(a == b)
			return 1
		}},
	}, 0)
	l.Pop(1)
}

// objIndex resolves fields, methods and attributes on an object proxy.
// Methods come back as closures so scripts call them with a plain dot.
func (w *World) objIndex(l *lua.State) int {
	obj := w.checkObject(l, 1)
	key := lua.CheckString(l, 2)
	switch key {
	case "name":
		l.PushString(obj.Name)
		return 1
	case "description":
		l.PushString(obj.Description)
		return 1
	case "id":
		l.PushInteger(int(w.DB.MustID(obj)))
		return 1
	case "kind":
		l.PushString(obj.Kind.FancyName())
		return 1
	case "location":
		w.pushObject(l, w.DB.LocationOf(obj))
		return 1
	case "parent":
		w.pushObject(l, w.DB.Get(obj.Parent))
		return 1
	case "contents":
		w.pushObjects(l, w.DB.ContentsOf(obj))
		return 1
	case "exits":
		w.pushObjects(l, w.DB.ExitsOf(obj))
		return 1
	case "flags":
		pushStrings(l, obj.Flags)
		return 1
	case "powers":
		pushStrings(l, obj.Powers)
		return 1
	case "send":
		l.PushGoFunction(func(l *lua.State) int {
			w.SendTo(obj, lua.CheckString(l, 1))
			return 0
		})
		return 1
	case "emit":
		l.PushGoFunction(func(l *lua.State) int {
			if obj.Kind == KRoom {
				w.Emit(obj, lua.CheckString(l, 1))
			} else {
				w.EmitFrom(obj, lua.CheckString(l, 1))
			}
			return 0
		})
		return 1
	case "oemit":
		l.PushGoFunction(func(l *lua.State) int {
			w.OEmit(obj, lua.CheckString(l, 1))
			return 0
		})
		return 1
	case "moveto":
		l.PushGoFunction(func(l *lua.State) int {
			var dest *Object
			if !l.IsNil(1) {
				dest = w.checkObject(l, 1)
			}
			if err := w.DB.MoveTo(obj, dest); err != nil {
				lua.Errorf(l, "%s", failMarker+err.Error())
			}
			return 0
		})
		return 1
	case "hasflag":
		l.PushGoFunction(func(l *lua.State) int {
			l.PushBoolean(w.DB.HasFlag(obj, lua.CheckString(l, 1)))
			return 1
		})
		return 1
	case "setflag":
		l.PushGoFunction(func(l *lua.State) int {
			obj.SetFlag(lua.CheckString(l, 1))
			return 0
		})
		return 1
	case "resetflag":
		l.PushGoFunction(func(l *lua.State) int {
			obj.ResetFlag(lua.CheckString(l, 1))
			return 0
		})
		return 1
	case "dispatch":
		l.PushGoFunction(func(l *lua.State) int {
			event := lua.CheckString(l, 1)
			kwargs := map[string]any{}
			if l.Top() >= 2 && l.TypeOf(2) == lua.TypeTable {
				kwargs = w.tableToMap(l, 2)
			}
			if err := w.Dispatch(obj, event, kwargs); err != nil {
				if af, ok := AsActionFailed(err); ok {
					lua.Errorf(l, "%s", failMarker+af.Msg)
				}
				lua.Errorf(l, "%s", err.Error())
			}
			return 0
		})
		return 1
	case "clone":
		l.PushGoFunction(func(l *lua.State) int {
			c := obj.Clone()
			if _, err := w.DB.Add(c); err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			w.pushObject(l, c)
			return 1
		})
		return 1
	}
	v, ok := w.DB.GetAttr(obj, key)
	if !ok {
		lua.Errorf(l, "'%s' object has no attribute '%s'", obj.Kind.FancyName(), key)
		return 0
	}
	switch v.Kind {
	case VString:
		l.PushString(v.Str)
	case VNumber:
		l.PushNumber(v.Num)
	case VRef:
		w.pushObject(l, w.DB.Get(v.Ref))
	case VLambda:
		out, err := w.EvalCode(v.Str, w.CallerFor(obj), w.DB.MustID(obj), nil)
		if err != nil {
			if af, ok := AsActionFailed(err); ok {
				lua.Errorf(l, "%s", failMarker+af.Msg)
			}
			lua.Errorf(l, "%s", err.Error())
		}
		w.pushAny(l, out)
	default:
		l.PushNil()
	}
	return 1
}

// objNewIndex writes attributes. Assigning nil deletes; names starting
// with an underscore are reserved.
func (w *World) objNewIndex(l *lua.State) int {
	obj := w.checkObject(l, 1)
	key := lua.CheckString(l, 2)
	if strings.HasPrefix(key, "_") {
		lua.Errorf(l, "attribute names starting with '_' are reserved")
	}
	switch key {
	case "name":
		obj.Name = lua.CheckString(l, 3)
		return 0
	case "description":
		obj.Description = lua.CheckString(l, 3)
		return 0
	}
	switch l.TypeOf(3) {
	case lua.TypeNil:
		w.DB.DelAttr(obj, key)
	case lua.TypeString:
		s, _ := l.ToString(3)
		w.DB.SetAttr(obj, key, StringValue(s))
	case lua.TypeNumber:
		n, _ := l.ToNumber(3)
		w.DB.SetAttr(obj, key, NumberValue(n))
	case lua.TypeUserData:
		target := w.checkObject(l, 3)
		w.DB.SetAttr(obj, key, RefValue(w.DB.MustID(target)))
	default:
		lua.Errorf(l, "cannot store a %s as an attribute", lua.TypeNameOf(l, 3))
	}
	return 0
}

func pushStrings(l *lua.State, ss []string) {
	l.NewTable()
	for i, s := range ss {
		l.PushString(s)
		l.RawSetInt(-2, i+1)
	}
}

// pushAny converts a Go value to a Lua value.
func (w *World) pushAny(l *lua.State, v any) {
	switch x := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(x)
	case string:
		l.PushString(x)
	case int:
		l.PushInteger(x)
	case float64:
		l.PushNumber(x)
	case Ref:
		w.pushObject(l, w.DB.Get(x))
	case *Object:
		w.pushObject(l, x)
	case Caller:
		w.pushObject(l, x.Player())
	case []any:
		l.NewTable()
		for i, it := range x {
			w.pushAny(l, it)
			l.RawSetInt(-2, i+1)
		}
	case []string:
		pushStrings(l, x)
	case map[string]any:
		l.NewTable()
		for k, it := range x {
			w.pushAny(l, it)
			l.SetField(-2, k)
		}
	default:
		l.PushString(fmt.Sprint(x))
	}
}

// toAny converts the Lua value at index to a Go value. Object proxies come
// back as Refs.
func (w *World) toAny(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeUserData:
		if id, ok := l.ToUserData(index).(Ref); ok {
			return id
		}
		return nil
	case lua.TypeTable:
		return w.tableToAny(l, index)
	}
	return nil
}

func (w *World) tableToMap(l *lua.State, index int) map[string]any {
	out := map[string]any{}
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			k, _ := l.ToString(-2)
			out[k] = w.toAny(l, -1)
		}
		l.Pop(1)
	}
	return out
}

func (w *World) tableToAny(l *lua.State, index int) any {
	if index < 0 {
		index = l.Top() + index + 1
	}
	var seq []any
	str := map[string]any{}
	l.PushNil()
	for l.Next(index) {
		switch l.TypeOf(-2) {
		case lua.TypeNumber:
			seq = append(seq, w.toAny(l, -1))
		case lua.TypeString:
			k, _ := l.ToString(-2)
			str[k] = w.toAny(l, -1)
		}
		l.Pop(1)
	}
	if len(str) > 0 {
		for i, v := range seq {
			str[fmt.Sprint(i+1)] = v
		}
		return str
	}
	return seq
}

// ReprValue formats a script value the way eval output shows it.
func (w *World) ReprValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", x)
	case Ref:
		if obj := w.DB.Get(x); obj != nil {
			return obj.Repr(x)
		}
		return fmt.Sprintf("<#%d gone>", int(x))
	case []any:
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = w.ReprValue(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
