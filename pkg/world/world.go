package world

import (
	"go.uber.org/zap"
)

// World ties the object database to the event loop and the scripting
// runtime. Everything a session or script does to the game goes through
// here.
type World struct {
	DB   *Database
	Game *Game

	logger *zap.Logger
	bus    *Bus
}

// New creates a world around an existing database and starts its event
// loop.
func New(db *Database, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		DB:     db,
		Game:   NewGame(logger),
		logger: logger,
		bus:    NewBus(),
	}
}

// Close stops the event loop and the room feed.
func (w *World) Close() {
	w.Game.Stop()
	w.bus.Close()
}

// Bus returns the room text feed, for scrollback and similar observers.
func (w *World) Bus() *Bus { return w.bus }

// Logger exposes the world's logger to subsystems built on top.
func (w *World) Logger() *zap.Logger { return w.logger }

// Config returns the config object, or nil before the first player exists.
func (w *World) Config() *Object {
	confs := w.DB.ListAll(KConfig)
	if len(confs) == 0 {
		return nil
	}
	return confs[0]
}

// Format renders template text with the color names in scope plus the
// given context.
func (w *World) Format(s string, ctx map[string]any) (string, error) {
	env := ColorEnv()
	for k, v := range ctx {
		env[k] = v
	}
	return RenderTemplate(s, env)
}

// objectCaller lets a plain object act as the caller of an event handler.
// Text sent to it reaches the playing session if there is one, otherwise
// it is logged and dropped.
type objectCaller struct {
	w   *World
	obj *Object
}

func (c *objectCaller) Send(msg string) {
	if cl := c.obj.Client(); cl != nil {
		cl.Send(msg)
		return
	}
	c.w.logger.Warn("text sent to unattended object",
		zap.String("object", c.obj.Repr(c.w.DB.MustID(c.obj))),
		zap.String("text", msg))
}

func (c *objectCaller) Name() string    { return c.obj.Name }
func (c *objectCaller) Player() *Object { return c.obj }

// CallerFor wraps an object as a Caller.
func (w *World) CallerFor(obj *Object) Caller {
	return &objectCaller{w: w, obj: obj}
}

// SendTo delivers text to an object, through its session when attached.
func (w *World) SendTo(obj *Object, msg string) {
	w.CallerFor(obj).Send(msg)
}

// Emit formats text and displays it to everything in the room, going
// through each occupant's "emit" event so scripted objects can react.
func (w *World) Emit(room *Object, msg string) {
	if room == nil {
		return
	}
	text, err := w.Format(msg, nil)
	if err != nil {
		text = msg
	}
	w.bus.Publish(w.DB.MustID(room), text)
	for _, obj := range w.DB.ContentsOf(room) {
		if err := w.Dispatch(obj, "emit", map[string]any{"text": text}); err != nil {
			w.logger.Warn("emit handler failed",
				zap.String("object", obj.Name), zap.Error(err))
		}
	}
}

// EmitFrom displays text in the room an object is in.
func (w *World) EmitFrom(obj *Object, msg string) {
	w.Emit(w.DB.LocationOf(obj), msg)
}

// OEmit displays text to everything in an object's room except the object
// itself.
func (w *World) OEmit(obj *Object, msg string) {
	room := w.DB.LocationOf(obj)
	if room == nil {
		return
	}
	for _, other := range w.DB.ContentsOf(room) {
		if other == obj {
			continue
		}
		if err := w.Dispatch(other, "emit", map[string]any{"text": msg}); err != nil {
			w.logger.Warn("emit handler failed",
				zap.String("object", other.Name), zap.Error(err))
		}
	}
}

// Dispatch fires an event on an object: first its scripted handler if it
// has one, then the built-in behavior. A handler failing with ActionFailed
// suppresses the built-in behavior and propagates.
func (w *World) Dispatch(obj *Object, event string, kwargs map[string]any) error {
	if eh := w.DB.EventHandlersOf(obj)[event]; eh != nil {
		caller := w.CallerFor(obj)
		if c, ok := kwargs["caller"].(Caller); ok {
			caller = c
		}
		if err := w.ExecCode(eh.Code, caller, eh.Owner, kwargs); err != nil {
			return err
		}
	}
	return w.builtinEvent(obj, event, kwargs)
}

func (w *World) builtinEvent(obj *Object, event string, kwargs map[string]any) error {
	switch event {
	case "look":
		caller, ok := kwargs["caller"].(Caller)
		if !ok {
			caller = w.CallerFor(obj)
		}
		w.describeTo(caller, obj)
	case "emit":
		text, _ := kwargs["text"].(string)
		if obj.Kind == KPlayer || obj.Client() != nil {
			w.SendTo(obj, text)
		}
	case "connect":
		if obj.Kind == KPlayer {
			return w.cmdLook(w.CallerFor(obj), "here")
		}
	}
	return nil
}

// describeTo renders an object's description and visible surroundings to
// the caller.
func (w *World) describeTo(caller Caller, obj *Object) {
	desc, err := w.Format(obj.Description, map[string]any{"self": w.tmplObject(obj)})
	if err != nil {
		desc = obj.Description
	}
	caller.Send("\033[34m" + obj.Name + "\033[0m: " + desc)
	if w.DB.HasFlag(obj, "opaque") {
		return
	}
	var visible []*Object
	for _, thing := range w.DB.ContentsOf(obj) {
		// whoever is looking knows they are there
		if thing == caller.Player() || w.DB.HasFlag(thing, "invisible") {
			continue
		}
		visible = append(visible, thing)
	}
	if len(visible) > 0 {
		lines := "\nContents:"
		for _, thing := range visible {
			lines += "\n - " + thing.Name
		}
		caller.Send(lines)
	} else if obj.Kind == KRoom {
		caller.Send("\nIt is empty")
	}
	if obj.Kind == KRoom {
		if exits := w.DB.ExitsOf(obj); len(exits) > 0 {
			lines := "\nNearby places:"
			for _, room := range exits {
				lines += "\n - " + room.Name
			}
			caller.Send(lines)
		}
	}
}

// tmplObject adapts an object for template field access.
type tmplObject struct {
	w   *World
	obj *Object
}

func (w *World) tmplObject(obj *Object) *tmplObject {
	return &tmplObject{w: w, obj: obj}
}

func (t *tmplObject) String() string { return t.obj.Name }

func (t *tmplObject) TemplateField(name string) (any, bool) {
	switch name {
	case "name":
		return t.obj.Name, true
	case "description":
		return t.obj.Description, true
	case "id":
		return int(t.w.DB.MustID(t.obj)), true
	case "kind":
		return t.obj.Kind.FancyName(), true
	case "location":
		if loc := t.w.DB.LocationOf(t.obj); loc != nil {
			return t.w.tmplObject(loc), true
		}
		return nil, true
	case "contents":
		var out []any
		for _, o := range t.w.DB.ContentsOf(t.obj) {
			out = append(out, t.w.tmplObject(o))
		}
		return out, true
	case "exits":
		var out []any
		for _, o := range t.w.DB.ExitsOf(t.obj) {
			out = append(out, t.w.tmplObject(o))
		}
		return out, true
	}
	v, ok := t.w.DB.GetAttr(t.obj, name)
	if !ok {
		return nil, false
	}
	switch v.Kind {
	case VString:
		return v.Str, true
	case VNumber:
		return v.Num, true
	case VRef:
		if o := t.w.DB.Get(v.Ref); o != nil {
			return t.w.tmplObject(o), true
		}
		return nil, true
	case VLambda:
		code := v.Str
		return func() any {
			out, err := t.w.EvalCode(code, t.w.CallerFor(t.obj), t.w.DB.MustID(t.obj), nil)
			if err != nil {
				return ""
			}
			return out
		}, true
	}
	return nil, false
}
