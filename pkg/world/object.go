package world

import "fmt"

// Ref is the stable integer identifier of an object in the database.
// Objects reference each other by Ref and resolve through the Database,
// which keeps the graph serializable and cycle-safe.
type Ref int

// Nothing is the null reference.
const Nothing Ref = -1

// Kind is the type tag of a world object.
type Kind int

const (
	KObject Kind = iota
	KThing
	KRoom
	KPlayer
	KConfig
)

// FancyName returns the user-visible type name.
func (k Kind) FancyName() string {
	switch k {
	case KThing:
		return "thing"
	case KRoom:
		return "room"
	case KPlayer:
		return "player"
	case KConfig:
		return "config"
	default:
		return "object"
	}
}

// defaultDescription is what a freshly made object of each kind says about itself.
func (k Kind) defaultDescription() string {
	switch k {
	case KThing:
		return "A boring non-descript thing"
	case KRoom:
		return "A blank room."
	case KPlayer:
		return "A non-descript citizen."
	case KConfig:
		return "The main game config object. No big deal."
	default:
		return "An abstract object."
	}
}

// ValueKind discriminates attribute values.
type ValueKind string

const (
	VString ValueKind = "str"
	VRef    ValueKind = "ref"
	VNumber ValueKind = "num"
	VLambda ValueKind = "lambda" // code evaluated on each access
)

// Value is a dynamic attribute value set by setattr or by scripts.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Ref  Ref       `json:"ref,omitempty"`
	Num  float64   `json:"num,omitempty"`
}

// StringValue wraps a string attribute.
func StringValue(s string) Value { return Value{Kind: VString, Str: s} }

// RefValue wraps an object reference attribute.
func RefValue(r Ref) Value { return Value{Kind: VRef, Ref: r} }

// NumberValue wraps a numeric attribute.
func NumberValue(n float64) Value { return Value{Kind: VNumber, Num: n} }

// LambdaValue wraps an expression evaluated on each access.
func LambdaValue(code string) Value { return Value{Kind: VLambda, Str: code} }

// SessionSink is the transient back-reference from a player to the session
// currently playing it. It is never persisted.
type SessionSink interface {
	Send(msg string)
	SessionName() string
}

// Object is a world database entity. It is a tagged variant: the common
// header applies to every kind, the tail fields only to the kinds noted.
type Object struct {
	Kind        Kind     `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Flags       []string `json:"flags,omitempty"`
	Parent      Ref      `json:"parent"`

	CustomCmds   map[string]*CustomCommand `json:"custom_cmds,omitempty"`
	CustomEvents map[string]*EventHandler  `json:"custom_events,omitempty"`
	Attrs        map[string]Value          `json:"attrs,omitempty"`

	Location Ref      `json:"location"`           // thing, player
	Contents []Ref    `json:"contents,omitempty"` // room, thing, player
	Exits    []Ref    `json:"exits,omitempty"`    // room
	Powers   []string `json:"powers,omitempty"`   // thing, player

	DefaultRoom Ref `json:"default_room"` // config
	MasterRoom  Ref `json:"master_room"`  // config

	client SessionSink // transient, player only
}

// NewObject creates an object of the given kind with every field at its
// fresh default. Loading backfills missing fields from these defaults.
func NewObject(kind Kind, name string) *Object {
	return &Object{
		Kind:         kind,
		Name:         name,
		Description:  kind.defaultDescription(),
		Parent:       Nothing,
		Location:     Nothing,
		DefaultRoom:  Nothing,
		MasterRoom:   Nothing,
		CustomCmds:   map[string]*CustomCommand{},
		CustomEvents: map[string]*EventHandler{},
		Attrs:        map[string]Value{},
	}
}

// normalize backfills nil maps and zero refs on a loaded object so that
// every field matches what a fresh instance would carry.
func (o *Object) normalize() {
	if o.CustomCmds == nil {
		o.CustomCmds = map[string]*CustomCommand{}
	}
	if o.CustomEvents == nil {
		o.CustomEvents = map[string]*EventHandler{}
	}
	if o.Attrs == nil {
		o.Attrs = map[string]Value{}
	}
	for _, cc := range o.CustomCmds {
		if cc.Flags == "" {
			cc.Flags = DefaultCmdFlags
		}
	}
	if o.Description == "" {
		o.Description = o.Kind.defaultDescription()
	}
	o.client = nil
}

// HasOwnFlag reports whether the flag is set directly on this object,
// ignoring parents and powers.
func (o *Object) HasOwnFlag(flag string) bool {
	for _, f := range o.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SetFlag sets a flag. Idempotent.
func (o *Object) SetFlag(flag string) {
	if !o.HasOwnFlag(flag) {
		o.Flags = append(o.Flags, flag)
	}
}

// ResetFlag clears a flag. Clearing an absent flag is a no-op.
func (o *Object) ResetFlag(flag string) {
	for i, f := range o.Flags {
		if f == flag {
			o.Flags = append(o.Flags[:i], o.Flags[i+1:]...)
			return
		}
	}
}

// Locatable reports whether the object can sit inside a container.
func (o *Object) Locatable() bool {
	return o.Kind == KThing || o.Kind == KPlayer
}

// HasContents reports whether the object can contain stuff.
func (o *Object) HasContents() bool {
	return o.Kind == KRoom || o.Kind == KThing || o.Kind == KPlayer
}

// Client returns the session currently playing this object, or nil.
func (o *Object) Client() SessionSink { return o.client }

// SetClient binds or unbinds the playing session.
func (o *Object) SetClient(c SessionSink) { o.client = c }

// Clone creates a fresh instance of the same kind and name with deep
// copies of flags, attributes, commands and event handlers. Location and
// contents are reset; scripted code is left unowned until the clone is
// added to a database, which re-binds it to the new id.
func (o *Object) Clone() *Object {
	n := NewObject(o.Kind, o.Name)
	n.Description = o.Description
	n.Parent = o.Parent
	n.Flags = append([]string(nil), o.Flags...)
	n.Powers = append([]string(nil), o.Powers...)
	n.DefaultRoom = o.DefaultRoom
	n.MasterRoom = o.MasterRoom
	for k, v := range o.Attrs {
		n.Attrs[k] = v
	}
	for k, cc := range o.CustomCmds {
		cp := *cc
		cp.Owner = Nothing
		n.CustomCmds[k] = &cp
	}
	for k, eh := range o.CustomEvents {
		cp := *eh
		cp.Owner = Nothing
		n.CustomEvents[k] = &cp
	}
	return n
}

func (o *Object) String() string { return o.Name }

// Repr formats the object the way examine and script output show it.
func (o *Object) Repr(id Ref) string {
	return fmt.Sprintf("<#%d %s %s>", id, o.Kind.FancyName(), o.Name)
}
