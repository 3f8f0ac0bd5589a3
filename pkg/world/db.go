package world

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/po1/mushroom/pkg/match"
	"github.com/po1/mushroom/pkg/mrlock"
)

// maxParentDepth bounds parent-chain walks so a cycle cannot hang lookups.
const maxParentDepth = 64

var dbrefPattern = regexp.MustCompile(`^#(\d+)$`)

// Database owns every live object in the world. It keeps the id mapping in
// both directions under a writer-priority lock, and hands out stable,
// never-reused integer ids.
type Database struct {
	lock    *mrlock.RWLock
	objects map[Ref]*Object
	ids     map[*Object]Ref
	lastID  Ref
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{
		lock:    mrlock.New(),
		objects: map[Ref]*Object{},
		ids:     map[*Object]Ref{},
	}
}

// Add inserts an object and assigns it the next id. Custom commands and
// event handlers still unowned (fresh clones) are bound to the new id.
func (d *Database) Add(obj *Object) (Ref, error) {
	if obj == nil {
		return Nothing, fmt.Errorf("db: trying to add random trash to the DB")
	}
	d.lock.AcquireW()
	defer d.lock.Release()
	id := d.lastID
	d.objects[id] = obj
	d.ids[obj] = id
	d.lastID++
	for _, cc := range obj.CustomCmds {
		if cc.Owner == Nothing {
			cc.Owner = id
		}
	}
	for _, eh := range obj.CustomEvents {
		if eh.Owner == Nothing {
			eh.Owner = id
		}
	}
	return id, nil
}

// Remove deletes an object by id. It does not cascade: callers repair
// locations, contents and exits themselves.
func (d *Database) Remove(id Ref) {
	d.lock.AcquireW()
	defer d.lock.Release()
	if obj, ok := d.objects[id]; ok {
		delete(d.ids, obj)
		delete(d.objects, id)
	}
}

// RemoveObject deletes an object by identity.
func (d *Database) RemoveObject(obj *Object) {
	d.lock.AcquireW()
	defer d.lock.Release()
	if id, ok := d.ids[obj]; ok {
		delete(d.objects, id)
		delete(d.ids, obj)
	}
}

// Get returns the object with the given id, or nil.
func (d *Database) Get(id Ref) *Object {
	d.lock.AcquireR()
	defer d.lock.Release()
	return d.objects[id]
}

// GetID returns the id of a live object.
func (d *Database) GetID(obj *Object) (Ref, bool) {
	d.lock.AcquireR()
	defer d.lock.Release()
	id, ok := d.ids[obj]
	return id, ok
}

// MustID is GetID for objects known to be in the database; it returns
// Nothing for strays, which dumpers tolerate.
func (d *Database) MustID(obj *Object) Ref {
	if id, ok := d.GetID(obj); ok {
		return id
	}
	return Nothing
}

// Search returns all objects whose name matches the prefix under the
// name-match rule and whose kind matches (KObject matches every kind).
// Results are ordered by id so output is stable.
func (d *Database) Search(prefix string, kind Kind) []*Object {
	d.lock.AcquireR()
	defer d.lock.Release()
	var ids []Ref
	for id, obj := range d.objects {
		if kind != KObject && obj.Kind != kind {
			continue
		}
		if match.Name(prefix, obj.Name) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Object, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.objects[id])
	}
	return out
}

// ListAll returns every object of the given kind.
func (d *Database) ListAll(kind Kind) []*Object {
	return d.Search("", kind)
}

// DBRef resolves a "#<digits>" token to an object, or nil.
func (d *Database) DBRef(token string) *Object {
	m := dbrefPattern.FindStringSubmatch(token)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return d.Get(Ref(n))
}

// Len returns the number of live objects.
func (d *Database) Len() int {
	d.lock.AcquireR()
	defer d.lock.Release()
	return len(d.objects)
}

// HasFlag reports whether the flag is set on the object, any ancestor, or
// (for players) any of its powers.
func (d *Database) HasFlag(obj *Object, flag string) bool {
	d.lock.AcquireR()
	defer d.lock.Release()
	return d.hasFlagLocked(obj, flag)
}

func (d *Database) hasFlagLocked(obj *Object, flag string) bool {
	cur := obj
	for depth := 0; cur != nil && depth < maxParentDepth; depth++ {
		if cur.HasOwnFlag(flag) {
			return true
		}
		cur = d.objects[cur.Parent]
	}
	if obj.Kind == KPlayer {
		for _, p := range d.powersLocked(obj) {
			for _, f := range p.Flags {
				if f == flag {
					return true
				}
			}
		}
	}
	return false
}

// GetAttr looks up an attribute, falling through the parent chain.
// Underscore-prefixed names never fall through and never resolve.
func (d *Database) GetAttr(obj *Object, name string) (Value, bool) {
	if len(name) > 0 && name[0] == '_' {
		return Value{}, false
	}
	d.lock.AcquireR()
	defer d.lock.Release()
	cur := obj
	for depth := 0; cur != nil && depth < maxParentDepth; depth++ {
		if v, ok := cur.Attrs[name]; ok {
			return v, true
		}
		cur = d.objects[cur.Parent]
	}
	return Value{}, false
}

// SetAttr writes an attribute directly on an object. Scripts can run off
// the session goroutine, so the attribute map is only touched under the
// write lock.
func (d *Database) SetAttr(obj *Object, name string, v Value) {
	d.lock.AcquireW()
	defer d.lock.Release()
	obj.Attrs[name] = v
}

// DelAttr removes an object's own attribute, reporting whether it existed.
func (d *Database) DelAttr(obj *Object, name string) bool {
	d.lock.AcquireW()
	defer d.lock.Release()
	if _, ok := obj.Attrs[name]; !ok {
		return false
	}
	delete(obj.Attrs, name)
	return true
}

// CommandsOf returns the custom commands available on an object, including
// inherited ones. Inherited commands are re-bound so their code runs with
// the child as owner. Order is stable: own commands by name, then parents.
func (d *Database) CommandsOf(obj *Object) []*CustomCommand {
	d.lock.AcquireR()
	defer d.lock.Release()
	var out []*CustomCommand
	seen := map[string]bool{}
	id := d.ids[obj]
	cur := obj
	for depth := 0; cur != nil && depth < maxParentDepth; depth++ {
		names := make([]string, 0, len(cur.CustomCmds))
		for name := range cur.CustomCmds {
			if !seen[name] {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			seen[name] = true
			cc := cur.CustomCmds[name]
			if cur != obj {
				cp := *cc
				cp.Owner = id
				cc = &cp
			}
			out = append(out, cc)
		}
		cur = d.objects[cur.Parent]
	}
	return out
}

// EventHandlersOf returns the scripted event handlers of an object, with
// parents underneath: a child handler shadows the parent's for the same event.
func (d *Database) EventHandlersOf(obj *Object) map[string]*EventHandler {
	d.lock.AcquireR()
	defer d.lock.Release()
	out := map[string]*EventHandler{}
	id := d.ids[obj]
	var chain []*Object
	cur := obj
	for depth := 0; cur != nil && depth < maxParentDepth; depth++ {
		chain = append(chain, cur)
		cur = d.objects[cur.Parent]
	}
	// Apply from the root down so children shadow parents.
	for i := len(chain) - 1; i >= 0; i-- {
		for name, eh := range chain[i].CustomEvents {
			if chain[i] != obj {
				cp := *eh
				cp.Owner = id
				eh = &cp
			}
			out[name] = eh
		}
	}
	return out
}

// ContentsOf resolves an object's contents refs to live objects, skipping
// stale entries.
func (d *Database) ContentsOf(obj *Object) []*Object {
	d.lock.AcquireR()
	defer d.lock.Release()
	out := make([]*Object, 0, len(obj.Contents))
	for _, ref := range obj.Contents {
		if c := d.objects[ref]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ExitsOf resolves a room's exits, skipping references to demolished rooms.
func (d *Database) ExitsOf(room *Object) []*Object {
	d.lock.AcquireR()
	defer d.lock.Release()
	out := make([]*Object, 0, len(room.Exits))
	for _, ref := range room.Exits {
		if r := d.objects[ref]; r != nil && r.Kind == KRoom {
			out = append(out, r)
		}
	}
	return out
}

// LocationOf resolves an object's location, or nil.
func (d *Database) LocationOf(obj *Object) *Object {
	if !obj.Locatable() || obj.Location == Nothing {
		return nil
	}
	return d.Get(obj.Location)
}

// MoveTo relocates obj into container, keeping location/contents
// bidirectionally consistent. A nil container moves the object nowhere.
func (d *Database) MoveTo(obj *Object, container *Object) error {
	if !obj.Locatable() {
		return Failf("%s cannot be moved.", obj.Name)
	}
	d.lock.AcquireW()
	defer d.lock.Release()
	id, ok := d.ids[obj]
	if !ok {
		return fmt.Errorf("db: moving an object that is not in the database")
	}
	if old := d.objects[obj.Location]; old != nil {
		old.Contents = removeRef(old.Contents, id)
	}
	if container == nil {
		obj.Location = Nothing
		return nil
	}
	cid, ok := d.ids[container]
	if !ok {
		return fmt.Errorf("db: moving into an object that is not in the database")
	}
	obj.Location = cid
	container.Contents = append(container.Contents, id)
	return nil
}

// powersLocked resolves a bearer's power names to definitions: own powers,
// inherited powers, and powers of things in the bearer's pockets.
func (d *Database) powersLocked(obj *Object) []*Power {
	var out []*Power
	cur := obj
	for depth := 0; cur != nil && depth < maxParentDepth; depth++ {
		for _, name := range cur.Powers {
			if p := LookupPower(name); p != nil {
				out = append(out, p)
			}
		}
		cur = d.objects[cur.Parent]
	}
	for _, ref := range obj.Contents {
		thing := d.objects[ref]
		if thing == nil || thing.Kind != KThing {
			continue
		}
		for _, name := range thing.Powers {
			if p := LookupPower(name); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// PowersOf returns the flattened powers of a player or thing.
func (d *Database) PowersOf(obj *Object) []*Power {
	d.lock.AcquireR()
	defer d.lock.Release()
	return d.powersLocked(obj)
}

func removeRef(refs []Ref, id Ref) []Ref {
	for i, r := range refs {
		if r == id {
			return append(refs[:i], refs[i+1:]...)
		}
	}
	return refs
}
