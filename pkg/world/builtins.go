package world

import (
	"regexp"

	"github.com/po1/mushroom/pkg/match"
)

var toPrefix = regexp.MustCompile(`^(?:to )?(.*)$`)
var atPrefix = regexp.MustCompile(`^(?:at )?(.*)$`)

// roomCommands returns the commands a container offers to its occupants.
func (w *World) roomCommands(room *Object) []*Builtin {
	return []*Builtin{
		NewBuiltin("say", "say <stuff>: say something out loud where you are.",
			func(caller Caller, rest string) error {
				w.Emit(room, caller.Name()+" says: "+rest)
				return nil
			}),
		NewBuiltin("emit", "emit <stuff>: broadcast text in the current room.",
			func(caller Caller, rest string) error {
				if rest == "" {
					return Failf("Emit what?")
				}
				w.Emit(room, Unescape(rest))
				return nil
			}),
		NewBuiltin("take", "take <thing>: move a thing into your pocket.",
			func(caller Caller, rest string) error {
				return w.cmdTake(room, caller, rest)
			}),
		NewBuiltin("drop", "drop <thing>: move a thing out of your pocket.",
			func(caller Caller, rest string) error {
				return w.cmdDrop(room, caller, rest)
			}),
		NewBuiltin("go", "go [to] <place>: move to a different place.",
			func(caller Caller, rest string) error {
				return w.cmdGo(caller, rest)
			}),
	}
}

func (w *World) cmdTake(room *Object, caller Caller, rest string) error {
	if rest == "" {
		return Failf("Take what?")
	}
	player := caller.Player()
	obj, err := w.Find(rest, w.DB.ContentsOf(room), "")
	if err != nil {
		return err
	}
	if obj == player {
		w.Emit(room, caller.Name()+" tries to fold themselves into their own pocket, but fails.")
		return nil
	}
	if w.DB.HasFlag(obj, "big") {
		return Failf("%s is too big.", obj.Name)
	}
	if obj.Kind != KThing && !w.DB.HasFlag(player, "big") {
		return Failf("%s won't fit in your pocket.", obj.Name)
	}
	// last chance for the thing to refuse
	if err := w.Dispatch(obj, "taken", map[string]any{"caller": caller}); err != nil {
		return err
	}
	if err := w.DB.MoveTo(obj, player); err != nil {
		return err
	}
	w.Emit(room, caller.Name()+" puts "+obj.Name+" in their pocket.")
	return nil
}

func (w *World) cmdDrop(room *Object, caller Caller, rest string) error {
	if rest == "" {
		return Failf("Drop what?")
	}
	player := caller.Player()
	obj, err := w.Find(rest, w.DB.ContentsOf(player),
		"There's nothing like '"+rest+"' in your pockets.")
	if err != nil {
		return err
	}
	if err := w.DB.MoveTo(obj, room); err != nil {
		return err
	}
	w.Emit(room, caller.Name()+" takes "+obj.Name+" out of their pocket and leaves it.")
	return nil
}

func (w *World) cmdGo(caller Caller, rest string) error {
	place := toPrefix.FindStringSubmatch(rest)[1]
	player := caller.Player()
	from := w.DB.LocationOf(player)
	dest, err := w.Find(place, w.DB.ExitsOf(from),
		"There doesn't seem to be a place named '"+place+"' nearby.")
	if err != nil {
		return err
	}
	w.Emit(from, caller.Name()+" has gone to "+dest.Name)
	w.Emit(dest, caller.Name()+" arrives from "+from.Name)
	if err := w.DB.MoveTo(player, dest); err != nil {
		return err
	}
	return w.cmdLook(caller, "here")
}

// playerCommands returns the commands every character always has.
func (w *World) playerCommands() []*Builtin {
	return []*Builtin{
		NewBuiltin("look", "look [at] [object]: see descriptions of things, people or places.",
			func(caller Caller, rest string) error {
				return w.cmdLook(caller, rest)
			}),
		w.targetCommand("describe", `(#\d+|\w+) (.*)`,
			"describe <object> <description>: give a description to a room, player or thing.",
			func(caller Caller, target *Object, args []string) error {
				target.Description = Unescape(args[0])
				caller.Send("Added description of " + target.Name)
				return nil
			}),
	}
}

func (w *World) cmdLook(caller Caller, rest string) error {
	query := atPrefix.FindStringSubmatch(rest)[1]
	if query == "" {
		query = "here"
	}
	player := caller.Player()
	notfound := "You see nothing like '" + query + "' here."
	if w.DB.LocationOf(player) == nil {
		notfound = "You see nothing but you."
	}
	obj, err := w.FindFor(player, query, nil, notfound)
	if err != nil {
		return err
	}
	if obj == nil {
		caller.Send("You only see nothing. A lot of nothing.")
		return nil
	}
	return w.Dispatch(obj, "look", map[string]any{"caller": caller})
}

// targetCommand wraps a command whose first argument names an object: the
// query is matched against the pattern, the first group resolves to a
// target ("#id" resolves anywhere, names resolve nearby) and the remaining
// groups pass through.
func (w *World) targetCommand(name, pattern, help string, fn func(caller Caller, target *Object, args []string) error) *Builtin {
	re := regexp.MustCompile(`^(?:` + pattern + `)$`)
	return NewBuiltin(name, help, func(caller Caller, rest string) error {
		m := re.FindStringSubmatch(rest)
		if m == nil {
			return Failf("Try 'help %s'.", name)
		}
		target, err := w.resolveTarget(caller, m[1])
		if err != nil {
			return err
		}
		return fn(caller, target, m[2:])
	})
}

// CreatePlayer makes a new character. The very first character ever made
// also creates the config object and gets every power. Later characters
// materialize in the default room when one is set.
func (w *World) CreatePlayer(name string) (*Object, error) {
	player := NewObject(KPlayer, name)
	if _, err := w.DB.Add(player); err != nil {
		return nil, err
	}
	conf := w.Config()
	if conf == nil {
		if _, err := w.DB.Add(NewObject(KConfig, "config")); err != nil {
			return nil, err
		}
		// first one in gets the keys
		player.Powers = append(player.Powers, PowerGod.Name)
		return player, nil
	}
	if room := w.DB.Get(conf.DefaultRoom); room != nil {
		w.Emit(room, player.Name+" materializes into the room.")
		if err := w.DB.MoveTo(player, room); err != nil {
			return nil, err
		}
	}
	return player, nil
}

// FindPlayer resolves a character name the way the play command does.
func (w *World) FindPlayer(name string) *Object {
	players := w.DB.ListAll(KPlayer)
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	hits := match.List(name, names)
	if len(hits) == 0 {
		return nil
	}
	return players[hits[0]]
}
