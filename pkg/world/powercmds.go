package world

// The commands below are granted by powers rather than carried by every
// player. Message texts match what long-time builders expect.

// ActionsForPower returns the bound commands a power grants.
func (w *World) ActionsForPower(p *Power) []Action {
	var out []Action
	for _, name := range p.CommandNames() {
		if cmd := w.powerCommand(name); cmd != nil {
			out = append(out, cmd)
		}
	}
	return out
}

func (w *World) powerCommand(name string) *Builtin {
	switch name {
	case "examine":
		return w.targetCommand("examine", `(#\d+|[^#].*)`,
			"examine <object>: display commands and attributes of an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, _ []string) error {
				caller.Send(w.PrettyFormat(target))
				return nil
			})
	case "setattr":
		return w.targetCommand("setattr", `(#\d+|\w+) ([^ ]+) (lambda:\s*)?(.*)`,
			"setattr <object> <attribute> <value>: set an attribute on an object.\n<object> can be a # database ID.\n<value> can be a # database ID, otherwise it is a string.",
			func(caller Caller, target *Object, args []string) error {
				attr, lbd, raw := args[0], args[1], args[2]
				var value Value
				switch {
				case lbd != "":
					value = LambdaValue(raw)
				default:
					if ref := w.DB.DBRef(raw); ref != nil {
						value = RefValue(w.DB.MustID(ref))
					} else {
						value = StringValue(raw)
					}
				}
				w.DB.SetAttr(target, attr, value)
				caller.Send("Set attribute '" + attr + "' on " + target.Name)
				return nil
			})
	case "delattr":
		return w.targetCommand("delattr", `(#\d+|\w+) ([^ ]+)`,
			"delattr <object> <attribute>: delete an attribute on an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				attr := args[0]
				if !w.DB.DelAttr(target, attr) {
					return Failf("No attribute '%s' on %s", attr, target.Name)
				}
				caller.Send("Deleted attribute '" + attr + "' on " + target.Name)
				return nil
			})
	case "setflag":
		return w.targetCommand("setflag", `(#\d+|\w+) (\w+)`,
			"setflag <object> <flag>: set a flag on an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				target.SetFlag(args[0])
				caller.Send("Set flag '" + args[0] + "' on " + target.Name)
				return nil
			})
	case "resetflag":
		return w.targetCommand("resetflag", `(#\d+|\w+) (\w+)`,
			"resetflag <object> <flag>: reset a flag on an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				target.ResetFlag(args[0])
				caller.Send("Reset flag '" + args[0] + "' on " + target.Name)
				return nil
			})
	case "eval":
		return NewBuiltin("eval", "eval <string>: evaluate the string as raw code.",
			func(caller Caller, rest string) error {
				out, err := w.EvalCode(rest, caller, w.DB.MustID(caller.Player()), nil)
				if err != nil {
					return err
				}
				caller.Send(w.ReprValue(out))
				return nil
			})
	case "exec":
		return NewBuiltin("exec", "exec <string>: execute raw code.",
			func(caller Caller, rest string) error {
				return w.ExecCode(Unescape(rest), caller, w.DB.MustID(caller.Player()), nil)
			})
	case "cmd":
		return w.targetCommand("cmd", `(#\d+|\w+) ([^ :]+)(?::([opi]+))? (.*)`,
			"cmd <object> <cmd>[:<flags>] <code>: add a command to an object.\n<flags> can be one or more of (o)wner, (p)eer, (i)interior.",
			func(caller Caller, target *Object, args []string) error {
				name, flags, code := args[0], args[1], args[2]
				id := w.DB.MustID(target)
				target.CustomCmds[name] = NewCustomCommand(name, Unescape(code), id, flags)
				caller.Send("Added command '" + name + "' to " + target.Name)
				return nil
			})
	case "match":
		return w.targetCommand("match", `(#\d+|\w+) (?:(\w+)(?::([opi]+))?:)?("(?:[^"]*)"|'(?:[^']*)') (.*)`,
			"match <object> [<name>[:<flags>]:]<match regexp> <code>: add a matcher to an object.\n<object> can be a # database ID.\n<flags> can be one or more of (o)wner, (p)eer, (i)interior.",
			func(caller Caller, target *Object, args []string) error {
				name, flags, quoted, code := args[0], args[1], args[2], args[3]
				pattern := quoted[1 : len(quoted)-1]
				action, err := NewMatcher(pattern, Unescape(code), w.DB.MustID(target), name, flags)
				if err != nil {
					return err
				}
				target.CustomCmds[action.Name] = action
				caller.Send("Added match command '" + action.Name + "' to " + target.Name)
				return nil
			})
	case "delcmd":
		return w.targetCommand("delcmd", `(#\d+|\w+) ([^ ]+)`,
			"delcmd <object> <cmd>: delete a command or match.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				name := args[0]
				if _, ok := target.CustomCmds[name]; !ok {
					return Failf("%s does not have command %s", target.Name, name)
				}
				delete(target.CustomCmds, name)
				caller.Send("Deleted command '" + name + "' on " + target.Name)
				return nil
			})
	case "setevent":
		return w.targetCommand("setevent", `(#\d+|\w+) ([^ ]+) (.*)`,
			"setevent <object> <event> <code>: set an event handler on an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				event, code := args[0], args[1]
				target.CustomEvents[event] = &EventHandler{
					Code:  Unescape(code),
					Owner: w.DB.MustID(target),
				}
				caller.Send("Set event handler '" + event + "' on " + target.Name)
				return nil
			})
	case "delevent":
		return w.targetCommand("delevent", `(#\d+|\w+) ([^ ]+)`,
			"delevent <object> <event>: delete an event handler on an object.\n<object> can be a # database ID.",
			func(caller Caller, target *Object, args []string) error {
				event := args[0]
				if _, ok := target.CustomEvents[event]; !ok {
					return Failf("%s does not have event handler %s", target.Name, event)
				}
				delete(target.CustomEvents, event)
				caller.Send("Deleted event handler '" + event + "' on " + target.Name)
				return nil
			})
	case "dig":
		return NewBuiltin("dig", "dig <room name>: make a new room.",
			func(caller Caller, rest string) error {
				if rest == "" {
					return Failf("Dig what? Try help dig")
				}
				room := NewObject(KRoom, rest)
				if _, err := w.DB.Add(room); err != nil {
					return err
				}
				player := caller.Player()
				loc := w.DB.LocationOf(player)
				if loc == nil {
					caller.Send("In a flash of darkness, a new place appears around you.")
					return w.DB.MoveTo(player, room)
				}
				room.Exits = append(room.Exits, w.DB.MustID(loc))
				loc.Exits = append(loc.Exits, w.DB.MustID(room))
				w.Emit(loc, caller.Name()+" digs a hole that leads to "+room.Name)
				return nil
			})
	case "demolish":
		return NewBuiltin("demolish", "demolish <room>: demolish a room.",
			func(caller Caller, rest string) error {
				if rest == "" {
					return Failf("Demolish what?")
				}
				player := caller.Player()
				loc := w.DB.LocationOf(player)
				if loc == nil || loc.Kind != KRoom {
					return Failf("There are no rooms to demolish around here.")
				}
				room, err := w.Find(rest, w.DB.ExitsOf(loc), "")
				if err != nil {
					return err
				}
				w.Emit(room, caller.Name()+" blew up the place!")
				w.Emit(room, "The explosion blows you towards "+loc.Name)
				w.Emit(loc, caller.Name()+" demolished "+room.Name+"!")
				loc.Exits = removeRef(loc.Exits, w.DB.MustID(room))
				for _, o := range w.DB.ContentsOf(room) {
					if err := w.DB.MoveTo(o, loc); err != nil {
						return err
					}
				}
				w.DB.RemoveObject(room)
				return nil
			})
	case "link":
		return NewBuiltin("link", "link [to] <place>: open an exit towards the place.",
			func(caller Caller, rest string) error {
				player := caller.Player()
				loc := w.DB.LocationOf(player)
				if loc == nil {
					return Failf("Bawoops, you're nowhere.")
				}
				where := toPrefix.FindStringSubmatch(rest)[1]
				dest, err := w.Find(where, w.DB.ListAll(KRoom), "")
				if err != nil {
					return err
				}
				loc.Exits = append(loc.Exits, w.DB.MustID(dest))
				w.Emit(loc, caller.Name()+" opens a new path towards "+dest.Name)
				return nil
			})
	case "unlink":
		return NewBuiltin("unlink", "unlink <place>: remove the exit to that place.",
			func(caller Caller, rest string) error {
				player := caller.Player()
				loc := w.DB.LocationOf(player)
				if loc == nil {
					return Failf("There's nothing here.")
				}
				if rest == "" {
					return Failf("Unlink what?")
				}
				dest, err := w.Find(rest, w.DB.ExitsOf(loc), "")
				if err != nil {
					return err
				}
				loc.Exits = removeRef(loc.Exits, w.DB.MustID(dest))
				w.Emit(loc, caller.Name()+" removed the exit to "+dest.Name)
				return nil
			})
	case "teleport":
		return NewBuiltin("teleport", "teleport [to] <place>: place can be a # database ID",
			func(caller Caller, rest string) error {
				place := toPrefix.FindStringSubmatch(rest)[1]
				if place == "" {
					return Failf("Teleport to where?")
				}
				var dest *Object
				if ref := w.DB.DBRef(place); ref != nil {
					if ref.Kind != KRoom {
						return Failf("%s is not a room!", ref.Name)
					}
					dest = ref
				} else {
					var err error
					dest, err = w.Find(place, w.DB.ListAll(KRoom), "")
					if err != nil {
						return err
					}
				}
				player := caller.Player()
				w.EmitFrom(player, caller.Name()+" vanishes. Gone.")
				if err := w.DB.MoveTo(player, dest); err != nil {
					return err
				}
				if err := w.cmdLook(caller, "here"); err != nil {
					return err
				}
				w.Emit(dest, caller.Name()+" pops into the room. Poof.")
				return nil
			})
	case "make":
		return NewBuiltin("make", "make <thing name>: make things. Just regular things.",
			func(caller Caller, rest string) error {
				player := caller.Player()
				loc := w.DB.LocationOf(player)
				if loc == nil {
					return Failf("There is nowehere to make things into.")
				}
				thing := NewObject(KThing, rest)
				if _, err := w.DB.Add(thing); err != nil {
					return err
				}
				if err := w.DB.MoveTo(thing, loc); err != nil {
					return err
				}
				w.Emit(loc, caller.Name()+" makes "+rest+" appear out of thin air.")
				return nil
			})
	case "destroy":
		return w.targetCommand("destroy", `(#\d+|\w+)`,
			"destroy <thing>: destroy things.",
			func(caller Caller, target *Object, _ []string) error {
				if target.Kind != KThing {
					return Failf("You can't destroy that.")
				}
				w.EmitFrom(caller.Player(), caller.Name()+" violently destroyed "+target.Name+"!")
				if err := w.DB.MoveTo(target, nil); err != nil {
					return err
				}
				w.DB.RemoveObject(target)
				return nil
			})
	}
	return nil
}
