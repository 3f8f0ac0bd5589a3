package world

// AvailableActions assembles everything a character can currently do, in
// matching order: scripted commands first so builders can shadow the
// built-ins, then the built-in commands.
//
// Scripted commands come from the character itself, from things in its
// pocket carrying the (o)wner flag, from things in the room carrying the
// (p)eer flag, from the room itself, and from things in the master room.
// Inside a thing rather than a room, only (i)nterior commands apply.
// Built-ins come from the character, its powers and its location.
func (w *World) AvailableActions(player *Object) []Action {
	var custom, builtin []Action

	for _, b := range w.playerCommands() {
		builtin = append(builtin, b)
	}
	for _, cc := range w.DB.CommandsOf(player) {
		custom = append(custom, cc.Bind(w))
	}
	for _, p := range w.DB.PowersOf(player) {
		builtin = append(builtin, w.ActionsForPower(p)...)
	}

	addThingCmds := func(container *Object, flag byte) {
		for _, thing := range w.DB.ContentsOf(container) {
			if thing.Kind != KThing {
				continue
			}
			for _, cc := range w.DB.CommandsOf(thing) {
				if flag == 0 || cc.HasFlag(flag) {
					custom = append(custom, cc.Bind(w))
				}
			}
		}
	}

	addThingCmds(player, 'o')
	if loc := w.DB.LocationOf(player); loc != nil {
		addThingCmds(loc, 'p')
		if loc.Kind == KRoom {
			for _, b := range w.roomCommands(loc) {
				builtin = append(builtin, b)
			}
			for _, cc := range w.DB.CommandsOf(loc) {
				custom = append(custom, cc.Bind(w))
			}
		} else {
			for _, b := range w.roomCommands(loc) {
				if b.HasFlag('i') {
					builtin = append(builtin, b)
				}
			}
			for _, cc := range w.DB.CommandsOf(loc) {
				if cc.HasFlag('i') {
					custom = append(custom, cc.Bind(w))
				}
			}
		}
	}

	if conf := w.Config(); conf != nil {
		if master := w.DB.Get(conf.MasterRoom); master != nil {
			addThingCmds(master, 0)
		}
	}

	return append(custom, builtin...)
}

// Match runs a line through a list of actions, first match wins. It
// reports whether anything matched; a matched action's failure comes back
// as the error.
func (w *World) Match(caller Caller, line string, actions []Action) (bool, error) {
	for _, a := range actions {
		ok, err := a.Match(caller, line)
		if ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}
