package world

import (
	"github.com/po1/mushroom/pkg/match"
)

// Find matches a query against a set of candidates. Zero matches fails
// with the notfound message, several matches fail with the choice list,
// exactly one match wins.
func (w *World) Find(query string, objects []*Object, notfound string) (*Object, error) {
	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name
	}
	hits := match.List(query, names)
	switch len(hits) {
	case 0:
		if notfound == "" {
			notfound = "You see nothing like '" + query + "' here."
		}
		return nil, &ActionFailed{Msg: notfound}
	case 1:
		return objects[hits[0]], nil
	}
	chosen := make([]string, len(hits))
	for i, h := range hits {
		chosen[i] = names[h]
	}
	return nil, &ActionFailed{Msg: match.MultipleChoice(chosen)}
}

// Reachable returns everything a player can name without a #dbref: their
// pocket, their room, its contents and its exits.
func (w *World) Reachable(player *Object) []*Object {
	objs := w.DB.ContentsOf(player)
	if room := w.DB.LocationOf(player); room != nil {
		objs = append(objs, room)
		objs = append(objs, w.DB.ContentsOf(room)...)
		objs = append(objs, w.DB.ExitsOf(room)...)
	}
	return objs
}

// FindFor is Find with the player's short names in scope: "me" is the
// player, "here" is the room, which can resolve to nil when nowhere. A nil
// objects slice searches everything reachable.
func (w *World) FindFor(player *Object, query string, objects []*Object, notfound string) (*Object, error) {
	switch query {
	case "me":
		return player, nil
	case "here":
		return w.DB.LocationOf(player), nil
	}
	if objects == nil {
		objects = w.Reachable(player)
	}
	return w.Find(query, objects, notfound)
}

// resolveTarget turns a command's target token into an object: a "#id"
// token resolves anywhere in the database, anything else resolves among
// the caller's reachable objects.
func (w *World) resolveTarget(caller Caller, token string) (*Object, error) {
	if obj := w.DB.DBRef(token); obj != nil {
		return obj, nil
	}
	player := caller.Player()
	if player == nil {
		return nil, Failf("You see nothing like '%s' here.", token)
	}
	return w.FindFor(player, token, nil, "")
}
