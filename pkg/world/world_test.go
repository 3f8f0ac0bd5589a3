package world

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testSession records everything sent to an attached player.
type testSession struct {
	name string
	out  []string
}

func (s *testSession) Send(msg string)     { s.out = append(s.out, msg) }
func (s *testSession) SessionName() string { return s.name }

func (s *testSession) last() string {
	if len(s.out) == 0 {
		return ""
	}
	return s.out[len(s.out)-1]
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := New(NewDatabase(), zaptest.NewLogger(t))
	t.Cleanup(w.Close)
	return w
}

// newTestPlayer creates a character with a recording session attached.
func newTestPlayer(t *testing.T, w *World, name string) (*Object, *testSession) {
	t.Helper()
	player, err := w.CreatePlayer(name)
	require.NoError(t, err)
	sess := &testSession{name: name}
	player.SetClient(sess)
	return player, sess
}

// run feeds one line of input through the player's available actions.
func run(t *testing.T, w *World, player *Object, line string) {
	t.Helper()
	caller := w.CallerFor(player)
	matched, err := w.Match(caller, line, w.AvailableActions(player))
	if err != nil {
		if af, ok := AsActionFailed(err); ok {
			caller.Send(af.Msg)
			return
		}
		t.Fatalf("running %q: %v", line, err)
	}
	if !matched {
		caller.Send("Huh?")
	}
}

func TestFirstPlayerGetsGodAndConfig(t *testing.T) {
	w := newTestWorld(t)
	alice, _ := newTestPlayer(t, w, "alice")
	require.Equal(t, []string{"God"}, alice.Powers)
	require.NotNil(t, w.Config())

	bob, _ := newTestPlayer(t, w, "bob")
	require.Empty(t, bob.Powers)
}

func TestLaterPlayersStartInDefaultRoom(t *testing.T) {
	w := newTestWorld(t)
	_, _ = newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "plaza")
	id, err := w.DB.Add(room)
	require.NoError(t, err)
	w.Config().DefaultRoom = id

	bob, _ := newTestPlayer(t, w, "bob")
	require.Equal(t, room, w.DB.LocationOf(bob))
}

func TestLookAtRoom(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	_, err := w.DB.Add(room)
	require.NoError(t, err)
	require.NoError(t, w.DB.MoveTo(alice, room))

	// the looker is not part of the listing, so a sole occupant sees
	// an empty room
	run(t, w, alice, "look")
	require.Equal(t, "\033[34mhall\033[0m: A blank room.", sess.out[0])
	require.Equal(t, "\nIt is empty", sess.out[1])

	bob, _ := newTestPlayer(t, w, "bob")
	require.NoError(t, w.DB.MoveTo(bob, room))
	run(t, w, alice, "look")
	require.Equal(t, "\nContents:\n - bob", sess.last())
}

func TestLookAfterDiggingAndGoing(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	start := NewObject(KRoom, "start")
	w.DB.Add(start)
	require.NoError(t, w.DB.MoveTo(alice, start))

	run(t, w, alice, "dig garden")
	run(t, w, alice, "go garden")
	require.Contains(t, sess.out, "\033[34mgarden\033[0m: A blank room.")
	require.Contains(t, sess.out, "\nIt is empty")
}

func TestLookNowhere(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	run(t, w, alice, "look")
	require.Equal(t, "You only see nothing. A lot of nothing.", sess.last())
}

func TestLookShowsExits(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	hall := NewObject(KRoom, "hall")
	cave := NewObject(KRoom, "cave")
	hallID, _ := w.DB.Add(hall)
	caveID, _ := w.DB.Add(cave)
	hall.Exits = append(hall.Exits, caveID)
	cave.Exits = append(cave.Exits, hallID)
	require.NoError(t, w.DB.MoveTo(alice, hall))

	run(t, w, alice, "look")
	require.Equal(t, "\nNearby places:\n - cave", sess.last())
}

func TestLookAtEmptyRoomFromOutside(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	hall := NewObject(KRoom, "hall")
	cave := NewObject(KRoom, "cave")
	hallID, _ := w.DB.Add(hall)
	caveID, _ := w.DB.Add(cave)
	hall.Exits = append(hall.Exits, caveID)
	cave.Exits = append(cave.Exits, hallID)
	require.NoError(t, w.DB.MoveTo(alice, hall))

	run(t, w, alice, "look cave")
	require.Contains(t, sess.out, "\nIt is empty")
}

func TestSayReachesEveryoneInRoom(t *testing.T) {
	w := newTestWorld(t)
	alice, aliceSess := newTestPlayer(t, w, "alice")
	bob, bobSess := newTestPlayer(t, w, "bob")
	room := NewObject(KRoom, "hall")
	_, err := w.DB.Add(room)
	require.NoError(t, err)
	require.NoError(t, w.DB.MoveTo(alice, room))
	require.NoError(t, w.DB.MoveTo(bob, room))

	run(t, w, alice, "say hello there")
	require.Equal(t, "alice says: hello there", aliceSess.last())
	require.Equal(t, "alice says: hello there", bobSess.last())
}

func TestUnknownCommand(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))

	run(t, w, alice, "frobnicate the gizmo")
	require.Equal(t, "Huh?", sess.last())
}

func TestTakeAndDrop(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))
	rock := NewObject(KThing, "rock")
	w.DB.Add(rock)
	require.NoError(t, w.DB.MoveTo(rock, room))

	run(t, w, alice, "take rock")
	require.Equal(t, "alice puts rock in their pocket.", sess.last())
	require.Equal(t, alice, w.DB.LocationOf(rock))

	run(t, w, alice, "drop rock")
	require.Equal(t, "alice takes rock out of their pocket and leaves it.", sess.last())
	require.Equal(t, room, w.DB.LocationOf(rock))
}

func TestTakeRefusals(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	bob, _ := newTestPlayer(t, w, "bob")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))
	require.NoError(t, w.DB.MoveTo(bob, room))

	run(t, w, alice, "take")
	require.Equal(t, "Take what?", sess.last())

	run(t, w, alice, "take bob")
	require.Equal(t, "bob won't fit in your pocket.", sess.last())

	boulder := NewObject(KThing, "boulder")
	boulder.SetFlag("big")
	w.DB.Add(boulder)
	require.NoError(t, w.DB.MoveTo(boulder, room))
	run(t, w, alice, "take boulder")
	require.Equal(t, "boulder is too big.", sess.last())

	run(t, w, alice, "take alice")
	require.Equal(t, "alice tries to fold themselves into their own pocket, but fails.", sess.last())
}

func TestGoBetweenRooms(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	hall := NewObject(KRoom, "hall")
	cave := NewObject(KRoom, "cave")
	hallID, _ := w.DB.Add(hall)
	caveID, _ := w.DB.Add(cave)
	hall.Exits = append(hall.Exits, caveID)
	cave.Exits = append(cave.Exits, hallID)
	require.NoError(t, w.DB.MoveTo(alice, hall))

	run(t, w, alice, "go to cave")
	require.Equal(t, cave, w.DB.LocationOf(alice))
	require.Contains(t, sess.out, "alice has gone to cave")
	require.Contains(t, sess.out, "alice arrives from hall")
	require.Contains(t, sess.out, "\033[34mcave\033[0m: A blank room.")

	run(t, w, alice, "go nowhere-at-all")
	require.Equal(t, "There doesn't seem to be a place named 'nowhere-at-all' nearby.", sess.last())
}

func TestDescribe(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))

	run(t, w, alice, "describe here A vast echoing hall.")
	require.Equal(t, "Added description of hall", sess.last())
	require.Equal(t, "A vast echoing hall.", room.Description)
}

func TestAmbiguousMatchAsksWhichOne(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))
	for _, name := range []string{"red key", "rusty key"} {
		k := NewObject(KThing, name)
		w.DB.Add(k)
		require.NoError(t, w.DB.MoveTo(k, room))
	}

	run(t, w, alice, "take key")
	require.Equal(t, "Which one?\nChoices are: red key, rusty key", sess.last())
}

func TestOpaqueAndInvisible(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))
	rock := NewObject(KThing, "rock")
	w.DB.Add(rock)
	require.NoError(t, w.DB.MoveTo(rock, room))
	ghost := NewObject(KThing, "ghost")
	ghost.SetFlag("invisible")
	w.DB.Add(ghost)
	require.NoError(t, w.DB.MoveTo(ghost, room))

	run(t, w, alice, "look")
	require.Equal(t, "\nContents:\n - rock", sess.last())

	room.SetFlag("opaque")
	run(t, w, alice, "look")
	require.Equal(t, "\033[34mhall\033[0m: A blank room.", sess.last())
}

func TestDescriptionTemplates(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	room.Description = "The {red}red{normal} room of {self.name}."
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))

	run(t, w, alice, "look")
	require.Equal(t, "\033[34mhall\033[0m: The \033[31mred\033[0m room of hall.", sess.out[0])
}
