package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecSend(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")

	err := w.ExecCode(`send("hello from lua")`, w.CallerFor(alice), Nothing, nil)
	require.NoError(t, err)
	require.Equal(t, "hello from lua", sess.last())
}

func TestExecFailRaisesActionFailed(t *testing.T) {
	w := newTestWorld(t)
	alice, _ := newTestPlayer(t, w, "alice")

	err := w.ExecCode(`fail("not like this")`, w.CallerFor(alice), Nothing, nil)
	af, ok := AsActionFailed(err)
	require.True(t, ok, "fail() must surface as ActionFailed, got %v", err)
	assert.Equal(t, "not like this", af.Msg)
}

func TestExecErrorReportedNotFatal(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")

	err := w.ExecCode(`this is not lua at all`, w.CallerFor(alice), Nothing, nil)
	require.NoError(t, err, "script bugs must not break the caller")
	require.Contains(t, sess.last(), "exec error: ")
}

func TestScriptAttributes(t *testing.T) {
	w := newTestWorld(t)
	alice, _ := newTestPlayer(t, w, "alice")
	caller := w.CallerFor(alice)

	require.NoError(t, w.ExecCode(`self.mood = "grumpy"`, caller, Nothing, nil))
	v, ok := w.DB.GetAttr(alice, "mood")
	require.True(t, ok)
	assert.Equal(t, StringValue("grumpy"), v)

	require.NoError(t, w.ExecCode(`self.hp = 42`, caller, Nothing, nil))
	v, _ = w.DB.GetAttr(alice, "hp")
	assert.Equal(t, NumberValue(42), v)

	require.NoError(t, w.ExecCode(`self.friend = caller`, caller, Nothing, nil))
	v, _ = w.DB.GetAttr(alice, "friend")
	assert.Equal(t, RefValue(w.DB.MustID(alice)), v)

	require.NoError(t, w.ExecCode(`self.mood = nil`, caller, Nothing, nil))
	_, ok = w.DB.GetAttr(alice, "mood")
	assert.False(t, ok)
}

func TestScriptAttributeReadBack(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	caller := w.CallerFor(alice)
	alice.Attrs["title"] = StringValue("the Unready")

	require.NoError(t, w.ExecCode(`send(self.title)`, caller, Nothing, nil))
	assert.Equal(t, "the Unready", sess.last())

	err := w.ExecCode(`send(self.nonsuch)`, caller, Nothing, nil)
	require.NoError(t, err)
	assert.Contains(t, sess.last(), "has no attribute 'nonsuch'")
}

func TestScriptUnderscoreAttrsReserved(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")

	err := w.ExecCode(`self._secret = "x"`, w.CallerFor(alice), Nothing, nil)
	require.NoError(t, err)
	assert.Contains(t, sess.last(), "reserved")
	_, ok := alice.Attrs["_secret"]
	assert.False(t, ok)
}

func TestEvalExpression(t *testing.T) {
	w := newTestWorld(t)
	alice, _ := newTestPlayer(t, w, "alice")

	out, err := w.EvalCode(`1 + 2`, w.CallerFor(alice), Nothing, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)

	out, err = w.EvalCode(`self.name`, w.CallerFor(alice), Nothing, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
}

func TestScriptLambdaAttr(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	alice.Attrs["greeting"] = LambdaValue(`"hi, " .. self.name`)

	require.NoError(t, w.ExecCode(`send(self.greeting)`, w.CallerFor(alice), Nothing, nil))
	assert.Equal(t, "hi, alice", sess.last())
}

func TestScriptDBAccess(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	caller := w.CallerFor(alice)

	require.NoError(t, w.ExecCode(`local r = db.create("room", "den"); send(r.name)`, caller, Nothing, nil))
	assert.Equal(t, "den", sess.last())
	require.Len(t, w.DB.ListAll(KRoom), 1)

	require.NoError(t, w.ExecCode(`send(db.search("den")[1].kind)`, caller, Nothing, nil))
	assert.Equal(t, "room", sess.last())
}

func TestScriptMoveAndEmit(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))

	code := `here.emit("the walls tremble")`
	require.NoError(t, w.ExecCode(code, w.CallerFor(alice), Nothing, nil))
	assert.Equal(t, "the walls tremble", sess.last())
}

func TestScriptSchedule(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	id := w.DB.MustID(alice)

	code := `game.schedule(0.02, "self.pinged = 1")`
	require.NoError(t, w.ExecCode(code, w.CallerFor(alice), id, nil))

	require.Eventually(t, func() bool {
		_, ok := w.DB.GetAttr(alice, "pinged")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	_ = sess
}

func TestCustomCommandQueryAndGroups(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	id := w.DB.MustID(alice)

	cc := NewCustomCommand("poke", `send("poked: " .. query)`, id, "")
	ok, err := cc.Bind(w).Match(w.CallerFor(alice), "poke the bear")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "poked: the bear", sess.last())

	m, err := NewMatcher(`greet (\w+) (\w+)`, `send("hi " .. groups[1] .. " and " .. groups[2])`, id, "", "")
	require.NoError(t, err)
	ok, err = m.Bind(w).Match(w.CallerFor(alice), "greet tom jerry")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi tom and jerry", sess.last())

	ok, _ = m.Bind(w).Match(w.CallerFor(alice), "wave tom")
	assert.False(t, ok)
}

func TestEventHandlerInterruptsBuiltin(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	room := NewObject(KRoom, "hall")
	w.DB.Add(room)
	require.NoError(t, w.DB.MoveTo(alice, room))
	rock := NewObject(KThing, "cursed rock")
	rockID, _ := w.DB.Add(rock)
	require.NoError(t, w.DB.MoveTo(rock, room))
	rock.CustomEvents["taken"] = &EventHandler{Code: `fail("The rock refuses to budge.")`, Owner: rockID}

	run(t, w, alice, "take rock")
	assert.Equal(t, "The rock refuses to budge.", sess.last())
	assert.Equal(t, room, w.DB.LocationOf(rock))
}

func TestEventHandlerInheritedFromParent(t *testing.T) {
	w := newTestWorld(t)
	alice, sess := newTestPlayer(t, w, "alice")
	base := NewObject(KThing, "proto")
	baseID, _ := w.DB.Add(base)
	base.CustomEvents["prodded"] = &EventHandler{Code: `send("ow")`, Owner: baseID}
	child := NewObject(KThing, "copy")
	child.Parent = baseID
	w.DB.Add(child)

	err := w.Dispatch(child, "prodded", map[string]any{"caller": w.CallerFor(alice)})
	require.NoError(t, err)
	assert.Equal(t, "ow", sess.last())
}
