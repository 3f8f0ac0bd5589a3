package server

import (
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/po1/mushroom/pkg/world"
)

// Session is one connected client. Until it picks a character with the
// play command it only has the session-level commands; after that the
// character's whole world surface is in reach.
//
// The name, player and pending fields are only touched on the game loop.
type Session struct {
	srv  *Server
	conn net.Conn
	uid  int

	wmu sync.Mutex // serializes writes to conn

	nmu  sync.Mutex
	name string

	player  *world.Object
	pending []*world.Answer

	op     bool
	silent atomic.Bool
}

func newSession(srv *Server, conn net.Conn, uid int) *Session {
	s := &Session{srv: srv, conn: conn, uid: uid}
	s.setName(s.remoteHost())
	return s
}

func (s *Session) remoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "?"
}

// remoteHost is the client IP, the session's name until a character is
// picked.
func (s *Session) remoteHost() string {
	if host, _, err := net.SplitHostPort(s.remoteAddr()); err == nil {
		return host
	}
	return s.remoteAddr()
}

func (s *Session) setName(name string) {
	s.nmu.Lock()
	s.name = name
	s.nmu.Unlock()
}

// Name implements world.Caller.
func (s *Session) Name() string {
	s.nmu.Lock()
	defer s.nmu.Unlock()
	return s.name
}

// SessionName implements world.SessionSink.
func (s *Session) SessionName() string { return s.Name() }

// Player implements world.Caller.
func (s *Session) Player() *world.Object { return s.player }

// Send delivers one line to the client. Write errors are logged and
// swallowed, the read loop notices a dead connection on its own.
func (s *Session) Send(msg string) {
	s.writeRaw(msg + "\n")
}

func (s *Session) writeRaw(msg string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.conn.Write([]byte(msg)); err != nil {
		s.srv.logger.Debug("write failed", zap.String("to", s.Name()), zap.Error(err))
	}
}

// runWorld handles one input line on the game loop.
func (s *Session) runWorld(line string) error {
	var err error
	s.srv.submitWait(func() {
		err = s.handleInput(line)
	})
	return err
}

func (s *Session) handleInput(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	caller := world.Caller(s)
	if s.player != nil {
		caller = s.srv.world.CallerFor(s.player)
	}
	matched, err := s.srv.world.Match(caller, line, s.availableActions())
	if err != nil {
		if af, ok := world.AsActionFailed(err); ok {
			caller.Send(af.Msg)
			return nil
		}
		return err
	}
	if !matched {
		s.Send("Huh?")
	}
	return nil
}

// availableActions is the session surface plus, when playing, everything
// the character can do.
func (s *Session) availableActions() []world.Action {
	actions := s.sessionActions()
	if s.player != nil {
		actions = append(actions, s.srv.world.AvailableActions(s.player)...)
	}
	return actions
}

func (s *Session) sessionActions() []world.Action {
	actions := []world.Action{
		world.NewBuiltin("help",
			"syntax: help <command>\nDisplays help topics for the given command.",
			s.cmdHelp),
	}
	// one character per session: play goes away once one is bound
	if s.player == nil {
		actions = append(actions, world.NewBuiltin("play",
			"syntax: play <name>\nStart playing as the given character. If the character is not\nfound, the player will be invited to create a new one.",
			s.cmdPlay))
	}
	if s.srv.scroll != nil && s.player != nil {
		actions = append(actions, world.NewBuiltin("recall",
			"syntax: recall [lines]\nReplay recent activity from the place you are in.",
			s.cmdRecall))
	}
	for _, a := range s.pending {
		actions = append(actions, a)
	}
	return actions
}

// addAnswer arms a one-shot answer that removes itself once matched.
func (s *Session) addAnswer(a *world.Answer) {
	a.SetCleanup(func() { s.removeAnswer(a) })
	s.pending = append(s.pending, a)
}

func (s *Session) removeAnswer(a *world.Answer) {
	for i, p := range s.pending {
		if p == a {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func (s *Session) cmdHelp(caller world.Caller, rest string) error {
	var named []world.NamedAction
	for _, a := range s.availableActions() {
		if n, ok := a.(world.NamedAction); ok {
			named = append(named, n)
		}
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		names := make([]string, 0, len(named))
		for _, n := range named {
			names = append(names, n.ActionName())
		}
		sort.Strings(names)
		caller.Send("Available commands:")
		caller.Send("  " + strings.Join(names, ", "))
		return nil
	}
	query := strings.ToLower(fields[0])
	for _, n := range named {
		if strings.HasPrefix(strings.ToLower(n.ActionName()), query) {
			caller.Send(n.HelpText())
			return nil
		}
	}
	caller.Send("Command " + query + " was not found")
	return nil
}

func (s *Session) cmdPlay(caller world.Caller, rest string) error {
	if rest == "" {
		caller.Send("Play who?")
		return nil
	}
	char := s.srv.world.FindPlayer(rest)
	if char == nil {
		name := rest
		caller.Send("Couldn't find a character named " + name + ".\nCreate it?")
		s.addAnswer(world.NewYesNo(
			func(c world.Caller) error {
				char, err := s.srv.world.CreatePlayer(name)
				if err != nil {
					return err
				}
				return s.playAs(char)
			},
			func(world.Caller) error { return nil },
		))
		return nil
	}
	return s.playAs(char)
}

func (s *Session) playAs(char *world.Object) error {
	if char.Client() != nil {
		s.Send(char.Name + " is already online.")
		return nil
	}
	s.player = char
	char.SetClient(s)
	s.setName(char.Name)
	s.Send("You are now playing as " + char.Name)
	s.srv.broadcastExcept(s, char.Name+" logged in.")
	return s.srv.world.Dispatch(char, "connect",
		map[string]any{"caller": s.srv.world.CallerFor(char)})
}

func (s *Session) cmdRecall(caller world.Caller, rest string) error {
	room := s.srv.world.DB.LocationOf(s.player)
	if room == nil {
		return world.Failf("There is nothing to recall here.")
	}
	n := s.srv.cfg.ScrollbackLines
	if rest != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || parsed <= 0 {
			return world.Failf("Recall how many lines?")
		}
		n = parsed
	}
	lines, err := s.srv.scroll.Recent(s.srv.world.DB.MustID(room), n)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		caller.Send("Nothing has happened here yet.")
		return nil
	}
	for _, line := range lines {
		caller.Send(line)
	}
	return nil
}
