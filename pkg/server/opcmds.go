package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Operator commands live outside the world: they are prefixed lines
// handled by the connection itself, so they work even before a character
// is picked and even if the world is wedged.

var opCommandOrder = []string{"help", "reload", "login", "users", "kick", "save", "shutdown", "load"}

var opOnly = map[string]bool{
	"reload":   true,
	"users":    true,
	"kick":     true,
	"save":     true,
	"load":     true,
	"shutdown": true,
}

// opCommand intercepts operator lines. It reports whether the line was
// consumed; anything else falls through to the world.
func (s *Session) opCommand(line string) bool {
	prefix := s.srv.cfg.OpCommandPrefix
	if prefix == "" {
		return false
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	if !strings.HasPrefix(fields[0], prefix) {
		return false
	}
	cmd := strings.TrimPrefix(fields[0], prefix)
	rest := strings.Join(fields[1:], " ")
	if opOnly[cmd] && !s.op {
		return false
	}
	switch cmd {
	case "help":
		return s.scmdHelp()
	case "login":
		return s.scmdLogin(rest)
	case "reload":
		return s.scmdReload(rest)
	case "users":
		return s.scmdUsers()
	case "kick":
		return s.scmdKick(rest)
	case "save":
		return s.scmdSave()
	case "load":
		return s.scmdLoad()
	case "shutdown":
		return s.scmdShutdown()
	}
	return false
}

func (s *Session) scmdHelp() bool {
	var cmds []string
	for _, c := range opCommandOrder {
		if !opOnly[c] || s.op {
			cmds = append(cmds, c)
		}
	}
	s.writeRaw("List of available server commands:\n")
	s.writeRaw("  " + strings.Join(cmds, ", ") + "\n")
	return true
}

func (s *Session) scmdLogin(rest string) bool {
	if s.srv.cfg.OpPassword == "" || rest != s.srv.cfg.OpPassword {
		return false
	}
	s.op = true
	s.srv.logger.Info("operator login", zap.String("session", s.Name()))
	s.writeRaw("Successflly logged as operator\n")
	return true
}

// scmdReload is save-then-load with sessions re-bound to their characters.
// There is no code reloading in a compiled server, so the argument only has
// to be present.
func (s *Session) scmdReload(rest string) bool {
	if rest == "" {
		return false
	}
	if err := s.srv.Save(); err != nil {
		s.writeRaw(fmt.Sprintf("woops: %v\n", err))
		return true
	}
	if err := s.srv.LoadDB(); err != nil {
		s.writeRaw(fmt.Sprintf("woops: %v\n", err))
		return true
	}
	s.writeRaw("Done!\n")
	return true
}

func (s *Session) scmdUsers() bool {
	s.writeRaw("Users listing:\n")
	for _, sess := range s.srv.snapshot() {
		s.writeRaw(fmt.Sprintf("%d\t%s\t%s\n", sess.uid, sess.Name(), sess.remoteHost()))
	}
	return true
}

func (s *Session) scmdKick(rest string) bool {
	uid, err := strconv.Atoi(rest)
	if err != nil {
		s.writeRaw("Error: not a valid id\n")
		return true
	}
	target := s.srv.sessionByUID(uid)
	if target == nil {
		s.writeRaw("Error: not a valid id\n")
		return true
	}
	target.writeRaw("You have been kicked! (ouch...)\n")
	target.silent.Store(true)
	target.conn.Close()
	s.srv.broadcastExcept(target, target.Name()+" has been kicked!")
	s.srv.logger.Info("session kicked",
		zap.Int("uid", uid), zap.String("by", s.Name()))
	return true
}

func (s *Session) scmdSave() bool {
	if err := s.srv.Save(); err != nil {
		s.srv.logger.Error("save failed", zap.Error(err))
		s.writeRaw("Save failed. Check server log.\n")
		return true
	}
	s.writeRaw("Database saved\n")
	return true
}

func (s *Session) scmdLoad() bool {
	err := s.srv.LoadDB()
	switch {
	case err == nil:
		s.writeRaw("Database loaded\n")
	case os.IsNotExist(err):
		s.writeRaw("Could not load: database not found.\n")
	default:
		s.srv.logger.Error("load failed", zap.Error(err))
		s.writeRaw("Load failed. Check server log.\n")
	}
	return true
}

func (s *Session) scmdShutdown() bool {
	s.srv.logger.Info("shutdown requested", zap.String("by", s.Name()))
	s.writeRaw("Shutting down\n")
	s.srv.Shutdown()
	return true
}
