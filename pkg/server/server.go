// Package server exposes a world over plain TCP. Each connection gets a
// session that reads lines, runs them through the world's dispatch on the
// game loop, and writes back whatever the world says.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/po1/mushroom/pkg/scrollback"
	"github.com/po1/mushroom/pkg/world"
)

// Server accepts connections and keeps the session registry.
type Server struct {
	cfg     Config
	world   *world.World
	scroll  *scrollback.Store
	logger  *zap.Logger
	metrics *Metrics
	motd    *MOTD

	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[int]*Session
	lastUID  int
}

// New wires a server around a running world. scroll may be nil when
// scrollback is not configured.
func New(cfg Config, w *world.World, scroll *scrollback.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		world:    w,
		scroll:   scroll,
		logger:   logger,
		metrics:  NewMetrics(w.DB.Len),
		motd:     NewMOTD(cfg.MOTDFile, logger),
		sessions: map[int]*Session{},
	}
}

// ListenAndServe listens on the configured address and serves until the
// context is canceled or an operator shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop, the autosave loop and the metrics endpoint
// on the given listener. It saves the world one last time on the way out.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()
	defer s.motd.Close()

	s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var wg sync.WaitGroup
		defer wg.Wait()
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return err
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleConn(conn)
			}()
		}
	})
	if s.cfg.AutosavePeriod > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Duration(s.cfg.AutosavePeriod) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := s.Save(); err != nil {
						s.logger.Error("autosave failed", zap.Error(err))
						continue
					}
					s.Broadcast("Saving the world...")
				}
			}
		})
	}
	if s.cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		msrv := &http.Server{Addr: s.cfg.MetricsAddress, Handler: mux}
		g.Go(func() error {
			err := msrv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			return msrv.Close()
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		s.Broadcast("Shutting down...")
		ln.Close()
		s.closeAll()
		return nil
	})

	err := g.Wait()
	if serr := s.Save(); serr != nil {
		s.logger.Error("final save failed", zap.Error(serr))
		if err == nil {
			err = serr
		}
	}
	return err
}

// Shutdown asks a serving server to stop.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Save snapshots the world to the configured database file.
func (s *Server) Save() error {
	if err := s.world.DB.Dump(s.cfg.DBFile); err != nil {
		return err
	}
	s.metrics.savesTotal.Inc()
	return nil
}

// LoadDB replaces the world from the database file and reattaches playing
// sessions to their characters, which are fresh objects after a load.
func (s *Server) LoadDB() error {
	var err error
	s.submitWait(func() {
		type attached struct {
			sess *Session
			id   world.Ref
		}
		var att []attached
		for _, sess := range s.snapshot() {
			if sess.player != nil {
				att = append(att, attached{sess, s.world.DB.MustID(sess.player)})
			}
		}
		if err = s.world.DB.Load(s.cfg.DBFile); err != nil {
			return
		}
		for _, a := range att {
			a.sess.player = s.world.DB.Get(a.id)
			if a.sess.player != nil {
				a.sess.player.SetClient(a.sess)
			}
		}
	})
	return err
}

// Broadcast sends a line to every connected session.
func (s *Server) Broadcast(msg string) {
	for _, sess := range s.snapshot() {
		sess.Send(msg)
	}
}

func (s *Server) broadcastExcept(not *Session, msg string) {
	for _, sess := range s.snapshot() {
		if sess != not {
			sess.Send(msg)
		}
	}
}

func (s *Server) snapshot() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Server) sessionByUID(uid int) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[uid]
}

func (s *Server) addSession(conn net.Conn) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUID++
	sess := newSession(s, conn, s.lastUID)
	s.sessions[sess.uid] = sess
	return sess
}

func (s *Server) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.uid)
}

func (s *Server) closeAll() {
	for _, sess := range s.snapshot() {
		sess.conn.Close()
	}
}

// submitWait runs fn on the game loop and waits for it. Everything that
// touches world objects goes through here so sessions never race each
// other or scheduled scripts.
func (s *Server) submitWait(fn func()) {
	done := make(chan struct{})
	s.world.Game.Submit(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-s.world.Game.Done():
	}
}

// handleConn runs one connection from greeting to cleanup.
func (s *Server) handleConn(conn net.Conn) {
	sess := s.addSession(conn)
	s.metrics.connections.Inc()
	s.logger.Info("new client", zap.String("remote", sess.remoteAddr()))

	sess.writeRaw(s.motd.Text())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if s.cfg.Debug {
			s.logger.Debug("input", zap.String("from", sess.Name()), zap.String("line", line))
		}
		s.metrics.commandsTotal.Inc()
		if sess.opCommand(line) {
			continue
		}
		if err := sess.runWorld(line); err != nil {
			s.metrics.commandErrors.Inc()
			s.logger.Error("command failed",
				zap.String("from", sess.Name()), zap.String("line", line), zap.Error(err))
			if s.cfg.Debug {
				sess.Send(err.Error())
				continue
			}
			sess.writeRaw("An error occured. Please reconnect...\n")
			break
		}
	}

	s.logger.Info("client disconnected", zap.String("remote", sess.remoteAddr()))
	s.disconnect(sess)
}

func (s *Server) disconnect(sess *Session) {
	sess.conn.Close()
	s.metrics.connections.Dec()
	s.removeSession(sess)
	s.submitWait(func() {
		if sess.player != nil {
			sess.player.SetClient(nil)
		}
	})
	if !sess.silent.Load() {
		s.Broadcast(sess.Name() + " has quit.")
	}
}
