package chat

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/wavyrn1/shroudserver/internal/crypto"
	"github.com/wavyrn1/shroudserver/internal/transport"
)

// Server accepts connections over TCP and, optionally, websocket, and runs
// a session for each. It owns the room registry for its lifetime.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	listener net.Listener
	wsServer *http.Server
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: NewRegistry(crypto.NewCipher(), logger),
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.acceptLoop(ln)

	if s.cfg.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", transport.WSHandler(s.handleConn))
		s.wsServer = &http.Server{Addr: s.cfg.WSAddr, Handler: mux}
		go func() {
			if err := s.wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("websocket listener failed", "error", err)
			}
		}()
	}

	s.logger.Info("server started", "addr", s.cfg.Addr, "ws_addr", s.cfg.WSAddr)
	return nil
}

func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		s.listener.Close()
	}
	if s.wsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.wsServer.Shutdown(ctx)
	}

	s.registry.CloseAll()

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// listener closed, normal shutdown path
			return
		}
		s.handleConn(transport.NewTCP(conn))
	}
}

func (s *Server) handleConn(conn transport.Conn) {
	s.logger.Info("client connected", "addr", conn.RemoteAddr())
	sess := NewSession(conn, s.registry, s.logger, s.cfg.MailboxLimit)
	go sess.Run()
}
