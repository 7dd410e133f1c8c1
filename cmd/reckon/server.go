package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon/trace"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("RECKON_ADDR"),
				Usage:   "Server listen address",
			},
			&cli.IntFlag{
				Name:    "max-sessions",
				Value:   defaultMaxSessions,
				Sources: cli.EnvVars("RECKON_MAX_SESSIONS"),
				Usage:   "Maximum number of live chat sessions",
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   defaultSessionTTL,
				Sources: cli.EnvVars("RECKON_SESSION_TTL"),
				Usage:   "Idle time after which a chat session is dropped",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := cfg.newLogger(os.Stderr)
			slog.SetDefault(logger)

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.shutdown(context.Background()); err != nil {
					logger.Warn("failed to shutdown tracer provider", "error", err)
				}
			}()

			opts := []serverOption{
				withAddr(cmd.String("addr")),
				withAgentFactory(rt.newAgent),
				withMaxSessions(cmd.Int("max-sessions")),
				withSessionTTL(cmd.Duration("session-ttl")),
			}
			if cfg.TraceDir != "" {
				opts = append(opts, withTraceDir(cfg.TraceDir))
			}

			return newServer(opts...).start(ctx)
		},
	}
}

type serverOption func(*server)

func withAddr(addr string) serverOption {
	return func(s *server) {
		s.addr = addr
	}
}

func withAgentFactory(f agentFactory) serverOption {
	return func(s *server) {
		s.newAgent = f
	}
}

func withMaxSessions(n int) serverOption {
	return func(s *server) {
		s.maxSessions = n
	}
}

// withSessionTTL sets how long a session may stay idle before it is dropped.
func withSessionTTL(ttl time.Duration) serverOption {
	return func(s *server) {
		s.sessionTTL = ttl
	}
}

func withClock(now func() time.Time) serverOption {
	return func(s *server) {
		s.now = now
	}
}

// withTraceDir enables the read-only trace endpoints over the directory the FileRepository writes to.
func withTraceDir(dir string) serverOption {
	return withTraceReader(trace.NewFileRepository(dir))
}

func withTraceReader(r trace.Reader) serverOption {
	return func(s *server) {
		s.traces = r
	}
}

type server struct {
	addr        string
	newAgent    agentFactory
	maxSessions int
	sessionTTL  time.Duration
	now         func() time.Time
	sessions    *sessionStore
	traces      trace.Reader
	mux         *http.ServeMux
}

func newServer(opts ...serverOption) *server {
	s := &server{
		addr: ":8080",
		mux:  http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = newSessionStore(s.newAgent, s.maxSessions, s.sessionTTL, s.now)
	s.setupRoutes()
	return s
}

func (s *server) setupRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/ask", s.handleAsk)
	s.mux.HandleFunc("GET /api/sessions/{id}/transcript", s.handleTranscript)

	if s.traces != nil {
		s.mux.HandleFunc("GET /api/traces", s.handleListTraces)
		s.mux.HandleFunc("GET /api/traces/{id}", s.handleGetTrace)
	}
}

func (s *server) handler() http.Handler {
	return s.mux
}

func (s *server) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", s.addr))
	}

	slog.Info("starting reckon server", slog.String("addr", listener.Addr().String()))

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return goerr.Wrap(err, "server error")
	}

	return nil
}
