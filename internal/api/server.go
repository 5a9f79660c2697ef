// Package api serves the cipher operations, pipelines, detector and recipe
// store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/logging"
)

// RequestIDHeader echoes the request ID assigned to every call.
const RequestIDHeader = "X-Request-ID"

const defaultRequestTimeout = 30 * time.Second

// Config configures the REST API server.
type Config struct {
	Addr        string
	StaticToken string
	// RecipesDir stores saved recipes. Empty keeps them in memory.
	RecipesDir     string
	Logger         *logging.AuditLogger
	RequestTimeout time.Duration
}

// Server exposes the cipher endpoints.
type Server struct {
	cfg           Config
	httpServer    *http.Server
	authenticator *Authenticator
	recipeManager *cipher.RecipeManager
	logger        *logging.AuditLogger
}

// NewServer constructs a REST API server and loads persisted recipes.
func NewServer(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("api address must be provided")
	}
	auth, err := NewAuthenticator(cfg.StaticToken)
	if err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	recipes := cipher.NewRecipeManager(cfg.RecipesDir)
	if err := recipes.LoadRecipes(); err != nil {
		return nil, err
	}
	return &Server{
		cfg:           cfg,
		authenticator: auth,
		recipeManager: recipes,
		logger:        cfg.Logger.WithComponent("api"),
	}, nil
}

// Handler returns the routed handler with authentication and request IDs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/v1/cipher/execute", s.requireToken(http.HandlerFunc(s.handleCipherExecute)))
	mux.Handle("/api/v1/cipher/pipeline", s.requireToken(http.HandlerFunc(s.handleCipherPipeline)))
	mux.Handle("/api/v1/cipher/detect", s.requireToken(http.HandlerFunc(s.handleCipherDetect)))
	mux.Handle("/api/v1/cipher/smart-decode", s.requireToken(http.HandlerFunc(s.handleCipherSmartDecode)))
	mux.Handle("/api/v1/cipher/operations", s.requireToken(http.HandlerFunc(s.handleCipherListOperations)))
	mux.Handle("/api/v1/cipher/recipes", s.requireToken(http.HandlerFunc(s.handleRecipes)))
	mux.Handle("/api/v1/cipher/recipes/", s.requireToken(http.HandlerFunc(s.handleRecipeByName)))
	return s.withRequestContext(mux)
}

// Run starts the HTTP server and blocks until ctx is cancelled or a fatal
// error occurs. Cleartext HTTP/2 is accepted alongside HTTP/1.1.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.lifecycle("started")

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = s.httpServer.Shutdown(shutdownCtx)
		s.lifecycle("stopped")
		return <-errCh
	case err := <-errCh:
		s.lifecycle("failed")
		return err
	}
}

func (s *Server) lifecycle(state string) {
	if s.logger == nil {
		return
	}
	_ = s.logger.Emit(logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Decision:  logging.DecisionInfo,
		Metadata:  map[string]any{"state": state, "addr": s.cfg.Addr},
	})
}

type requestIDKey struct{}

// requestID returns the ID assigned by withRequestContext.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestContext assigns a request ID, honouring a client supplied one,
// and bounds the request with the configured timeout.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()
		ctx = context.WithValue(ctx, requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.authenticator.Check(r); err != nil {
			if s.logger != nil {
				_ = s.logger.Emit(logging.AuditEvent{
					RequestID: requestID(r.Context()),
					EventType: logging.EventRequestDenied,
					Decision:  logging.DecisionDeny,
					Reason:    err.Error(),
					Metadata:  map[string]any{"path": r.URL.Path, "remote": r.RemoteAddr},
				})
			}
			s.writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
