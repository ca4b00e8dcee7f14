// Package server exposes a provider over HTTP for processes that cannot link
// the library: a token sidecar.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/graphauth/internal/auth/custom_jwt"
	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/graph"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/loykin/graphauth/internal/store"
)

const (
	claimsKey       = "jwt_claims"
	defaultLimit    = 50
	shutdownTimeout = 5 * time.Second
)

// Source is what the server needs from a provider.
type Source interface {
	provider.Provider
	BaseURL() string
	Scopes() []string
	Authority() string
	SignOut()
}

// Options configures the server.
type Options struct {
	// Secret enables HS256 bearer verification on every route except /healthz
	Secret string
	// Audience is the required aud claim when Secret is set
	Audience string
}

// Server serves the provider endpoints.
type Server struct {
	src     Source
	journal store.Journal
	opts    Options
	engine  *gin.Engine
	logger  *common.Logger
}

// Status is the body of GET /status.
type Status struct {
	State      string   `json:"state"`
	IsLoggedIn bool     `json:"is_logged_in"`
	BaseURL    string   `json:"base_url"`
	Scopes     []string `json:"scopes"`
	Authority  string   `json:"authority,omitempty"`
}

// TokenResponse is the body of GET /token.
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type scopesRequest struct {
	Scopes []string `json:"scopes"`
}

// New builds the router. journal may be nil, in which case /history answers 404.
func New(src Source, journal store.Journal, opts Options) *Server {
	s := &Server{
		src:     src,
		journal: journal,
		opts:    opts,
		engine:  gin.New(),
		logger:  common.GetLogger().WithComponent("server"),
	}
	s.engine.Use(gin.Recovery(), s.logRequests())
	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/")
	if opts.Secret != "" {
		api.Use(s.requireJWT())
	}
	api.GET("/status", s.status)
	api.GET("/token", s.token)
	api.PUT("/scopes", s.updateScopes)
	api.POST("/signout", s.signOut)
	api.GET("/history", s.history)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(sctx)
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithRequest(c.Request.Method, c.Request.URL.Path).Debug("request handled",
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func (s *Server) requireJWT() gin.HandlerFunc {
	secret := []byte(s.opts.Secret)
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		claims, err := custom_jwt.Verify(secret, strings.TrimSpace(h[len("Bearer "):]), s.opts.Audience)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) snapshot() Status {
	scopes := s.src.Scopes()
	if scopes == nil {
		scopes = []string{}
	}
	return Status{
		State:      s.src.State().String(),
		IsLoggedIn: s.src.IsLoggedIn(),
		BaseURL:    s.src.BaseURL(),
		Scopes:     scopes,
		Authority:  s.src.Authority(),
	}
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) token(c *gin.Context) {
	tok, err := s.src.AccessToken(c.Request.Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, provider.ErrNotReady) {
			code = http.StatusServiceUnavailable
		}
		s.logger.Warn("token request failed", "error", err)
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	if tok == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	resp := TokenResponse{AccessToken: tok, TokenType: "Bearer"}
	if info, err := graph.Inspect(tok); err == nil {
		resp.ExpiresAt = info.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) updateScopes(c *gin.Context) {
	var req scopesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.src.UpdateScopes(req.Scopes)
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) signOut(c *gin.Context) {
	s.src.SignOut()
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) history(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "state journal disabled"})
		return
	}
	limit := defaultLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	events, err := s.journal.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	c.JSON(http.StatusOK, events)
}
