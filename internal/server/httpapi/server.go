// Package httpapi exposes the account endpoints over HTTP with gin and
// guards the host-only activity routes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reactivities/identity/internal/logging"
	"github.com/reactivities/identity/internal/server/auth"
	"github.com/reactivities/identity/internal/server/services"
)

// Accounts is the account flow controller the handlers call into.
type Accounts interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Register(ctx context.Context, reg services.Registration, origin string) error
	RefreshSession(ctx context.Context, claims *auth.Claims, presented string) (*services.Session, error)
	CurrentUser(ctx context.Context, claims *auth.Claims) (*services.Session, error)
	Logout(ctx context.Context, claims *auth.Claims, presented string) error
	VerifyEmail(ctx context.Context, encodedToken, email string) error
	ResendVerification(ctx context.Context, email, origin string) error
}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ActivityHandlers are the host-only activity mutations. Nil handlers are
// not routed.
type ActivityHandlers struct {
	Edit   gin.HandlerFunc
	Cancel gin.HandlerFunc
	Delete gin.HandlerFunc
}

// Options configure optional behaviour and plug-in routes.
type Options struct {
	// Development exposes error details and drops HSTS.
	Development bool
	// ClientOrigin is allowed by CORS and roots every verification link.
	ClientOrigin string
	Activities   ActivityHandlers
	// Chat serves /chat/*; it receives the access token as a query parameter.
	Chat   gin.HandlerFunc
	Health Pinger
}

// HTTPServer serves the identity API.
type HTTPServer struct {
	address  string
	accounts Accounts
	verifier TokenVerifier
	hosts    services.Evaluator
	logger   logging.Logger
	opts     Options
	engine   *gin.Engine
}

func NewHTTPServer(addr string, l logging.Logger, accounts Accounts, verifier TokenVerifier, hosts services.Evaluator, opts Options) *HTTPServer {
	s := &HTTPServer{
		address:  addr,
		accounts: accounts,
		verifier: verifier,
		hosts:    hosts,
		logger:   l.With("module", "http_server"),
		opts:     opts,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

func (s *HTTPServer) routes() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(s.recovery(), s.accessLog(), securityHeaders(s.opts.Development), cors(s.opts.ClientOrigin))

	r.GET("/healthz", s.health)
	r.POST("/login", s.login)
	r.POST("/register", s.register)

	account := r.Group("/account")
	account.POST("/verifyEmail", s.verifyEmail)
	account.GET("/resendEmailConfirmationLink", s.resendEmailConfirmationLink)

	authed := account.Group("", s.authenticate())
	authed.GET("", s.currentUser)
	authed.POST("/refreshToken", s.refreshToken)
	authed.POST("/logout", s.logout)

	activities := r.Group("/activities/:id", s.authenticate(), RequireHost(s.hosts, s.logger))
	if h := s.opts.Activities.Edit; h != nil {
		activities.PUT("", h)
	}
	if h := s.opts.Activities.Cancel; h != nil {
		activities.POST("/cancel", h)
	}
	if h := s.opts.Activities.Delete; h != nil {
		activities.DELETE("", h)
	}

	if s.opts.Chat != nil {
		r.Group("/chat", s.authenticate()).Any("/*path", s.opts.Chat)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) health(c *gin.Context) {
	if s.opts.Health != nil {
		if err := s.opts.Health.PingContext(c.Request.Context()); err != nil {
			s.logger.Warn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
