package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/logging"
	"github.com/reactivities/identity/internal/server/auth"
	"github.com/reactivities/identity/internal/server/services"
)

const claimsKey = "identity.claims"

// claimsFrom returns the verified claims stored by authenticate, or nil.
func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// authenticate rejects requests without a valid access token and stores
// the verified claims on the context.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c.Request)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="The token is expired"`)
			} else {
				c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireHost lets the request through only when the authenticated
// principal hosts the activity named by the :id route parameter. It must
// run after authentication and is evaluated on every request.
func RequireHost(e services.Evaluator, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := services.IsPrivilegedFor(c.Request.Context(), e, claimsFrom(c), c.Param("id"))
		if err != nil {
			logger.Error(c.Request.Context(), "host evaluation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"statusCode": http.StatusInternalServerError,
				"message":    "Internal server error",
			})
			return
		}
		if !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// recovery converts panics into a 500 JSON body. Details are included in
// development only.
func (s *HTTPServer) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}
				stack := string(debug.Stack())
				s.logger.Error(c.Request.Context(), "panic recovered", "panic", fmt.Sprint(p), "stack", stack)
				s.writeInternal(c, fmt.Sprint(p), stack)
			}
		}()
		c.Next()
	}
}

func (s *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

const contentSecurityPolicy = "block-all-mixed-content; " +
	"style-src 'self' https://fonts.googleapis.com; " +
	"font-src 'self' https://fonts.gstatic.com data:; " +
	"form-action 'self'; " +
	"frame-ancestors 'self'; " +
	"script-src 'self'"

func securityHeaders(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		if !development {
			h.Set("Strict-Transport-Security", "max-age=31536000")
		}
		c.Next()
	}
}

// cors allows the single client origin, with credentials so the refresh
// cookie travels.
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin == "" || c.GetHeader("Origin") != origin {
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Expose-Headers", "WWW-Authenticate")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if req := c.GetHeader("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
