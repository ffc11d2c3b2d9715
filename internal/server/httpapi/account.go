package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/server/models"
	"github.com/reactivities/identity/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,password"`
	UserName    string `json:"username" binding:"required"`
}

type verifyEmailQuery struct {
	Token string `form:"token" binding:"required"`
	Email string `form:"email" binding:"required"`
}

type emailQuery struct {
	Email string `form:"email" binding:"required"`
}

// userResponse is the session body returned to clients. Image is reserved
// for the profile photo and always empty here.
type userResponse struct {
	DisplayName string `json:"displayName"`
	UserName    string `json:"username"`
	Email       string `json:"email"`
	Token       string `json:"token"`
	Image       string `json:"image"`
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindingError(err))
		return
	}

	session, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeSession(c, session)
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindingError(err))
		return
	}

	err := s.accounts.Register(c.Request.Context(), services.Registration{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		UserName:    req.UserName,
	}, s.origin())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "Registration success - please verify email")
}

func (s *HTTPServer) currentUser(c *gin.Context) {
	session, err := s.accounts.CurrentUser(c.Request.Context(), claimsFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeSession(c, session)
}

func (s *HTTPServer) refreshToken(c *gin.Context) {
	presented, _ := c.Cookie(common.RefreshTokenCookieName)

	session, err := s.accounts.RefreshSession(c.Request.Context(), claimsFrom(c), presented)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeSession(c, session)
}

func (s *HTTPServer) logout(c *gin.Context) {
	presented, _ := c.Cookie(common.RefreshTokenCookieName)

	if err := s.accounts.Logout(c.Request.Context(), claimsFrom(c), presented); err != nil {
		s.writeError(c, err)
		return
	}
	s.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) verifyEmail(c *gin.Context) {
	var q verifyEmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.writeError(c, bindingError(err))
		return
	}

	err := s.accounts.VerifyEmail(c.Request.Context(), q.Token, q.Email)
	if errors.Is(err, common.ErrInvalidToken) {
		c.String(http.StatusBadRequest, "Could not verify email address")
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "Email confirmed - you can now login")
}

func (s *HTTPServer) resendEmailConfirmationLink(c *gin.Context) {
	var q emailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.writeError(c, bindingError(err))
		return
	}

	if err := s.accounts.ResendVerification(c.Request.Context(), q.Email, s.origin()); err != nil {
		s.writeError(c, err)
		return
	}
	c.String(http.StatusOK, "Email verification link resent")
}

// origin is where verification links point. The request's Origin header is
// never used: any client can set it, and a link rooted elsewhere would hand
// the one-time token to that host.
func (s *HTTPServer) origin() string {
	return s.opts.ClientOrigin
}

func (s *HTTPServer) writeSession(c *gin.Context, session *services.Session) {
	if session.RefreshToken != nil {
		s.setRefreshCookie(c, session.RefreshToken)
	}
	u := session.User
	c.JSON(http.StatusOK, userResponse{
		DisplayName: u.DisplayName,
		UserName:    u.UserName,
		Email:       u.Email,
		Token:       session.AccessToken,
	})
}

func (s *HTTPServer) setRefreshCookie(c *gin.Context, token *models.RefreshToken) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.Expires.UTC(),
		HttpOnly: true,
		Secure:   !s.opts.Development,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.opts.Development,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError maps service errors onto responses: validation failures to
// 400 with field detail, authentication failures to 401 with a plain-text
// reason, anything else to a generic 500.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var verr *common.ValidationError
	var aerr *common.AuthError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.As(err, &aerr):
		c.String(http.StatusUnauthorized, aerr.Reason)
	case errors.Is(err, common.ErrorUnauthorized):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, common.ErrInvalidToken):
		c.String(http.StatusBadRequest, "Invalid token")
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		s.writeInternal(c, err.Error(), "")
	}
}

type problem struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (s *HTTPServer) writeInternal(c *gin.Context, message, details string) {
	body := problem{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}
	if s.opts.Development {
		body.Message = message
		body.Details = details
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
