package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alnah/go-textbook/internal/auth"
	"github.com/alnah/go-textbook/internal/store"
)

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func viewUser(u *store.User) userView {
	return userView{ID: u.ID, Username: u.Username, Name: u.Name}
}

func (s *Server) healthcheck(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.log.Warn("healthcheck failed", "error", err)
		c.String(http.StatusServiceUnavailable, "unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "invalid_input", "Username, password, and name are required")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(c, "signup", err)
		return
	}
	u, err := s.store.CreateUser(c.Request.Context(), req.Username, req.Name, hash)
	if err != nil {
		s.fail(c, "signup", err)
		return
	}
	s.startSession(c, http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.store.GetUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		err = auth.ErrInvalidCredentials
	}
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if err != nil {
		s.fail(c, "login", err)
		return
	}
	s.startSession(c, http.StatusOK, u)
}

func (s *Server) startSession(c *gin.Context, status int, u *store.User) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.fail(c, "issue token", err)
		return
	}
	c.JSON(status, sessionResponse{User: viewUser(u), Token: token, ExpiresAt: exp})
}

func (s *Server) me(c *gin.Context) {
	u, err := s.store.GetUser(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "me", err)
		return
	}
	respondOK(c, viewUser(u))
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	return true
}
