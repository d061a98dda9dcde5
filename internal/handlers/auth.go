package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/middleware"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/session"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/utils"
)

type AuthHandler struct {
	Sessions *session.Manager
	Cfg      config.Config
}

type loginRequest struct {
	PIN      string `json:"pin"`
	Password string `json:"password"`
}

func NewAuthHandler(sessions *session.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Cfg: cfg}
}

// Login signs in an employee by PIN or the administrator by password and
// returns a bearer token carrying the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var (
		user models.SessionUser
		err  error
	)
	switch {
	case strings.TrimSpace(req.PIN) != "":
		user, err = h.Sessions.AuthenticateEmployee(c.Request.Context(), req.PIN)
	case req.Password != "":
		user, err = h.Sessions.AuthenticateAdmin(req.Password)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin or password is required"})
		return
	}
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	employeeID := ""
	if user.Role == models.RoleEmployee {
		employeeID = user.ID
	}
	token, err := utils.GenerateAccessToken(user.ID, user.Role, user.Name, user.Email, employeeID, h.Cfg.JwtSecret, h.Cfg.JwtAccessMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	user.PIN = ""
	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"expiresIn":   h.Cfg.JwtAccessMinutes * 60,
		"user":        user,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, models.SessionUser{
		ID:    c.GetString(middleware.ContextUserID),
		Name:  c.GetString(middleware.ContextName),
		Role:  currentRole(c),
		Email: c.GetString(middleware.ContextEmail),
	})
}
