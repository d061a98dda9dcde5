package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/middleware"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrLocationUnavailable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func currentRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRole)
}

func isAdmin(c *gin.Context) bool {
	return currentRole(c) == models.RoleAdmin
}

// currentEmployeeID is the employee behind the token, or "" for an admin.
func currentEmployeeID(c *gin.Context) string {
	return c.GetString(middleware.ContextEmployeeID)
}

// requireEmployee writes a 403 and returns false when the token is not an
// employee's.
func requireEmployee(c *gin.Context) (string, bool) {
	employeeID := currentEmployeeID(c)
	if currentRole(c) != models.RoleEmployee || employeeID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return "", false
	}
	return employeeID, true
}
