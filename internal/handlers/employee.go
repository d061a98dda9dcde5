package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/report"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

// PINNotifier tells a new employee their sign-in PIN.
type PINNotifier interface {
	SendPIN(to string, name string, pin string) error
}

type EmployeeHandler struct {
	Store    *store.Store
	Notifier PINNotifier
}

type employeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Position string `json:"position" binding:"required"`
	PIN      string `json:"pin"`
	HireDate string `json:"hireDate"`
}

type employeeView struct {
	models.Employee
	Stats report.EmployeeStat `json:"stats"`
}

func NewEmployeeHandler(st *store.Store, notifier PINNotifier) *EmployeeHandler {
	return &EmployeeHandler{Store: st, Notifier: notifier}
}

func (r employeeRequest) input() (store.EmployeeInput, bool) {
	in := store.EmployeeInput{Name: r.Name, Email: r.Email, Phone: r.Phone, Position: r.Position, PIN: r.PIN}
	if r.HireDate != "" {
		hireDate, err := time.Parse(models.DateLayout, r.HireDate)
		if err != nil {
			hireDate, err = time.Parse(time.RFC3339, r.HireDate)
		}
		if err != nil {
			return in, false
		}
		in.HireDate = hireDate
	}
	return in, true
}

func (h *EmployeeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	checkIns, err := h.Store.ListCheckIns(ctx, store.CheckInFilter{})
	if err != nil {
		respondError(c, err)
		return
	}

	stats := report.EmployeeStats(employees, checkIns)
	views := make([]employeeView, 0, len(employees))
	for i, employee := range employees {
		views = append(views, employeeView{Employee: employee, Stats: stats[i]})
	}
	c.JSON(http.StatusOK, views)
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all required fields"})
		return
	}
	in, ok := req.input()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hireDate"})
		return
	}

	employee, err := h.Store.CreateEmployee(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.Notifier != nil {
		if err := h.Notifier.SendPIN(employee.Email, employee.Name, employee.PIN); err != nil {
			log.Printf("[employees] PIN email to %s failed: %v", employee.Email, err)
		}
	}
	c.JSON(http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all required fields"})
		return
	}
	in, ok := req.input()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hireDate"})
		return
	}

	employee, err := h.Store.UpdateEmployee(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.Store.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmployeeHandler) ToggleActive(c *gin.Context) {
	employee, err := h.Store.ToggleEmployeeActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}
