package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/checkin"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/config"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/handlers"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/lifecycle"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/middleware"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/session"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/store"
)

// Services are the domain services the HTTP layer is built on.
type Services struct {
	Store     *store.Store
	Lifecycle *lifecycle.Service
	Recorder  *checkin.Recorder
	Sessions  *session.Manager
	Notifier  handlers.PINNotifier
}

func Register(router *gin.Engine, svc Services, cfg config.Config) {
	router.Use(corsMiddleware(cfg.AllowedOriginsRaw))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "guards-schedule-api"})
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(svc.Sessions, cfg)
	employeeHandler := handlers.NewEmployeeHandler(svc.Store, svc.Notifier)
	locationHandler := handlers.NewLocationHandler(svc.Store)
	shiftHandler := handlers.NewShiftHandler(svc.Store, svc.Lifecycle)
	eventHandler := handlers.NewEventHandler(svc.Store)
	attendanceHandler := handlers.NewAttendanceHandler(svc.Recorder, svc.Store)
	reportHandler := handlers.NewReportHandler(svc.Store)
	dashboardHandler := handlers.NewDashboardHandler(svc.Store, svc.Lifecycle)

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	admin := middleware.RequireRole(models.RoleAdmin)
	employee := middleware.RequireRole(models.RoleEmployee)
	anyone := middleware.RequireAnyRole(models.RoleAdmin, models.RoleEmployee)

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(cfg.JwtSecret))
	{
		protected.GET("/me", anyone, authHandler.Me)
		protected.GET("/dashboard", admin, dashboardHandler.Get)

		protected.GET("/employees", admin, employeeHandler.List)
		protected.POST("/employees", admin, employeeHandler.Create)
		protected.PUT("/employees/:id", admin, employeeHandler.Update)
		protected.DELETE("/employees/:id", admin, employeeHandler.Delete)
		protected.POST("/employees/:id/toggle-active", admin, employeeHandler.ToggleActive)

		protected.GET("/locations", anyone, locationHandler.List)
		protected.POST("/locations", admin, locationHandler.Create)

		protected.GET("/shifts", anyone, shiftHandler.List)
		protected.POST("/shifts", admin, shiftHandler.Create)
		protected.GET("/shifts/today", employee, shiftHandler.Today)
		protected.POST("/shifts/sweep-missed", admin, shiftHandler.SweepMissed)
		protected.DELETE("/shifts/:id", admin, shiftHandler.Delete)
		protected.POST("/shifts/:id/missed", admin, shiftHandler.MarkMissed)
		protected.GET("/schedule", employee, shiftHandler.Schedule)

		protected.GET("/events", admin, eventHandler.List)
		protected.POST("/events", admin, eventHandler.Create)
		protected.DELETE("/events/:id", admin, eventHandler.Delete)

		protected.POST("/checkin", employee, attendanceHandler.CheckIn)
		protected.POST("/checkout", anyone, attendanceHandler.CheckOut)
		protected.GET("/checkins", anyone, attendanceHandler.List)
		protected.GET("/checkins/active", employee, attendanceHandler.Active)
		protected.GET("/history", employee, attendanceHandler.History)

		protected.GET("/reports", admin, reportHandler.Get)
		protected.GET("/reports/export", admin, reportHandler.Export)
	}
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
