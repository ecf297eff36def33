package main

import (
	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	loginPath := cfg.Auth.LoginPath

	r.Use(logger.GinRecovery(), middleware.RequestID(), logger.GinLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.SessionGate(svc.sessionService, cfg.Auth.ProtectedPaths, loginPath,
		middleware.WithCookieName(cfg.Auth.CookieName)))
	r.Use(middleware.AuditLog())

	limited := svc.writeLimiter.Middleware()
	requirePage := middleware.RequireSessionPage(loginPath)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", svc.metricsHandler.Metrics)

	// Pages and form actions
	r.GET("/runs-listing", svc.runHandler.ListingPage)
	forms := r.Group("/runs", limited, requirePage)
	{
		forms.POST("/create", svc.runHandler.CreateAction)
		forms.POST("/join", svc.runHandler.JoinAction)
		forms.POST("/leave", svc.runHandler.LeaveAction)
	}
	r.GET("/dashboard", requirePage, svc.userHandler.Dashboard)
	r.GET("/profile", requirePage, svc.userHandler.Profile)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/sign-up", limited, svc.authHandler.SignUp)
			auth.POST("/sign-in", limited, svc.authHandler.SignIn)
			auth.POST("/sign-out", svc.authHandler.SignOut)
			auth.GET("/session", svc.authHandler.GetSession)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		api.GET("/runs", svc.runHandler.ListRuns)
		api.GET("/runs/:id", svc.runHandler.GetRun)
		api.GET("/user/statuses", svc.userHandler.Statuses)

		protected := api.Group("", middleware.RequireSession())
		{
			protected.POST("/runs", limited, svc.runHandler.CreateRun)
			protected.POST("/runs/:id/join", limited, svc.runHandler.JoinRun)
			protected.POST("/runs/:id/leave", limited, svc.runHandler.LeaveRun)
			protected.GET("/user/runs", svc.userHandler.UserRuns)
			protected.GET("/user/status", svc.userHandler.Status)
			protected.GET("/user/activity", svc.logHandler.Activity)
		}
	}
}
