package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "task-market.com/task-market/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute, "/webhooks/"))

	// Gateway callbacks and the external sweep trigger carry no user
	// identity.
	e.POST("/webhooks/payment", h.HandleWebhook)
	e.POST("/internal/sweep", h.TriggerSweep)

	api := e.Group("", middleware.RequireUser())
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/order", h.CreateOrder)
	api.GET("/tasks/:id/payment", h.GetPaymentDetail)
	api.POST("/tasks/:id/submissions", h.CreateSubmission)
	api.GET("/tasks/:id/submissions", h.ListSubmissions)
	api.POST("/submissions/:id/accept", h.AcceptSubmission)
	api.POST("/submissions/:id/revision", h.RequestRevision)
}
