// Package router собирает gin-движок HTTP API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/api/handler"
	"github.com/Leganyst/reservation-engine/internal/api/middleware"
	"github.com/Leganyst/reservation-engine/internal/calendar"
)

// Setup регистрирует маршруты. auth — middleware, кладущий пользователя в контекст.
func Setup(h *handler.Handler, auth gin.HandlerFunc, logger *zap.Logger) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// публичные
		api.GET("/reservations/availability", h.Availability)
		api.GET("/reservations/availability-multi", h.AvailabilityMulti)
		api.GET("/pricing/:resourceId", h.PublicPricingRules)
		api.GET("/schedules/:resourceId", h.ResolveSchedule)
		api.POST("/webhooks/portone", h.PortOneWebhook)

		authorized := api.Group("")
		authorized.Use(auth)
		{
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", h.CreateReservation)
				reservations.POST("/multi", h.CreateMultiReservation)
				reservations.GET("/my", h.MyReservations)
				reservations.GET("/:id", h.GetReservation)
				reservations.POST("/:id/cancel", h.CancelReservation)
			}

			payments := authorized.Group("/payments")
			{
				payments.POST("/checkout", h.Checkout)
				payments.POST("/complete", h.CompletePayment)
			}

			admin := authorized.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/reservations", h.AdminListReservations)
				admin.GET("/reservations/:id", h.AdminGetReservation)
				admin.POST("/reservations/:id/action", h.AdminReservationAction)
				admin.POST("/reservations/:id/refund", h.AdminRefund)

				admin.GET("/resources/:resourceId/pricing-rules", h.PricingRules)
				admin.POST("/pricing-rules", h.CreatePricingRule)
				admin.PATCH("/pricing-rules/:id/active", h.SetPricingRuleActive)
				admin.DELETE("/pricing-rules/:id", h.DeletePricingRule)

				admin.GET("/schedules", h.ListSchedules)
				admin.POST("/schedules/weekly", h.CreateWeeklySchedule)
				admin.DELETE("/schedules/weekly/:id", h.DeleteWeeklySchedule)
				admin.POST("/schedules/exceptions", h.CreateScheduleException)
				admin.DELETE("/schedules/exceptions/:id", h.DeleteScheduleException)
				admin.POST("/schedules/cleanup-exceptions", h.CleanupExceptions)

				admin.GET("/blackouts", h.ListBlackouts)
				admin.POST("/blackouts", h.CreateBlackout)
				admin.DELETE("/blackouts/:id", h.DeleteBlackout)

				admin.POST("/maintenance/expire-pending", h.ExpirePending)
				admin.GET("/maintenance/expire-logs", h.ExpiryLogs)

				admin.GET("/calendar/:resourceId", h.ResourceCalendar)
				admin.GET("/calendar/:resourceId/ics", h.ResourceCalendarICS)
			}
		}
	}

	return r
}

// registerValidators добавляет правило hhmm ("09:30") в движок gin.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})
}
