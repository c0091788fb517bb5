package timesheet

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	timesheets := r.Group("/timesheets")
	// ExtractUserID reads the user_id claim AuthMiddleware sets, so order matters.
	timesheets.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		timesheets.GET("", middleware.RBACAuthorize(rbacService, "timesheet", "read"), handler.GetAll)
		timesheets.GET("/pending", middleware.RBACAuthorize(rbacService, "timesheet", "approve"), handler.GetPending)
		timesheets.GET("/:id", middleware.RBACAuthorize(rbacService, "timesheet", "read"), handler.GetById)
		timesheets.POST("",
			middleware.RBACAuthorize(rbacService, "timesheet", "create"),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		timesheets.PUT("/:id", middleware.RBACAuthorize(rbacService, "timesheet", "create"), handler.Update)
		timesheets.POST("/:id/submit", middleware.RBACAuthorize(rbacService, "timesheet", "create"), handler.Submit)
		timesheets.POST("/:id/resubmit", middleware.RBACAuthorize(rbacService, "timesheet", "create"), handler.Resubmit)
		timesheets.POST("/:id/decision",
			middleware.RBACAuthorize(rbacService, "timesheet", "approve"),
			handler.Decide,
		)
		timesheets.POST("/bulk-decision",
			middleware.RBACAuthorize(rbacService, "timesheet", "approve"),
			middleware.RateLimitByUser(rate.Limit(1), 5),
			handler.BulkDecide,
		)
	}
}
