package leave

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
	leaves := r.Group("/leaves")
	// ExtractUserID reads the user_id claim AuthMiddleware sets, so order matters.
	leaves.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.GetPending)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.POST("",
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		leaves.POST("/:id/cancellation",
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			middleware.Idempotency(rdb),
			handler.CreateCancellation,
		)
		leaves.POST("/:id/decision",
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			handler.Decide,
		)
		// Bulk decisions are heavier, so they get their own per-user budget.
		leaves.POST("/bulk-decision",
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			middleware.RateLimitByUser(rate.Limit(1), 5),
			handler.BulkDecide,
		)
	}
}
