package balance

import (
	"hrms/internal/middleware"
	"hrms/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	balances := r.Group("/balances")
	// ExtractUserID reads the user_id claim AuthMiddleware sets, so order matters.
	balances.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		balances.GET("/me", handler.GetOwn)
		balances.GET("/:employeeId", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetForEmployee)
		balances.GET("/:employeeId/:leaveType", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetByType)
		balances.PUT("", middleware.RBACAuthorize(rbacService, "balance", "write"), handler.Upsert)
	}
}
