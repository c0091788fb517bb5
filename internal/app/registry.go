package app

import (
	"database/sql"

	"hrms/internal/balance"
	"hrms/internal/leave"
	"hrms/internal/messaging/kafka"
	"hrms/internal/rbac"
	"hrms/internal/rbac/infra"
	"hrms/internal/shared/counter"
	"hrms/internal/timesheet"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	timesheetRepo := timesheet.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	ledger := balance.NewService(db, balanceRepo, rdb)
	leaveService := leave.NewService(db, leaveRepo, ledger, counterRepo, outboxRepo)
	timesheetService := timesheet.NewService(db, timesheetRepo, outboxRepo)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(ledger)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	timesheetHandler := timesheet.NewHandlerWithRedis(timesheetService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		balance.RegisterRoutes(api, balanceHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		timesheet.RegisterRoutes(api, timesheetHandler, rbacService, rdb)
	}

	return nil
}
