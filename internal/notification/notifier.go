package notification

import (
	"context"

	"hrms/internal/events"

	"go.uber.org/zap"
)

// Notifier is the delivery sink for decision events. Delivery is
// fire-and-forget; a failed notification is logged, never retried here.
//
//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock
type Notifier interface {
	LeaveDecided(ctx context.Context, event events.LeaveDecidedEvent) error
	TimesheetDecided(ctx context.Context, event events.TimesheetDecidedEvent) error
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real channel (email, chat) which is wired at deployment time.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notification")}
}

func (n *LogNotifier) LeaveDecided(ctx context.Context, event events.LeaveDecidedEvent) error {
	n.logger.Info("leave decision notification",
		zap.String("leave_id", event.LeaveID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
		zap.Bool("cancellation", event.Cancellation),
	)
	return nil
}

func (n *LogNotifier) TimesheetDecided(ctx context.Context, event events.TimesheetDecidedEvent) error {
	n.logger.Info("timesheet decision notification",
		zap.String("timesheet_id", event.TimesheetID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
	)
	return nil
}
