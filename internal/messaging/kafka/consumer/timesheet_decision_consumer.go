package consumer

import (
	"context"
	"encoding/json"

	"hrms/internal/events"
	"hrms/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func ConsumeTimesheetDecisions(
	ctx context.Context,
	reader *kafkago.Reader,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.timesheet_decision")
	log.Info("timesheet decision consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("timesheet decision consumer stopped")
				return
			}
			log.Error("fetch timesheet decision message failed", zap.Error(err))
			continue
		}

		var event events.TimesheetDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode timesheet_decided event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notifier.TimesheetDecided(ctx, event); err != nil {
			log.Error("notify timesheet decision failed",
				zap.String("timesheet_id", event.TimesheetID),
				zap.Error(err),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit timesheet decision message failed", zap.Error(err))
			continue
		}
	}
}
