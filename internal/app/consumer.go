package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hrms/internal/events"
	"hrms/internal/messaging/kafka/consumer"
	"hrms/internal/notification"
	"hrms/internal/shared/connection"

	"go.uber.org/zap"
)

// RunConsumer feeds decision events into the notifier until interrupted.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	leaveReader := connection.NewKafkaReader(kafkaBroker, events.LeaveDecidedTopic, "hrms-notifications")
	defer leaveReader.Close()
	timesheetReader := connection.NewKafkaReader(kafkaBroker, events.TimesheetDecidedTopic, "hrms-notifications")
	defer timesheetReader.Close()

	notifier := notification.NewLogNotifier(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveDecisions(ctx, leaveReader, notifier, logger)
	go consumer.ConsumeTimesheetDecisions(ctx, timesheetReader, notifier, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
