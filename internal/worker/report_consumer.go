package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/queue"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/sirupsen/logrus"
)

// ReportConsumer reacts to report events. Only report.created triggers work;
// other event types are acknowledged and ignored.
type ReportConsumer struct {
	consumer  queue.Consumer
	queueName string
	assigner  service.AreaAssignmentService
	log       logrus.FieldLogger
}

func NewReportConsumer(consumer queue.Consumer, queueName string, assigner service.AreaAssignmentService, log logrus.FieldLogger) *ReportConsumer {
	return &ReportConsumer{
		consumer:  consumer,
		queueName: queueName,
		assigner:  assigner,
		log:       log,
	}
}

// Start blocks until ctx is done or the broker connection fails.
func (c *ReportConsumer) Start(ctx context.Context) error {
	c.log.WithField("queue", c.queueName).Info("starting report consumer")
	return c.consumer.Consume(ctx, c.queueName, c.Handle)
}

func (c *ReportConsumer) Handle(ctx context.Context, body []byte) error {
	var event entity.ReportEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal report event: %w", err)
	}
	if event.Type != entity.ReportCreated {
		return nil
	}
	if event.ReportID == "" {
		return fmt.Errorf("report event without report id")
	}

	c.log.WithField("report_id", event.ReportID).Debug("processing created report")
	if err := c.assigner.AssignArea(ctx, event.ReportID); err != nil {
		return fmt.Errorf("area assignment failed for report %s: %w", event.ReportID, err)
	}
	return nil
}
