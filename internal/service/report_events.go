package service

import (
	"context"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/queue"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// ReportEventPublisher announces report writes on the broker. Publishing is
// best effort: failures are logged and counted but never fail the write.
type ReportEventPublisher struct {
	publisher queue.Publisher
	queueName string
	clock     clockwork.Clock
	metrics   *observability.Metrics
	log       logrus.FieldLogger
}

// NewReportEventPublisher accepts a nil publisher, in which case events are
// only counted as skipped.
func NewReportEventPublisher(p queue.Publisher, queueName string, clock clockwork.Clock, metrics *observability.Metrics, log logrus.FieldLogger) *ReportEventPublisher {
	return &ReportEventPublisher{publisher: p, queueName: queueName, clock: clock, metrics: metrics, log: log}
}

func (p *ReportEventPublisher) Publish(ctx context.Context, eventType string, report *entity.Report) {
	if p == nil {
		return
	}
	if p.publisher == nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, "skipped").Inc()
		return
	}

	msg := entity.ReportEvent{
		Type:       eventType,
		ReportID:   report.ID,
		Status:     report.Status,
		OccurredAt: p.clock.Now(),
	}
	// The request may finish before the broker answers.
	if err := p.publisher.Publish(context.WithoutCancel(ctx), p.queueName, msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		p.log.WithError(err).WithFields(logrus.Fields{"event": eventType, "report_id": report.ID}).Warn("failed to publish report event")
		return
	}
	p.metrics.EventsPublished.WithLabelValues(eventType, "success").Inc()
}
