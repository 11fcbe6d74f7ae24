package worker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/queue"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAssigner struct {
	ids []string
	err error
}

func (r *recordingAssigner) AssignArea(ctx context.Context, reportID string) error {
	r.ids = append(r.ids, reportID)
	return r.err
}

type fakeConsumer struct {
	queue  string
	bodies [][]byte
	errs   []error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.Handler) error {
	f.queue = queueName
	for _, b := range f.bodies {
		f.errs = append(f.errs, handler(ctx, b))
	}
	return nil
}

func (f *fakeConsumer) Close() {}

func silentLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestReportConsumer_Handle(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantIDs  []string
		wantErr  bool
		assignEr error
	}{
		{name: "created report is assigned", body: `{"type":"report.created","report_id":"r1","status":"UNVERIFIED"}`, wantIDs: []string{"r1"}},
		{name: "other events are ignored", body: `{"type":"report.verified","report_id":"r1"}`},
		{name: "malformed body", body: `{`, wantErr: true},
		{name: "missing id", body: `{"type":"report.created"}`, wantErr: true},
		{name: "assignment failure nacks", body: `{"type":"report.created","report_id":"r2"}`, wantIDs: []string{"r2"}, wantErr: true, assignEr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assigner := &recordingAssigner{err: tt.assignEr}
			c := NewReportConsumer(&fakeConsumer{}, "report_events", assigner, silentLogger())

			err := c.Handle(context.Background(), []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantIDs, assigner.ids)
		})
	}
}

func TestReportConsumer_StartUsesQueue(t *testing.T) {
	fc := &fakeConsumer{bodies: [][]byte{[]byte(`{"type":"report.created","report_id":"r9"}`)}}
	assigner := &recordingAssigner{}
	c := NewReportConsumer(fc, "report_events", assigner, silentLogger())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "report_events", fc.queue)
	assert.Equal(t, []string{"r9"}, assigner.ids)
	assert.Equal(t, []error{nil}, fc.errs)
}
