package analytics

import (
	"context"

	bqclient "github.com/dmarqs/promoterhub-backend/pkg/bigquery"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

// Recorder persists response events into the warehouse.
type Recorder interface {
	RecordResponseEvents(ctx context.Context, events []ResponseEvent) error
}

// BigQueryRecorder streams response events into the configured events table.
type BigQueryRecorder struct {
	client *bqclient.Client
}

// NewBigQueryRecorder wraps the shared BigQuery client.
func NewBigQueryRecorder(client *bqclient.Client) (*BigQueryRecorder, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bigquery client is required")
	}
	return &BigQueryRecorder{client: client}, nil
}

// RecordResponseEvents inserts the batch into the response events table.
func (r *BigQueryRecorder) RecordResponseEvents(ctx context.Context, events []ResponseEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]any, 0, len(events))
	for i := range events {
		rows = append(rows, &events[i])
	}
	return r.client.InsertRows(ctx, r.client.ResponseEventsTable(), rows)
}
