package postgres

import (
	"context"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

type billingEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return &billingEventRepository{db: db, logger: logger}
}

// TryBegin is the pipeline's only synchronization point. The insert relies on
// the unique event_id constraint; a conflicting row means a concurrent or
// earlier delivery already owns the event. Failed rows are reclaimed with a
// guarded UPDATE so a redelivery can retry them, still atomically: only one
// of N concurrent redeliveries wins the status flip.
func (r *billingEventRepository) TryBegin(ctx context.Context, event *billingevent.BillingEvent) (billingevent.BeginResult, error) {
	query := `
		INSERT INTO billing_events (
			event_id,
			event_type,
			payload,
			received_at,
			processing_status,
			processing_error,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:event_id,
			:event_type,
			:payload,
			:received_at,
			:processing_status,
			:processing_error,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to record billing event").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if rows == 1 {
		return billingevent.BeginAccepted, nil
	}

	// Row exists. A failed entry may be reclaimed for reprocessing; the
	// WHERE clause guarantees at most one caller wins.
	reclaim := `
		UPDATE billing_events
		SET
			processing_status = :processing,
			processing_error = NULL,
			updated_at = :updated_at
		WHERE
			event_id = :event_id AND
			processing_status = :failed
	`

	result, err = r.db.NamedExecContext(ctx, reclaim, map[string]interface{}{
		"processing": types.ProcessingStatusProcessing,
		"failed":     types.ProcessingStatusFailed,
		"updated_at": time.Now().UTC(),
		"event_id":   event.EventID,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to reclaim failed billing event").
			Mark(ierr.ErrDatabase)
	}

	rows, err = result.RowsAffected()
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if rows == 1 {
		r.logger.Infow("reclaimed failed billing event for reprocessing",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return billingevent.BeginAccepted, nil
	}

	return billingevent.BeginAlreadyProcessed, nil
}

func (r *billingEventRepository) MarkCompleted(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, types.ProcessingStatusCompleted, nil)
}

func (r *billingEventRepository) MarkFailed(ctx context.Context, eventID string, processingError string) error {
	return r.setStatus(ctx, eventID, types.ProcessingStatusFailed, &processingError)
}

func (r *billingEventRepository) setStatus(ctx context.Context, eventID string, status types.ProcessingStatus, processingError *string) error {
	query := `
		UPDATE billing_events
		SET
			processing_status = :processing_status,
			processing_error = :processing_error,
			updated_at = :updated_at
		WHERE event_id = :event_id
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"processing_status": status,
		"processing_error":  processingError,
		"updated_at":        time.Now().UTC(),
		"event_id":          eventID,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to mark billing event %s", status).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingEventRepository) Get(ctx context.Context, eventID string) (*billingevent.BillingEvent, error) {
	query := `SELECT * FROM billing_events WHERE event_id = :event_id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"event_id": eventID,
	})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("billing event not found").
			WithHintf("No billing event with id %s", eventID).
			Mark(ierr.ErrNotFound)
	}

	var event billingevent.BillingEvent
	if err := rows.StructScan(&event); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &event, nil
}

func (r *billingEventRepository) List(ctx context.Context, filter *billingevent.Filter) ([]*billingevent.BillingEvent, error) {
	query := `SELECT * FROM billing_events WHERE 1=1`
	params := filterParams(filter)

	if filter.EventType != "" {
		query += " AND event_type = :event_type"
	}
	if filter.ProcessingStatus != "" {
		query += " AND processing_status = :processing_status"
	}
	query += " ORDER BY received_at DESC LIMIT :limit OFFSET :offset"

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var events []*billingevent.BillingEvent
	for rows.Next() {
		var event billingevent.BillingEvent
		if err := rows.StructScan(&event); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		events = append(events, &event)
	}
	return events, nil
}

func (r *billingEventRepository) Count(ctx context.Context, filter *billingevent.Filter) (int, error) {
	query := `SELECT COUNT(*) AS count FROM billing_events WHERE 1=1`
	params := filterParams(filter)

	if filter.EventType != "" {
		query += " AND event_type = :event_type"
	}
	if filter.ProcessingStatus != "" {
		query += " AND processing_status = :processing_status"
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func filterParams(filter *billingevent.Filter) map[string]interface{} {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return map[string]interface{}{
		"event_type":        filter.EventType,
		"processing_status": filter.ProcessingStatus,
		"limit":             limit,
		"offset":            filter.Offset,
	}
}
