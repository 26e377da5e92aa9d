package postgres

import (
	"context"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

type overageRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewOverageRepository(db *postgres.DB, logger *logger.Logger) overage.Repository {
	return &overageRepository{db: db, logger: logger}
}

func (r *overageRepository) Create(ctx context.Context, charge *overage.OverageCharge) error {
	query := `
		INSERT INTO overage_charges (
			id,
			subscription_id,
			usage_type,
			overage_units,
			overage_rate,
			overage_amount,
			billed,
			billed_at,
			invoice_item_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:subscription_id,
			:usage_type,
			:overage_units,
			:overage_rate,
			:overage_amount,
			:billed,
			:billed_at,
			:invoice_item_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, charge); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create overage charge").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *overageRepository) Get(ctx context.Context, id string) (*overage.OverageCharge, error) {
	query := `SELECT * FROM overage_charges WHERE id = :id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("overage charge not found").
			WithHintf("No overage charge with id %s", id).
			Mark(ierr.ErrNotFound)
	}

	var charge overage.OverageCharge
	if err := rows.StructScan(&charge); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &charge, nil
}

func (r *overageRepository) ListUnbilled(ctx context.Context, subscriptionID string) ([]*overage.OverageCharge, error) {
	query := `
		SELECT * FROM overage_charges
		WHERE
			subscription_id = :subscription_id AND
			billed = false AND
			overage_units > 0
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, subscriptionID)
}

func (r *overageRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*overage.OverageCharge, error) {
	query := `
		SELECT * FROM overage_charges
		WHERE subscription_id = :subscription_id
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, subscriptionID)
}

func (r *overageRepository) list(ctx context.Context, query string, subscriptionID string) ([]*overage.OverageCharge, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
	})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var charges []*overage.OverageCharge
	for rows.Next() {
		var charge overage.OverageCharge
		if err := rows.StructScan(&charge); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		charges = append(charges, &charge)
	}
	return charges, nil
}

// MarkBilled guards on billed=false so a concurrent double-billing attempt
// resolves to a single flip.
func (r *overageRepository) MarkBilled(ctx context.Context, id string, invoiceItemID string, billedAt time.Time) error {
	query := `
		UPDATE overage_charges
		SET
			billed = true,
			billed_at = :billed_at,
			invoice_item_id = :invoice_item_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE
			id = :id AND
			billed = false
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"billed_at":       billedAt,
		"invoice_item_id": invoiceItemID,
		"updated_at":      time.Now().UTC(),
		"updated_by":      types.GetUserID(ctx),
		"id":              id,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to mark overage charge billed").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
