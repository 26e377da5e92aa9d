package postgres

import (
	"context"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

// CreateWithCommitment inserts the subscription and its commitment row in one
// transaction so a half-created agreement can never be observed.
func (r *subscriptionRepository) CreateWithCommitment(ctx context.Context, sub *subscription.Subscription, commitment *subscription.CommitmentTracking) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		subQuery := `
			INSERT INTO subscriptions (
				subscription_id,
				customer_id,
				client_id,
				subscription_status,
				current_period_start,
				current_period_end,
				cancel_at_period_end,
				price_id,
				billing_interval,
				plan_tier,
				amount_minor_units,
				status,
				created_at,
				updated_at,
				created_by,
				updated_by
			) VALUES (
				:subscription_id,
				:customer_id,
				:client_id,
				:subscription_status,
				:current_period_start,
				:current_period_end,
				:cancel_at_period_end,
				:price_id,
				:billing_interval,
				:plan_tier,
				:amount_minor_units,
				:status,
				:created_at,
				:updated_at,
				:created_by,
				:updated_by
			)
		`
		if _, err := r.db.NamedExecContext(ctx, subQuery, sub); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create subscription").
				Mark(ierr.ErrDatabase)
		}

		commitmentQuery := `
			INSERT INTO commitment_tracking (
				subscription_id,
				commitment_start_date,
				commitment_end_date,
				commitment_months,
				monthly_commitment_amount,
				commitment_fulfilled,
				early_termination_requested,
				early_termination_fee_calculated,
				status,
				created_at,
				updated_at,
				created_by,
				updated_by
			) VALUES (
				:subscription_id,
				:commitment_start_date,
				:commitment_end_date,
				:commitment_months,
				:monthly_commitment_amount,
				:commitment_fulfilled,
				:early_termination_requested,
				:early_termination_fee_calculated,
				:status,
				:created_at,
				:updated_at,
				:created_by,
				:updated_by
			)
		`
		if _, err := r.db.NamedExecContext(ctx, commitmentQuery, commitment); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create commitment tracking").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

func (r *subscriptionRepository) Get(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	query := `SELECT * FROM subscriptions WHERE subscription_id = :subscription_id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
	})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("subscription not found").
			WithHintf("No subscription with id %s", subscriptionID).
			Mark(ierr.ErrNotFound)
	}

	var sub subscription.Subscription
	if err := rows.StructScan(&sub); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions
		SET
			customer_id = :customer_id,
			client_id = :client_id,
			subscription_status = :subscription_status,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			cancel_at_period_end = :cancel_at_period_end,
			price_id = :price_id,
			billing_interval = :billing_interval,
			plan_tier = :plan_tier,
			amount_minor_units = :amount_minor_units,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE subscription_id = :subscription_id
	`

	_, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *subscription.Filter) ([]*subscription.Subscription, error) {
	query := `SELECT * FROM subscriptions WHERE 1=1`
	params := subscriptionFilterParams(filter)

	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
	}
	if filter.ClientID != "" {
		query += " AND client_id = :client_id"
	}
	if filter.SubscriptionStatus != "" {
		query += " AND subscription_status = :subscription_status"
	}
	query += " ORDER BY created_at DESC LIMIT :limit OFFSET :offset"

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		var sub subscription.Subscription
		if err := rows.StructScan(&sub); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *subscription.Filter) (int, error) {
	query := `SELECT COUNT(*) FROM subscriptions WHERE 1=1`
	params := subscriptionFilterParams(filter)

	if filter.CustomerID != "" {
		query += " AND customer_id = :customer_id"
	}
	if filter.ClientID != "" {
		query += " AND client_id = :client_id"
	}
	if filter.SubscriptionStatus != "" {
		query += " AND subscription_status = :subscription_status"
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

func (r *subscriptionRepository) GetCommitment(ctx context.Context, subscriptionID string) (*subscription.CommitmentTracking, error) {
	query := `SELECT * FROM commitment_tracking WHERE subscription_id = :subscription_id`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"subscription_id": subscriptionID,
	})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("commitment tracking not found").
			WithHintf("No commitment row for subscription %s", subscriptionID).
			Mark(ierr.ErrNotFound)
	}

	var commitment subscription.CommitmentTracking
	if err := rows.StructScan(&commitment); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &commitment, nil
}

func (r *subscriptionRepository) UpdateCommitment(ctx context.Context, commitment *subscription.CommitmentTracking) error {
	query := `
		UPDATE commitment_tracking
		SET
			commitment_fulfilled = :commitment_fulfilled,
			early_termination_requested = :early_termination_requested,
			early_termination_fee_calculated = :early_termination_fee_calculated,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE subscription_id = :subscription_id
	`

	_, err := r.db.NamedExecContext(ctx, query, commitment)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update commitment tracking").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func subscriptionFilterParams(filter *subscription.Filter) map[string]interface{} {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return map[string]interface{}{
		"customer_id":         filter.CustomerID,
		"client_id":           filter.ClientID,
		"subscription_status": filter.SubscriptionStatus,
		"limit":               limit,
		"offset":              filter.Offset,
	}
}
