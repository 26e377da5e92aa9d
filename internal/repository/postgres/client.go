package postgres

import (
	"context"
	"time"

	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	ierr "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/errors"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/types"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{db: db, logger: logger}
}

func (r *clientRepository) Create(ctx context.Context, c *client.Client) error {
	query := `
		INSERT INTO clients (
			id,
			name,
			email,
			ref_code,
			stripe_customer_id,
			plan_tier,
			subscription_id,
			subscription_status,
			mrr_minor_units,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:name,
			:email,
			:ref_code,
			:stripe_customer_id,
			:plan_tier,
			:subscription_id,
			:subscription_status,
			:mrr_minor_units,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	return r.getOne(ctx, `SELECT * FROM clients WHERE id = :v`, id)
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*client.Client, error) {
	return r.getOne(ctx, `SELECT * FROM clients WHERE lower(email) = lower(:v)`, email)
}

func (r *clientRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*client.Client, error) {
	return r.getOne(ctx, `SELECT * FROM clients WHERE stripe_customer_id = :v`, stripeCustomerID)
}

func (r *clientRepository) getOne(ctx context.Context, query string, value string) (*client.Client, error) {
	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{"v": value})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("client not found").
			WithHint("No matching client record").
			Mark(ierr.ErrNotFound)
	}

	var c client.Client
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *clientRepository) List(ctx context.Context, filter *client.Filter) ([]*client.Client, error) {
	query := `SELECT * FROM clients WHERE 1=1`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	params := map[string]interface{}{
		"email":  filter.Email,
		"limit":  limit,
		"offset": filter.Offset,
	}

	if filter.Email != "" {
		query += " AND lower(email) = lower(:email)"
	}
	query += " ORDER BY created_at DESC LIMIT :limit OFFSET :offset"

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var clients []*client.Client
	for rows.Next() {
		var c client.Client
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
		}
		clients = append(clients, &c)
	}
	return clients, nil
}

func (r *clientRepository) Count(ctx context.Context, filter *client.Filter) (int, error) {
	query := `SELECT COUNT(*) FROM clients WHERE 1=1`
	params := map[string]interface{}{"email": filter.Email}
	if filter.Email != "" {
		query += " AND lower(email) = lower(:email)"
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

func (r *clientRepository) Update(ctx context.Context, c *client.Client) error {
	query := `
		UPDATE clients
		SET
			name = :name,
			email = :email,
			ref_code = :ref_code,
			stripe_customer_id = :stripe_customer_id,
			plan_tier = :plan_tier,
			subscription_id = :subscription_id,
			subscription_status = :subscription_status,
			mrr_minor_units = :mrr_minor_units,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) UpdatePlanFields(ctx context.Context, id string, fields *client.PlanFields) error {
	query := `
		UPDATE clients
		SET
			plan_tier = :plan_tier,
			subscription_id = :subscription_id,
			subscription_status = :subscription_status,
			mrr_minor_units = :mrr_minor_units,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"plan_tier":           fields.PlanTier,
		"subscription_id":     fields.SubscriptionID,
		"subscription_status": fields.SubscriptionStatus,
		"mrr_minor_units":     fields.MRRMinorUnits,
		"updated_at":          time.Now().UTC(),
		"updated_by":          types.GetUserID(ctx),
		"id":                  id,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update client plan fields").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
