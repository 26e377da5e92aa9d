package service

import (
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/cache"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/config"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
)

// ServiceParams bundles the shared dependencies injected into every service.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB
	Cache  cache.Cache

	BillingEventRepo billingevent.Repository
	SubscriptionRepo subscription.Repository
	ClientRepo       client.Repository
	OverageRepo      overage.Repository
}

// NewServiceParams assembles the shared dependency bundle.
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	db *postgres.DB,
	cache cache.Cache,
	billingEventRepo billingevent.Repository,
	subscriptionRepo subscription.Repository,
	clientRepo client.Repository,
	overageRepo overage.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           cfg,
		DB:               db,
		Cache:            cache,
		BillingEventRepo: billingEventRepo,
		SubscriptionRepo: subscriptionRepo,
		ClientRepo:       clientRepo,
		OverageRepo:      overageRepo,
	}
}

// Pagination echoes the applied window alongside the total match count.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
