package repository

import (
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/billingevent"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/client"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/overage"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/domain/subscription"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/logger"
	"github.com/evanramirez88/restaurant-consulting-site-sub000/internal/postgres"
	postgresRepo "github.com/evanramirez88/restaurant-consulting-site-sub000/internal/repository/postgres"
)

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return postgresRepo.NewBillingEventRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

func NewOverageRepository(db *postgres.DB, logger *logger.Logger) overage.Repository {
	return postgresRepo.NewOverageRepository(db, logger)
}
