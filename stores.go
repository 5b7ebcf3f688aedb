package main

import (
	"context"
	"fmt"

	"github.com/jwillz7667/dank-deals-delivery-sub001/config"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository/memory"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/review"
)

type productStore interface {
	catalog.Repository
	review.Products
}

type stores struct {
	carts    cart.Repository
	orders   order.Repository
	profiles profile.Repository
	products productStore
	reviews  review.Repository

	ready func(ctx context.Context) error
	close func() error
}

// openStores picks the gorm/postgres repositories or the in-memory ones.
func openStores(cfg config.Config) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		return &stores{
			carts:    memory.NewCarts(),
			orders:   memory.NewOrders(),
			profiles: memory.NewProfiles(),
			products: memory.NewProducts(),
			reviews:  memory.NewReviews(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := repository.OpenPostgres(repository.Options{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           cfg.App.LogLevel == "debug",
	})
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &stores{
		carts:    repository.NewCartRepository(db),
		orders:   repository.NewOrderRepository(db),
		profiles: repository.NewProfileRepository(db),
		products: repository.NewProductRepository(db),
		reviews:  repository.NewReviewRepository(db),
		ready:    sqlDB.PingContext,
		close:    sqlDB.Close,
	}, nil
}
