package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	"github.com/smallbiznis/facture/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) pricingdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, price *pricingdomain.Price) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*pricingdomain.Price, error) {
	var price pricingdomain.Price
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&price).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter pricingdomain.ListRequest) ([]pricingdomain.Price, error) {
	var prices []pricingdomain.Price
	stmt := r.db.WithContext(ctx).
		Model(&pricingdomain.Price{}).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("org_id = ?", orgID)

	if filter.Currency != "" {
		stmt = stmt.Where("currency = ?", filter.Currency)
	}
	if filter.PricingModel != "" {
		stmt = stmt.Where("pricing_model = ?", filter.PricingModel)
	}
	if filter.LookupKey != "" {
		stmt = stmt.Where("lookup_key = ?", filter.LookupKey)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *repository) Update(ctx context.Context, price *pricingdomain.Price) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE prices
		 SET name = ?, is_enabled = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		price.Name,
		price.IsEnabled,
		price.UpdatedAt,
		price.OrgID,
		price.ID,
	).Error
}
