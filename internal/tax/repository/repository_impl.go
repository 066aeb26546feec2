package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"github.com/smallbiznis/facture/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rate *taxdomain.TaxRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*taxdomain.TaxRate, error) {
	var rate taxdomain.TaxRate
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&rate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

func (r *repository) FindByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]taxdomain.TaxRate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rates []taxdomain.TaxRate
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Order("id ASC").
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter taxdomain.ListRequest) ([]taxdomain.TaxRate, error) {
	var rates []taxdomain.TaxRate
	stmt := r.db.WithContext(ctx).
		Model(&taxdomain.TaxRate{}).
		Where("org_id = ?", orgID)

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) Update(ctx context.Context, rate *taxdomain.TaxRate) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tax_rates
		 SET name = ?, description = ?, percentage = ?, fixed_amount = ?, is_enabled = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		rate.Name,
		rate.Description,
		rate.Percentage,
		rate.FixedAmount,
		rate.IsEnabled,
		rate.UpdatedAt,
		rate.OrgID,
		rate.ID,
	).Error
}
