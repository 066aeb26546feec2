package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) numberingdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, system *numberingdomain.NumberingSystem) error {
	return r.db.WithContext(ctx).Create(system).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*numberingdomain.NumberingSystem, error) {
	var system numberingdomain.NumberingSystem
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&system).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &system, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter numberingdomain.ListRequest) ([]numberingdomain.NumberingSystem, error) {
	var systems []numberingdomain.NumberingSystem
	stmt := r.db.WithContext(ctx).
		Model(&numberingdomain.NumberingSystem{}).
		Where("org_id = ?", orgID)

	if filter.DocumentType != "" {
		stmt = stmt.Where("document_type = ?", filter.DocumentType)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}

func (r *repository) Update(ctx context.Context, system *numberingdomain.NumberingSystem) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE numbering_systems
		 SET name = ?, template = ?, reset_interval = ?, is_enabled = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		system.Name,
		system.Template,
		system.ResetInterval,
		system.IsEnabled,
		system.UpdatedAt,
		system.OrgID,
		system.ID,
	).Error
}
