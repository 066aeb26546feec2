package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, system *NumberingSystem) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*NumberingSystem, error)
	List(ctx context.Context, orgID snowflake.ID, filter ListRequest) ([]NumberingSystem, error)
	Update(ctx context.Context, system *NumberingSystem) error
}
