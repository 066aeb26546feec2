package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, price *Price) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Price, error)
	List(ctx context.Context, orgID snowflake.ID, filter ListRequest) ([]Price, error)
	Update(ctx context.Context, price *Price) error
}
