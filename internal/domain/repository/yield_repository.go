package repository

import (
	"context"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
)

// YieldRepository tabla de mermas; ReplaceAll sobrescribe la tabla completa.
type YieldRepository interface {
	List(ctx context.Context) ([]entity.IngredientYield, error)
	ReplaceAll(ctx context.Context, rows []entity.IngredientYield) error
}
