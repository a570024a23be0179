package repository

import (
	"context"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
)

// CategoryMarginRepository márgenes por sección (se sobrescribe completa en cada guardado).
type CategoryMarginRepository interface {
	List(ctx context.Context) ([]entity.CategoryMargin, error)
	ReplaceAll(ctx context.Context, rows []entity.CategoryMargin) error
}

// Store agrupa las cinco tablas de entrada del cálculo de PVP.
type Store struct {
	Purchases       PurchaseRepository
	Yields          YieldRepository
	Recipes         RecipeRepository
	RecipeLines     RecipeLineRepository
	CategoryMargins CategoryMarginRepository
}
