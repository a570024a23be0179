package repository

import (
	"context"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
)

// RecipeRepository productos de la carta.
type RecipeRepository interface {
	List(ctx context.Context) ([]entity.Recipe, error)
	ReplaceAll(ctx context.Context, rows []entity.Recipe) error
}

// RecipeLineRepository líneas de escandallo.
type RecipeLineRepository interface {
	List(ctx context.Context) ([]entity.RecipeLine, error)
	ReplaceAll(ctx context.Context, rows []entity.RecipeLine) error
}
