// Package memory implementa las tablas de entrada en memoria del proceso
// (tests y STORE_DRIVER=memory). Conserva el orden de inserción.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
)

var (
	_ repository.PurchaseRepository       = (*PurchaseRepo)(nil)
	_ repository.YieldRepository          = (*Table[entity.IngredientYield])(nil)
	_ repository.RecipeRepository         = (*Table[entity.Recipe])(nil)
	_ repository.RecipeLineRepository     = (*Table[entity.RecipeLine])(nil)
	_ repository.CategoryMarginRepository = (*Table[entity.CategoryMargin])(nil)
)

// Table tabla genérica que se lee y se sobrescribe completa.
type Table[T any] struct {
	mu   sync.RWMutex
	rows []T
}

// NewTable crea una tabla con filas iniciales (se copian).
func NewTable[T any](rows ...T) *Table[T] {
	return &Table[T]{rows: append([]T(nil), rows...)}
}

// List devuelve una copia de las filas.
func (t *Table[T]) List(_ context.Context) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]T(nil), t.rows...), nil
}

// ReplaceAll sustituye todas las filas.
func (t *Table[T]) ReplaceAll(_ context.Context, rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append([]T(nil), rows...)
	return nil
}

// PurchaseRepo histórico de compras append-only; asigna Seq correlativo.
type PurchaseRepo struct {
	mu   sync.RWMutex
	rows []entity.Purchase
	seq  int64
}

// NewPurchaseRepository crea el repositorio con compras iniciales.
func NewPurchaseRepository(rows ...entity.Purchase) *PurchaseRepo {
	r := &PurchaseRepo{}
	_ = r.Append(context.Background(), rows...)
	return r
}

// List devuelve las compras en orden de inserción.
func (r *PurchaseRepo) List(_ context.Context) ([]entity.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.Purchase(nil), r.rows...), nil
}

// Append añade compras al final del histórico.
func (r *PurchaseRepo) Append(_ context.Context, rows ...entity.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, p := range rows {
		r.seq++
		p.Seq = r.seq
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		r.rows = append(r.rows, p)
	}
	return nil
}

// NewStore construye un Store vacío en memoria.
func NewStore() repository.Store {
	return repository.Store{
		Purchases:       NewPurchaseRepository(),
		Yields:          NewTable[entity.IngredientYield](),
		Recipes:         NewTable[entity.Recipe](),
		RecipeLines:     NewTable[entity.RecipeLine](),
		CategoryMargins: NewTable[entity.CategoryMargin](),
	}
}
