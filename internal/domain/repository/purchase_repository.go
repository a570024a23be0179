package repository

import (
	"context"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
)

// PurchaseRepository puerto de persistencia de compras (append-only).
// List devuelve las filas en orden de inserción: ese orden decide qué compra es la más reciente.
type PurchaseRepository interface {
	List(ctx context.Context) ([]entity.Purchase, error)
	Append(ctx context.Context, rows ...entity.Purchase) error
}
