package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo histórico de compras sobre PostgreSQL (usable con pool o tx).
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

// List devuelve todas las compras ordenadas por seq (orden de inserción).
func (r *PurchaseRepo) List(ctx context.Context) ([]entity.Purchase, error) {
	query := `
		SELECT seq, supplier, purchase_date, invoice_no, ingredient, qty, unit, total_cost_gross, iva_rate, notes, created_at
		FROM purchases ORDER BY seq`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list purchases", err)
	}
	defer rows.Close()

	var list []entity.Purchase
	for rows.Next() {
		var p entity.Purchase
		if err := rows.Scan(
			&p.Seq, &p.Supplier, &p.Date, &p.InvoiceNo, &p.Ingredient, &p.Qty, &p.Unit,
			&p.TotalCostGross, &p.IVARate, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Append inserta las filas en una única transacción, en el orden recibido.
func (r *PurchaseRepo) Append(ctx context.Context, rows ...entity.Purchase) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO purchases (supplier, purchase_date, invoice_no, ingredient, qty, unit, total_cost_gross, iva_rate, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		for _, p := range rows {
			if _, err := tx.Exec(ctx, query,
				p.Supplier, p.Date, p.InvoiceNo, p.Ingredient, nullable(p.Qty), p.Unit,
				nullable(p.TotalCostGross), nullable(p.IVARate), p.Notes,
			); err != nil {
				return wrapErr("insert purchase", err)
			}
		}
		return nil
	})
}
