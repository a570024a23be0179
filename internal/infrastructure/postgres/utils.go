package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// isUndefinedTable verifica si un error es "relation does not exist" (42P01): esquema sin migrar.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// nullable convierte un NullDecimal en argumento SQL (NULL si no es válido).
func nullable(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

// wrapErr añade contexto; si falta la tabla lo indica para que se apliquen las migraciones.
func wrapErr(op string, err error) error {
	if isUndefinedTable(err) {
		return fmt.Errorf("%s: esquema sin migrar (migrations/001_pricing.sql): %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
