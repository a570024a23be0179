package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrMissingInput = errors.New("falta una tabla de entrada")

	// ErrInsufficientData no hay compras registradas: no se calcula ningún PVP.
	ErrInsufficientData = errors.New("sin compras registradas: datos insuficientes para calcular PVP")
)
