// Package costing contiene el motor de costes y precios de la carta:
// normaliza las compras a un coste efectivo por (ingrediente, unidad) y lo
// compone con escandallos, márgenes, overhead e IVA para sugerir el PVP.
//
// Todo el paquete son funciones puras sobre datos en memoria: mismas entradas,
// mismas salidas, sin reloj ni estado compartido.
package costing

import "strings"

// Key clave normalizada (ingrediente, unidad) con la que se cruzan compras,
// mermas y líneas de escandallo. Se construye una sola vez con NewKey.
type Key struct {
	Ingredient string
	Unit       string
}

// NewKey normaliza ingrediente y unidad.
func NewKey(ingredient, unit string) Key {
	return Key{Ingredient: NormalizeText(ingredient), Unit: NormalizeText(unit)}
}

// NormalizeText recorta, pasa a minúsculas y colapsa espacios internos:
// "  Tomate   Pera " → "tomate pera". Aplicarla dos veces no cambia nada.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// String representación legible "ingrediente [unidad]".
func (k Key) String() string {
	return k.Ingredient + " [" + k.Unit + "]"
}

// less orden estable de claves: ingrediente y luego unidad.
func (k Key) less(o Key) bool {
	if k.Ingredient != o.Ingredient {
		return k.Ingredient < o.Ingredient
	}
	return k.Unit < o.Unit
}
