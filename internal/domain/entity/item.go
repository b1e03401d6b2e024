package entity

import "time"

// Item es una unidad de inventario (SKU) con su unidad de medida.
// La identidad es inmutable una vez referenciada por cualquier fila del ledger.
type Item struct {
	ID        string
	SKU       string
	Name      string
	Unit      string // kg, m3, und, ton...
	CreatedAt time.Time
	UpdatedAt time.Time
}
