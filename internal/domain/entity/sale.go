package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale es una orden de trabajo lista para facturar. El CRUD de ventas vive fuera
// de este núcleo; aquí se consume de solo lectura.
// Los totales vienen persistidos por el módulo de ventas y se verifican contra
// la suma de las líneas antes de generar el XML (invariante de agregación).
type Sale struct {
	ID                string
	TallerID          string
	ClientID          string // vacío = venta a consumidor final
	Numero            string // referencia interna de la orden de trabajo
	Fecha             time.Time
	TotalSinImpuestos decimal.Decimal
	TotalDescuento    decimal.Decimal
	TotalImpuestos    decimal.Decimal
	Propina           decimal.Decimal
	ImporteTotal      decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SaleItem es una línea de la orden: repuesto o mano de obra.
// Subtotal = Cantidad*PrecioUnitario - Descuento (base imponible de la línea).
type SaleItem struct {
	ID               string
	SaleID           string
	CodigoPrincipal  string // código del repuesto o servicio
	Descripcion      string
	Cantidad         decimal.Decimal
	PrecioUnitario   decimal.Decimal
	Descuento        decimal.Decimal
	Subtotal         decimal.Decimal
	CodigoImpuesto   string // Tabla 16: "2" = IVA
	CodigoPorcentaje string // Tabla 17: "0", "2", "3", "4", "6", "7"
}
