// Package sri contiene catálogos y reglas alineados a la Ficha Técnica de
// Comprobantes Electrónicos del SRI (Ecuador), esquema offline v2.21.
package sri

import "github.com/shopspring/decimal"

// =============================================================================
// Tabla 3 - Tipos de comprobante (codDoc)
// =============================================================================

const (
	CodDocFactura              = "01" // Factura
	CodDocNotaCredito          = "04" // Nota de crédito
	CodDocNotaDebito           = "05" // Nota de débito
	CodDocGuiaRemision         = "06" // Guía de remisión
	CodDocComprobanteRetencion = "07" // Comprobante de retención
)

// ValidDocTypeCodes tipos de comprobante reconocidos en la clave de acceso.
var ValidDocTypeCodes = map[string]bool{
	CodDocFactura: true, CodDocNotaCredito: true, CodDocNotaDebito: true,
	CodDocGuiaRemision: true, CodDocComprobanteRetencion: true,
}

// =============================================================================
// Tabla 4 - Ambiente
// =============================================================================

const (
	AmbientePruebas    = "1" // Pruebas (certificación)
	AmbienteProduccion = "2" // Producción
)

// =============================================================================
// Tabla 2 - Tipo de emisión
// =============================================================================

const (
	EmisionNormal = "1" // Emisión normal (esquema offline)
)

// =============================================================================
// Tabla 16 - Impuestos
// =============================================================================

const (
	TaxCodeIVA     = "2" // IVA
	TaxCodeICE     = "3" // ICE
	TaxCodeIRBPNR  = "5" // IRBPNR (botellas plásticas)
)

// =============================================================================
// Tabla 17 - Tarifas de IVA (codigoPorcentaje)
// =============================================================================

const (
	TarifaIVA0        = "0" // 0%
	TarifaIVA12       = "2" // 12%
	TarifaIVA14       = "3" // 14%
	TarifaIVA15       = "4" // 15%
	TarifaIVANoObjeto = "6" // No objeto de impuesto
	TarifaIVAExento   = "7" // Exento de IVA
)

// ivaRates tarifa (porcentaje) por codigoPorcentaje. No objeto y exento tributan 0.
var ivaRates = map[string]decimal.Decimal{
	TarifaIVA0:        decimal.Zero,
	TarifaIVA12:       decimal.NewFromInt(12),
	TarifaIVA14:       decimal.NewFromInt(14),
	TarifaIVA15:       decimal.NewFromInt(15),
	TarifaIVANoObjeto: decimal.Zero,
	TarifaIVAExento:   decimal.Zero,
}

// IVARate devuelve la tarifa porcentual para un codigoPorcentaje (ej: "4" -> 15).
// ok es false si el código no existe en la tabla 17.
func IVARate(codigoPorcentaje string) (decimal.Decimal, bool) {
	rate, ok := ivaRates[codigoPorcentaje]
	return rate, ok
}

// =============================================================================
// Tabla 6 - Tipos de identificación del comprador
// =============================================================================

const (
	IdentificacionRUC             = "04" // RUC (13 dígitos)
	IdentificacionCedula          = "05" // Cédula de identidad
	IdentificacionPasaporte       = "06" // Pasaporte
	IdentificacionConsumidorFinal = "07" // Venta a consumidor final
	IdentificacionExterior        = "08" // Identificación del exterior
)

// ConsumidorFinalID identificación genérica exigida cuando el comprador es consumidor final.
const ConsumidorFinalID = "9999999999999"

// ConsumidorFinalRazonSocial razón social por defecto para ventas a consumidor final.
const ConsumidorFinalRazonSocial = "CONSUMIDOR FINAL"

// ValidIdentificationTypes tipos de identificación del comprador (tabla 6).
var ValidIdentificationTypes = map[string]bool{
	IdentificacionRUC: true, IdentificacionCedula: true, IdentificacionPasaporte: true,
	IdentificacionConsumidorFinal: true, IdentificacionExterior: true,
}

// =============================================================================
// Otros valores fijos del esquema factura v1.1.0
// =============================================================================

const (
	MonedaDolar = "DOLAR"
	ObligadoSi  = "SI"
	ObligadoNo  = "NO"
)
