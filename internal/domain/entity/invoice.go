package entity

import (
	"time"
)

// Estados del ciclo de vida de un comprobante electrónico SRI.
// GENERADA -> FIRMADA -> ENVIADA -> {AUTORIZADA | RECHAZADA | DEVUELTA};
// ERROR_ENVIO es alcanzable desde GENERADA o FIRMADA si falla la firma o la red.
const (
	EstadoGenerada   = "GENERADA"    // Secuencial consumido, clave de acceso y XML generados
	EstadoFirmada    = "FIRMADA"     // XML firmado (XAdES-BES), pendiente de envío
	EstadoEnviada    = "ENVIADA"     // Recibida por el SRI, autorización pendiente
	EstadoAutorizada = "AUTORIZADA"  // Autorizada por el SRI (con número de autorización)
	EstadoRechazada  = "RECHAZADA"   // NO AUTORIZADO en la consulta de autorización
	EstadoDevuelta   = "DEVUELTA"    // Devuelta en recepción (o en autorización)
	EstadoErrorEnvio = "ERROR_ENVIO" // Falló la firma o la comunicación con el SRI
)

// IsTerminalState indica si un estado no admite más transiciones.
// ENVIADA no es terminal: la autorización puede resolverse en una consulta posterior.
func IsTerminalState(estado string) bool {
	switch estado {
	case EstadoAutorizada, EstadoRechazada, EstadoDevuelta, EstadoErrorEnvio:
		return true
	}
	return false
}

// ElectronicInvoice es el registro persistente de un comprobante electrónico.
// Se crea una sola vez por venta y nunca se borra (registro de cumplimiento);
// después de la creación solo mutan los campos de estado.
type ElectronicInvoice struct {
	ID                 string
	TallerID           string
	SaleID             string
	CodDoc             string // Tipo de comprobante (tabla 3): "01" factura
	Estab              string // Establecimiento, 3 dígitos
	PtoEmi             string // Punto de emisión, 3 dígitos
	Secuencial         int64  // Secuencial asignado por el allocator
	ClaveAcceso        string // 49 dígitos, con dígito verificador módulo 11
	Ambiente           string // "1" pruebas, "2" producción
	Estado             string
	NumeroAutorizacion string // Asignado por el SRI; vacío hasta AUTORIZADA
	Mensajes           []string
	XMLGenerado        string // XML sin firma
	XMLFirmado         string // XML con ds:Signature
	FechaEmision       time.Time
	AuthorizedAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
