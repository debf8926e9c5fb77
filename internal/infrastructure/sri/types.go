package sri

import (
	"time"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// InvoiceBuildContext agrupa todo lo que el builder necesita para generar el
// XML de la factura: emisor, comprador (nil = consumidor final), venta con sus
// líneas y los campos ya resueltos del comprobante (clave de acceso, secuencial).
type InvoiceBuildContext struct {
	Taller  *entity.Taller
	Client  *entity.Client
	Sale    *entity.Sale
	Items   []*entity.SaleItem
	Invoice *entity.ElectronicInvoice
}

// Mensaje es un mensaje informativo o de error devuelto por el SRI en las
// respuestas de recepción y autorización.
type Mensaje struct {
	Identificador        string `xml:"identificador"`
	Mensaje              string `xml:"mensaje"`
	InformacionAdicional string `xml:"informacionAdicional"`
	Tipo                 string `xml:"tipo"` // ERROR | ADVERTENCIA
}

// Estados devueltos por los web services del SRI.
const (
	RecepcionRecibida = "RECIBIDA"
	RecepcionDevuelta = "DEVUELTA"

	AutorizacionAutorizado   = "AUTORIZADO"
	AutorizacionNoAutorizado = "NO AUTORIZADO"
	AutorizacionEnProceso    = "EN PROCESO"
)

// ReceptionResult es el resultado de RecepcionComprobantesOffline.
type ReceptionResult struct {
	Estado   string // RECIBIDA | DEVUELTA
	Mensajes []Mensaje
}

// AuthorizationResult es el resultado de AutorizacionComprobantesOffline para
// una clave de acceso. Pending indica que el SRI aún no registra la autorización
// (cero autorizaciones en la respuesta o estado EN PROCESO).
type AuthorizationResult struct {
	Estado             string // AUTORIZADO | NO AUTORIZADO | EN PROCESO
	Pending            bool
	NumeroAutorizacion string
	FechaAutorizacion  *time.Time
	Ambiente           string
	Mensajes           []Mensaje
}

// MensajesToStrings aplana los mensajes del SRI al formato que se persiste con
// el comprobante: "identificador: mensaje (informacionAdicional)".
func MensajesToStrings(msgs []Mensaje) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		s := m.Mensaje
		if m.Identificador != "" {
			s = m.Identificador + ": " + s
		}
		if m.InformacionAdicional != "" {
			s += " (" + m.InformacionAdicional + ")"
		}
		out = append(out, s)
	}
	return out
}
