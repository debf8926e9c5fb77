package dto

import (
	"time"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// InvoiceResponse comprobante electrónico en respuestas.
type InvoiceResponse struct {
	ID                 string     `json:"id"`
	SaleID             string     `json:"sale_id"`
	CodDoc             string     `json:"cod_doc"`
	Estab              string     `json:"estab"`
	PtoEmi             string     `json:"pto_emi"`
	Secuencial         int64      `json:"secuencial"`
	ClaveAcceso        string     `json:"clave_acceso"`
	Ambiente           string     `json:"ambiente"`
	Estado             string     `json:"estado"`
	NumeroAutorizacion string     `json:"numero_autorizacion,omitempty"`
	Mensajes           []string   `json:"mensajes,omitempty"`
	FechaEmision       time.Time  `json:"fecha_emision"`
	AuthorizedAt       *time.Time `json:"authorized_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewInvoiceResponse mapea la entidad a la respuesta HTTP.
// Los XML no viajan en el JSON; se exponen por el endpoint de descarga.
func NewInvoiceResponse(inv *entity.ElectronicInvoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                 inv.ID,
		SaleID:             inv.SaleID,
		CodDoc:             inv.CodDoc,
		Estab:              inv.Estab,
		PtoEmi:             inv.PtoEmi,
		Secuencial:         inv.Secuencial,
		ClaveAcceso:        inv.ClaveAcceso,
		Ambiente:           inv.Ambiente,
		Estado:             inv.Estado,
		NumeroAutorizacion: inv.NumeroAutorizacion,
		Mensajes:           inv.Mensajes,
		FechaEmision:       inv.FechaEmision,
		AuthorizedAt:       inv.AuthorizedAt,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}
