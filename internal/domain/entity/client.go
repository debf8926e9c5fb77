package entity

import "time"

// Client representa el cliente del taller (comprador del comprobante).
type Client struct {
	ID             string
	TallerID       string
	TipoIdent      string // Tabla 6 SRI: "04" RUC, "05" cédula, "06" pasaporte, "08" exterior
	Identificacion string
	RazonSocial    string
	Direccion      string
	Email          string
	Telefono       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
