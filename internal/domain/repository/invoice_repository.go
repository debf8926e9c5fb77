package repository

import (
	"context"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para comprobantes electrónicos.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.ElectronicInvoice) error
	// Update persiste la transición de estado completa: estado, clave de acceso,
	// XMLs, número de autorización, mensajes del SRI y fecha de autorización.
	Update(ctx context.Context, inv *entity.ElectronicInvoice) error
	GetByID(ctx context.Context, tallerID, id string) (*entity.ElectronicInvoice, error)
	// GetBySaleID es la consulta de idempotencia: una venta tiene como máximo un comprobante.
	GetBySaleID(ctx context.Context, tallerID, saleID string) (*entity.ElectronicInvoice, error)
	GetByAccessKey(ctx context.Context, claveAcceso string) (*entity.ElectronicInvoice, error)
	ListByEstado(ctx context.Context, tallerID, estado string, limit int) ([]*entity.ElectronicInvoice, error)
}
