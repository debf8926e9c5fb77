package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jvillacis/tallerpro-api/internal/domain"
	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	"github.com/jvillacis/tallerpro-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, taller_id, sale_id, cod_doc, estab, pto_emi, secuencial,
	clave_acceso, ambiente, estado, numero_autorizacion, mensajes,
	xml_generado, xml_firmado, fecha_emision, authorized_at, created_at, updated_at`

// Create persiste el comprobante recién generado. La tabla tiene unique sobre
// sale_id y sobre clave_acceso; un duplicado se reporta como domain.ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.ElectronicInvoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO electronic_invoices
			(id, taller_id, sale_id, cod_doc, estab, pto_emi, secuencial,
			 clave_acceso, ambiente, estado, numero_autorizacion, mensajes,
			 xml_generado, xml_firmado, fecha_emision, authorized_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())`
	_, err := r.q.Exec(ctx, q,
		inv.ID, inv.TallerID, inv.SaleID, inv.CodDoc, inv.Estab, inv.PtoEmi, inv.Secuencial,
		inv.ClaveAcceso, inv.Ambiente, inv.Estado, nullIfEmpty(inv.NumeroAutorizacion), inv.Mensajes,
		nullIfEmpty(inv.XMLGenerado), nullIfEmpty(inv.XMLFirmado), inv.FechaEmision, inv.AuthorizedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("comprobante ya existe para la venta %s: %w", inv.SaleID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert electronic_invoice: %w", err)
	}
	return nil
}

// Update persiste una transición de estado del comprobante.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.ElectronicInvoice) error {
	const q = `
		UPDATE electronic_invoices
		SET estado              = $2,
		    numero_autorizacion = COALESCE($3, numero_autorizacion),
		    mensajes            = $4,
		    xml_generado        = COALESCE($5, xml_generado),
		    xml_firmado         = COALESCE($6, xml_firmado),
		    authorized_at       = COALESCE($7, authorized_at),
		    updated_at          = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		inv.ID, inv.Estado, nullIfEmpty(inv.NumeroAutorizacion), inv.Mensajes,
		nullIfEmpty(inv.XMLGenerado), nullIfEmpty(inv.XMLFirmado), inv.AuthorizedAt,
	)
	if err != nil {
		return fmt.Errorf("update electronic_invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comprobante %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene un comprobante del taller por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, tallerID, id string) (*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM electronic_invoices WHERE id = $1 AND taller_id = $2`
	return r.scanOne(r.q.QueryRow(ctx, q, id, tallerID))
}

// GetBySaleID obtiene el comprobante de una venta, si existe (consulta de idempotencia).
func (r *InvoiceRepo) GetBySaleID(ctx context.Context, tallerID, saleID string) (*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM electronic_invoices WHERE sale_id = $1 AND taller_id = $2`
	return r.scanOne(r.q.QueryRow(ctx, q, saleID, tallerID))
}

// GetByAccessKey obtiene un comprobante por clave de acceso.
func (r *InvoiceRepo) GetByAccessKey(ctx context.Context, claveAcceso string) (*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM electronic_invoices WHERE clave_acceso = $1`
	return r.scanOne(r.q.QueryRow(ctx, q, claveAcceso))
}

// ListByEstado lista comprobantes de un taller en un estado dado (más antiguos primero,
// pensado para reintentos de consulta de autorización).
func (r *InvoiceRepo) ListByEstado(ctx context.Context, tallerID, estado string, limit int) ([]*entity.ElectronicInvoice, error) {
	q := `SELECT ` + invoiceColumns + `
		FROM electronic_invoices
		WHERE taller_id = $1 AND estado = $2
		ORDER BY created_at ASC
		LIMIT $3`
	rows, err := r.q.Query(ctx, q, tallerID, estado, limit)
	if err != nil {
		return nil, fmt.Errorf("list electronic_invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.ElectronicInvoice
	for rows.Next() {
		inv, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) scanOne(row pgx.Row) (*entity.ElectronicInvoice, error) {
	var inv entity.ElectronicInvoice
	var numeroAut, xmlGen, xmlFirmado *string
	err := row.Scan(
		&inv.ID, &inv.TallerID, &inv.SaleID, &inv.CodDoc, &inv.Estab, &inv.PtoEmi, &inv.Secuencial,
		&inv.ClaveAcceso, &inv.Ambiente, &inv.Estado, &numeroAut, &inv.Mensajes,
		&xmlGen, &xmlFirmado, &inv.FechaEmision, &inv.AuthorizedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan electronic_invoice: %w", err)
	}
	inv.NumeroAutorizacion = derefStr(numeroAut)
	inv.XMLGenerado = derefStr(xmlGen)
	inv.XMLFirmado = derefStr(xmlFirmado)
	return &inv, nil
}
