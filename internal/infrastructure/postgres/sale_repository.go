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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta con sus líneas.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale, items []*entity.SaleItem) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	const qSale = `
		INSERT INTO sales
			(id, taller_id, client_id, numero, fecha, total_sin_impuestos,
			 total_descuento, total_impuestos, propina, importe_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`
	_, err := r.q.Exec(ctx, qSale,
		sale.ID, sale.TallerID, nullIfEmpty(sale.ClientID), sale.Numero, sale.Fecha,
		sale.TotalSinImpuestos, sale.TotalDescuento, sale.TotalImpuestos, sale.Propina, sale.ImporteTotal,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("venta %s ya existe: %w", sale.Numero, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	const qItem = `
		INSERT INTO sale_items
			(id, sale_id, codigo_principal, descripcion, cantidad, precio_unitario,
			 descuento, subtotal, codigo_impuesto, codigo_porcentaje)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.SaleID = sale.ID
		_, err := r.q.Exec(ctx, qItem,
			item.ID, item.SaleID, item.CodigoPrincipal, item.Descripcion, item.Cantidad,
			item.PrecioUnitario, item.Descuento, item.Subtotal, item.CodigoImpuesto, item.CodigoPorcentaje,
		)
		if err != nil {
			return fmt.Errorf("insert sale_item: %w", err)
		}
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, tallerID, id string) (*entity.Sale, error) {
	const q = saleSelect + ` WHERE id = $1 AND taller_id = $2`
	return r.scanOne(r.q.QueryRow(ctx, q, id, tallerID))
}

func (r *SaleRepo) GetItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error) {
	const q = `
		SELECT id, sale_id, codigo_principal, descripcion, cantidad, precio_unitario,
		       descuento, subtotal, codigo_impuesto, codigo_porcentaje
		FROM sale_items WHERE sale_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, q, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale_items: %w", err)
	}
	defer rows.Close()

	var items []*entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.CodigoPrincipal, &it.Descripcion, &it.Cantidad,
			&it.PrecioUnitario, &it.Descuento, &it.Subtotal, &it.CodigoImpuesto, &it.CodigoPorcentaje,
		); err != nil {
			return nil, fmt.Errorf("scan sale_item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *SaleRepo) List(ctx context.Context, tallerID string, limit, offset int) ([]*entity.Sale, error) {
	const q = saleSelect + ` WHERE taller_id = $1 ORDER BY fecha DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, tallerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var list []*entity.Sale
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

const saleSelect = `
	SELECT id, taller_id, client_id, numero, fecha, total_sin_impuestos,
	       total_descuento, total_impuestos, propina, importe_total, created_at, updated_at
	FROM sales`

func (r *SaleRepo) scanOne(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var clientID *string
	err := row.Scan(
		&s.ID, &s.TallerID, &clientID, &s.Numero, &s.Fecha, &s.TotalSinImpuestos,
		&s.TotalDescuento, &s.TotalImpuestos, &s.Propina, &s.ImporteTotal, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	s.ClientID = derefStr(clientID)
	return &s, nil
}
