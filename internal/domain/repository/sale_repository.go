package repository

import (
	"context"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// SaleRepository define el puerto de lectura de ventas para la emisión.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale, items []*entity.SaleItem) error
	GetByID(ctx context.Context, tallerID, id string) (*entity.Sale, error)
	GetItems(ctx context.Context, saleID string) ([]*entity.SaleItem, error)
	List(ctx context.Context, tallerID string, limit, offset int) ([]*entity.Sale, error)
}
