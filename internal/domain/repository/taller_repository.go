package repository

import (
	"context"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// TallerRepository define el puerto de persistencia para talleres (emisores).
type TallerRepository interface {
	Create(ctx context.Context, taller *entity.Taller) error
	Update(ctx context.Context, taller *entity.Taller) error
	GetByID(ctx context.Context, id string) (*entity.Taller, error)
	GetByRUC(ctx context.Context, ruc string) (*entity.Taller, error)
}
