package repository

import (
	"context"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para clientes del taller.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	Update(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, tallerID, id string) (*entity.Client, error)
	List(ctx context.Context, tallerID string, limit, offset int) ([]*entity.Client, error)
}
