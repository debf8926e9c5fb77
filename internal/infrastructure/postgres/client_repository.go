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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

func (r *ClientRepo) Create(ctx context.Context, client *entity.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO clients
			(id, taller_id, tipo_ident, identificacion, razon_social, direccion, email, telefono, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.q.Exec(ctx, q,
		client.ID, client.TallerID, client.TipoIdent, client.Identificacion, client.RazonSocial,
		nullIfEmpty(client.Direccion), nullIfEmpty(client.Email), nullIfEmpty(client.Telefono),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cliente con identificación %s ya existe: %w", client.Identificacion, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepo) Update(ctx context.Context, client *entity.Client) error {
	const q = `
		UPDATE clients
		SET tipo_ident = $3, identificacion = $4, razon_social = $5,
		    direccion = $6, email = $7, telefono = $8, updated_at = now()
		WHERE id = $1 AND taller_id = $2`
	tag, err := r.q.Exec(ctx, q,
		client.ID, client.TallerID, client.TipoIdent, client.Identificacion, client.RazonSocial,
		nullIfEmpty(client.Direccion), nullIfEmpty(client.Email), nullIfEmpty(client.Telefono),
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cliente %s: %w", client.ID, domain.ErrNotFound)
	}
	return nil
}

const clientSelect = `
	SELECT id, taller_id, tipo_ident, identificacion, razon_social,
	       direccion, email, telefono, created_at, updated_at
	FROM clients`

func (r *ClientRepo) GetByID(ctx context.Context, tallerID, id string) (*entity.Client, error) {
	const q = clientSelect + ` WHERE id = $1 AND taller_id = $2`
	return r.scanOne(r.q.QueryRow(ctx, q, id, tallerID))
}

func (r *ClientRepo) List(ctx context.Context, tallerID string, limit, offset int) ([]*entity.Client, error) {
	const q = clientSelect + ` WHERE taller_id = $1 ORDER BY razon_social LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, tallerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var list []*entity.Client
	for rows.Next() {
		c, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *ClientRepo) scanOne(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	var direccion, email, telefono *string
	err := row.Scan(
		&c.ID, &c.TallerID, &c.TipoIdent, &c.Identificacion, &c.RazonSocial,
		&direccion, &email, &telefono, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	c.Direccion = derefStr(direccion)
	c.Email = derefStr(email)
	c.Telefono = derefStr(telefono)
	return &c, nil
}
