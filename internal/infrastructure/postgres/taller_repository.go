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

var _ repository.TallerRepository = (*TallerRepo)(nil)

// TallerRepo implementación de TallerRepository sobre PostgreSQL.
type TallerRepo struct {
	q Querier
}

// NewTallerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTallerRepository(q Querier) *TallerRepo {
	return &TallerRepo{q: q}
}

func (r *TallerRepo) Create(ctx context.Context, taller *entity.Taller) error {
	if taller.ID == "" {
		taller.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO talleres
			(id, ruc, razon_social, nombre_comercial, dir_matriz, dir_estab,
			 estab, pto_emi, obligado_contab, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(ctx, q,
		taller.ID, taller.RUC, taller.RazonSocial, nullIfEmpty(taller.NombreComercial),
		taller.DirMatriz, nullIfEmpty(taller.DirEstab), taller.Estab, taller.PtoEmi, taller.ObligadoContab,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("taller con RUC %s ya existe: %w", taller.RUC, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert taller: %w", err)
	}
	return nil
}

func (r *TallerRepo) Update(ctx context.Context, taller *entity.Taller) error {
	const q = `
		UPDATE talleres
		SET razon_social = $2, nombre_comercial = $3, dir_matriz = $4, dir_estab = $5,
		    estab = $6, pto_emi = $7, obligado_contab = $8, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		taller.ID, taller.RazonSocial, nullIfEmpty(taller.NombreComercial),
		taller.DirMatriz, nullIfEmpty(taller.DirEstab), taller.Estab, taller.PtoEmi, taller.ObligadoContab,
	)
	if err != nil {
		return fmt.Errorf("update taller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taller %s: %w", taller.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *TallerRepo) GetByID(ctx context.Context, id string) (*entity.Taller, error) {
	const q = tallerSelect + ` WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, q, id))
}

func (r *TallerRepo) GetByRUC(ctx context.Context, ruc string) (*entity.Taller, error) {
	const q = tallerSelect + ` WHERE ruc = $1`
	return r.scanOne(r.q.QueryRow(ctx, q, ruc))
}

const tallerSelect = `
	SELECT id, ruc, razon_social, nombre_comercial, dir_matriz, dir_estab,
	       estab, pto_emi, obligado_contab, created_at, updated_at
	FROM talleres`

func (r *TallerRepo) scanOne(row pgx.Row) (*entity.Taller, error) {
	var t entity.Taller
	var nombreComercial, dirEstab *string
	err := row.Scan(
		&t.ID, &t.RUC, &t.RazonSocial, &nombreComercial, &t.DirMatriz, &dirEstab,
		&t.Estab, &t.PtoEmi, &t.ObligadoContab, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan taller: %w", err)
	}
	t.NombreComercial = derefStr(nombreComercial)
	t.DirEstab = derefStr(dirEstab)
	return &t, nil
}
