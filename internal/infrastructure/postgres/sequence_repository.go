package postgres

import (
	"context"
	"fmt"

	"github.com/jvillacis/tallerpro-api/internal/domain/repository"
	domainsri "github.com/jvillacis/tallerpro-api/internal/domain/sri"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo asigna secuenciales de comprobante sobre PostgreSQL.
// Usable con pool o tx (Querier); en emisión se pasa la tx para que el
// secuencial y la inserción del comprobante confirmen o reviertan juntos.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el siguiente secuencial de la serie.
// El upsert con RETURNING es atómico: el row lock del UPDATE serializa las
// asignaciones concurrentes sin necesidad de SELECT ... FOR UPDATE.
func (r *SequenceRepo) Next(ctx context.Context, tallerID, codDoc, estab, ptoEmi string) (int64, error) {
	const q = `
		INSERT INTO document_sequences (taller_id, cod_doc, estab, pto_emi, last_value, updated_at)
		VALUES ($1, $2, $3, $4, 1, now())
		ON CONFLICT (taller_id, cod_doc, estab, pto_emi)
		DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = now()
		RETURNING last_value`

	var next int64
	if err := r.q.QueryRow(ctx, q, tallerID, codDoc, estab, ptoEmi).Scan(&next); err != nil {
		return 0, &domainsri.AllocationError{
			Key: fmt.Sprintf("%s/%s/%s-%s", tallerID, codDoc, estab, ptoEmi),
			Err: err,
		}
	}
	return next, nil
}
