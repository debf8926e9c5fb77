package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jvillacis/tallerpro-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunIssuance inicia una transacción y ejecuta fn con el allocator de
// secuenciales y el repositorio de comprobantes atados a la misma tx.
// Así el secuencial asignado y el comprobante GENERADA confirman juntos:
// si la inserción falla, el incremento de la serie también se revierte y la
// numeración queda sin huecos.
func (r *TxRunner) RunIssuance(ctx context.Context, fn func(
	seqRepo repository.SequenceRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	seqRepo := NewSequenceRepository(tx)
	invoiceRepo := NewInvoiceRepository(tx)

	if err := fn(seqRepo, invoiceRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
