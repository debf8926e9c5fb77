package billing

import (
	"context"
	"crypto/tls"

	"github.com/jvillacis/tallerpro-api/internal/domain/repository"
	infrasri "github.com/jvillacis/tallerpro-api/internal/infrastructure/sri"
)

// IssuanceTxRunner ejecuta una función dentro de una transacción que ata el
// allocator de secuenciales y el repositorio de comprobantes a la misma tx.
type IssuanceTxRunner interface {
	RunIssuance(ctx context.Context, fn func(
		seqRepo repository.SequenceRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// XMLBuilder genera el XML de la factura a partir del contexto de emisión.
type XMLBuilder interface {
	Build(ctx *infrasri.InvoiceBuildContext) ([]byte, error)
}

// CertProvider entrega el certificado de firma ya validado (vigencia, llave RSA).
// Se consulta ANTES de asignar secuencial: un certificado inválido no debe
// quemar numeración.
type CertProvider interface {
	SigningCertificate() (tls.Certificate, error)
}
