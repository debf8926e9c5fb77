package billing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jvillacis/tallerpro-api/internal/domain"
	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	"github.com/jvillacis/tallerpro-api/internal/domain/repository"
	domainsri "github.com/jvillacis/tallerpro-api/internal/domain/sri"
	infrasri "github.com/jvillacis/tallerpro-api/internal/infrastructure/sri"
	"github.com/jvillacis/tallerpro-api/pkg/config"
	"github.com/jvillacis/tallerpro-api/pkg/logger"
	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// IssueInvoiceUseCase orquesta el ciclo completo de emisión de un comprobante:
//
//	validar venta → certificado → [tx: secuencial + clave de acceso + XML + GENERADA]
//	→ firma XAdES (FIRMADA) → recepción SRI (ENVIADA | DEVUELTA)
//	→ consulta de autorización con backoff (AUTORIZADA | RECHAZADA)
//
// Un resultado adverso del SRI (DEVUELTA, RECHAZADA) no es un error de la
// operación: se persiste el estado con sus mensajes y se devuelve el registro.
// Los fallos locales (validación, certificado, red) sí devuelven error tipado.
type IssueInvoiceUseCase struct {
	tallerRepo  repository.TallerRepository
	clientRepo  repository.ClientRepository
	saleRepo    repository.SaleRepository
	invoiceRepo repository.InvoiceRepository
	txRunner    IssuanceTxRunner
	xmlBuilder  XMLBuilder
	signer      pkgsri.Signer
	certs       CertProvider
	sriClient   infrasri.SRIClient
	cfg         config.SRIConfig
	log         *logger.Logger

	// Inyectables en tests.
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	codigoNumerico func() (string, error)
}

// NewIssueInvoiceUseCase construye el orquestador con todas sus dependencias.
func NewIssueInvoiceUseCase(
	tallerRepo repository.TallerRepository,
	clientRepo repository.ClientRepository,
	saleRepo repository.SaleRepository,
	invoiceRepo repository.InvoiceRepository,
	txRunner IssuanceTxRunner,
	xmlBuilder XMLBuilder,
	signer pkgsri.Signer,
	certs CertProvider,
	sriClient infrasri.SRIClient,
	cfg config.SRIConfig,
	log *logger.Logger,
) *IssueInvoiceUseCase {
	return &IssueInvoiceUseCase{
		tallerRepo:     tallerRepo,
		clientRepo:     clientRepo,
		saleRepo:       saleRepo,
		invoiceRepo:    invoiceRepo,
		txRunner:       txRunner,
		xmlBuilder:     xmlBuilder,
		signer:         signer,
		certs:          certs,
		sriClient:      sriClient,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
		sleep:          sleepCtx,
		codigoNumerico: randomCodigoNumerico,
	}
}

// Issue emite el comprobante electrónico de una venta. Es idempotente por
// venta: si la venta ya tiene comprobante se devuelve el existente sin
// consumir secuencial.
func (uc *IssueInvoiceUseCase) Issue(ctx context.Context, tallerID, saleID string) (*entity.ElectronicInvoice, error) {
	// 0. Idempotencia: una venta, un comprobante.
	if existing, err := uc.invoiceRepo.GetBySaleID(ctx, tallerID, saleID); err == nil {
		uc.log.Info().Str("sale_id", saleID).Str("estado", existing.Estado).
			Msg("venta ya tiene comprobante, devolviendo existente")
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("consultar comprobante existente: %w", err)
	}

	// 1. Cargar emisor, venta y comprador.
	taller, err := uc.tallerRepo.GetByID(ctx, tallerID)
	if err != nil {
		return nil, fmt.Errorf("cargar taller %s: %w", tallerID, err)
	}
	sale, err := uc.saleRepo.GetByID(ctx, tallerID, saleID)
	if err != nil {
		return nil, fmt.Errorf("cargar venta %s: %w", saleID, err)
	}
	items, err := uc.saleRepo.GetItems(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("cargar líneas de la venta %s: %w", saleID, err)
	}
	var client *entity.Client
	if sale.ClientID != "" {
		client, err = uc.clientRepo.GetByID(ctx, tallerID, sale.ClientID)
		if err != nil {
			return nil, fmt.Errorf("cargar cliente %s: %w", sale.ClientID, err)
		}
	}

	// 2. Validar antes de tocar la numeración.
	if err := domainsri.ValidateSale(taller, client, sale, items); err != nil {
		return nil, err
	}

	// 3. Certificado listo antes de consumir secuencial.
	cert, err := uc.certs.SigningCertificate()
	if err != nil {
		return nil, &domainsri.SigningError{Stage: "cert-load", Err: err}
	}

	codigoNum, err := uc.codigoNumerico()
	if err != nil {
		return nil, fmt.Errorf("generar código numérico: %w", err)
	}
	fechaEmision := uc.now()

	// 4. Transacción: secuencial + clave de acceso + XML + registro GENERADA.
	// Si cualquier paso falla, el incremento del secuencial se revierte con la tx.
	var inv *entity.ElectronicInvoice
	err = uc.txRunner.RunIssuance(ctx, func(seqRepo repository.SequenceRepository, invoiceRepo repository.InvoiceRepository) error {
		secuencial, err := seqRepo.Next(ctx, tallerID, pkgsri.CodDocFactura, taller.Estab, taller.PtoEmi)
		if err != nil {
			return err
		}

		claveAcceso, err := domainsri.GenerateAccessKey(domainsri.AccessKeyParams{
			Fecha:          domainsri.FormatFecha(fechaEmision),
			CodDoc:         pkgsri.CodDocFactura,
			RUC:            taller.RUC,
			Ambiente:       uc.cfg.Ambiente,
			Estab:          taller.Estab,
			PtoEmi:         taller.PtoEmi,
			Secuencial:     domainsri.FormatSecuencial(secuencial),
			CodigoNumerico: codigoNum,
			TipoEmision:    pkgsri.EmisionNormal,
		})
		if err != nil {
			return err
		}

		inv = &entity.ElectronicInvoice{
			TallerID:     tallerID,
			SaleID:       sale.ID,
			CodDoc:       pkgsri.CodDocFactura,
			Estab:        taller.Estab,
			PtoEmi:       taller.PtoEmi,
			Secuencial:   secuencial,
			ClaveAcceso:  claveAcceso,
			Ambiente:     uc.cfg.Ambiente,
			Estado:       entity.EstadoGenerada,
			FechaEmision: fechaEmision,
		}

		xmlBytes, err := uc.xmlBuilder.Build(&infrasri.InvoiceBuildContext{
			Taller:  taller,
			Client:  client,
			Sale:    sale,
			Items:   items,
			Invoice: inv,
		})
		if err != nil {
			return fmt.Errorf("construir XML: %w", err)
		}
		inv.XMLGenerado = string(xmlBytes)

		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		// Carrera con otra emisión de la misma venta: devolver el ganador.
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, getErr := uc.invoiceRepo.GetBySaleID(ctx, tallerID, saleID); getErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	uc.log.Info().Str("clave_acceso", inv.ClaveAcceso).Int64("secuencial", inv.Secuencial).
		Msg("comprobante generado")

	// 5. Firma XAdES-BES.
	signedXML, err := uc.signer.Sign([]byte(inv.XMLGenerado), cert)
	if err != nil {
		sigErr := &domainsri.SigningError{Stage: "sign", Err: err}
		uc.markErrorEnvio(ctx, inv, sigErr.Error())
		return inv, sigErr
	}
	inv.XMLFirmado = string(signedXML)
	inv.Estado = entity.EstadoFirmada
	if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
		return inv, fmt.Errorf("persistir FIRMADA: %w", err)
	}

	// 6. Recepción.
	reception, err := uc.sriClient.ValidarComprobante(ctx, signedXML)
	if err != nil {
		subErr := &domainsri.SubmissionError{Op: "recepcion", Err: err}
		uc.markErrorEnvio(ctx, inv, subErr.Error())
		return inv, subErr
	}
	if reception.Estado != infrasri.RecepcionRecibida {
		// DEVUELTA: resultado terminal del SRI, se persiste con sus mensajes.
		inv.Estado = entity.EstadoDevuelta
		inv.Mensajes = infrasri.MensajesToStrings(reception.Mensajes)
		if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
			return inv, fmt.Errorf("persistir DEVUELTA: %w", err)
		}
		uc.log.Warn().Str("clave_acceso", inv.ClaveAcceso).Strs("mensajes", inv.Mensajes).
			Msg("comprobante devuelto en recepción")
		return inv, nil
	}

	inv.Estado = entity.EstadoEnviada
	if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
		return inv, fmt.Errorf("persistir ENVIADA: %w", err)
	}

	// 7. Consulta de autorización con backoff exponencial.
	return uc.pollAuthorization(ctx, inv)
}

// pollAuthorization consulta la autorización hasta resolver o agotar intentos.
// Si se agotan los intentos (o falla la red) el comprobante queda ENVIADA y la
// consulta puede repetirse después vía RefreshStatus.
func (uc *IssueInvoiceUseCase) pollAuthorization(ctx context.Context, inv *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
	delay := uc.cfg.PollInitialDelay
	for attempt := 1; attempt <= uc.cfg.PollMaxAttempts; attempt++ {
		if err := uc.sleep(ctx, delay); err != nil {
			return inv, nil // contexto cancelado: queda ENVIADA
		}

		auth, err := uc.sriClient.AutorizacionComprobante(ctx, inv.ClaveAcceso)
		if err != nil {
			// La recepción ya fue aceptada: no se degrada el estado por un fallo
			// de red en la consulta; se reintenta por RefreshStatus.
			uc.log.Warn().Err(err).Str("clave_acceso", inv.ClaveAcceso).Int("attempt", attempt).
				Msg("fallo consultando autorización, comprobante queda ENVIADA")
			return inv, nil
		}
		if !auth.Pending {
			return uc.applyAuthorization(ctx, inv, auth)
		}

		delay = time.Duration(float64(delay) * uc.cfg.PollBackoffFactor)
	}

	uc.log.Info().Str("clave_acceso", inv.ClaveAcceso).
		Msg("autorización aún EN PROCESO tras agotar intentos, comprobante queda ENVIADA")
	return inv, nil
}

// RefreshStatus re-consulta la autorización de un comprobante ENVIADA y aplica
// la transición que corresponda. Para estados terminales devuelve el registro
// tal cual sin llamar al SRI.
func (uc *IssueInvoiceUseCase) RefreshStatus(ctx context.Context, tallerID, invoiceID string) (*entity.ElectronicInvoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, tallerID, invoiceID)
	if err != nil {
		return nil, err
	}
	// Los estados terminales no transicionan; GENERADA/FIRMADA aún no
	// llegaron al SRI, así que tampoco hay nada que consultar.
	if entity.IsTerminalState(inv.Estado) || inv.Estado != entity.EstadoEnviada {
		return inv, nil
	}

	auth, err := uc.sriClient.AutorizacionComprobante(ctx, inv.ClaveAcceso)
	if err != nil {
		return inv, &domainsri.SubmissionError{Op: "autorizacion", Err: err}
	}
	if auth.Pending {
		return inv, nil
	}
	return uc.applyAuthorization(ctx, inv, auth)
}

// applyAuthorization persiste el desenlace de la consulta de autorización.
func (uc *IssueInvoiceUseCase) applyAuthorization(ctx context.Context, inv *entity.ElectronicInvoice, auth *infrasri.AuthorizationResult) (*entity.ElectronicInvoice, error) {
	switch auth.Estado {
	case infrasri.AutorizacionAutorizado:
		inv.Estado = entity.EstadoAutorizada
		inv.NumeroAutorizacion = auth.NumeroAutorizacion
		if auth.FechaAutorizacion != nil {
			inv.AuthorizedAt = auth.FechaAutorizacion
		} else {
			now := uc.now()
			inv.AuthorizedAt = &now
		}
		inv.Mensajes = infrasri.MensajesToStrings(auth.Mensajes)
		if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
			return inv, fmt.Errorf("persistir AUTORIZADA: %w", err)
		}
		uc.log.Info().Str("clave_acceso", inv.ClaveAcceso).Str("numero_autorizacion", inv.NumeroAutorizacion).
			Msg("comprobante autorizado")
		return inv, nil

	case infrasri.RecepcionDevuelta:
		// El SRI también puede devolver el comprobante en la fase de
		// autorización; se registra con su veredicto literal.
		inv.Estado = entity.EstadoDevuelta
		inv.Mensajes = infrasri.MensajesToStrings(auth.Mensajes)
		if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
			return inv, fmt.Errorf("persistir DEVUELTA: %w", err)
		}
		uc.log.Warn().Str("clave_acceso", inv.ClaveAcceso).Strs("mensajes", inv.Mensajes).
			Msg("comprobante devuelto en autorización")
		return inv, nil

	default:
		// NO AUTORIZADO (o estado desconocido): rechazo terminal con mensajes.
		inv.Estado = entity.EstadoRechazada
		inv.Mensajes = infrasri.MensajesToStrings(auth.Mensajes)
		if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
			return inv, fmt.Errorf("persistir RECHAZADA: %w", err)
		}
		uc.log.Warn().Str("clave_acceso", inv.ClaveAcceso).Strs("mensajes", inv.Mensajes).
			Msg("comprobante no autorizado")
		return inv, nil
	}
}

// markErrorEnvio persiste el estado ERROR_ENVIO con el detalle del fallo.
func (uc *IssueInvoiceUseCase) markErrorEnvio(ctx context.Context, inv *entity.ElectronicInvoice, detail string) {
	inv.Estado = entity.EstadoErrorEnvio
	inv.Mensajes = append(inv.Mensajes, detail)
	if err := uc.invoiceRepo.Update(ctx, inv); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo persistir ERROR_ENVIO")
	}
}

// GetInvoice devuelve un comprobante del taller.
func (uc *IssueInvoiceUseCase) GetInvoice(ctx context.Context, tallerID, invoiceID string) (*entity.ElectronicInvoice, error) {
	return uc.invoiceRepo.GetByID(ctx, tallerID, invoiceID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomCodigoNumerico genera los 8 dígitos aleatorios de la clave de acceso.
func randomCodigoNumerico() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
