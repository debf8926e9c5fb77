package sri

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	domainsri "github.com/jvillacis/tallerpro-api/internal/domain/sri"
	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// ComprobanteElementID es el id del elemento raíz <factura>; la Reference de la
// firma XAdES apunta a "#comprobante".
const ComprobanteElementID = "comprobante"

// facturaVersion versión del esquema factura soportada.
const facturaVersion = "1.1.0"

// XMLBuilderService construye el XML de la factura según el esquema
// factura v1.1.0 de la Ficha Técnica del SRI (sin firma; el signer la añade).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el documento <factura> completo en UTF-8.
// El comprador se resuelve así: si ctx.Client es nil la venta es a consumidor
// final (identificación 9999999999999, tabla 6 código 07).
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Taller == nil || ctx.Sale == nil {
		return nil, fmt.Errorf("sri: faltan invoice, taller o sale en el contexto")
	}
	if len(ctx.Items) == 0 {
		return nil, fmt.Errorf("sri: la factura debe tener al menos un detalle")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	factura := doc.CreateElement("factura")
	factura.CreateAttr("id", ComprobanteElementID)
	factura.CreateAttr("version", facturaVersion)

	s.writeInfoTributaria(factura, ctx)
	if err := s.writeInfoFactura(factura, ctx); err != nil {
		return nil, err
	}
	if err := s.writeDetalles(factura, ctx); err != nil {
		return nil, err
	}
	s.writeInfoAdicional(factura, ctx)

	doc.Indent(2)
	return doc.WriteToBytes()
}

func (s *XMLBuilderService) writeInfoTributaria(parent *etree.Element, ctx *InvoiceBuildContext) {
	inv := ctx.Invoice
	taller := ctx.Taller

	it := parent.CreateElement("infoTributaria")
	writeText(it, "ambiente", inv.Ambiente)
	writeText(it, "tipoEmision", pkgsri.EmisionNormal)
	writeText(it, "razonSocial", taller.RazonSocial)
	if taller.NombreComercial != "" {
		writeText(it, "nombreComercial", taller.NombreComercial)
	}
	writeText(it, "ruc", taller.RUC)
	writeText(it, "claveAcceso", inv.ClaveAcceso)
	writeText(it, "codDoc", inv.CodDoc)
	writeText(it, "estab", inv.Estab)
	writeText(it, "ptoEmi", inv.PtoEmi)
	writeText(it, "secuencial", domainsri.FormatSecuencial(inv.Secuencial))
	writeText(it, "dirMatriz", taller.DirMatriz)
}

func (s *XMLBuilderService) writeInfoFactura(parent *etree.Element, ctx *InvoiceBuildContext) error {
	inv := ctx.Invoice
	taller := ctx.Taller
	sale := ctx.Sale

	inf := parent.CreateElement("infoFactura")
	writeText(inf, "fechaEmision", inv.FechaEmision.Format("02/01/2006"))
	dirEstab := taller.DirEstab
	if dirEstab == "" {
		dirEstab = taller.DirMatriz
	}
	writeText(inf, "dirEstablecimiento", dirEstab)
	obligado := pkgsri.ObligadoNo
	if taller.ObligadoContab {
		obligado = pkgsri.ObligadoSi
	}
	writeText(inf, "obligadoContabilidad", obligado)

	tipoIdent, identificacion, razonSocial := buyerIdentity(ctx.Client)
	writeText(inf, "tipoIdentificacionComprador", tipoIdent)
	writeText(inf, "razonSocialComprador", razonSocial)
	writeText(inf, "identificacionComprador", identificacion)

	writeText(inf, "totalSinImpuestos", formatAmount(sale.TotalSinImpuestos))
	writeText(inf, "totalDescuento", formatAmount(sale.TotalDescuento))

	summaries, err := domainsri.SummarizeTaxes(ctx.Items)
	if err != nil {
		return err
	}
	tci := inf.CreateElement("totalConImpuestos")
	for _, sum := range summaries {
		ti := tci.CreateElement("totalImpuesto")
		writeText(ti, "codigo", sum.Codigo)
		writeText(ti, "codigoPorcentaje", sum.CodigoPorcentaje)
		writeText(ti, "baseImponible", formatAmount(sum.BaseImponible))
		writeText(ti, "valor", formatAmount(sum.Valor))
	}

	writeText(inf, "propina", formatAmount(sale.Propina))
	writeText(inf, "importeTotal", formatAmount(sale.ImporteTotal))
	writeText(inf, "moneda", pkgsri.MonedaDolar)
	return nil
}

func (s *XMLBuilderService) writeDetalles(parent *etree.Element, ctx *InvoiceBuildContext) error {
	detalles := parent.CreateElement("detalles")
	for _, item := range ctx.Items {
		base, valor, tarifa, err := domainsri.LineTax(item)
		if err != nil {
			return err
		}
		det := detalles.CreateElement("detalle")
		writeText(det, "codigoPrincipal", item.CodigoPrincipal)
		writeText(det, "descripcion", item.Descripcion)
		writeText(det, "cantidad", formatQuantity(item.Cantidad))
		writeText(det, "precioUnitario", formatAmount(item.PrecioUnitario))
		writeText(det, "descuento", formatAmount(item.Descuento))
		writeText(det, "precioTotalSinImpuesto", formatAmount(item.Subtotal))

		impuestos := det.CreateElement("impuestos")
		imp := impuestos.CreateElement("impuesto")
		writeText(imp, "codigo", item.CodigoImpuesto)
		writeText(imp, "codigoPorcentaje", item.CodigoPorcentaje)
		writeText(imp, "tarifa", tarifa.StringFixed(2))
		writeText(imp, "baseImponible", formatAmount(base))
		writeText(imp, "valor", formatAmount(valor))
	}
	return nil
}

// writeInfoAdicional añade campos adicionales del comprador si existen.
// El esquema limita los campos a 15; aquí nunca pasamos de 3.
func (s *XMLBuilderService) writeInfoAdicional(parent *etree.Element, ctx *InvoiceBuildContext) {
	if ctx.Client == nil {
		return
	}
	type campo struct{ nombre, valor string }
	campos := []campo{
		{"Direccion", ctx.Client.Direccion},
		{"Email", ctx.Client.Email},
		{"Telefono", ctx.Client.Telefono},
	}
	var present []campo
	for _, c := range campos {
		if c.valor != "" {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return
	}
	ia := parent.CreateElement("infoAdicional")
	for _, c := range present {
		e := ia.CreateElement("campoAdicional")
		e.CreateAttr("nombre", c.nombre)
		e.SetText(c.valor)
	}
}

// buyerIdentity resuelve los campos del comprador: cliente registrado o
// consumidor final cuando la venta no tiene cliente asociado.
func buyerIdentity(client *entity.Client) (tipoIdent, identificacion, razonSocial string) {
	if client == nil {
		return pkgsri.IdentificacionConsumidorFinal, pkgsri.ConsumidorFinalID, pkgsri.ConsumidorFinalRazonSocial
	}
	return client.TipoIdent, client.Identificacion, client.RazonSocial
}

func writeText(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func formatQuantity(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
