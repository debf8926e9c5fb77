package sri

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buildContext() *InvoiceBuildContext {
	fecha := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	return &InvoiceBuildContext{
		Taller: &entity.Taller{
			ID:              "taller-1",
			RUC:             "1790012352001",
			RazonSocial:     "Taller Mecánico El Piñón S.A.",
			NombreComercial: "El Piñón",
			DirMatriz:       "Av. 6 de Diciembre N34-120, Quito",
			Estab:           "001",
			PtoEmi:          "002",
			ObligadoContab:  true,
		},
		Client: &entity.Client{
			ID: "client-1", TallerID: "taller-1",
			TipoIdent: pkgsri.IdentificacionCedula, Identificacion: "1710034065",
			RazonSocial: "Juan Pérez", Email: "juan@example.com",
		},
		Sale: &entity.Sale{
			ID: "sale-1", TallerID: "taller-1",
			TotalSinImpuestos: dec("40.00"), TotalDescuento: decimal.Zero,
			TotalImpuestos: dec("6.00"), Propina: decimal.Zero, ImporteTotal: dec("46.00"),
		},
		Items: []*entity.SaleItem{
			{
				ID: "item-1", SaleID: "sale-1", CodigoPrincipal: "FLT-001",
				Descripcion: "Cambio de filtro de aceite",
				Cantidad:    dec("2"), PrecioUnitario: dec("10.00"),
				Descuento: decimal.Zero, Subtotal: dec("20.00"),
				CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: pkgsri.TarifaIVA15,
			},
			{
				ID: "item-2", SaleID: "sale-1", CodigoPrincipal: "MNT-002",
				Descripcion: "Alineación y balanceo",
				Cantidad:    dec("2"), PrecioUnitario: dec("10.00"),
				Descuento: decimal.Zero, Subtotal: dec("20.00"),
				CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: pkgsri.TarifaIVA15,
			},
		},
		Invoice: &entity.ElectronicInvoice{
			ID: "inv-1", TallerID: "taller-1", SaleID: "sale-1",
			CodDoc: pkgsri.CodDocFactura, Estab: "001", PtoEmi: "002",
			Secuencial:   123,
			ClaveAcceso:  "1508202601179001235200110010020000001231234567811",
			Ambiente:     pkgsri.AmbientePruebas,
			Estado:       entity.EstadoGenerada,
			FechaEmision: fecha,
		},
	}
}

func parseFactura(t *testing.T, xmlBytes []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xmlBytes))
	root := doc.Root()
	require.NotNil(t, root)
	return root
}

func TestBuildFacturaEstructura(t *testing.T) {
	builder := NewXMLBuilderService()
	out, err := builder.Build(buildContext())
	require.NoError(t, err)

	root := parseFactura(t, out)
	assert.Equal(t, "factura", root.Tag)
	assert.Equal(t, ComprobanteElementID, root.SelectAttrValue("id", ""))
	assert.Equal(t, "1.1.0", root.SelectAttrValue("version", ""))

	it := root.SelectElement("infoTributaria")
	require.NotNil(t, it)
	assert.Equal(t, "1", elementText(it, "ambiente"))
	assert.Equal(t, "1", elementText(it, "tipoEmision"))
	assert.Equal(t, "1790012352001", elementText(it, "ruc"))
	assert.Equal(t, "01", elementText(it, "codDoc"))
	assert.Equal(t, "001", elementText(it, "estab"))
	assert.Equal(t, "002", elementText(it, "ptoEmi"))
	assert.Equal(t, "000000123", elementText(it, "secuencial"))
	assert.Len(t, elementText(it, "claveAcceso"), 49)

	inf := root.SelectElement("infoFactura")
	require.NotNil(t, inf)
	assert.Equal(t, "15/08/2026", elementText(inf, "fechaEmision"))
	assert.Equal(t, "SI", elementText(inf, "obligadoContabilidad"))
	assert.Equal(t, "05", elementText(inf, "tipoIdentificacionComprador"))
	assert.Equal(t, "1710034065", elementText(inf, "identificacionComprador"))
	assert.Equal(t, "40.00", elementText(inf, "totalSinImpuestos"))
	assert.Equal(t, "46.00", elementText(inf, "importeTotal"))
	assert.Equal(t, "DOLAR", elementText(inf, "moneda"))

	tci := inf.SelectElement("totalConImpuestos")
	require.NotNil(t, tci)
	impuestos := tci.SelectElements("totalImpuesto")
	require.Len(t, impuestos, 1)
	assert.Equal(t, "2", elementText(impuestos[0], "codigo"))
	assert.Equal(t, pkgsri.TarifaIVA15, elementText(impuestos[0], "codigoPorcentaje"))
	assert.Equal(t, "40.00", elementText(impuestos[0], "baseImponible"))
	assert.Equal(t, "6.00", elementText(impuestos[0], "valor"))

	detalles := root.SelectElement("detalles")
	require.NotNil(t, detalles)
	lines := detalles.SelectElements("detalle")
	require.Len(t, lines, 2)
	assert.Equal(t, "FLT-001", elementText(lines[0], "codigoPrincipal"))
	assert.Equal(t, "2.00", elementText(lines[0], "cantidad"))
	assert.Equal(t, "10.00", elementText(lines[0], "precioUnitario"))
	assert.Equal(t, "20.00", elementText(lines[0], "precioTotalSinImpuesto"))
	lineTax := lines[0].SelectElement("impuestos").SelectElement("impuesto")
	require.NotNil(t, lineTax)
	assert.Equal(t, "15.00", elementText(lineTax, "tarifa"))
	assert.Equal(t, "3.00", elementText(lineTax, "valor"))
}

func TestBuildFacturaConsumidorFinal(t *testing.T) {
	ctx := buildContext()
	ctx.Client = nil

	out, err := NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	inf := parseFactura(t, out).SelectElement("infoFactura")
	require.NotNil(t, inf)
	assert.Equal(t, pkgsri.IdentificacionConsumidorFinal, elementText(inf, "tipoIdentificacionComprador"))
	assert.Equal(t, pkgsri.ConsumidorFinalID, elementText(inf, "identificacionComprador"))
	assert.Equal(t, pkgsri.ConsumidorFinalRazonSocial, elementText(inf, "razonSocialComprador"))
}

func TestBuildFacturaInfoAdicional(t *testing.T) {
	out, err := NewXMLBuilderService().Build(buildContext())
	require.NoError(t, err)

	ia := parseFactura(t, out).SelectElement("infoAdicional")
	require.NotNil(t, ia)
	campos := ia.SelectElements("campoAdicional")
	require.Len(t, campos, 1)
	assert.Equal(t, "Email", campos[0].SelectAttrValue("nombre", ""))
	assert.Equal(t, "juan@example.com", campos[0].Text())
}

func TestBuildFacturaEscapaCaracteresEspeciales(t *testing.T) {
	ctx := buildContext()
	ctx.Taller.RazonSocial = `Taller "El Piñón" & Asociados <Cía.>`
	ctx.Items[0].Descripcion = `Filtro <aceite> & "premium" 'orig.'`

	out, err := NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	raw := string(out)
	assert.Contains(t, raw, "&lt;aceite&gt;")
	assert.Contains(t, raw, "&amp;")
	assert.NotContains(t, raw, "<aceite>",
		"los caracteres especiales no deben serializarse sin escapar")
	assert.NotContains(t, raw, "<Cía.>")

	// El round-trip recupera los textos originales intactos.
	root := parseFactura(t, out)
	it := root.SelectElement("infoTributaria")
	require.NotNil(t, it)
	assert.Equal(t, ctx.Taller.RazonSocial, elementText(it, "razonSocial"))
	detalle := root.SelectElement("detalles").SelectElements("detalle")[0]
	assert.Equal(t, ctx.Items[0].Descripcion, elementText(detalle, "descripcion"))
}

func TestBuildFacturaContextoIncompleto(t *testing.T) {
	builder := NewXMLBuilderService()

	_, err := builder.Build(nil)
	assert.Error(t, err)

	ctx := buildContext()
	ctx.Items = nil
	_, err = builder.Build(ctx)
	assert.Error(t, err)
}

func elementText(parent *etree.Element, tag string) string {
	e := parent.SelectElement(tag)
	if e == nil {
		return ""
	}
	return e.Text()
}
