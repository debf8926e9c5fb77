package sri

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTaller() *entity.Taller {
	return &entity.Taller{
		ID:          "taller-1",
		RUC:         "1790012352001",
		RazonSocial: "Taller Mecánico El Piñón S.A.",
		DirMatriz:   "Av. 6 de Diciembre N34-120, Quito",
		Estab:       "001",
		PtoEmi:      "001",
	}
}

// Dos líneas de cantidad 2 a $10.00 con IVA 15%: base 40.00, IVA 6.00, total 46.00.
func testSaleWithItems() (*entity.Sale, []*entity.SaleItem) {
	sale := &entity.Sale{
		ID:                "sale-1",
		TallerID:          "taller-1",
		TotalSinImpuestos: dec("40.00"),
		TotalDescuento:    decimal.Zero,
		TotalImpuestos:    dec("6.00"),
		Propina:           decimal.Zero,
		ImporteTotal:      dec("46.00"),
	}
	items := []*entity.SaleItem{
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
	}
	return sale, items
}

func TestValidateSaleOK(t *testing.T) {
	sale, items := testSaleWithItems()
	err := ValidateSale(testTaller(), nil, sale, items)
	assert.NoError(t, err)
}

func TestValidateSaleTotalsMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.Sale, []*entity.SaleItem)
	}{
		{"totalSinImpuestos descuadrado", func(s *entity.Sale, _ []*entity.SaleItem) {
			s.TotalSinImpuestos = dec("41.00")
		}},
		{"totalImpuestos descuadrado", func(s *entity.Sale, _ []*entity.SaleItem) {
			s.TotalImpuestos = dec("6.50")
		}},
		{"importeTotal descuadrado", func(s *entity.Sale, _ []*entity.SaleItem) {
			s.ImporteTotal = dec("47.00")
		}},
		{"subtotal de línea incoherente", func(_ *entity.Sale, items []*entity.SaleItem) {
			items[0].Subtotal = dec("19.00")
		}},
		{"cantidad cero", func(_ *entity.Sale, items []*entity.SaleItem) {
			items[0].Cantidad = decimal.Zero
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale, items := testSaleWithItems()
			tt.mutate(sale, items)
			err := ValidateSale(testTaller(), nil, sale, items)
			require.Error(t, err)

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.NotEmpty(t, valErr.Issues)
		})
	}
}

func TestValidateSaleToleratesOneCent(t *testing.T) {
	// Un descuadre de exactamente un centavo por redondeo no bloquea la emisión.
	sale, items := testSaleWithItems()
	sale.TotalImpuestos = dec("6.01")
	sale.ImporteTotal = dec("46.01")
	assert.NoError(t, ValidateSale(testTaller(), nil, sale, items))
}

func TestValidateSaleWithPropina(t *testing.T) {
	sale, items := testSaleWithItems()
	sale.Propina = dec("2.00")
	sale.ImporteTotal = dec("48.00")
	assert.NoError(t, ValidateSale(testTaller(), nil, sale, items))
}

func TestValidateSaleEmisorInvalido(t *testing.T) {
	sale, items := testSaleWithItems()
	taller := testTaller()
	taller.RUC = "1790012353001" // dígito verificador incorrecto

	err := ValidateSale(taller, nil, sale, items)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Issues[0], "RUC del emisor")
}

func TestValidateSaleSinLineas(t *testing.T) {
	sale, _ := testSaleWithItems()
	err := ValidateSale(testTaller(), nil, sale, nil)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
}

func TestValidateSaleCompradorTipoIdentInvalido(t *testing.T) {
	sale, items := testSaleWithItems()
	client := &entity.Client{
		ID: "client-1", TallerID: "taller-1",
		TipoIdent: "99", Identificacion: "1710034065", RazonSocial: "Juan Pérez",
	}
	err := ValidateSale(testTaller(), client, sale, items)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
}

func TestSummarizeTaxes(t *testing.T) {
	items := []*entity.SaleItem{
		{ID: "a", Cantidad: dec("1"), PrecioUnitario: dec("100.00"), Subtotal: dec("100.00"),
			CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: pkgsri.TarifaIVA15},
		{ID: "b", Cantidad: dec("1"), PrecioUnitario: dec("50.00"), Subtotal: dec("50.00"),
			CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: pkgsri.TarifaIVA15},
		{ID: "c", Cantidad: dec("1"), PrecioUnitario: dec("30.00"), Subtotal: dec("30.00"),
			CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: pkgsri.TarifaIVA0},
	}

	summaries, err := SummarizeTaxes(items)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Orden determinista por (codigo, codigoPorcentaje).
	assert.Equal(t, pkgsri.TarifaIVA0, summaries[0].CodigoPorcentaje)
	assert.True(t, summaries[0].BaseImponible.Equal(dec("30.00")))
	assert.True(t, summaries[0].Valor.IsZero())

	assert.Equal(t, pkgsri.TarifaIVA15, summaries[1].CodigoPorcentaje)
	assert.True(t, summaries[1].BaseImponible.Equal(dec("150.00")))
	assert.True(t, summaries[1].Valor.Equal(dec("22.50")))
}

func TestSummarizeTaxesCodigoDesconocido(t *testing.T) {
	items := []*entity.SaleItem{
		{ID: "a", Subtotal: dec("10.00"), CodigoImpuesto: pkgsri.TaxCodeIVA, CodigoPorcentaje: "X"},
	}
	_, err := SummarizeTaxes(items)
	assert.Error(t, err)
}
