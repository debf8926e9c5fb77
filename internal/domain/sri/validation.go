// Validaciones de dominio para emisión de comprobantes SRI: coherencia de las
// líneas con los totales persistidos de la venta. Un descuadre se detecta aquí,
// antes de firmar, y no en la validación del SRI.

package sri

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jvillacis/tallerpro-api/internal/domain/entity"
	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// centEpsilon tolerancia de cuadre entre totales: un centavo.
var centEpsilon = decimal.New(1, -2)

// TaxSummary es el agregado de un impuesto por (codigo, codigoPorcentaje) a
// nivel de documento: suma de bases imponibles y de valores de las líneas.
type TaxSummary struct {
	Codigo           string
	CodigoPorcentaje string
	Tarifa           decimal.Decimal
	BaseImponible    decimal.Decimal
	Valor            decimal.Decimal
}

// LineTax calcula el impuesto de una línea: base = subtotal de la línea,
// valor = base * tarifa / 100 redondeado a 2 decimales (half-up).
func LineTax(item *entity.SaleItem) (base, valor, tarifa decimal.Decimal, err error) {
	rate, ok := pkgsri.IVARate(item.CodigoPorcentaje)
	if !ok {
		return decimal.Zero, decimal.Zero, decimal.Zero,
			fmt.Errorf("sri: codigoPorcentaje desconocido %q en la línea %s", item.CodigoPorcentaje, item.ID)
	}
	base = item.Subtotal.Round(2)
	valor = base.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	return base, valor, rate, nil
}

// SummarizeTaxes agrega los impuestos de todas las líneas por
// (codigo, codigoPorcentaje), en orden determinista.
func SummarizeTaxes(items []*entity.SaleItem) ([]TaxSummary, error) {
	byKey := make(map[string]*TaxSummary)
	for _, it := range items {
		base, valor, tarifa, err := LineTax(it)
		if err != nil {
			return nil, err
		}
		key := it.CodigoImpuesto + "|" + it.CodigoPorcentaje
		s, ok := byKey[key]
		if !ok {
			s = &TaxSummary{
				Codigo:           it.CodigoImpuesto,
				CodigoPorcentaje: it.CodigoPorcentaje,
				Tarifa:           tarifa,
			}
			byKey[key] = s
		}
		s.BaseImponible = s.BaseImponible.Add(base)
		s.Valor = s.Valor.Add(valor)
	}
	out := make([]TaxSummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Codigo != out[j].Codigo {
			return out[i].Codigo < out[j].Codigo
		}
		return out[i].CodigoPorcentaje < out[j].CodigoPorcentaje
	})
	return out, nil
}

// ValidateSale valida emisor, comprador y líneas de la venta antes de emitir.
// Reglas: RUC del emisor válido, al menos una línea, cantidades positivas,
// subtotales de línea coherentes (cantidad*precio - descuento), agregados de
// impuestos iguales a los totales de la venta y cuadre final
// totalSinImpuestos + totalImpuestos - 0 == importeTotal - propina (± 1 centavo).
func ValidateSale(taller *entity.Taller, client *entity.Client, sale *entity.Sale, items []*entity.SaleItem) error {
	var issues []string

	if taller == nil {
		return &ValidationError{Issues: []string{"taller emisor nulo"}}
	}
	if sale == nil {
		return &ValidationError{Issues: []string{"venta nula"}}
	}
	if err := pkgsri.ValidateRUC(taller.RUC); err != nil {
		issues = append(issues, fmt.Sprintf("RUC del emisor: %v", err))
	}
	if client != nil && !pkgsri.ValidIdentificationTypes[client.TipoIdent] {
		issues = append(issues, fmt.Sprintf("tipo de identificación del comprador desconocido: %q", client.TipoIdent))
	}

	if len(items) == 0 {
		issues = append(issues, "la venta debe tener al menos una línea")
		return &ValidationError{Issues: issues}
	}

	var sumSubtotal, sumDescuento decimal.Decimal
	for _, it := range items {
		if !it.Cantidad.IsPositive() {
			issues = append(issues, fmt.Sprintf("línea %s: cantidad debe ser positiva", it.ID))
		}
		if it.PrecioUnitario.IsNegative() || it.Descuento.IsNegative() {
			issues = append(issues, fmt.Sprintf("línea %s: precio y descuento no pueden ser negativos", it.ID))
		}
		expected := it.Cantidad.Mul(it.PrecioUnitario).Sub(it.Descuento).Round(2)
		if !it.Subtotal.Round(2).Equal(expected) {
			issues = append(issues, fmt.Sprintf("línea %s: subtotal %s no coincide con cantidad*precio - descuento (%s)",
				it.ID, it.Subtotal.Round(2), expected))
		}
		sumSubtotal = sumSubtotal.Add(it.Subtotal.Round(2))
		sumDescuento = sumDescuento.Add(it.Descuento.Round(2))
	}

	summaries, err := SummarizeTaxes(items)
	if err != nil {
		issues = append(issues, err.Error())
		return &ValidationError{Issues: issues}
	}
	var sumTax decimal.Decimal
	for _, s := range summaries {
		sumTax = sumTax.Add(s.Valor)
	}

	if !withinCent(sale.TotalSinImpuestos, sumSubtotal) {
		issues = append(issues, fmt.Sprintf("totalSinImpuestos %s no coincide con la suma de subtotales de línea %s",
			sale.TotalSinImpuestos.Round(2), sumSubtotal))
	}
	if !withinCent(sale.TotalDescuento, sumDescuento) {
		issues = append(issues, fmt.Sprintf("totalDescuento %s no coincide con la suma de descuentos de línea %s",
			sale.TotalDescuento.Round(2), sumDescuento))
	}
	if !withinCent(sale.TotalImpuestos, sumTax) {
		issues = append(issues, fmt.Sprintf("totalImpuestos %s no coincide con la suma de impuestos por línea %s",
			sale.TotalImpuestos.Round(2), sumTax))
	}
	expectedTotal := sumSubtotal.Add(sumTax).Add(sale.Propina)
	if !withinCent(sale.ImporteTotal, expectedTotal) {
		issues = append(issues, fmt.Sprintf("importeTotal %s no coincide con subtotal + impuestos + propina (%s)",
			sale.ImporteTotal.Round(2), expectedTotal))
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func withinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(centEpsilon)
}
